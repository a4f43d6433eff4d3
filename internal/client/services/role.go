package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/glytch/internal/client/client"
	"github.com/dmitrijs2005/glytch/internal/client/models"
	"github.com/dmitrijs2005/glytch/internal/common"
)

// ChannelPermission is the per-channel override of a role.
type ChannelPermission struct {
	CanView         bool
	CanSendMessages bool
	CanJoinVoice    bool
}

// RoleService manages roles, role assignment and channel overrides.
//
// Contract:
//   - Roles are listed highest priority first.
//   - System roles cannot be deleted; DeleteGlytchRole on one removes nothing.
type RoleService interface {
	ListGlytchRoles(ctx context.Context, accessToken string, glytchID int64) ([]models.GlytchRole, error)
	CreateGlytchRole(ctx context.Context, accessToken string, glytchID int64, name, color string) (*models.GlytchRole, error)
	UpdateGlytchRolePermissions(ctx context.Context, accessToken string, roleID int64, permissions map[string]bool) ([]models.GlytchRole, error)
	UpdateGlytchRolePriority(ctx context.Context, accessToken string, roleID int64, priority int) ([]models.GlytchRole, error)
	DeleteGlytchRole(ctx context.Context, accessToken string, roleID int64) ([]models.GlytchRole, error)
	AssignGlytchRole(ctx context.Context, accessToken string, glytchID int64, userID string, roleID int64) error

	ListGlytchMembers(ctx context.Context, accessToken string, glytchID int64) ([]models.GlytchMember, error)
	ListGlytchMemberRoles(ctx context.Context, accessToken string, glytchID int64) ([]models.GlytchMemberRole, error)

	ListGlytchChannelRolePermissions(ctx context.Context, accessToken string, glytchID int64) ([]models.GlytchChannelRolePermission, error)
	SetRoleChannelPermissions(ctx context.Context, accessToken string, roleID, channelID int64, perm ChannelPermission) error
}

type roleService struct {
	base
}

func (s roleService) ListGlytchRoles(ctx context.Context, accessToken string, glytchID int64) ([]models.GlytchRole, error) {
	var rows []models.GlytchRole
	q := query(
		"select", "id,glytch_id,name,color,priority,is_system,is_default,permissions,created_at",
		"glytch_id", eq(glytchID),
		"order", "priority.desc,id.asc",
	)
	err := client.Select(ctx, s.client, accessToken, "glytch_roles", q, &rows)
	return rows, err
}

// CreateGlytchRole creates a role with the default permission set. An empty
// color selects models.DefaultRoleColor.
func (s roleService) CreateGlytchRole(ctx context.Context, accessToken string, glytchID int64, name, color string) (*models.GlytchRole, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidArg("role name is required")
	}
	if color = strings.TrimSpace(color); color == "" {
		color = models.DefaultRoleColor
	}
	params := map[string]any{
		"p_glytch_id":   glytchID,
		"p_name":        name,
		"p_color":       color,
		"p_permissions": models.DefaultRolePermissions(),
	}
	var role models.GlytchRole
	if err := client.RPC(ctx, s.client, accessToken, "create_glytch_role", params, &role); err != nil {
		return nil, err
	}
	if role.ID <= 0 {
		return nil, fmt.Errorf("%w: role was created but no id was returned", common.ErrUnexpectedResponse)
	}
	return &role, nil
}

func (s roleService) UpdateGlytchRolePermissions(ctx context.Context, accessToken string, roleID int64, permissions map[string]bool) ([]models.GlytchRole, error) {
	var rows []models.GlytchRole
	err := client.Update(ctx, s.client, accessToken, "glytch_roles", query("id", eq(roleID)),
		map[string]any{"permissions": permissions}, &rows)
	return rows, err
}

func (s roleService) UpdateGlytchRolePriority(ctx context.Context, accessToken string, roleID int64, priority int) ([]models.GlytchRole, error) {
	var rows []models.GlytchRole
	err := client.Update(ctx, s.client, accessToken, "glytch_roles", query("id", eq(roleID)),
		map[string]any{"priority": priority}, &rows)
	return rows, err
}

func (s roleService) DeleteGlytchRole(ctx context.Context, accessToken string, roleID int64) ([]models.GlytchRole, error) {
	var rows []models.GlytchRole
	q := query("id", eq(roleID), "is_system", eq(false))
	err := client.Delete(ctx, s.client, accessToken, "glytch_roles", q, common.PreferRepresentation, &rows)
	return rows, err
}

func (s roleService) AssignGlytchRole(ctx context.Context, accessToken string, glytchID int64, userID string, roleID int64) error {
	params := map[string]any{"p_glytch_id": glytchID, "p_user_id": userID, "p_role_id": roleID}
	return client.RPC(ctx, s.client, accessToken, "assign_glytch_role", params, nil)
}

func (s roleService) ListGlytchMembers(ctx context.Context, accessToken string, glytchID int64) ([]models.GlytchMember, error) {
	var rows []models.GlytchMember
	q := query("select", "glytch_id,user_id,role,joined_at", "glytch_id", eq(glytchID), "order", "joined_at.asc")
	err := client.Select(ctx, s.client, accessToken, "glytch_members", q, &rows)
	return rows, err
}

func (s roleService) ListGlytchMemberRoles(ctx context.Context, accessToken string, glytchID int64) ([]models.GlytchMemberRole, error) {
	var rows []models.GlytchMemberRole
	q := query("select", "glytch_id,user_id,role_id,assigned_at", "glytch_id", eq(glytchID))
	err := client.Select(ctx, s.client, accessToken, "glytch_member_roles", q, &rows)
	return rows, err
}

func (s roleService) ListGlytchChannelRolePermissions(ctx context.Context, accessToken string, glytchID int64) ([]models.GlytchChannelRolePermission, error) {
	var rows []models.GlytchChannelRolePermission
	q := query(
		"select", "glytch_id,role_id,channel_id,can_view,can_send_messages,can_join_voice,updated_at",
		"glytch_id", eq(glytchID),
	)
	err := client.Select(ctx, s.client, accessToken, "glytch_channel_role_permissions", q, &rows)
	return rows, err
}

func (s roleService) SetRoleChannelPermissions(ctx context.Context, accessToken string, roleID, channelID int64, perm ChannelPermission) error {
	params := map[string]any{
		"p_role_id":           roleID,
		"p_channel_id":        channelID,
		"p_can_view":          perm.CanView,
		"p_can_send_messages": perm.CanSendMessages,
		"p_can_join_voice":    perm.CanJoinVoice,
	}
	return client.RPC(ctx, s.client, accessToken, "set_role_channel_permissions", params, nil)
}
