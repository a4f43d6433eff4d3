package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/glytch/internal/client/client"
	"github.com/dmitrijs2005/glytch/internal/client/models"
	"github.com/dmitrijs2005/glytch/internal/client/schemacompat"
	"github.com/dmitrijs2005/glytch/internal/logging"
)

const (
	defaultDirectoryLimit = 30
	maxDirectoryLimit     = 80

	msgDirectorySearchMigration = "Public Glytch discovery requires the latest database migration."
	msgDirectoryJoinMigration   = "Public Glytch joining requires the latest database migration."
)

// GlytchService covers Glytches (community servers) and their structure:
// channels, categories, roles, members and channel permissions. Messages
// live in GlytchMessageService.
//
// Contract:
//   - Joins fail with *BannedError (errors.Is common.ErrBanned) when the
//     caller is banned; GlytchID is filled when the backend names it.
//   - Against backends without the public directory, CreateGlytch,
//     ListGlytches and SetGlytchProfile fall back to the older calls and
//     report the Glytch as private and uncapped; search and public join fail
//     with *schemacompat.MigrationError.
type GlytchService interface {
	CreateGlytch(ctx context.Context, accessToken, name string, opts models.GlytchOptions) (*models.CreatedGlytch, error)
	JoinGlytchByCode(ctx context.Context, accessToken, inviteCode string) (*models.JoinedGlytch, error)
	JoinPublicGlytch(ctx context.Context, accessToken string, glytchID int64) (*models.JoinedGlytch, error)
	ListGlytches(ctx context.Context, accessToken string) ([]models.Glytch, error)
	SearchPublicGlytches(ctx context.Context, accessToken, search string, limit int) ([]models.PublicGlytch, error)
	SetGlytchProfile(ctx context.Context, accessToken string, glytchID int64, name string, bio *string, opts models.GlytchOptions) (*models.Glytch, error)
	DeleteGlytch(ctx context.Context, accessToken string, glytchID int64, confirmationName string) (*models.DeletedGlytch, error)
	SetGlytchIcon(ctx context.Context, accessToken string, glytchID int64, iconURL string) (*models.Glytch, error)

	ChannelService
	RoleService
}

type glytchService struct {
	base
	channelService
	roleService
}

func NewGlytchService(c client.Client, log logging.Logger) GlytchService {
	b := newBase(c, log)
	return &glytchService{
		base:           b,
		channelService: channelService{base: b},
		roleService:    roleService{base: b},
	}
}

func maxMembersParam(o models.Optional[int]) any {
	if v, ok := o.Get(); ok {
		return v
	}
	return nil
}

func (s *glytchService) CreateGlytch(ctx context.Context, accessToken, name string, opts models.GlytchOptions) (*models.CreatedGlytch, error) {
	call := func(params map[string]any) func(ctx context.Context) (*models.CreatedGlytch, error) {
		return func(ctx context.Context) (*models.CreatedGlytch, error) {
			var res models.CreatedGlytch
			if err := client.RPC(ctx, s.client, accessToken, "create_glytch", params, &res); err != nil {
				return nil, err
			}
			return &res, nil
		}
	}
	full := map[string]any{
		"p_name":        name,
		"p_is_public":   opts.IsPublic != nil && *opts.IsPublic,
		"p_max_members": maxMembersParam(opts.MaxMembers),
	}
	return compat(ctx, s.base, "CreateGlytch", call(full), schemacompat.MissingGlytchDirectory,
		schemacompat.Legacy(call(map[string]any{"p_name": name})))
}

func (s *glytchService) JoinGlytchByCode(ctx context.Context, accessToken, inviteCode string) (*models.JoinedGlytch, error) {
	var res models.JoinedGlytch
	params := map[string]any{"p_invite_code": strings.ToLower(strings.TrimSpace(inviteCode))}
	if err := client.RPC(ctx, s.client, accessToken, "join_glytch_by_code", params, &res); err != nil {
		return nil, asBanned(err)
	}
	return &res, nil
}

// JoinPublicGlytch reports a ban before considering schema support.
func (s *glytchService) JoinPublicGlytch(ctx context.Context, accessToken string, glytchID int64) (*models.JoinedGlytch, error) {
	var res models.JoinedGlytch
	err := client.RPC(ctx, s.client, accessToken, "join_public_glytch", map[string]any{"p_glytch_id": glytchID}, &res)
	if err == nil {
		return &res, nil
	}
	if banned := asBanned(err); banned != err {
		return nil, banned
	}
	if schemacompat.Matches(err, schemacompat.MissingGlytchDirectory) {
		return nil, &schemacompat.MigrationError{Message: msgDirectoryJoinMigration, Cause: err}
	}
	return nil, err
}

func (s *glytchService) ListGlytches(ctx context.Context, accessToken string) ([]models.Glytch, error) {
	list := func(columns string) func(ctx context.Context) ([]models.Glytch, error) {
		return func(ctx context.Context) ([]models.Glytch, error) {
			var rows []models.Glytch
			q := query("select", columns, "order", "created_at.asc")
			err := client.Select(ctx, s.client, accessToken, "glytches", q, &rows)
			return rows, err
		}
	}
	legacy := list("id,owner_id,name,invite_code,bio,icon_url,created_at")
	return compat(ctx, s.base, "ListGlytches",
		list("id,owner_id,name,invite_code,bio,icon_url,is_public,max_members,created_at"),
		schemacompat.MissingGlytchDirectory,
		schemacompat.Legacy(func(ctx context.Context) ([]models.Glytch, error) {
			rows, err := legacy(ctx)
			if err != nil {
				return nil, err
			}
			for i := range rows {
				markLegacy(&rows[i])
				rows[i].MemberCount = nil
				rows[i].IsJoined = ptrTo(true)
			}
			return rows, nil
		}))
}

// markLegacy sets the directory fields an older backend cannot report.
func markLegacy(g *models.Glytch) {
	g.IsPublic = ptrTo(false)
	g.MaxMembers = nil
}

func ptrTo[T any](v T) *T { return &v }

func (s *glytchService) SearchPublicGlytches(ctx context.Context, accessToken, search string, limit int) ([]models.PublicGlytch, error) {
	if limit <= 0 {
		limit = defaultDirectoryLimit
	}
	params := map[string]any{
		"p_query": nullable(strings.TrimSpace(search)),
		"p_limit": clamp(limit, 1, maxDirectoryLimit),
	}
	return compat(ctx, s.base, "SearchPublicGlytches", func(ctx context.Context) ([]models.PublicGlytch, error) {
		var rows []models.PublicGlytch
		err := client.RPC(ctx, s.client, accessToken, "search_public_glytches", params, &rows)
		return rows, err
	}, schemacompat.MissingGlytchDirectory, schemacompat.RequireMigration[[]models.PublicGlytch](msgDirectorySearchMigration))
}

// SetGlytchProfile updates name and bio. Visibility is sent only when
// opts.IsPublic is set and the member cap only when opts.MaxMembers is set
// (Null removes the cap).
func (s *glytchService) SetGlytchProfile(ctx context.Context, accessToken string, glytchID int64, name string, bio *string, opts models.GlytchOptions) (*models.Glytch, error) {
	call := func(params map[string]any) func(ctx context.Context) (*models.Glytch, error) {
		return func(ctx context.Context) (*models.Glytch, error) {
			var row models.Glytch
			if err := client.RPC(ctx, s.client, accessToken, "set_glytch_profile", params, &row); err != nil {
				return nil, err
			}
			return &row, nil
		}
	}
	basic := func() map[string]any {
		return map[string]any{"p_glytch_id": glytchID, "p_name": name, "p_bio": bio}
	}

	full := basic()
	if opts.IsPublic != nil {
		full["p_is_public"] = *opts.IsPublic
	}
	if opts.MaxMembers.IsSet() {
		full["p_max_members"] = maxMembersParam(opts.MaxMembers)
		full["p_apply_max_members"] = true
	}

	legacy := call(basic())
	return compat(ctx, s.base, "SetGlytchProfile", call(full), schemacompat.MissingGlytchDirectory,
		schemacompat.Legacy(func(ctx context.Context) (*models.Glytch, error) {
			g, err := legacy(ctx)
			if err != nil {
				return nil, err
			}
			markLegacy(g)
			return g, nil
		}))
}

// DeleteGlytch requires the Glytch name as typed confirmation.
func (s *glytchService) DeleteGlytch(ctx context.Context, accessToken string, glytchID int64, confirmationName string) (*models.DeletedGlytch, error) {
	var res models.DeletedGlytch
	params := map[string]any{"p_glytch_id": glytchID, "p_confirmation_name": confirmationName}
	if err := client.RPC(ctx, s.client, accessToken, "delete_glytch", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SetGlytchIcon sets or, with an empty URL, clears the icon.
func (s *glytchService) SetGlytchIcon(ctx context.Context, accessToken string, glytchID int64, iconURL string) (*models.Glytch, error) {
	var row models.Glytch
	params := map[string]any{"p_glytch_id": glytchID, "p_icon_url": nullable(iconURL)}
	if err := client.RPC(ctx, s.client, accessToken, "set_glytch_icon", params, &row); err != nil {
		return nil, err
	}
	return &row, nil
}
