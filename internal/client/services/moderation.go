package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dmitrijs2005/glytch/internal/client/client"
	"github.com/dmitrijs2005/glytch/internal/client/models"
	"github.com/dmitrijs2005/glytch/internal/client/schemacompat"
	"github.com/dmitrijs2005/glytch/internal/logging"
)

const (
	msgBotSettingsMigration = "Glytch bot moderation settings are unavailable until the latest database migrations are applied."
	msgUnbanMigration       = "Unban request system unavailable until the latest database migrations are applied."
	msgBanMigration         = "Ban system unavailable until the latest database migrations are applied."
	msgKickMigration        = "Kick member system unavailable until the latest database migrations are applied."
	msgLeaveMigration       = "Leave Glytch is unavailable until the latest database migrations are applied."
)

// ModerationService covers the moderation bot, bans, unban requests, kicks
// and leaving a Glytch.
//
// Contract:
//   - All features here arrived with the channel settings migration. Reads
//     return defaults or empty lists on older backends, writes fail with a
//     *schemacompat.MigrationError.
//   - Bot settings are always complete: fields the backend omits or sends
//     with the wrong type keep their default values.
type ModerationService interface {
	GetGlytchBotSettings(ctx context.Context, accessToken string, glytchID int64) (models.GlytchBotSettings, error)
	UpdateGlytchBotSettings(ctx context.Context, accessToken string, glytchID int64, update models.BotSettingsUpdate) (models.GlytchBotSettings, error)

	ListGlytchBans(ctx context.Context, accessToken string, glytchID int64) ([]models.GlytchBan, error)
	// ListGlytchUnbanRequests filters by status; an empty status lists all.
	ListGlytchUnbanRequests(ctx context.Context, accessToken string, glytchID int64, status models.UnbanRequestStatus) ([]models.GlytchUnbanRequest, error)
	SubmitGlytchUnbanRequest(ctx context.Context, accessToken string, glytchID int64, message string) (*models.GlytchUnbanRequest, error)
	ReviewGlytchUnbanRequest(ctx context.Context, accessToken string, requestID int64, status models.UnbanRequestStatus, reviewNote string) (*models.GlytchUnbanRequest, error)

	BanGlytchUser(ctx context.Context, accessToken string, glytchID int64, userID, reason string) (*models.GlytchBan, error)
	UnbanGlytchUser(ctx context.Context, accessToken string, glytchID int64, userID string) (bool, error)
	KickGlytchMember(ctx context.Context, accessToken string, glytchID int64, userID string) (bool, error)
	LeaveGlytch(ctx context.Context, accessToken string, glytchID int64) (bool, error)
}

type moderationService struct {
	base
}

func NewModerationService(c client.Client, log logging.Logger) ModerationService {
	return &moderationService{base: newBase(c, log)}
}

func (s *moderationService) GetGlytchBotSettings(ctx context.Context, accessToken string, glytchID int64) (models.GlytchBotSettings, error) {
	return compat(ctx, s.base, "GetGlytchBotSettings", func(ctx context.Context) (models.GlytchBotSettings, error) {
		var raw json.RawMessage
		err := client.RPC(ctx, s.client, accessToken, "get_glytch_bot_settings", map[string]any{"p_glytch_id": glytchID}, &raw)
		if err != nil {
			return models.GlytchBotSettings{}, err
		}
		return decodeBotSettings(raw, glytchID)
	}, schemacompat.MissingChannelSettings, schemacompat.Default(models.DefaultBotSettings(glytchID)))
}

func (s *moderationService) UpdateGlytchBotSettings(ctx context.Context, accessToken string, glytchID int64, update models.BotSettingsUpdate) (models.GlytchBotSettings, error) {
	var blocked any
	if update.BlockedWords != nil {
		blocked = update.BlockedWords
	}
	var webhook any
	if v, ok := update.ThirdPartyBotWebhookURL.Get(); ok {
		webhook = v
	}
	params := map[string]any{
		"p_glytch_id":                         glytchID,
		"p_enabled":                           update.Enabled,
		"p_block_external_links":              update.BlockExternalLinks,
		"p_block_invite_links":                update.BlockInviteLinks,
		"p_block_blocked_words":               update.BlockBlockedWords,
		"p_blocked_words":                     blocked,
		"p_dm_on_kick_or_ban":                 update.DmOnKickOrBan,
		"p_dm_on_message_block":               update.DmOnMessageBlock,
		"p_third_party_bots_enabled":          update.ThirdPartyBotsEnabled,
		"p_third_party_bot_webhook_url":       webhook,
		"p_apply_third_party_bot_webhook_url": update.ThirdPartyBotWebhookURL.IsSet(),
	}
	return compat(ctx, s.base, "UpdateGlytchBotSettings", func(ctx context.Context) (models.GlytchBotSettings, error) {
		var raw json.RawMessage
		if err := client.RPC(ctx, s.client, accessToken, "set_glytch_bot_settings", params, &raw); err != nil {
			return models.GlytchBotSettings{}, err
		}
		return decodeBotSettings(raw, glytchID)
	}, schemacompat.MissingChannelSettings, schemacompat.RequireMigration[models.GlytchBotSettings](msgBotSettingsMigration))
}

// decodeBotSettings treats an empty or null reply as "nothing stored yet".
func decodeBotSettings(raw json.RawMessage, glytchID int64) (models.GlytchBotSettings, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return models.DefaultBotSettings(glytchID), nil
	}
	return models.DecodeBotSettings(raw, glytchID)
}

func (s *moderationService) ListGlytchBans(ctx context.Context, accessToken string, glytchID int64) ([]models.GlytchBan, error) {
	return compat(ctx, s.base, "ListGlytchBans", func(ctx context.Context) ([]models.GlytchBan, error) {
		var rows []models.GlytchBan
		q := query(
			"select", "glytch_id,user_id,banned_by,reason,banned_at",
			"glytch_id", eq(glytchID),
			"order", "banned_at.desc",
		)
		err := client.Select(ctx, s.client, accessToken, "glytch_bans", q, &rows)
		return rows, err
	}, schemacompat.MissingChannelSettings, schemacompat.Default([]models.GlytchBan{}))
}

func (s *moderationService) ListGlytchUnbanRequests(ctx context.Context, accessToken string, glytchID int64, status models.UnbanRequestStatus) ([]models.GlytchUnbanRequest, error) {
	return compat(ctx, s.base, "ListGlytchUnbanRequests", func(ctx context.Context) ([]models.GlytchUnbanRequest, error) {
		var rows []models.GlytchUnbanRequest
		q := query(
			"select", "id,glytch_id,user_id,status,message,requested_at,reviewed_by,reviewed_at,review_note",
			"glytch_id", eq(glytchID),
			"order", "requested_at.desc",
		)
		if status != "" {
			q.Set("status", eq(string(status)))
		}
		err := client.Select(ctx, s.client, accessToken, "glytch_unban_requests", q, &rows)
		return rows, err
	}, schemacompat.MissingChannelSettings, schemacompat.Default([]models.GlytchUnbanRequest{}))
}

func (s *moderationService) SubmitGlytchUnbanRequest(ctx context.Context, accessToken string, glytchID int64, message string) (*models.GlytchUnbanRequest, error) {
	params := map[string]any{"p_glytch_id": glytchID, "p_message": nullable(message)}
	return compat(ctx, s.base, "SubmitGlytchUnbanRequest",
		rpcRow[models.GlytchUnbanRequest](s.base, accessToken, "submit_glytch_unban_request", params),
		schemacompat.MissingChannelSettings, schemacompat.RequireMigration[*models.GlytchUnbanRequest](msgUnbanMigration))
}

// ReviewGlytchUnbanRequest accepts only approved or rejected.
func (s *moderationService) ReviewGlytchUnbanRequest(ctx context.Context, accessToken string, requestID int64, status models.UnbanRequestStatus, reviewNote string) (*models.GlytchUnbanRequest, error) {
	if status != models.UnbanApproved && status != models.UnbanRejected {
		return nil, invalidArg("unban review status %q", status)
	}
	params := map[string]any{
		"p_request_id":  requestID,
		"p_status":      status,
		"p_review_note": nullable(reviewNote),
	}
	return compat(ctx, s.base, "ReviewGlytchUnbanRequest",
		rpcRow[models.GlytchUnbanRequest](s.base, accessToken, "review_glytch_unban_request", params),
		schemacompat.MissingChannelSettings, schemacompat.RequireMigration[*models.GlytchUnbanRequest](msgUnbanMigration))
}

func (s *moderationService) BanGlytchUser(ctx context.Context, accessToken string, glytchID int64, userID, reason string) (*models.GlytchBan, error) {
	params := map[string]any{"p_glytch_id": glytchID, "p_user_id": userID, "p_reason": nullable(reason)}
	return compat(ctx, s.base, "BanGlytchUser",
		rpcRow[models.GlytchBan](s.base, accessToken, "ban_user_from_glytch", params),
		schemacompat.MissingChannelSettings, schemacompat.RequireMigration[*models.GlytchBan](msgBanMigration))
}

func (s *moderationService) UnbanGlytchUser(ctx context.Context, accessToken string, glytchID int64, userID string) (bool, error) {
	params := map[string]any{"p_glytch_id": glytchID, "p_user_id": userID}
	return s.boolRPC(ctx, accessToken, "unban_user_from_glytch", params, msgBanMigration)
}

func (s *moderationService) KickGlytchMember(ctx context.Context, accessToken string, glytchID int64, userID string) (bool, error) {
	params := map[string]any{"p_glytch_id": glytchID, "p_user_id": userID}
	return s.boolRPC(ctx, accessToken, "kick_member_from_glytch", params, msgKickMigration)
}

func (s *moderationService) LeaveGlytch(ctx context.Context, accessToken string, glytchID int64) (bool, error) {
	return s.boolRPC(ctx, accessToken, "leave_glytch", map[string]any{"p_glytch_id": glytchID}, msgLeaveMigration)
}

func (s *moderationService) boolRPC(ctx context.Context, accessToken, name string, params map[string]any, migration string) (bool, error) {
	return compat(ctx, s.base, name, func(ctx context.Context) (bool, error) {
		var ok bool
		err := client.RPC(ctx, s.client, accessToken, name, params, &ok)
		return ok, err
	}, schemacompat.MissingChannelSettings, schemacompat.RequireMigration[bool](migration))
}

// rpcRow calls a function returning a single row of T.
func rpcRow[T any](b base, accessToken, name string, params any) func(ctx context.Context) (*T, error) {
	return func(ctx context.Context) (*T, error) {
		var row T
		if err := client.RPC(ctx, b.client, accessToken, name, params, &row); err != nil {
			return nil, err
		}
		return &row, nil
	}
}
