package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/glytch/internal/client/client"
	"github.com/dmitrijs2005/glytch/internal/client/models"
	"github.com/dmitrijs2005/glytch/internal/client/schemacompat"
	"github.com/dmitrijs2005/glytch/internal/common"
)

const (
	msgChannelSettingsMigration = "Channel settings are unavailable until the latest database migrations are applied."
	msgChannelThemeMigration    = "Channel background themes are unavailable until the latest database migrations are applied."

	channelColumns       = "id,glytch_id,category_id,name,kind,text_post_mode,voice_user_limit,channel_theme,created_by,created_at"
	legacyChannelColumns = "id,glytch_id,category_id,name,kind,created_by,created_at"
)

// ChannelService manages the channels and categories of a Glytch.
//
// Contract:
//   - Channel names are stored trimmed and lower-cased.
//   - Without channel settings columns, channels are read and created with
//     the legacy column set and report the "all" post mode and no voice cap.
type ChannelService interface {
	ListGlytchChannels(ctx context.Context, accessToken string, glytchID int64) ([]models.GlytchChannel, error)
	CreateGlytchChannel(ctx context.Context, accessToken, createdBy string, glytchID int64, name string, kind models.ChannelKind, categoryID *int64, settings models.ChannelSettings) (*models.GlytchChannel, error)
	SetGlytchChannelSettings(ctx context.Context, accessToken string, channelID int64, settings models.ChannelSettings) (*models.GlytchChannel, error)
	SetGlytchChannelTheme(ctx context.Context, accessToken string, channelID int64, theme models.Theme) (*models.GlytchChannel, error)

	ListGlytchChannelCategories(ctx context.Context, accessToken string, glytchID int64) ([]models.GlytchChannelCategory, error)
	CreateGlytchChannelCategory(ctx context.Context, accessToken, createdBy string, glytchID int64, name string) (*models.GlytchChannelCategory, error)
}

type channelService struct {
	base
}

func (s channelService) ListGlytchChannels(ctx context.Context, accessToken string, glytchID int64) ([]models.GlytchChannel, error) {
	list := func(columns string) func(ctx context.Context) ([]models.GlytchChannel, error) {
		return func(ctx context.Context) ([]models.GlytchChannel, error) {
			var rows []models.GlytchChannel
			q := query("select", columns, "glytch_id", eq(glytchID), "order", "created_at.asc")
			err := client.Select(ctx, s.client, accessToken, "glytch_channels", q, &rows)
			return rows, err
		}
	}
	return compat(ctx, s.base, "ListGlytchChannels", list(channelColumns),
		schemacompat.MissingChannelSettings, schemacompat.Legacy(list(legacyChannelColumns)))
}

// CreateGlytchChannel ignores settings that do not apply to the kind: only
// text channels carry a post mode and only voice channels a user limit.
func (s channelService) CreateGlytchChannel(ctx context.Context, accessToken, createdBy string, glytchID int64, name string, kind models.ChannelKind, categoryID *int64, settings models.ChannelSettings) (*models.GlytchChannel, error) {
	if kind != models.ChannelText && kind != models.ChannelVoice {
		return nil, invalidArg("channel kind %q", kind)
	}
	row := map[string]any{
		"glytch_id":   glytchID,
		"name":        strings.ToLower(strings.TrimSpace(name)),
		"kind":        kind,
		"category_id": categoryID,
		"created_by":  createdBy,
	}
	insert := func(body map[string]any) func(ctx context.Context) (*models.GlytchChannel, error) {
		return func(ctx context.Context) (*models.GlytchChannel, error) {
			var rows []models.GlytchChannel
			if err := client.Insert(ctx, s.client, accessToken, "glytch_channels", []map[string]any{body}, &rows); err != nil {
				return nil, err
			}
			if ch := first(rows); ch != nil {
				return ch, nil
			}
			return nil, fmt.Errorf("%w: channel insert returned no rows", common.ErrUnexpectedResponse)
		}
	}

	full := make(map[string]any, len(row)+2)
	for k, v := range row {
		full[k] = v
	}
	full["text_post_mode"] = models.PostAll
	if kind == models.ChannelText && settings.TextPostMode != nil && *settings.TextPostMode != "" {
		full["text_post_mode"] = *settings.TextPostMode
	}
	full["voice_user_limit"] = nil
	if kind == models.ChannelVoice && settings.VoiceUserLimit != nil {
		full["voice_user_limit"] = *settings.VoiceUserLimit
	}

	return compat(ctx, s.base, "CreateGlytchChannel", insert(full),
		schemacompat.MissingChannelSettings, schemacompat.Legacy(insert(row)))
}

func (s channelService) SetGlytchChannelSettings(ctx context.Context, accessToken string, channelID int64, settings models.ChannelSettings) (*models.GlytchChannel, error) {
	params := map[string]any{
		"p_channel_id":       channelID,
		"p_text_post_mode":   nil,
		"p_voice_user_limit": nil,
	}
	if settings.TextPostMode != nil {
		params["p_text_post_mode"] = *settings.TextPostMode
	}
	if settings.VoiceUserLimit != nil {
		params["p_voice_user_limit"] = *settings.VoiceUserLimit
	}
	return compat(ctx, s.base, "SetGlytchChannelSettings", s.channelRPC(accessToken, "set_glytch_channel_settings", params),
		schemacompat.MissingChannelSettings, schemacompat.RequireMigration[*models.GlytchChannel](msgChannelSettingsMigration))
}

func (s channelService) SetGlytchChannelTheme(ctx context.Context, accessToken string, channelID int64, theme models.Theme) (*models.GlytchChannel, error) {
	params := map[string]any{"p_channel_id": channelID, "p_theme": theme}
	return compat(ctx, s.base, "SetGlytchChannelTheme", s.channelRPC(accessToken, "set_glytch_channel_theme", params),
		schemacompat.MissingChannelSettings, schemacompat.RequireMigration[*models.GlytchChannel](msgChannelThemeMigration))
}

// channelRPC calls a function returning a single channel row.
func (s channelService) channelRPC(accessToken, name string, params map[string]any) func(ctx context.Context) (*models.GlytchChannel, error) {
	return func(ctx context.Context) (*models.GlytchChannel, error) {
		var ch models.GlytchChannel
		if err := client.RPC(ctx, s.client, accessToken, name, params, &ch); err != nil {
			return nil, err
		}
		return &ch, nil
	}
}

func (s channelService) ListGlytchChannelCategories(ctx context.Context, accessToken string, glytchID int64) ([]models.GlytchChannelCategory, error) {
	var rows []models.GlytchChannelCategory
	q := query(
		"select", "id,glytch_id,name,created_by,created_at",
		"glytch_id", eq(glytchID),
		"order", "created_at.asc",
	)
	err := client.Select(ctx, s.client, accessToken, "glytch_channel_categories", q, &rows)
	return rows, err
}

func (s channelService) CreateGlytchChannelCategory(ctx context.Context, accessToken, createdBy string, glytchID int64, name string) (*models.GlytchChannelCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidArg("category name is required")
	}
	body := []map[string]any{{"glytch_id": glytchID, "name": name, "created_by": createdBy}}
	var rows []models.GlytchChannelCategory
	if err := client.Insert(ctx, s.client, accessToken, "glytch_channel_categories", body, &rows); err != nil {
		return nil, err
	}
	if c := first(rows); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("%w: category insert returned no rows", common.ErrUnexpectedResponse)
}
