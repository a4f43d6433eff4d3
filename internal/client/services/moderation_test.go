package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/glytch/internal/client/models"
	"github.com/dmitrijs2005/glytch/internal/client/schemacompat"
	"github.com/dmitrijs2005/glytch/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const missingBans = `relation "public.glytch_bans" does not exist`

func TestModeration_BotSettingsDefaults(t *testing.T) {
	tests := []struct {
		name  string
		reply reply
	}{
		{"older backend", fail(404, "Could not find the function public.get_glytch_bot_settings(p_glytch_id)")},
		{"nothing stored", ok(`null`)},
		{"empty body", ok(``)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, c := newFakeBackend(t)
			fb.on(http.MethodPost, "/api/rpc/get_glytch_bot_settings", tt.reply)

			got, err := NewModerationService(c, nil).GetGlytchBotSettings(context.Background(), "tok", 4)
			require.NoError(t, err)
			assert.Equal(t, models.DefaultBotSettings(4), got)
		})
	}
}

func TestModeration_BotSettingsOverlay(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.on(http.MethodPost, "/api/rpc/get_glytch_bot_settings",
		ok(`{"glytch_id":4,"enabled":false,"block_external_links":"yes","blocked_words":["spam",3,"scam"]}`))

	got, err := NewModerationService(c, nil).GetGlytchBotSettings(context.Background(), "tok", 4)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	assert.False(t, got.BlockExternalLinks)
	assert.True(t, got.BlockInviteLinks)
	assert.Equal(t, []string{"spam", "scam"}, got.BlockedWords)
}

func TestModeration_UpdateBotSettingsParams(t *testing.T) {
	defaults := map[string]any{
		"p_glytch_id":                float64(4),
		"p_enabled":                  true,
		"p_block_external_links":     nil,
		"p_block_invite_links":       nil,
		"p_block_blocked_words":      nil,
		"p_blocked_words":            nil,
		"p_dm_on_kick_or_ban":        nil,
		"p_dm_on_message_block":      nil,
		"p_third_party_bots_enabled": nil,
	}
	with := func(extra map[string]any) map[string]any {
		out := make(map[string]any, len(defaults)+len(extra))
		for k, v := range defaults {
			out[k] = v
		}
		for k, v := range extra {
			out[k] = v
		}
		return out
	}

	tests := []struct {
		name    string
		webhook models.Optional[string]
		words   []string
		want    map[string]any
	}{
		{
			name: "webhook untouched",
			want: with(map[string]any{"p_third_party_bot_webhook_url": nil, "p_apply_third_party_bot_webhook_url": false}),
		},
		{
			name:    "webhook cleared",
			webhook: models.Null[string](),
			want:    with(map[string]any{"p_third_party_bot_webhook_url": nil, "p_apply_third_party_bot_webhook_url": true}),
		},
		{
			name:    "webhook set with words",
			webhook: models.Some("https://hooks.example/bot"),
			words:   []string{"spam"},
			want: with(map[string]any{
				"p_blocked_words":                     []any{"spam"},
				"p_third_party_bot_webhook_url":       "https://hooks.example/bot",
				"p_apply_third_party_bot_webhook_url": true,
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, c := newFakeBackend(t)
			fb.on(http.MethodPost, "/api/rpc/set_glytch_bot_settings", ok(`{"glytch_id":4,"enabled":true}`))

			upd := models.BotSettingsUpdate{Enabled: ptrTo(true), BlockedWords: tt.words, ThirdPartyBotWebhookURL: tt.webhook}
			got, err := NewModerationService(c, nil).UpdateGlytchBotSettings(context.Background(), "tok", 4, upd)
			require.NoError(t, err)
			assert.True(t, got.Enabled)

			var body map[string]any
			fb.last(http.MethodPost, "/api/rpc/set_glytch_bot_settings").JSON(t, &body)
			if diff := cmp.Diff(tt.want, body); diff != "" {
				t.Errorf("params mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestModeration_UpdateBotSettingsOnOlderBackend(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.on(http.MethodPost, "/api/rpc/set_glytch_bot_settings",
		fail(404, "Could not find the function public.set_glytch_bot_settings"))

	_, err := NewModerationService(c, nil).UpdateGlytchBotSettings(context.Background(), "tok", 4, models.BotSettingsUpdate{})
	var mig *schemacompat.MigrationError
	require.ErrorAs(t, err, &mig)
	assert.Equal(t, msgBotSettingsMigration, mig.Message)
}

func TestModeration_ListsDefaultToEmpty(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.on(http.MethodGet, "/api/rest/glytch_bans", fail(404, missingBans))
	fb.on(http.MethodGet, "/api/rest/glytch_unban_requests",
		fail(404, "Could not find the table 'public.glytch_unban_requests' in the schema cache"))
	svc := NewModerationService(c, nil)

	bans, err := svc.ListGlytchBans(context.Background(), "tok", 4)
	require.NoError(t, err)
	assert.NotNil(t, bans)
	assert.Empty(t, bans)

	reqs, err := svc.ListGlytchUnbanRequests(context.Background(), "tok", 4, "")
	require.NoError(t, err)
	assert.NotNil(t, reqs)
	assert.Empty(t, reqs)
	assert.False(t, fb.last(http.MethodGet, "/api/rest/glytch_unban_requests").Query.Has("status"))
}

func TestModeration_UnbanRequestStatusFilter(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.on(http.MethodGet, "/api/rest/glytch_unban_requests", ok(`[{"id":1,"glytch_id":4,"user_id":"u2","status":"pending"}]`))

	rows, err := NewModerationService(c, nil).ListGlytchUnbanRequests(context.Background(), "tok", 4, models.UnbanPending)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	q := fb.last(http.MethodGet, "/api/rest/glytch_unban_requests").Query
	assert.Equal(t, "eq.pending", q.Get("status"))
	assert.Equal(t, "requested_at.desc", q.Get("order"))
}

func TestModeration_ReviewValidatesStatus(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.on(http.MethodPost, "/api/rpc/review_glytch_unban_request", ok(`{"id":1,"status":"approved"}`))
	svc := NewModerationService(c, nil)

	_, err := svc.ReviewGlytchUnbanRequest(context.Background(), "tok", 1, models.UnbanPending, "")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
	assert.Zero(t, fb.total())

	got, err := svc.ReviewGlytchUnbanRequest(context.Background(), "tok", 1, models.UnbanApproved, "")
	require.NoError(t, err)
	assert.Equal(t, models.UnbanApproved, got.Status)

	var body map[string]any
	fb.last(http.MethodPost, "/api/rpc/review_glytch_unban_request").JSON(t, &body)
	assert.Equal(t, map[string]any{"p_request_id": float64(1), "p_status": "approved", "p_review_note": nil}, body)
}

func TestModeration_WritesRequireMigration(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.on(http.MethodPost, "/api/rpc/ban_user_from_glytch",
		fail(404, "Could not find the function public.ban_user_from_glytch(p_glytch_id, p_user_id, p_reason)"))
	fb.on(http.MethodPost, "/api/rpc/unban_user_from_glytch", fail(404, missingBans))
	fb.on(http.MethodPost, "/api/rpc/kick_member_from_glytch",
		fail(404, "Could not find the function public.kick_member_from_glytch(p_glytch_id, p_user_id)"))
	fb.on(http.MethodPost, "/api/rpc/submit_glytch_unban_request", fail(404, missingBans))
	svc := NewModerationService(c, nil)
	ctx := context.Background()

	_, err := svc.BanGlytchUser(ctx, "tok", 4, "u2", "")
	assert.ErrorIs(t, err, common.ErrMigrationRequired)
	assert.Equal(t, msgBanMigration, err.Error())

	_, err = svc.UnbanGlytchUser(ctx, "tok", 4, "u2")
	assert.Equal(t, msgBanMigration, err.Error())

	_, err = svc.KickGlytchMember(ctx, "tok", 4, "u2")
	assert.Equal(t, msgKickMigration, err.Error())

	_, err = svc.SubmitGlytchUnbanRequest(ctx, "tok", 4, "sorry")
	assert.Equal(t, msgUnbanMigration, err.Error())
}

func TestModeration_BanAndLeave(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.on(http.MethodPost, "/api/rpc/ban_user_from_glytch", ok(`{"glytch_id":4,"user_id":"u2","banned_by":"u1","reason":"spam"}`))
	fb.on(http.MethodPost, "/api/rpc/leave_glytch", ok(`true`))
	svc := NewModerationService(c, nil)

	ban, err := svc.BanGlytchUser(context.Background(), "tok", 4, "u2", "spam")
	require.NoError(t, err)
	assert.Equal(t, "u2", ban.UserID)
	require.NotNil(t, ban.Reason)
	assert.Equal(t, "spam", *ban.Reason)

	left, err := svc.LeaveGlytch(context.Background(), "tok", 4)
	require.NoError(t, err)
	assert.True(t, left)
}

func TestModeration_OtherErrorsPropagate(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.on(http.MethodPost, "/api/rpc/leave_glytch", fail(400, "Owners cannot leave their own Glytch."))

	_, err := NewModerationService(c, nil).LeaveGlytch(context.Background(), "tok", 4)
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrMigrationRequired)
	assert.Equal(t, "Owners cannot leave their own Glytch.", err.Error())
}
