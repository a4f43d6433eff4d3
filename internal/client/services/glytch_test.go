package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/glytch/internal/client/client"
	"github.com/dmitrijs2005/glytch/internal/client/models"
	"github.com/dmitrijs2005/glytch/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const missingDirectory = "column glytches.is_public does not exist"

func TestGlytch_CreateSendsDirectoryOptions(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.on(http.MethodPost, "/api/rpc/create_glytch", ok(`{"glytch_id":5,"invite_code":"abc","channel_id":9}`))

	res, err := NewGlytchService(c, nil).CreateGlytch(context.Background(), "tok", "Lab",
		models.GlytchOptions{IsPublic: ptrTo(true), MaxMembers: models.Some(25)})
	require.NoError(t, err)
	assert.Equal(t, &models.CreatedGlytch{GlytchID: 5, InviteCode: "abc", ChannelID: 9}, res)

	var body map[string]any
	fb.last(http.MethodPost, "/api/rpc/create_glytch").JSON(t, &body)
	assert.Equal(t, map[string]any{"p_name": "Lab", "p_is_public": true, "p_max_members": float64(25)}, body)
}

func TestGlytch_CreateFallsBackToLegacyCall(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.on(http.MethodPost, "/api/rpc/create_glytch",
		fail(400, `column "max_members" of relation "glytches" does not exist`),
		ok(`{"glytch_id":5,"invite_code":"abc","channel_id":9}`))

	res, err := NewGlytchService(c, nil).CreateGlytch(context.Background(), "tok", "Lab", models.GlytchOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.GlytchID)

	calls := fb.requests(http.MethodPost, "/api/rpc/create_glytch")
	require.Len(t, calls, 2)
	var legacy map[string]any
	calls[1].JSON(t, &legacy)
	assert.Equal(t, map[string]any{"p_name": "Lab"}, legacy)
}

func TestGlytch_ListLegacyMarksPrivate(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.on(http.MethodGet, "/api/rest/glytches",
		fail(400, missingDirectory),
		ok(`[{"id":1,"owner_id":"u1","name":"lab","invite_code":"x"}]`))

	rows, err := NewGlytchService(c, nil).ListGlytches(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	g := rows[0]
	assert.Equal(t, ptrTo(false), g.IsPublic)
	assert.Nil(t, g.MaxMembers)
	assert.Nil(t, g.MemberCount)
	assert.Equal(t, ptrTo(true), g.IsJoined)

	selects := fb.requests(http.MethodGet, "/api/rest/glytches")
	require.Len(t, selects, 2)
	assert.Equal(t, "id,owner_id,name,invite_code,bio,icon_url,created_at", selects[1].Query.Get("select"))
}

func TestGlytch_SearchPublic(t *testing.T) {
	t.Run("params", func(t *testing.T) {
		fb, c := newFakeBackend(t)
		fb.on(http.MethodPost, "/api/rpc/search_public_glytches", ok(`[]`))
		svc := NewGlytchService(c, nil)

		_, err := svc.SearchPublicGlytches(context.Background(), "tok", "  ", 0)
		require.NoError(t, err)
		var body map[string]any
		fb.last(http.MethodPost, "/api/rpc/search_public_glytches").JSON(t, &body)
		assert.Equal(t, map[string]any{"p_query": nil, "p_limit": float64(30)}, body)

		_, err = svc.SearchPublicGlytches(context.Background(), "tok", " art ", 500)
		require.NoError(t, err)
		fb.last(http.MethodPost, "/api/rpc/search_public_glytches").JSON(t, &body)
		assert.Equal(t, map[string]any{"p_query": "art", "p_limit": float64(80)}, body)
	})

	t.Run("older backend", func(t *testing.T) {
		fb, c := newFakeBackend(t)
		fb.on(http.MethodPost, "/api/rpc/search_public_glytches",
			fail(404, "Could not find the function public.search_public_glytches"))

		_, err := NewGlytchService(c, nil).SearchPublicGlytches(context.Background(), "tok", "", 10)
		assert.ErrorIs(t, err, common.ErrMigrationRequired)
		assert.Equal(t, "Public Glytch discovery requires the latest database migration.", err.Error())
	})
}

func TestGlytch_JoinBanned(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.on(http.MethodPost, "/api/rpc/join_glytch_by_code", reply{
		status: 403,
		body:   `{"message":"You are banned from this Glytch.","hint":"GLYTCH_BANNED","details":{"glytch_id":7}}`,
	})

	_, err := NewGlytchService(c, nil).JoinGlytchByCode(context.Background(), "tok", "  AbC ")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrBanned)
	var banned *BannedError
	require.ErrorAs(t, err, &banned)
	assert.Equal(t, int64(7), banned.GlytchID)
	assert.Equal(t, "You are banned from this Glytch.", banned.Error())

	var body map[string]string
	fb.last(http.MethodPost, "/api/rpc/join_glytch_by_code").JSON(t, &body)
	assert.Equal(t, "abc", body["p_invite_code"])
}

func TestGlytch_JoinPublic(t *testing.T) {
	t.Run("ban wins over schema", func(t *testing.T) {
		fb, c := newFakeBackend(t)
		fb.on(http.MethodPost, "/api/rpc/join_public_glytch", reply{
			status: 403,
			body:   `{"message":"join_public_glytch: user is banned from this glytch"}`,
		})
		_, err := NewGlytchService(c, nil).JoinPublicGlytch(context.Background(), "tok", 3)
		assert.ErrorIs(t, err, common.ErrBanned)
		assert.NotErrorIs(t, err, common.ErrMigrationRequired)
	})

	t.Run("older backend", func(t *testing.T) {
		fb, c := newFakeBackend(t)
		fb.on(http.MethodPost, "/api/rpc/join_public_glytch",
			fail(404, "Could not find the function public.join_public_glytch"))
		_, err := NewGlytchService(c, nil).JoinPublicGlytch(context.Background(), "tok", 3)
		assert.ErrorIs(t, err, common.ErrMigrationRequired)
		assert.Equal(t, "Public Glytch joining requires the latest database migration.", err.Error())
	})

	t.Run("joined", func(t *testing.T) {
		fb, c := newFakeBackend(t)
		fb.on(http.MethodPost, "/api/rpc/join_public_glytch", ok(`{"glytch_id":3}`))
		res, err := NewGlytchService(c, nil).JoinPublicGlytch(context.Background(), "tok", 3)
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.GlytchID)
	})
}

func TestGlytch_SetProfile(t *testing.T) {
	tests := []struct {
		name string
		opts models.GlytchOptions
		want map[string]any
	}{
		{
			name: "basic only",
			want: map[string]any{"p_glytch_id": float64(1), "p_name": "Lab", "p_bio": nil},
		},
		{
			name: "visibility and cap",
			opts: models.GlytchOptions{IsPublic: ptrTo(false), MaxMembers: models.Some(10)},
			want: map[string]any{
				"p_glytch_id": float64(1), "p_name": "Lab", "p_bio": nil,
				"p_is_public": false, "p_max_members": float64(10), "p_apply_max_members": true,
			},
		},
		{
			name: "remove cap",
			opts: models.GlytchOptions{MaxMembers: models.Null[int]()},
			want: map[string]any{
				"p_glytch_id": float64(1), "p_name": "Lab", "p_bio": nil,
				"p_max_members": nil, "p_apply_max_members": true,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, c := newFakeBackend(t)
			fb.on(http.MethodPost, "/api/rpc/set_glytch_profile", ok(`{"id":1,"name":"Lab","is_public":true}`))

			g, err := NewGlytchService(c, nil).SetGlytchProfile(context.Background(), "tok", 1, "Lab", nil, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, ptrTo(true), g.IsPublic)

			var body map[string]any
			fb.last(http.MethodPost, "/api/rpc/set_glytch_profile").JSON(t, &body)
			if diff := cmp.Diff(tt.want, body); diff != "" {
				t.Errorf("params mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGlytch_SetProfileLegacy(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.on(http.MethodPost, "/api/rpc/set_glytch_profile",
		fail(400, "Could not find the function public.set_glytch_profile(p_apply_max_members, p_bio, p_glytch_id, p_is_public, p_max_members, p_name)"),
		ok(`{"id":1,"name":"Lab","max_members":50}`))

	bio := "about"
	g, err := NewGlytchService(c, nil).SetGlytchProfile(context.Background(), "tok", 1, "Lab", &bio,
		models.GlytchOptions{IsPublic: ptrTo(true)})
	require.NoError(t, err)
	assert.Equal(t, ptrTo(false), g.IsPublic)
	assert.Nil(t, g.MaxMembers)

	calls := fb.requests(http.MethodPost, "/api/rpc/set_glytch_profile")
	require.Len(t, calls, 2)
	var legacy map[string]any
	calls[1].JSON(t, &legacy)
	assert.Equal(t, map[string]any{"p_glytch_id": float64(1), "p_name": "Lab", "p_bio": "about"}, legacy)
}

func TestChannel_CreateAppliesKindSpecificSettings(t *testing.T) {
	tests := []struct {
		name     string
		kind     models.ChannelKind
		settings models.ChannelSettings
		mode     any
		limit    any
	}{
		{"text default mode", models.ChannelText, models.ChannelSettings{}, "all", nil},
		{"text with mode", models.ChannelText, models.ChannelSettings{TextPostMode: ptrTo(models.PostImagesOnly), VoiceUserLimit: ptrTo(5)}, "images_only", nil},
		{"voice with limit", models.ChannelVoice, models.ChannelSettings{TextPostMode: ptrTo(models.PostTextOnly), VoiceUserLimit: ptrTo(5)}, "all", float64(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, c := newFakeBackend(t)
			fb.on(http.MethodPost, "/api/rest/glytch_channels", ok(`[{"id":3,"glytch_id":1,"name":"general","kind":"text"}]`))

			ch, err := NewGlytchService(c, nil).CreateGlytchChannel(context.Background(), "tok", "u1", 1, "  General ", tt.kind, nil, tt.settings)
			require.NoError(t, err)
			assert.Equal(t, int64(3), ch.ID)

			var rows []map[string]any
			fb.last(http.MethodPost, "/api/rest/glytch_channels").JSON(t, &rows)
			require.Len(t, rows, 1)
			assert.Equal(t, "general", rows[0]["name"])
			assert.Equal(t, tt.mode, rows[0]["text_post_mode"])
			assert.Equal(t, tt.limit, rows[0]["voice_user_limit"])
			assert.Nil(t, rows[0]["category_id"])
		})
	}
}

func TestChannel_CreateLegacyOmitsSettings(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.on(http.MethodPost, "/api/rest/glytch_channels",
		fail(400, `column "text_post_mode" of relation "glytch_channels" does not exist`),
		ok(`[{"id":3,"name":"general","kind":"text"}]`))

	catID := int64(2)
	_, err := NewGlytchService(c, nil).CreateGlytchChannel(context.Background(), "tok", "u1", 1, "general", models.ChannelText, &catID, models.ChannelSettings{})
	require.NoError(t, err)

	calls := fb.requests(http.MethodPost, "/api/rest/glytch_channels")
	require.Len(t, calls, 2)
	var rows []map[string]any
	calls[1].JSON(t, &rows)
	assert.NotContains(t, rows[0], "text_post_mode")
	assert.NotContains(t, rows[0], "voice_user_limit")
	assert.Equal(t, float64(2), rows[0]["category_id"])
}

func TestChannel_CreateRejectsUnknownKind(t *testing.T) {
	fb, c := newFakeBackend(t)
	_, err := NewGlytchService(c, nil).CreateGlytchChannel(context.Background(), "tok", "u1", 1, "x", "stage", nil, models.ChannelSettings{})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
	assert.Zero(t, fb.total())
}

func TestChannel_ListFallsBackToLegacyColumns(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.on(http.MethodGet, "/api/rest/glytch_channels",
		fail(400, "column glytch_channels.text_post_mode does not exist"),
		ok(`[{"id":3,"glytch_id":1,"name":"lobby","kind":"voice"}]`))

	rows, err := NewGlytchService(c, nil).ListGlytchChannels(context.Background(), "tok", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.PostAll, rows[0].TextPostMode)
	assert.Nil(t, rows[0].VoiceUserLimit)
	assert.Equal(t, legacyChannelColumns, fb.last(http.MethodGet, "/api/rest/glytch_channels").Query.Get("select"))
}

func TestChannel_SettingsWritesRequireMigration(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.on(http.MethodPost, "/api/rpc/set_glytch_channel_settings",
		fail(404, "Could not find the function public.set_glytch_channel_settings"))
	fb.on(http.MethodPost, "/api/rpc/set_glytch_channel_theme",
		fail(404, "Could not find the function public.set_glytch_channel_theme"))
	svc := NewGlytchService(c, nil)

	_, err := svc.SetGlytchChannelSettings(context.Background(), "tok", 3, models.ChannelSettings{VoiceUserLimit: ptrTo(4)})
	assert.ErrorIs(t, err, common.ErrMigrationRequired)
	assert.Equal(t, msgChannelSettingsMigration, err.Error())

	var body map[string]any
	fb.last(http.MethodPost, "/api/rpc/set_glytch_channel_settings").JSON(t, &body)
	assert.Equal(t, map[string]any{"p_channel_id": float64(3), "p_text_post_mode": nil, "p_voice_user_limit": float64(4)}, body)

	_, err = svc.SetGlytchChannelTheme(context.Background(), "tok", 3, models.Theme{"bg": "#000"})
	assert.Equal(t, msgChannelThemeMigration, err.Error())
}

func TestRole_CreateUsesDefaults(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.on(http.MethodPost, "/api/rpc/create_glytch_role", ok(`{"id":12,"glytch_id":1,"name":"Mods","color":"#8eaefb"}`))

	role, err := NewGlytchService(c, nil).CreateGlytchRole(context.Background(), "tok", 1, " Mods ", "")
	require.NoError(t, err)
	assert.Equal(t, int64(12), role.ID)

	var body struct {
		Name        string          `json:"p_name"`
		Color       string          `json:"p_color"`
		Permissions map[string]bool `json:"p_permissions"`
	}
	fb.last(http.MethodPost, "/api/rpc/create_glytch_role").JSON(t, &body)
	assert.Equal(t, "Mods", body.Name)
	assert.Equal(t, models.DefaultRoleColor, body.Color)
	assert.Equal(t, models.DefaultRolePermissions(), body.Permissions)
}

func TestRole_DeleteSparesSystemRoles(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.on(http.MethodDelete, "/api/rest/glytch_roles", ok(`[]`))

	rows, err := NewGlytchService(c, nil).DeleteGlytchRole(context.Background(), "tok", 4)
	require.NoError(t, err)
	assert.Empty(t, rows)

	req := fb.last(http.MethodDelete, "/api/rest/glytch_roles")
	assert.Equal(t, "eq.4", req.Query.Get("id"))
	assert.Equal(t, "eq.false", req.Query.Get("is_system"))
	assert.Equal(t, common.PreferRepresentation, req.Header.Get("Prefer"))
}

func TestRole_ListOrderAndChannelPermissions(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.on(http.MethodGet, "/api/rest/glytch_roles", ok(`[]`))
	fb.on(http.MethodPost, "/api/rpc/set_role_channel_permissions", ok(``))
	svc := NewGlytchService(c, nil)

	_, err := svc.ListGlytchRoles(context.Background(), "tok", 1)
	require.NoError(t, err)
	assert.Equal(t, "priority.desc,id.asc", fb.last(http.MethodGet, "/api/rest/glytch_roles").Query.Get("order"))

	err = svc.SetRoleChannelPermissions(context.Background(), "tok", 2, 3, ChannelPermission{CanView: true, CanJoinVoice: true})
	require.NoError(t, err)
	var body map[string]any
	fb.last(http.MethodPost, "/api/rpc/set_role_channel_permissions").JSON(t, &body)
	assert.Equal(t, map[string]any{
		"p_role_id": float64(2), "p_channel_id": float64(3),
		"p_can_view": true, "p_can_send_messages": false, "p_can_join_voice": true,
	}, body)
}

func TestBannedDetails(t *testing.T) {
	tests := []struct {
		name    string
		details string
		want    int64
	}{
		{"number", `7`, 7},
		{"fractional number", `7.9`, 7},
		{"negative number", `-3`, 0},
		{"numeric string", `"42"`, 42},
		{"json text", `"{\"glytch_id\": 9}"`, 9},
		{"loose text", `"Key (glytch_id)=(15) is banned"`, 0},
		{"fragment", `"glytch_id: 15 banned"`, 15},
		{"object", `{"glytch_id":"8"}`, 8},
		{"object without id", `{"other":1}`, 0},
		{"array", `[1,2]`, 0},
		{"blank string", `"  "`, 0},
		{"absent", ``, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, glytchIDFromDetails(json.RawMessage(tt.details)))
		})
	}
}

func TestAsBanned_LeavesOtherErrorsAlone(t *testing.T) {
	plain := errors.New("offline")
	assert.Same(t, plain, asBanned(plain))

	apiErr := &client.APIError{StatusCode: 404, Message: "Invite code not found."}
	assert.Same(t, apiErr, asBanned(apiErr))

	hinted := asBanned(&client.APIError{StatusCode: 403, Message: "nope", Hint: " glytch_banned "})
	assert.ErrorIs(t, hinted, common.ErrBanned)
}
