package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/glytch/internal/client/models"
	"github.com/dmitrijs2005/glytch/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDArg(t *testing.T) {
	id, err := idArg([]string{"42"}, "x <id>")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, args := range [][]string{nil, {"1", "2"}, {"abc"}, {"0"}, {"-3"}} {
		_, err := idArg(args, "x <id>")
		assert.ErrorIs(t, err, common.ErrInvalidArgument, "%v", args)
	}
}

func TestDMs(t *testing.T) {
	ta := newTestApp(t)
	ta.signIn()
	ta.dms.convs = []models.DmConversation{
		{ID: 3, UserA: "u1", UserB: "u2", IsPinned: true},
		{ID: 5, UserA: "u9", UserB: "u1"},
	}
	ta.profiles.byID = []models.Profile{{UserID: "u2", Username: "bob"}}

	require.NoError(t, ta.DMs(context.Background()))
	assert.Equal(t, []string{"u2", "u9"}, ta.profiles.lookedUp)
	assert.Equal(t, "3\t@bob [pinned]\n5\t@u9\n", ta.out.String())
}

func TestDMs_EmptyAndSignedOut(t *testing.T) {
	ta := newTestApp(t)
	assert.ErrorIs(t, ta.DMs(context.Background()), errNotLoggedIn)

	ta.signIn()
	require.NoError(t, ta.DMs(context.Background()))
	assert.Equal(t, noDMs+"\n", ta.out.String())
}

func TestMessages_ResolvesAttachments(t *testing.T) {
	ta := newTestApp(t)
	ta.signIn()
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.Local)
	edited := at.Add(time.Minute)
	ta.dms.msgs = []models.Message{
		{ID: 1, SenderID: "u2", Content: "look", AttachmentURL: ptr("message-media/u2/cat.png"), CreatedAt: at},
		{ID: 2, SenderID: "u1", Content: "nice", CreatedAt: at, EditedAt: &edited},
	}
	ta.media.resolved["message-media/u2/cat.png"] = "https://cdn.example/cat.png?token=t"
	ta.profiles.byIDErr = errors.New("offline")

	require.NoError(t, ta.Messages(context.Background(), []string{"12"}))

	assert.Equal(t, int64(12), ta.dms.fetchedFor)
	assert.Equal(t, []string{"message-media/u2/cat.png", ""}, ta.media.refs)
	assert.Equal(t,
		"[2026-03-01 09:30] @u2: look\n"+
			"    attachment: https://cdn.example/cat.png?token=t\n"+
			"[2026-03-01 09:30] @u1: nice (edited)\n",
		ta.out.String())
}

func TestMessages_Usage(t *testing.T) {
	ta := newTestApp(t)
	ta.signIn()
	assert.ErrorIs(t, ta.Messages(context.Background(), nil), common.ErrInvalidArgument)
	assert.Zero(t, ta.dms.fetchedFor)

	require.NoError(t, ta.Messages(context.Background(), []string{"4"}))
	assert.Equal(t, noMessages+"\n", ta.out.String())
}

func TestGlytches(t *testing.T) {
	ta := newTestApp(t)
	ta.signIn()
	ta.glytches.glytches = []models.Glytch{
		{ID: 1, Name: "Gamers", InviteCode: "abc", IsPublic: ptr(true)},
		{ID: 2, Name: "Friends", InviteCode: "def"},
	}

	require.NoError(t, ta.Glytches(context.Background()))
	assert.Equal(t, "1\tGamers\tpublic\tinvite: abc\n2\tFriends\tprivate\tinvite: def\n", ta.out.String())
}

func TestChannels(t *testing.T) {
	ta := newTestApp(t)
	ta.signIn()
	ta.glytches.channels = []models.GlytchChannel{
		{ID: 10, Name: "general", Kind: models.ChannelText, TextPostMode: models.PostAll},
		{ID: 11, Name: "lounge", Kind: models.ChannelVoice, VoiceUserLimit: ptr(5)},
		{ID: 12, Name: "stage", Kind: models.ChannelVoice},
	}

	require.NoError(t, ta.Channels(context.Background(), []string{"7"}))
	assert.Equal(t, int64(7), ta.glytches.channelsOf)
	assert.Equal(t,
		"10\t#general\ttext\tall\n11\t#lounge\tvoice\tlimit 5\n12\t#stage\tvoice\tno limit\n",
		ta.out.String())
}

func TestGifs(t *testing.T) {
	ta := newTestApp(t)
	ta.media.gifs = models.GifPage{Results: []models.GifResult{{Description: "Happy cat", URL: "https://gif.example/1.gif"}}}

	require.NoError(t, ta.Gifs(context.Background(), []string{"happy", "cat"}))
	assert.Equal(t, "happy cat", ta.media.gifQuery)
	assert.Equal(t, gifPageSize, ta.media.gifLimit)
	assert.Equal(t, "Happy cat\thttps://gif.example/1.gif\n", ta.out.String())

	ta.out.Reset()
	ta.media.gifs = models.GifPage{}
	require.NoError(t, ta.Gifs(context.Background(), nil))
	assert.Equal(t, noGifs+"\n", ta.out.String())
}

func TestResolve(t *testing.T) {
	ta := newTestApp(t)
	ta.media.resolved["message-media/u1/a.png"] = "https://cdn.example/a.png"

	assert.ErrorIs(t, ta.Resolve(context.Background(), nil), common.ErrInvalidArgument)

	require.NoError(t, ta.Resolve(context.Background(), []string{"message-media/u1/a.png"}))
	require.NoError(t, ta.Resolve(context.Background(), []string{"unknown"}))
	assert.Equal(t, "https://cdn.example/a.png\n"+noResolvedURL+"\n", ta.out.String())
}

func ptr[T any](v T) *T { return &v }
