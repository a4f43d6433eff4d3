package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/dmitrijs2005/glytch/internal/client/models"
	"github.com/dmitrijs2005/glytch/internal/client/services"
	"github.com/dmitrijs2005/glytch/internal/logging"
)

// The fakes embed the service interfaces so unused methods panic if reached.

type fakeAuth struct {
	services.AuthService

	available bool
	signUp    *models.SignUpResult
	signUpArg [3]string

	session   *models.AuthSession
	signInErr error
	signInArg [2]string

	claimErrs []error
	claims    []bool
	released  []string

	refreshed *models.AuthSession
}

func (f *fakeAuth) IsUsernameAvailable(context.Context, string) (bool, error) {
	return f.available, nil
}
func (f *fakeAuth) SignUp(_ context.Context, email, password, username string) (*models.SignUpResult, error) {
	f.signUpArg = [3]string{email, password, username}
	return f.signUp, nil
}
func (f *fakeAuth) SignIn(_ context.Context, email, password string) (*models.AuthSession, error) {
	f.signInArg = [2]string{email, password}
	return f.session, f.signInErr
}
func (f *fakeAuth) NewSessionID() string { return "sid-1" }
func (f *fakeAuth) ClaimSingleSessionLock(_ context.Context, _, _ string, takeover bool) error {
	f.claims = append(f.claims, takeover)
	if len(f.claimErrs) == 0 {
		return nil
	}
	err := f.claimErrs[0]
	f.claimErrs = f.claimErrs[1:]
	return err
}
func (f *fakeAuth) ReleaseSingleSessionLock(_ context.Context, token, sessionID string) error {
	f.released = append(f.released, token+"/"+sessionID)
	return nil
}
func (f *fakeAuth) EnsureFreshSession(_ context.Context, s *models.AuthSession) (*models.AuthSession, bool, error) {
	if f.refreshed != nil {
		return f.refreshed, true, nil
	}
	return s, false, nil
}

type fakeProfiles struct {
	services.ProfileService

	mine     *models.Profile
	byID     []models.Profile
	byIDErr  error
	tokens   []string
	lookedUp []string
}

func (f *fakeProfiles) GetMyProfile(_ context.Context, token, _ string) (*models.Profile, error) {
	f.tokens = append(f.tokens, token)
	return f.mine, nil
}
func (f *fakeProfiles) FetchProfilesByIDs(_ context.Context, _ string, ids []string) ([]models.Profile, error) {
	f.lookedUp = append(f.lookedUp, ids...)
	return f.byID, f.byIDErr
}

type fakeDMs struct {
	services.DMService

	convs      []models.DmConversation
	msgs       []models.Message
	fetchedFor int64
}

func (f *fakeDMs) ListDmConversations(context.Context, string) ([]models.DmConversation, error) {
	return f.convs, nil
}
func (f *fakeDMs) FetchDmMessages(_ context.Context, _ string, id int64) ([]models.Message, error) {
	f.fetchedFor = id
	return f.msgs, nil
}

type fakeGlytches struct {
	services.GlytchService

	glytches   []models.Glytch
	channels   []models.GlytchChannel
	channelsOf int64
}

func (f *fakeGlytches) ListGlytches(context.Context, string) ([]models.Glytch, error) {
	return f.glytches, nil
}
func (f *fakeGlytches) ListGlytchChannels(_ context.Context, _ string, id int64) ([]models.GlytchChannel, error) {
	f.channelsOf = id
	return f.channels, nil
}

type fakeMedia struct {
	services.MediaService

	cleared  int
	resolved map[string]string
	refs     []string
	gifs     models.GifPage
	gifQuery string
	gifLimit int
}

func (f *fakeMedia) ClearAttachmentCache() { f.cleared++ }
func (f *fakeMedia) ResolveMessageAttachmentURL(_ context.Context, _, ref string) (string, bool) {
	u, ok := f.resolved[ref]
	return u, ok
}
func (f *fakeMedia) ResolveMessageAttachments(_ context.Context, _ string, refs []string) []string {
	f.refs = refs
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = f.resolved[r]
	}
	return out
}
func (f *fakeMedia) SearchGifs(_ context.Context, q string, limit int) models.GifPage {
	f.gifQuery, f.gifLimit = q, limit
	return f.gifs
}

type testApp struct {
	*App
	out      *bytes.Buffer
	auth     *fakeAuth
	profiles *fakeProfiles
	dms      *fakeDMs
	glytches *fakeGlytches
	media    *fakeMedia
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ta := &testApp{
		out:      &bytes.Buffer{},
		auth:     &fakeAuth{},
		profiles: &fakeProfiles{},
		dms:      &fakeDMs{},
		glytches: &fakeGlytches{},
		media:    &fakeMedia{resolved: map[string]string{}},
	}
	ta.App = &App{
		log:      logging.Discard(),
		auth:     ta.auth,
		profiles: ta.profiles,
		dms:      ta.dms,
		glytches: ta.glytches,
		media:    ta.media,
		reader:   bufio.NewReader(bytes.NewReader(nil)),
		out:      ta.out,
	}
	return ta
}

func aliceSession(token string) *models.AuthSession {
	return &models.AuthSession{
		AccessToken:  token,
		RefreshToken: "refresh",
		User: models.AuthUser{
			ID:           "u1",
			Email:        "alice@example.org",
			UserMetadata: &models.UserMetadata{Username: "alice"},
		},
	}
}

func (ta *testApp) signIn() {
	ta.App.session = aliceSession("tok")
	ta.App.sessionID = "sid-1"
}

// stubInputs answers text prompts in order and returns password for the
// password prompt.
func stubInputs(t *testing.T, password string, answers ...string) *[]string {
	t.Helper()
	var prompts []string
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, prompt string, _ io.Writer) (string, error) {
		prompts = append(prompts, prompt)
		if len(answers) == 0 {
			return "", io.EOF
		}
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	getPassword = func(*bufio.Reader, io.Writer) ([]byte, error) { return []byte(password), nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
	return &prompts
}
