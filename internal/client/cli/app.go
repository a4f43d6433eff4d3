package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/glytch/internal/client/attachments"
	"github.com/dmitrijs2005/glytch/internal/client/client"
	"github.com/dmitrijs2005/glytch/internal/client/config"
	"github.com/dmitrijs2005/glytch/internal/client/models"
	"github.com/dmitrijs2005/glytch/internal/client/services"
	"github.com/dmitrijs2005/glytch/internal/client/storagepath"
	"github.com/dmitrijs2005/glytch/internal/logging"
)

type App struct {
	config   *config.Config
	log      logging.Logger
	auth     services.AuthService
	profiles services.ProfileService
	dms      services.DMService
	glytches services.GlytchService
	media    services.MediaService

	session   *models.AuthSession
	sessionID string

	reader *bufio.Reader
	out    io.Writer
}

// NewApp validates c and builds the services the REPL talks to.
func NewApp(c *config.Config, log logging.Logger) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Discard()
	}

	api := client.NewHTTPClient(c, client.WithLogger(log))
	locator := storagepath.NewLocator(c.APIBaseURL, c.StorageBaseURL, c.MessageBucket)
	resolver := attachments.NewResolver(locator,
		attachments.NewClientSigner(api, c.MessageBucket),
		attachments.WithTTLs(c.SignedURLTTL, c.SignedURLRefreshBuffer, c.SignedURLFailureTTL),
		attachments.WithLogger(log),
	)

	return &App{
		config:   c,
		log:      log,
		auth:     services.NewAuthService(api, log),
		profiles: services.NewProfileService(api, log),
		dms:      services.NewDMService(api, log),
		glytches: services.NewGlytchService(api, log),
		media:    services.NewMediaService(api, locator, resolver, log),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}, nil
}

// Run starts the REPL and releases the session lock on exit.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if a.isLoggedIn() {
			_ = a.Logout(context.WithoutCancel(ctx))
		}
	}()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) userID() string {
	if a.session == nil {
		return ""
	}
	return a.session.User.ID
}

func (a *App) accessToken() string {
	if a.session == nil {
		return ""
	}
	return a.session.AccessToken
}

// freshSession refreshes the access token when it is close to expiry.
func (a *App) freshSession(ctx context.Context) error {
	if a.session == nil {
		return errNotLoggedIn
	}
	s, refreshed, err := a.auth.EnsureFreshSession(ctx, a.session)
	if err != nil {
		return err
	}
	if refreshed {
		a.log.Debug(ctx, "session refreshed", "user_id", s.User.ID)
		a.session = s
	}
	return nil
}
