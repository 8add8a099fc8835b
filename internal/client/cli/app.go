package cli

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/benbjohnson/clock"

	"github.com/rdacruz/maintdash/internal/client/config"
	"github.com/rdacruz/maintdash/internal/client/gateway"
	"github.com/rdacruz/maintdash/internal/client/models"
	"github.com/rdacruz/maintdash/internal/client/repositories/credentials"
	"github.com/rdacruz/maintdash/internal/client/session"
	"github.com/rdacruz/maintdash/internal/logging"

	_ "modernc.org/sqlite"
)

// SessionController is the session lifecycle surface the REPL drives.
// *session.Controller implements it; tests substitute a fake.
type SessionController interface {
	Restore(ctx context.Context)
	Login(ctx context.Context, creds gateway.Credentials) (*models.Session, error)
	Logout(ctx context.Context)
	RefreshSession(ctx context.Context)
	DismissWarning()
	RevokeSession(ctx context.Context, otherToken string) error
	FetchUserSessions(ctx context.Context) []models.RemoteSession
	Snapshot() (models.Session, bool)
	State() session.State
	Close()
}

type App struct {
	config *config.Config
	ctrl   SessionController
	reader *bufio.Reader
	out    io.Writer

	// lastSessions is the most recent 'sessions' listing; 'revoke <n>'
	// indexes into it.
	lastSessions []models.RemoteSession
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	db, err := credentials.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, err
	}

	gw := gateway.NewRESTClient(c.ServerEndpointURL).WithTimeout(c.RequestTimeout)
	repo := credentials.NewSQLiteRepository(db)
	log := logging.NewSlogLogger(slog.Default())

	ctrl := session.NewController(gw, repo, log, clock.New()).
		WithRequestTimeout(c.RequestTimeout)

	return &App{
		config: c,
		ctrl:   ctrl,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

// Run restores any persisted session and enters the REPL. Blocks until the
// user exits.
func (a *App) Run(ctx context.Context) {
	defer a.ctrl.Close()
	a.ctrl.Restore(ctx)
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.ctrl.State() == session.StateAuthenticated
}
