package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/learnx/internal/catalog"
	"github.com/desertthunder/learnx/internal/repositories"
	"github.com/desertthunder/learnx/internal/services"
	"github.com/desertthunder/learnx/internal/shared"
	"github.com/desertthunder/learnx/internal/store"
	"github.com/desertthunder/learnx/internal/validate"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Storage, the auth service and the stores are opened on first use so commands that never touch
// them (setup, courses) work without a database or auth configuration.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	httpClient *http.Client
	prompter   Prompter
	validator  *validate.Validator
	catalog    *catalog.Catalog

	auth     services.AuthService
	storage  store.Storage
	db       *sql.DB
	repo     *repositories.StorageRepository
	sessions *store.SessionStore
	progress *store.ProgressStore

	bootstrapped bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Auth       services.AuthService
	Storage    store.Storage
	Catalog    *catalog.Catalog
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Prompter   Prompter
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Auth.Timeout}
	}
	if opts.Prompter == nil {
		opts.Prompter = huhPrompter{}
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		httpClient: opts.HTTPClient,
		prompter:   opts.Prompter,
		validator:  validate.New(),
		catalog:    opts.Catalog,
		auth:       opts.Auth,
		storage:    opts.Storage,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, coursesCommand, videosCommand, progressCommand, storageCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and anything it opens afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the session subscription and the database.
func (r *Runner) Close() {
	if r.sessions != nil {
		r.sessions.Close()
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			r.logger.Warn("failed to close database", "error", err)
		}
	}
}

// Catalog returns the configured course catalog, falling back to the bundled one.
func (r *Runner) Catalog() *catalog.Catalog {
	if r.catalog == nil {
		if dir := r.config.Content.Dir; dir != "" {
			r.catalog = catalog.Open(dir, r.logger)
		} else {
			r.catalog = catalog.Embedded(r.logger)
		}
	}
	return r.catalog
}

// Storage opens the SQLite backed key/value storage.
func (r *Runner) Storage() (store.Storage, error) {
	if r.storage != nil {
		return r.storage, nil
	}

	db, err := shared.OpenStorageDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	r.db = db
	r.repo = repositories.NewStorageRepository(db)
	r.storage = r.repo
	return r.storage, nil
}

// Progress returns the progress store, loading it on first use.
func (r *Runner) Progress() (*store.ProgressStore, error) {
	if r.progress != nil {
		return r.progress, nil
	}
	storage, err := r.Storage()
	if err != nil {
		return nil, err
	}
	r.progress = store.NewProgressStore(storage, r.logger)
	return r.progress, nil
}

// Auth returns the auth service client.
func (r *Runner) Auth() (services.AuthService, error) {
	if r.auth != nil {
		return r.auth, nil
	}
	if !r.config.Auth.Configured() {
		return nil, fmt.Errorf("%w: auth.url and auth.anon_key must be set (run `learnx setup config`)", shared.ErrMissingConfig)
	}

	svc, err := services.NewGoTrueService(r.config.Auth, r.httpClient, r.logger)
	if err != nil {
		return nil, err
	}
	r.auth = svc
	return r.auth, nil
}

// SessionStore returns the session store without bootstrapping it.
func (r *Runner) SessionStore() (*store.SessionStore, error) {
	if r.sessions != nil {
		return r.sessions, nil
	}

	auth, err := r.Auth()
	if err != nil {
		return nil, err
	}
	storage, err := r.Storage()
	if err != nil {
		return nil, err
	}

	r.sessions = store.NewSessionStore(auth, storage, r.logger, store.SessionOptions{
		OAuthRedirectURL: r.config.Auth.RedirectURL,
		ResetRedirectURL: r.config.Auth.ResetRedirectURL,
	})
	return r.sessions, nil
}

// Sessions returns the session store, bootstrapped once.
//
// A failed bootstrap is logged and recorded on the store rather than returned, so sign-in
// commands still work when the saved session is unusable.
func (r *Runner) Sessions(ctx context.Context) (*store.SessionStore, error) {
	if r.bootstrapped {
		return r.sessions, nil
	}

	sessions, err := r.SessionStore()
	if err != nil {
		return nil, err
	}
	if err := sessions.Bootstrap(ctx); err != nil {
		r.logger.Debug("session bootstrap failed", "error", err)
	}
	r.bootstrapped = true
	return sessions, nil
}

// startAutoRefresh keeps the session fresh for long running commands.
func (r *Runner) startAutoRefresh(ctx context.Context) {
	if gt, ok := r.auth.(*services.GoTrueService); ok {
		gt.StartAutoRefresh(ctx)
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// userError turns an auth failure into a message fit for the terminal.
func userError(op string, err error) error {
	var authErr *shared.AuthError
	if errors.As(err, &authErr) {
		return fmt.Errorf("%s failed (%s): %w", op, authErr.Kind, err)
	}
	return fmt.Errorf("%s failed: %w", op, err)
}
