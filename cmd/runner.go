package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtx/internal/repositories"
	"github.com/desertthunder/mtx/internal/services"
	"github.com/desertthunder/mtx/internal/session"
	"github.com/desertthunder/mtx/internal/shared"
	"github.com/desertthunder/mtx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The API client and the session-backed services are built on first use so commands that only
// touch configuration never open storage.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	tracker    *services.TrackerService
	identity   *services.IdentityService
	sessions   *session.Store
	storage    session.Storage
	db         *sql.DB
	engine     *tasks.ProgressEngine
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService
	Storage    session.Storage // Overrides the SQLite storage from config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		storage:    opts.Storage,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, mediaCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and anything it builds afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Configure loads the config named by --config and applies the log level. It runs before every command.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" && path != r.configPath {
		config, err := shared.LoadConfigOrDefault(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.configPath = path
	}

	level := shared.ParseLogLevel(r.config.Log.Level)
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)

	return ctx, nil
}

// Close releases the storage database when one was opened.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// client returns the API client, building it from config on first use.
func (r *Runner) client() *services.APIService {
	if r.api == nil {
		if r.httpClient == nil {
			r.httpClient = &http.Client{Timeout: r.config.API.Timeout()}
		}
		r.api = services.NewAPIService(r.config.API.BaseURL, r.httpClient).WithRateLimit(r.config.API.RateLimit)
	}
	return r.api
}

// open wires the session store, tracker, identity adapter and engine, opening storage if needed,
// and restores any stored session.
func (r *Runner) open() error {
	if r.engine != nil {
		return nil
	}

	if r.storage == nil {
		db, err := shared.OpenStorage(r.config.Storage)
		if err != nil {
			return fmt.Errorf("failed to open storage at %s: %w", r.config.Storage.Path, err)
		}
		r.db = db
		r.storage = repositories.NewLocalStorage(db)
	}

	api := r.client()
	r.sessions = session.NewStore(r.storage, shared.WithLogger(r.logger, "component", "session"))
	r.tracker = services.NewTrackerService(api)
	r.identity = services.NewIdentityService(api, r.config.Identity, r.sessions, shared.WithLogger(r.logger, "component", "identity"))
	r.engine = tasks.NewProgressEngine(r.tracker, r.identity, r.sessions, shared.WithLogger(r.logger, "component", "engine"))
	r.engine.Restore()

	return nil
}

// reportProgress prints engine updates until the returned stop func is called.
func (r *Runner) reportProgress() (chan tasks.ProgressUpdate, func()) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.BulkMark:
				r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
			default:
				r.logger.Debug(update.Message, "phase", update.Phase)
			}
		}
	}()

	return progressCh, func() {
		close(progressCh)
		<-done
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

func (r *Runner) writeRaw(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
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
