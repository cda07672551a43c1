package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/adbx/internal/collection"
	"github.com/desertthunder/adbx/internal/events"
	"github.com/desertthunder/adbx/internal/repositories"
	"github.com/desertthunder/adbx/internal/search"
	"github.com/desertthunder/adbx/internal/services"
	"github.com/desertthunder/adbx/internal/shared"
	"github.com/desertthunder/adbx/internal/state"
	"github.com/desertthunder/adbx/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	client *services.Client
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Client *services.Client
	Logger *log.Logger
	Output io.Writer
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
	if opts.Client == nil {
		opts.Client = services.NewClient(opts.Config, opts.Logger)
	}

	return &Runner{
		config: opts.Config,
		client: opts.Client,
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, searchCommand, tableCommand, linksCommand, rebuildCommand, playlistCommand, exportCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Session wires one command invocation's collection, state, and task engine.
// CLI commands are one-shot: each builds a session, works the grid, and exits.
type Session struct {
	db         *sql.DB
	store      *state.Store
	bus        *events.Bus
	collection *collection.Engine
	search     *search.Manager
	engine     *tasks.TableEngine
	media      *services.MediaResolver
	playlists  *repositories.PlaylistRepository
	appState   *repositories.AppStateRepository
}

// Close releases the session's database handle.
func (s *Session) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// openSession builds the object graph for one command. With withDB false the
// session works purely in memory: no playlist storage, no durable settings.
func (r *Runner) openSession(withDB bool) (*Session, error) {
	s := &Session{bus: events.NewBus(r.logger)}

	var persist state.Persister
	if withDB {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		s.db = db
		s.playlists = repositories.NewPlaylistRepository(db)
		s.appState = repositories.NewAppStateRepository(db)
		persist = s.appState
	}

	s.store = state.New(state.DefaultTree(), persist, state.DurablePaths, r.logger)
	s.store.Restore()

	romaji := r.romaji(s.store)
	s.collection = collection.NewEngine(collection.EngineOpts{
		Store:  s.store,
		Bus:    s.bus,
		Logger: shared.WithLogger(r.logger, "component", "grid"),
		Romaji: romaji,
	})
	s.search = search.NewManager(r.client, s.collection, s.bus, r.logger)
	s.media = services.NewMediaResolver(r.fileHost(s.store))

	prober := services.NewProber(r.config, r.logger)
	s.engine = tasks.NewTableEngine(tasks.TableEngineOpts{
		Collection: s.collection,
		Bus:        s.bus,
		Logger:     shared.WithLogger(r.logger, "component", "bulk"),
		Probe:      prober.Reachable,
		Fetch:      s.search.FetchByAnnSongIDs,
		MediaURL:   s.media.Build,
		Workers:    r.config.Probe.Workers,
		RateLimit:  r.config.Probe.RateLimit,
		ChunkSize:  r.config.Table.ChunkSize,
	})
	return s, nil
}

// romaji reports whether titles should prefer the romaji reading, letting a
// durable setting override the config file.
func (r *Runner) romaji(store *state.Store) bool {
	if lang, ok := store.Get(state.PathSettingsLanguage).(string); ok && lang != "" {
		return lang == "romaji"
	}
	return r.config.Table.Language == "romaji"
}

func (r *Runner) fileHost(store *state.Store) string {
	if host, ok := store.Get(state.PathSettingsFileHost).(string); ok && host != "" {
		return host
	}
	return r.config.Media.FileHost
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
