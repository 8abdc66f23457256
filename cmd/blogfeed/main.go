package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"blogfeed/internal/config"
	"blogfeed/internal/metrics"
	"blogfeed/internal/publisher"
	"blogfeed/internal/scheduler"
	"blogfeed/internal/service"
	"blogfeed/internal/source/files"
	"blogfeed/internal/storage/postgres"
)

type CLI struct {
	Config string `short:"c" help:"Configuration file path" default:"config.yaml"`

	Serve   ServeCmd   `cmd:"" help:"Serve the blog API, sitemap and metrics"`
	Compile CompileCmd `cmd:"" help:"Compile Markdown content into the static post collection"`
}

// app carries what every command needs once flags and config are parsed.
type app struct {
	ctx    context.Context
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("blogfeed"),
		kong.Description("Blog content aggregation and normalization service"),
		kong.UsageOnError(),
	)

	if err := run(kctx, cli.Config); err != nil {
		os.Exit(1)
	}
}

func run(kctx *kong.Context, configPath string) error {
	logger := setupLogger("info")

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	logger = setupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = kctx.Run(&app{ctx: ctx, cfg: cfg, logger: logger})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("command failed", "command", kctx.Command(), "error", err)
		return err
	}

	logger.Info("shutdown complete")
	return nil
}

func (a *app) connectDB() (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", a.cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	a.logger.Info("connected to database")
	return db, nil
}

// publisher returns a nil Publisher when events are disabled, so compile
// runs skip publishing instead of failing.
func (a *app) publisher() (service.Publisher, func(), error) {
	if !a.cfg.RabbitMQ.Enabled {
		a.logger.Info("rabbitmq disabled, post events will not be published")
		return nil, func() {}, nil
	}

	rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
		URL:        a.cfg.RabbitMQ.URL,
		Exchange:   a.cfg.RabbitMQ.Exchange,
		RoutingKey: a.cfg.RabbitMQ.RoutingKey,
		QueueName:  a.cfg.RabbitMQ.QueueName,
	}, a.logger)
	if err != nil {
		return nil, nil, err
	}
	return rabbitMQ, func() { rabbitMQ.Close() }, nil
}

func (a *app) compiler(db *sqlx.DB, pub service.Publisher, recorder metrics.Recorder) *service.CompileService {
	return service.NewCompileService(
		files.NewReader(a.cfg.Content.Dir, a.logger),
		postgres.NewPostStore(db),
		postgres.NewTagStore(db),
		postgres.NewBuildStateStore(db),
		postgres.NewTransactionManager(db),
		pub,
		recorder,
		a.logger,
		a.cfg.Compile,
		a.cfg.Site.DefaultLocale,
	)
}

// compileRunners returns the compile scheduler, plus a file watcher that
// triggers it when withWatcher is set.
func (a *app) compileRunners(compiler scheduler.Compiler, withWatcher bool) []func(context.Context) error {
	sched := scheduler.NewScheduler(compiler, a.cfg.Compile.Interval, a.logger)
	runners := []func(context.Context) error{sched.Start}

	if withWatcher {
		w := scheduler.NewWatcher(a.cfg.Content.Dir, a.cfg.Compile.Debounce, sched.Trigger, a.logger)
		runners = append(runners, w.Run)
	}
	return runners
}

// runGroup runs every runner until ctx ends or one of them fails; the first
// failure cancels the rest.
func runGroup(ctx context.Context, runners ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range runners {
		fn := fn
		g.Go(func() error { return ignoreCanceled(fn(gctx)) })
	}
	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
