package bot

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/sylni/helpbot/core/bootstrap"
	corecmd "github.com/sylni/helpbot/core/cmd"
	coreconfig "github.com/sylni/helpbot/core/config"
	coredatabase "github.com/sylni/helpbot/core/database"
	coretelegram "github.com/sylni/helpbot/core/telegram"
	tgrouter "github.com/sylni/helpbot/core/telegram/router"
	"github.com/sylni/helpbot/internal/conversation"
	"github.com/sylni/helpbot/internal/ratelimit"
	"github.com/sylni/helpbot/internal/routing"
	"github.com/sylni/helpbot/internal/storage"
)

// Config is the application configuration: the shared core sections
// plus the database connection.
type Config struct {
	coreconfig.Config `yaml:",inline"`
	Database          coredatabase.Config `yaml:"database"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// LoadConfig reads the YAML config file and environment overrides.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// App holds the wired application.
type App struct {
	cfg *Config
	db  *sqlx.DB

	cases  *storage.CaseRepo
	access *storage.AccessRepo

	transport *Transport
	router    *routing.Router
	engine    *conversation.Engine
	limiter   *ratelimit.Limiter
	operators map[int64]struct{}
	registry  *coretelegram.Registry
}

// Bootstrap initializes infrastructure and wires the application.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("bot: unexpected config type %T", carrier)
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:       cfg,
		db:        res.DB,
		cases:     storage.NewCaseRepo(res.DB),
		access:    storage.NewAccessRepo(res.DB),
		transport: &Transport{},
		operators: make(map[int64]struct{}, len(cfg.Telegram.Operators)),
	}
	for _, id := range cfg.Telegram.Operators {
		app.operators[id] = struct{}{}
	}

	app.router = routing.New(app.transport, app.cases, app.access, cfg.Telegram.Operators)
	app.limiter = ratelimit.New(
		cfg.RateLimit.Messages,
		time.Duration(cfg.RateLimit.PeriodSeconds)*time.Second,
	)
	app.engine = conversation.NewEngine(conversation.Options{
		Cases:       app.cases,
		Access:      app.access,
		Out:         app.router,
		OpenHour:    cfg.Intake.OpenHour,
		CloseHour:   cfg.Intake.CloseHour,
		FormTimeout: time.Duration(cfg.Intake.FormTimeoutSeconds) * time.Second,
		UrgentPause: time.Duration(cfg.Intake.UrgentPauseSeconds) * time.Second,
		IntroPause:  time.Duration(cfg.Intake.IntroPauseSeconds) * time.Second,
		StepPause:   time.Duration(cfg.Intake.StepPauseSeconds) * time.Second,
	})

	app.registry = coretelegram.NewRegistry()
	app.registerCommands(app.registry)

	return app, nil
}

// IsOperator reports whether the sender belongs to the operator list.
func (a *App) IsOperator(id int64) bool {
	_, ok := a.operators[id]
	return ok
}

// TelegramRunOptions assembles the runtime wiring for the core runner.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	routes := tgrouter.CommandRoutes(a.registry, tgrouter.CommandRouteOptions{
		Operators: a.operators,
	})
	routes = append(routes, tgrouter.TextRoutes(a.registry, tgrouter.TextOptions{
		Intercept: a.interceptOperatorReply,
		Operators: a.operators,
		Primary:   a.handleText,
	})...)
	routes = append(routes, tgrouter.MediaRoutes(a.registry, tgrouter.MediaOptions{
		Intercept: a.interceptOperatorReply,
		Primary:   a.handleMedia,
	})...)

	opts := coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    a.registry,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), a.limiter, a.onLimited),
		Routes:      routes,
		OnStart: func(_ context.Context, rt coretelegram.Runtime) error {
			a.transport.Bind(rt.Bot)
			return nil
		},
		OnStop: func(_ context.Context, _ coretelegram.Runtime) error {
			return a.db.Close()
		},
	}
	return opts, nil
}
