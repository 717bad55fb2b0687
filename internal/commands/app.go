// Package commands defines the vcspilot CLI surface.
package commands

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vcspilot/vcspilot/internal/completion"
	"github.com/vcspilot/vcspilot/internal/config"
	"github.com/vcspilot/vcspilot/internal/summarize"
	"github.com/vcspilot/vcspilot/internal/template"
	"github.com/vcspilot/vcspilot/internal/vcs"
)

// App carries the wiring every subcommand shares: configuration, logger,
// and template store. Built once in the root command's PersistentPreRunE.
type App struct {
	ConfigPath string
	Verbose    bool

	cfg       *config.Config
	log       *zap.Logger
	templates *template.Loader
}

// Init loads configuration and builds the logger. Config violations are
// fatal here; nothing downstream runs with a broken setup.
func (a *App) Init() error {
	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = newLogger(a.Verbose)
	a.templates = template.NewLoader(cfg)
	return nil
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Logger returns the process logger.
func (a *App) Logger() *zap.Logger { return a.log }

// Templates returns the prompt template store.
func (a *App) Templates() *template.Loader { return a.templates }

// Client builds the completion client. A missing or misconfigured model
// host is not fatal: callers get nil and take their deterministic
// fallbacks.
func (a *App) Client() completion.Client {
	client, err := completion.NewOllama(a.cfg.Model, a.log)
	if err != nil {
		a.log.Warn("completion client unavailable", zap.Error(err))
		return nil
	}
	return client
}

// Summarizer builds the message generator over the completion client.
func (a *App) Summarizer() *summarize.Summarizer {
	return summarize.New(a.cfg, a.Client(), a.templates, a.log)
}

// Backend detects the VCS backend for dir, defaulting to the working
// directory.
func (a *App) Backend(dir string) (vcs.Backend, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = cwd
	}
	return vcs.Detect(dir, "", nil, a.log)
}

// newLogger builds a console logger on stderr. Hook stdout belongs to the
// assistant protocol, so logs never go there.
func newLogger(verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	return zap.New(core)
}
