package app

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"muninn/internal/bus"
	"muninn/internal/config"
	"muninn/internal/gateway"
	"muninn/internal/jobstore"
	"muninn/internal/origin"
	"muninn/internal/progress"
	"muninn/internal/uploader"
)

// App holds the wired application components for the lifetime of one
// process: CLI invocation or API server.
type App struct {
	Config   *config.Config
	Store    *jobstore.Store
	Progress *progress.Reporter
	Bus      *bus.Bus
	Origin   origin.Marker
	Gateway  *gateway.Client
	Uploader *uploader.Service

	originStore *origin.SQLiteMarker
}

func NewApp(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{Config: cfg}

	a.Store = jobstore.New()
	a.Bus = bus.New()
	a.Progress = progress.New(
		a.Store,
		time.Duration(cfg.Progress.TickMs)*time.Millisecond,
		cfg.Progress.Increment,
		cfg.Progress.Ceiling,
	)

	if err := a.initOriginStore(); err != nil {
		return nil, err
	}

	a.Gateway = gateway.NewClient(
		cfg.Backend.BaseURL,
		cfg.Backend.APIKey,
		time.Duration(cfg.Backend.TimeoutSeconds)*time.Second,
	)

	a.Uploader = uploader.NewService(uploader.ServiceDeps{
		Store:    a.Store,
		Progress: a.Progress,
		Issuer:   a.Gateway,
		Transfer: a.Gateway,
		Analysis: a.Gateway,
		Bus:      a.Bus,
		Origin:   a.Origin,
		Config:   cfg,
	})

	log.Debug("application initialization complete")
	return a, nil
}

func (a *App) initOriginStore() error {
	marker, err := origin.NewSQLiteMarker(a.Config.Origin.Path)
	if err != nil {
		return fmt.Errorf("init origin store: %w", err)
	}
	a.originStore = marker
	a.Origin = marker
	return nil
}

func (a *App) Close() {
	if a.originStore != nil {
		if err := a.originStore.Close(); err != nil {
			log.WithError(err).Warn("error closing origin store")
		}
	}
}
