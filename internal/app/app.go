package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/aitool/sleuth/internal/aggregate"
	"github.com/aitool/sleuth/internal/backend"
	"github.com/aitool/sleuth/internal/config"
	"github.com/aitool/sleuth/internal/prefs"
	"github.com/aitool/sleuth/internal/registry"
	"github.com/aitool/sleuth/internal/state"
	"github.com/aitool/sleuth/internal/ui"
	"github.com/aitool/sleuth/internal/upload"
)

// Services bundles the components built from one configuration. The TUI
// and every CLI command share them.
type Services struct {
	Config   config.Config
	Client   *backend.Client
	Fetcher  *aggregate.Fetcher
	Files    *registry.Service
	Uploader *upload.Uploader
}

// NewServices validates cfg and wires the backend client into the viewer,
// registry and upload components.
func NewServices(cfg config.Config) (*Services, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strategy, err := aggregate.ParseStrategy(cfg.Viewer.Strategy)
	if err != nil {
		return nil, err
	}
	client, err := backend.NewClient(cfg.APIURL, backend.WithRequestTimeout(cfg.RequestTimeout))
	if err != nil {
		return nil, fmt.Errorf("init backend client: %w", err)
	}
	return &Services{
		Config: cfg,
		Client: client,
		Fetcher: aggregate.NewFetcher(client, aggregate.Options{
			Strategy:     strategy,
			BulkPageSize: cfg.Viewer.BulkPageSize,
			PageSize:     cfg.Viewer.PageSize,
			Concurrency:  cfg.Viewer.Concurrency,
		}),
		Files:    registry.NewService(client),
		Uploader: upload.New(client, cfg.Upload.MaxBytes, cfg.Upload.Timeout),
	}, nil
}

// Run boots the TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, svc *Services, prefsPath string) error {
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs := prefs.Load(prefsPath)

	store := &state.Store{}
	interval := svc.Config.PollInterval

	log.WithFields(log.Fields{
		"api_url":  svc.Client.BaseURL(),
		"strategy": string(svc.Fetcher.Strategy()),
	}).Info("starting tui")

	// Populate the store before the first frame so the list is not empty.
	_ = Refresh(ctx, store, svc.Client)
	StartPoller(ctx, store, svc.Client, interval)

	return ui.Run(ui.Options{
		Context:   ctx,
		Store:     store,
		Files:     svc.Files,
		Fetcher:   svc.Fetcher,
		Uploader:  svc.Uploader,
		Pinger:    svc.Client,
		APIURL:    svc.Client.BaseURL(),
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
	})
}
