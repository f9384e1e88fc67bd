package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/samvad-hq/weixin-sdk/internal/config"
	"github.com/samvad-hq/weixin-sdk/internal/logger"
	"github.com/samvad-hq/weixin-sdk/internal/secrets"
	"github.com/samvad-hq/weixin-sdk/pkg/httpclient"
	"github.com/samvad-hq/weixin-sdk/pkg/publishers"
	"github.com/samvad-hq/weixin-sdk/pkg/weixin"
)

// App is the weixin CLI runtime. It owns the secret store, the API client and
// the optional publishers fanout that receives generated links.
type App struct {
	cfg    *config.Config
	client *weixin.Client
	store  secrets.Store
	fanout *publishers.Fanout
	log    logger.Logger
	out    io.Writer
}

// New builds the runtime from config. Command output is written to out.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, out io.Writer) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if out == nil {
		out = os.Stdout
	}
	if ctx == nil {
		ctx = context.Background()
	}

	pairs, err := secrets.ParsePairs(cfg.Apps)
	if err != nil {
		return nil, fmt.Errorf("parse weixin_apps: %w", err)
	}
	store, err := secrets.NewStore(cfg.SecretStore, cfg.BBoltPath, pairs)
	if err != nil {
		return nil, fmt.Errorf("init secret store: %w", err)
	}
	appIDs, _ := store.AppIDs()
	log.InfoObj("secret store initialized", "secret_store", map[string]any{
		"type":    cfg.SecretStore,
		"path":    cfg.BBoltPath,
		"app_ids": appIDs,
	})

	transport := httpclient.NewRestyClient(cfg.HTTPTimeout)
	client, err := weixin.New(transport, nil, store,
		weixin.WithBaseURL(cfg.BaseURL),
		weixin.WithLogger(log),
	)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init weixin client: %w", err)
	}

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &App{
		cfg:    cfg,
		client: client,
		store:  store,
		fanout: fanout,
		log:    log,
		out:    out,
	}, nil
}

// buildFanout returns nil when no publishers file is configured.
func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if path == "" {
		return nil, nil
	}

	cfgs, err := publishers.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers: %w", err)
	}
	if len(cfgs) == 0 {
		log.WarnObj("no enabled publishers; generated links will not be delivered", "publishers_file", path)
		return nil, nil
	}

	fanout, err := publishers.Build(ctx, cfgs, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]any, 0, len(cfgs))
	for _, c := range cfgs {
		summaries = append(summaries, map[string]any{
			"id":    c.ID,
			"type":  c.Type,
			"kinds": c.Kinds,
		})
	}
	log.InfoObj("publishers loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return fanout, nil
}

// Close releases the secret store and publisher connections.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close secret store: %w", err))
		}
	}
	if err := a.fanout.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// publish delivers evt to the fanout, if any.
func (a *App) publish(ctx context.Context, evt publishers.LinkEvent) error {
	if a.fanout.Size() == 0 {
		return nil
	}
	delivered, err := a.fanout.Publish(ctx, evt)
	if err != nil {
		a.log.ErrorObj("link event delivery failed", "publish_error", map[string]any{
			"kind":      evt.Kind,
			"delivered": delivered,
			"error":     err.Error(),
		})
		return fmt.Errorf("publish %s event: %w", evt.Kind, err)
	}
	a.log.InfoObj("link event delivered", "publish_meta", map[string]any{
		"kind":      evt.Kind,
		"delivered": delivered,
	})
	return nil
}
