package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samvad-hq/weixin-sdk/pkg/httpclient"
	"github.com/samvad-hq/weixin-sdk/pkg/logging"
)

// httpPublisher posts events as JSON to a webhook over the shared transport.
type httpPublisher struct {
	id        string
	cfg       HTTPConfig
	transport httpclient.Client
	log       logging.Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log logging.Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	return &httpPublisher{
		id:        cfg.ID,
		cfg:       *cfg.HTTP,
		transport: httpclient.NewRestyClient(timeout),
		log:       logging.OrNop(log),
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

// Publish sends evt with an X-Link-Kind header so receivers can route without
// decoding the body.
func (h *httpPublisher) Publish(ctx context.Context, evt LinkEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	headers := make(map[string]string, len(h.cfg.Headers)+2)
	for k, v := range h.cfg.Headers {
		headers[k] = v
	}
	headers["Content-Type"] = "application/json"
	headers["X-Link-Kind"] = evt.Kind

	resp, err := h.transport.Do(ctx, &httpclient.Request{
		Method:  h.cfg.Method,
		URL:     h.cfg.URL,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	if status := resp.StatusCode(); status < 200 || status > 299 {
		return fmt.Errorf("http response status %d: %s", status, snippet(resp.Body()))
	}

	h.log.DebugObj("http publisher delivered event", "publisher_delivery", map[string]any{
		"publisher_id": h.id,
		"kind":         evt.Kind,
		"status":       resp.StatusCode(),
	})
	return nil
}

func snippet(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
