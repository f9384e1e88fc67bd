package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/weixin-sdk/internal/config"
	"github.com/samvad-hq/weixin-sdk/internal/logger"
	"github.com/samvad-hq/weixin-sdk/internal/secrets"
	"github.com/samvad-hq/weixin-sdk/pkg/publishers"
	"github.com/samvad-hq/weixin-sdk/pkg/weixin"
)

var pngImage = []byte("\x89PNG\r\n\x1a\nfake-image")

// newWeixinServer serves the endpoints the CLI exercises.
func newWeixinServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/cgi-bin/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("appid") != "wxapp" || r.URL.Query().Get("secret") != "shh" {
			_, _ = io.WriteString(w, `{"errcode":40013,"errmsg":"invalid appid rid: 6541"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"TOKEN","expires_in":7200}`)
	})
	mux.HandleFunc("/sns/jscode2session", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, `{"openid":"o-1","session_key":"sk"}`)
	})
	mux.HandleFunc("/wxa/getwxacodeunlimit", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != "TOKEN" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"errcode":40001,"errmsg":"invalid credential"}`)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(pngImage)
	})
	mux.HandleFunc("/wxa/generate_urllink", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		if body["expire_interval"] != float64(7) || body["expire_type"] != float64(1) {
			_, _ = io.WriteString(w, `{"errcode":40097,"errmsg":"invalid args"}`)
			return
		}
		_, _ = io.WriteString(w, `{"errcode":0,"errmsg":"ok","url_link":"https://wxaurl.cn/abc"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type sink struct {
	mu     sync.Mutex
	events []publishers.LinkEvent
}

func (s *sink) received() []publishers.LinkEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]publishers.LinkEvent(nil), s.events...)
}

// newSinkServer records events delivered by the http publisher.
func newSinkServer(t *testing.T) (*httptest.Server, *sink) {
	t.Helper()
	s := &sink{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt publishers.LinkEvent
		if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.events = append(s.events, evt)
		s.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)
	return srv, s
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		AppName:     "weixin-sdk",
		Env:         "test",
		BaseURL:     baseURL,
		HTTPTimeout: 5 * time.Second,
		SecretStore: secrets.TypeStatic,
		Apps:        "wxapp=shh",
	}
}

func newTestApp(t *testing.T, cfg *config.Config) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	a, err := New(context.Background(), cfg, logger.NopLogger{}, &out)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a, &out
}

func TestTokenCommand(t *testing.T) {
	srv := newWeixinServer(t)
	a, out := newTestApp(t, testConfig(srv.URL))

	if err := a.Run(context.Background(), []string{"token", "-appid", "wxapp"}); err != nil {
		t.Fatalf("token: %v", err)
	}
	var got weixin.AccessTokenResponse
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output %q: %v", out.String(), err)
	}
	if got.AccessToken != "TOKEN" || got.ExpiresIn != 7200 {
		t.Fatalf("unexpected token output %+v", got)
	}
}

func TestTokenCommandUnknownApp(t *testing.T) {
	srv := newWeixinServer(t)
	a, _ := newTestApp(t, testConfig(srv.URL))

	err := a.Run(context.Background(), []string{"token", "-appid", "other"})
	var notFound *weixin.SecretNotFoundError
	if !errors.As(err, &notFound) || notFound.AppID != "other" {
		t.Fatalf("expected SecretNotFoundError, got %v", err)
	}
}

func TestSessionCommandPlainTextJSON(t *testing.T) {
	srv := newWeixinServer(t)
	a, out := newTestApp(t, testConfig(srv.URL))

	if err := a.Run(context.Background(), []string{"session", "-appid", "wxapp", "-code", "c"}); err != nil {
		t.Fatalf("session: %v", err)
	}
	var got weixin.SessionResponse
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output %q: %v", out.String(), err)
	}
	if got.OpenID != "o-1" || got.SessionKey != "sk" {
		t.Fatalf("unexpected session output %+v", got)
	}
}

func TestQrCodeCommandWritesImageAndPublishes(t *testing.T) {
	srv := newWeixinServer(t)
	sinkSrv, s := newSinkServer(t)

	pubFile := filepath.Join(t.TempDir(), "publishers.yaml")
	pubYAML := "publishers:\n  - id: hook\n    type: http\n    http:\n      url: " + sinkSrv.URL + "\n"
	if err := os.WriteFile(pubFile, []byte(pubYAML), 0o644); err != nil {
		t.Fatalf("write publishers file: %v", err)
	}
	cfg := testConfig(srv.URL)
	cfg.PublishersFile = pubFile
	a, out := newTestApp(t, cfg)

	imgPath := filepath.Join(t.TempDir(), "code.jpg")
	args := []string{"qrcode", "-token", "TOKEN", "-scene", "id=42", "-page", "pages/item/item", "-out", imgPath}
	if err := a.Run(context.Background(), args); err != nil {
		t.Fatalf("qrcode: %v", err)
	}

	written, err := os.ReadFile(imgPath)
	if err != nil {
		t.Fatalf("read image: %v", err)
	}
	if !bytes.Equal(written, pngImage) {
		t.Fatalf("image bytes mismatch")
	}
	if !strings.Contains(out.String(), imgPath) {
		t.Fatalf("output does not name the file: %s", out.String())
	}

	events := s.received()
	if len(events) != 1 {
		t.Fatalf("expected one delivered event, got %d", len(events))
	}
	evt := events[0]
	if evt.Kind != publishers.KindQRCode || evt.Scene != "id=42" || evt.ImageSize != len(pngImage) {
		t.Fatalf("unexpected event %+v", evt)
	}
}

func TestQrCodeCommandRemoteError(t *testing.T) {
	srv := newWeixinServer(t)
	a, _ := newTestApp(t, testConfig(srv.URL))

	imgPath := filepath.Join(t.TempDir(), "code.jpg")
	err := a.Run(context.Background(), []string{"qrcode", "-token", "BAD", "-scene", "x", "-out", imgPath})
	if !weixin.IsErrCode(err, weixin.CodeInvalidCredential) {
		t.Fatalf("expected errcode 40001, got %v", err)
	}
	if _, statErr := os.Stat(imgPath); !os.IsNotExist(statErr) {
		t.Fatalf("image must not be written on error")
	}
}

func TestQrCodeCommandRequiresOut(t *testing.T) {
	a, _ := newTestApp(t, testConfig("http://127.0.0.1:1"))
	err := a.Run(context.Background(), []string{"qrcode", "-token", "TOKEN", "-scene", "x"})
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestURLLinkCommand(t *testing.T) {
	srv := newWeixinServer(t)
	a, out := newTestApp(t, testConfig(srv.URL))

	args := []string{"urllink", "-token", "TOKEN", "-path", "pages/home/index", "-query", "a=1", "-expire-days", "7"}
	if err := a.Run(context.Background(), args); err != nil {
		t.Fatalf("urllink: %v", err)
	}
	if !strings.Contains(out.String(), "https://wxaurl.cn/abc") {
		t.Fatalf("unexpected output %s", out.String())
	}
}

func TestURLLinkCommandExclusiveExpiry(t *testing.T) {
	a, _ := newTestApp(t, testConfig("http://127.0.0.1:1"))
	err := a.Run(context.Background(), []string{"urllink", "-token", "T", "-expire-days", "1", "-expire-at", "1700000000"})
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestSecretCommandsWithBolt(t *testing.T) {
	srv := newWeixinServer(t)
	cfg := testConfig(srv.URL)
	cfg.SecretStore = secrets.TypeBBolt
	cfg.BBoltPath = filepath.Join(t.TempDir(), "secrets.db")
	cfg.Apps = ""
	a, out := newTestApp(t, cfg)
	ctx := context.Background()

	if err := a.Run(ctx, []string{"secret", "put", "-appid", "wxapp", "-secret", "shh"}); err != nil {
		t.Fatalf("secret put: %v", err)
	}
	out.Reset()
	if err := a.Run(ctx, []string{"token", "-appid", "wxapp"}); err != nil {
		t.Fatalf("token after put: %v", err)
	}
	out.Reset()
	if err := a.Run(ctx, []string{"secret", "list"}); err != nil {
		t.Fatalf("secret list: %v", err)
	}
	var listed map[string][]string
	if err := json.Unmarshal(out.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed["app_ids"]) != 1 || listed["app_ids"][0] != "wxapp" {
		t.Fatalf("unexpected list %v", listed)
	}

	if err := a.Run(ctx, []string{"secret", "delete", "-appid", "wxapp"}); err != nil {
		t.Fatalf("secret delete: %v", err)
	}
	var notFound *weixin.SecretNotFoundError
	if err := a.Run(ctx, []string{"token", "-appid", "wxapp"}); !errors.As(err, &notFound) {
		t.Fatalf("expected SecretNotFoundError after delete, got %v", err)
	}
}

func TestSecretCommandsNeedBolt(t *testing.T) {
	a, _ := newTestApp(t, testConfig("http://127.0.0.1:1"))
	if err := a.Run(context.Background(), []string{"secret", "list"}); err == nil {
		t.Fatalf("expected error for static store")
	}
}

func TestRunUnknownCommand(t *testing.T) {
	a, _ := newTestApp(t, testConfig("http://127.0.0.1:1"))
	for _, args := range [][]string{nil, {"nope"}, {"token", "-bogus"}, {"token", "extra"}} {
		if err := a.Run(context.Background(), args); !errors.Is(err, ErrUsage) {
			t.Fatalf("args %v: expected usage error, got %v", args, err)
		}
	}
}

func TestNewRejectsBadApps(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Apps = "missing-separator"
	if _, err := New(context.Background(), cfg, nil, io.Discard); err == nil {
		t.Fatalf("expected error for malformed weixin_apps")
	}
	if _, err := New(context.Background(), nil, nil, io.Discard); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
