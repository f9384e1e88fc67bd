package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/samvad-hq/weixin-sdk/internal/secrets"
	"github.com/samvad-hq/weixin-sdk/pkg/publishers"
	"github.com/samvad-hq/weixin-sdk/pkg/weixin"
)

// ErrUsage is returned when the command line cannot be parsed.
var ErrUsage = errors.New("usage error")

const usage = `usage: weixin <command> [flags]

commands:
  token    -appid ID                          fetch an access token
  session  -appid ID -code CODE               exchange a wx.login code
  phone    -token TOKEN -code CODE            exchange a getPhoneNumber code
  qrcode   -token TOKEN -scene S -out FILE    render an unlimited mini-program code
  urllink  -token TOKEN -path P [-query Q]    generate a url_link
  secret   put|delete|list                    manage the bbolt secret store
`

type command func(ctx context.Context, args []string) error

// Run dispatches args[0] to its command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command\n%s", ErrUsage, usage)
	}

	commands := map[string]command{
		"token":   a.runToken,
		"session": a.runSession,
		"phone":   a.runPhone,
		"qrcode":  a.runQrCode,
		"urllink": a.runURLLink,
		"secret":  a.runSecret,
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q\n%s", ErrUsage, args[0], usage)
	}
	return cmd(ctx, args[1:])
}

func (a *App) runToken(ctx context.Context, args []string) error {
	fs := newFlagSet("token")
	appID := fs.String("appid", "", "mini-program appid")
	if err := parse(fs, args); err != nil {
		return err
	}

	resp, err := a.client.AccessToken(ctx, *appID)
	if err != nil {
		return err
	}
	return a.print(resp)
}

func (a *App) runSession(ctx context.Context, args []string) error {
	fs := newFlagSet("session")
	appID := fs.String("appid", "", "mini-program appid")
	code := fs.String("code", "", "code returned by wx.login")
	if err := parse(fs, args); err != nil {
		return err
	}

	resp, err := a.client.Session(ctx, *appID, *code)
	if err != nil {
		return err
	}
	return a.print(resp)
}

func (a *App) runPhone(ctx context.Context, args []string) error {
	fs := newFlagSet("phone")
	token := fs.String("token", "", "access token")
	code := fs.String("code", "", "code returned by getPhoneNumber")
	if err := parse(fs, args); err != nil {
		return err
	}

	resp, err := a.client.Phone(ctx, *token, *code)
	if err != nil {
		return err
	}
	return a.print(resp)
}

func (a *App) runQrCode(ctx context.Context, args []string) error {
	fs := newFlagSet("qrcode")
	token := fs.String("token", "", "access token")
	scene := fs.String("scene", "", "scene parameter, at most 32 visible characters")
	page := fs.String("page", "", "page opened by the code, home page when empty")
	width := fs.Int("width", 0, "image width in px (280-1280)")
	env := fs.String("env", "", "release, trial or develop")
	noCheck := fs.Bool("no-check-path", false, "skip the page existence check")
	hyaline := fs.Bool("hyaline", false, "transparent background")
	out := fs.String("out", "", "file the image is written to")
	if err := parse(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*out) == "" {
		return fmt.Errorf("%w: -out is required", ErrUsage)
	}

	req := weixin.NewPageQrCodeRequest(*scene, *page)
	req.Width = *width
	req.EnvVersion = *env
	if *noCheck {
		req.CheckPath = weixin.Bool(false)
	}
	if *hyaline {
		req.IsHyaline = weixin.Bool(true)
	}

	img, err := a.client.UnlimitedQrCode(ctx, *token, req)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, img, 0o644); err != nil {
		return fmt.Errorf("write qrcode image: %w", err)
	}

	if err := a.print(map[string]any{"file": *out, "size": len(img)}); err != nil {
		return err
	}
	return a.publish(ctx, publishers.NewQRCodeEvent(*page, *scene, *out, len(img)))
}

func (a *App) runURLLink(ctx context.Context, args []string) error {
	fs := newFlagSet("urllink")
	token := fs.String("token", "", "access token")
	path := fs.String("path", "", "mini-program page path")
	query := fs.String("query", "", "query string passed to the page")
	expireDays := fs.Int("expire-days", 0, "expire the link after this many days (max 30)")
	expireAt := fs.Int64("expire-at", 0, "expire the link at this unix time")
	env := fs.String("env", "", "release, trial or develop")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *expireDays > 0 && *expireAt > 0 {
		return fmt.Errorf("%w: -expire-days and -expire-at are exclusive", ErrUsage)
	}

	req := weixin.NewGenerateUrlLinkRequest(*path, *query)
	req.EnvVersion = *env
	switch {
	case *expireDays > 0:
		req.SetExpireInterval(*expireDays)
	case *expireAt > 0:
		req.SetExpireTime(*expireAt)
	}

	link, err := a.client.GenerateUrlLink(ctx, *token, req)
	if err != nil {
		return err
	}

	if err := a.print(map[string]string{"url_link": link}); err != nil {
		return err
	}
	return a.publish(ctx, publishers.NewURLLinkEvent(*path, *query, link))
}

func (a *App) runSecret(_ context.Context, args []string) error {
	if a.cfg.SecretStore != secrets.TypeBBolt {
		return fmt.Errorf("secret commands require secret_store=%s, got %q", secrets.TypeBBolt, a.cfg.SecretStore)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: secret needs put, delete or list", ErrUsage)
	}

	fs := newFlagSet("secret " + args[0])
	appID := fs.String("appid", "", "mini-program appid")
	secret := fs.String("secret", "", "app secret")
	if err := parse(fs, args[1:]); err != nil {
		return err
	}

	switch args[0] {
	case "put":
		if strings.TrimSpace(*appID) == "" || strings.TrimSpace(*secret) == "" {
			return fmt.Errorf("%w: secret put needs -appid and -secret", ErrUsage)
		}
		if err := a.store.Put(*appID, *secret); err != nil {
			return err
		}
		a.log.InfoObj("secret stored", "app_id", *appID)
		return a.print(map[string]string{"stored": *appID})
	case "delete":
		if strings.TrimSpace(*appID) == "" {
			return fmt.Errorf("%w: secret delete needs -appid", ErrUsage)
		}
		if err := a.store.Delete(*appID); err != nil {
			return err
		}
		a.log.InfoObj("secret deleted", "app_id", *appID)
		return a.print(map[string]string{"deleted": *appID})
	case "list":
		ids, err := a.store.AppIDs()
		if err != nil {
			return err
		}
		if ids == nil {
			ids = []string{}
		}
		return a.print(map[string][]string{"app_ids": ids})
	default:
		return fmt.Errorf("%w: unknown secret action %q", ErrUsage, args[0])
	}
}

// print writes v to the command output as indented JSON.
func (a *App) print(v any) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUsage, fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: %s: unexpected arguments %v", ErrUsage, fs.Name(), fs.Args())
	}
	return nil
}
