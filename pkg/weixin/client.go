// Package weixin is a client for the WeChat mini-program backend API.
//
// Every call builds a request, attaches either appid+secret or access_token query
// parameters, executes it on the injected transport and inspects the body for a
// non-zero errcode before decoding the typed result.
package weixin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/samvad-hq/weixin-sdk/pkg/httpclient"
	"github.com/samvad-hq/weixin-sdk/pkg/logging"
)

// DefaultBaseURL is the WeChat API host.
const DefaultBaseURL = "https://api.weixin.qq.com"

const (
	pathAccessToken     = "/cgi-bin/token"
	pathSession         = "/sns/jscode2session"
	pathUserPhoneNumber = "/wxa/business/getuserphonenumber"
	pathUnlimitedQrCode = "/wxa/getwxacodeunlimit"
	pathGenerateUrlLink = "/wxa/generate_urllink"

	contentTypeJSON = "application/json; charset=utf-8"
)

// Client calls the WeChat API. It holds no per-request state and is safe for
// concurrent use when its transport and SecretHolder are.
type Client struct {
	transport httpclient.Client
	codec     Codec
	secrets   SecretHolder
	baseURL   string
	log       logging.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL resolves operation paths against base instead of DefaultBaseURL.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base = strings.TrimSpace(base); base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(log logging.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New builds a Client. A nil codec selects DefaultCodec.
func New(transport httpclient.Client, codec Codec, holder SecretHolder, opts ...Option) (*Client, error) {
	if isNil(holder) {
		return nil, ErrSecretHolderNotSet
	}
	if isNil(transport) {
		return nil, ErrTransportNotSet
	}
	if codec == nil {
		codec = DefaultCodec()
	}

	c := &Client{
		transport: transport,
		codec:     codec,
		secrets:   holder,
		baseURL:   DefaultBaseURL,
		log:       logging.Nop{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// AccessToken fetches the global access token of the mini-program appID.
// The caller owns caching and refreshing the token.
func (c *Client) AccessToken(ctx context.Context, appID string) (*AccessTokenResponse, error) {
	req := c.newRequest(http.MethodGet, pathAccessToken)
	req.Query.Set("grant_type", "client_credential")
	if err := c.authByAppID(req, appID); err != nil {
		return nil, err
	}

	var out AccessTokenResponse
	if err := c.executeJSON(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Session exchanges a wx.login code for the user's session identifiers.
func (c *Client) Session(ctx context.Context, appID, code string) (*SessionResponse, error) {
	if err := notBlank(code, "code"); err != nil {
		return nil, err
	}
	req := c.newRequest(http.MethodPost, pathSession)
	req.Query.Set("grant_type", "authorization_code")
	req.Query.Set("js_code", code)
	if err := c.authByAppID(req, appID); err != nil {
		return nil, err
	}

	var out SessionResponse
	if err := c.executeJSON(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Phone exchanges a getPhoneNumber code for the user's phone number.
// Each code is single use and valid for five minutes.
func (c *Client) Phone(ctx context.Context, accessToken, code string) (*UserPhoneResponse, error) {
	if err := notBlank(code, "code"); err != nil {
		return nil, err
	}
	req := c.newRequest(http.MethodPost, pathUserPhoneNumber)
	if err := c.setJSONBody(req, codeRequest{Code: code}); err != nil {
		return nil, err
	}
	if err := c.authByAccessToken(req, accessToken); err != nil {
		return nil, err
	}

	var out UserPhoneResponse
	if err := c.executeJSON(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UnlimitedQrCode renders a mini-program code image for the given scene.
func (c *Client) UnlimitedQrCode(ctx context.Context, accessToken string, in *UnlimitedQrCodeRequest) ([]byte, error) {
	if err := notBlank(accessToken, "accessToken"); err != nil {
		return nil, err
	}
	if in == nil {
		return nil, &ArgumentError{Param: "request"}
	}
	req := c.newRequest(http.MethodPost, pathUnlimitedQrCode)
	if err := c.setJSONBody(req, in); err != nil {
		return nil, err
	}
	if err := c.authByAccessToken(req, accessToken); err != nil {
		return nil, err
	}

	return c.executeBinary(ctx, req)
}

// GenerateUrlLink creates a https://wxaurl.cn link that opens the mini-program.
func (c *Client) GenerateUrlLink(ctx context.Context, accessToken string, in *GenerateUrlLinkRequest) (string, error) {
	if err := notBlank(accessToken, "accessToken"); err != nil {
		return "", err
	}
	if in == nil {
		return "", &ArgumentError{Param: "request"}
	}
	req := c.newRequest(http.MethodPost, pathGenerateUrlLink)
	if err := c.setJSONBody(req, in); err != nil {
		return "", err
	}
	if err := c.authByAccessToken(req, accessToken); err != nil {
		return "", err
	}

	var out urlLinkResponse
	if err := c.executeJSON(ctx, req, &out); err != nil {
		return "", err
	}
	if out.URLLink == "" {
		return "", fmt.Errorf("%s response carries no url_link", pathGenerateUrlLink)
	}
	return out.URLLink, nil
}

// isNil reports whether v is nil or wraps a nil pointer or func.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}

func (c *Client) newRequest(method, path string) *httpclient.Request {
	return &httpclient.Request{
		Method:  method,
		URL:     c.baseURL + path,
		Query:   url.Values{},
		Headers: map[string]string{},
	}
}

func (c *Client) setJSONBody(req *httpclient.Request, body any) error {
	raw, err := c.codec.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	req.Body = raw
	req.Headers["Content-Type"] = contentTypeJSON
	return nil
}

func (c *Client) authByAppID(req *httpclient.Request, appID string) error {
	if err := notBlank(appID, "appId"); err != nil {
		return err
	}
	secret, err := c.secrets.Secret(appID)
	if err != nil {
		return fmt.Errorf("resolve secret for %s: %w", appID, err)
	}
	if strings.TrimSpace(secret) == "" {
		return &SecretNotFoundError{AppID: appID}
	}
	req.Query.Set("appid", appID)
	req.Query.Set("secret", secret)
	return nil
}

func (c *Client) authByAccessToken(req *httpclient.Request, accessToken string) error {
	if err := notBlank(accessToken, "accessToken"); err != nil {
		return err
	}
	req.Query.Set("access_token", accessToken)
	return nil
}
