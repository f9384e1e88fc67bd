package weixin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/samvad-hq/weixin-sdk/pkg/httpclient"
)

var errNotObject = errors.New("response body is not a json object")

func (c *Client) execute(ctx context.Context, req *httpclient.Request) (httpclient.Response, error) {
	path := requestPath(req)
	c.log.DebugObj("weixin request", "weixin_request", map[string]any{
		"method": req.Method,
		"path":   path,
	})

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	c.log.DebugObj("weixin response", "weixin_response", map[string]any{
		"path":        path,
		"status":      resp.StatusCode(),
		"body_length": len(resp.Body()),
	})
	return resp, nil
}

// executeJSON runs the request and decodes the body in two phases: a generic
// object to surface errcode, then the typed result.
func (c *Client) executeJSON(ctx context.Context, req *httpclient.Request, out any) error {
	resp, err := c.execute(ctx, req)
	if err != nil {
		return err
	}
	body := resp.Body()

	obj, decodeErr := c.decodeObject(body)
	if decodeErr == nil {
		if err := c.responseError(req, obj); err != nil {
			return err
		}
	}
	if !isSuccess(resp.StatusCode()) {
		return statusError(req, resp)
	}
	if decodeErr != nil {
		return fmt.Errorf("decode %s response: %w", requestPath(req), decodeErr)
	}

	if err := c.codec.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", requestPath(req), err)
	}
	return nil
}

// executeBinary runs a request whose success body is raw bytes. A body that the
// content type or a leading brace marks as JSON is decoded for errcode; when it
// does not decode as an object it is returned as binary.
func (c *Client) executeBinary(ctx context.Context, req *httpclient.Request) ([]byte, error) {
	resp, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}
	body := resp.Body()

	if isJSONContentType(resp.Header().Get("Content-Type")) || looksLikeObject(body) {
		if obj, decodeErr := c.decodeObject(body); decodeErr == nil {
			if err := c.responseError(req, obj); err != nil {
				return nil, err
			}
			if !isSuccess(resp.StatusCode()) {
				return nil, statusError(req, resp)
			}
			return nil, fmt.Errorf("%s returned json instead of binary content", requestPath(req))
		}
	}

	if !isSuccess(resp.StatusCode()) {
		return nil, statusError(req, resp)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%s returned an empty body", requestPath(req))
	}
	return body, nil
}

func (c *Client) decodeObject(body []byte) (map[string]any, error) {
	var obj map[string]any
	if err := c.codec.Unmarshal(body, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errNotObject
	}
	return obj, nil
}

// responseError returns a *ResponseError when obj carries a non-zero errcode.
func (c *Client) responseError(req *httpclient.Request, obj map[string]any) error {
	code := intField(obj["errcode"])
	if code == 0 {
		return nil
	}

	msg, rid := splitRID(stringField(obj["errmsg"]))
	if r := stringField(obj["rid"]); r != "" {
		rid = r
	}
	respErr := &ResponseError{Code: code, Message: msg, RID: rid}

	c.log.WarnObj("weixin response error", "weixin_error", map[string]any{
		"path":    requestPath(req),
		"errcode": respErr.Code,
		"errmsg":  respErr.Message,
		"rid":     respErr.RID,
	})
	return respErr
}

func intField(v any) int {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return int(n)
	case float32:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return i
	case interface{ Int64() (int64, error) }:
		i, err := n.Int64()
		if err != nil {
			return 0
		}
		return int(i)
	default:
		return 0
	}
}

func stringField(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func isJSONContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "json") || strings.HasPrefix(ct, "text/plain")
}

func looksLikeObject(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func statusError(req *httpclient.Request, resp httpclient.Response) error {
	return fmt.Errorf("%s unexpected status %d: %s", requestPath(req), resp.StatusCode(), bodySnippet(resp.Body()))
}

func requestPath(req *httpclient.Request) string {
	u, err := url.Parse(req.URL)
	if err != nil || u.Path == "" {
		return req.URL
	}
	return u.Path
}

func bodySnippet(body []byte) string {
	if len(body) == 0 {
		return "<empty>"
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
