package bing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"horse.fit/lingo/internal/translation"
)

// maxRenewRetries bounds renewal-triggered retries per logical call. A second
// distinct failure after the single retry fails immediately.
const maxRenewRetries = 1

// statusTokensStale is the backend status signaling that session tokens must
// be refreshed before the call can succeed.
const statusTokensStale = 205

// apiCall describes one backend API call. build runs per attempt so that each
// retry picks up freshly renewed session material.
type apiCall struct {
	operation string
	build     func(s session, count int) (path string, form url.Values)
}

func (c *Client) detectCall(text string) apiCall {
	return apiCall{
		operation: "detect",
		build: func(s session, count int) (string, url.Values) {
			form := url.Values{}
			form.Set("fromLang", "auto-detect")
			form.Set("to", "zh-Hans")
			form.Set("text", text)
			form.Set("token", s.token)
			form.Set("key", s.key)
			return fmt.Sprintf("ttranslatev3?isVertical=1&IG=%s&IID=%s.%d", s.ig, s.iid, count), form
		},
	}
}

func (c *Client) translateCall(text, from, to string) apiCall {
	return apiCall{
		operation: "translate",
		build: func(s session, count int) (string, url.Values) {
			form := url.Values{}
			form.Set("fromLang", backendCode(from))
			form.Set("to", backendCode(to))
			form.Set("text", text)
			form.Set("token", s.token)
			form.Set("key", s.key)
			return fmt.Sprintf("ttranslatev3?isVertical=1&IG=%s&IID=%s.%d", s.ig, s.iid, count), form
		},
	}
}

// lookupCall uses the backend-reported detected language as the source.
func (c *Client) lookupCall(text, detectedBackend, to string) apiCall {
	return apiCall{
		operation: "lookup",
		build: func(s session, count int) (string, url.Values) {
			form := url.Values{}
			form.Set("from", detectedBackend)
			form.Set("to", backendCode(to))
			form.Set("text", text)
			form.Set("token", s.token)
			form.Set("key", s.key)
			return fmt.Sprintf("tlookupv3?isVertical=1&IG=%s&IID=%s.%d", s.ig, s.iid, count), form
		},
	}
}

func (c *Client) exampleCall(detectedBackend, to, text, mainMeaning string) apiCall {
	return apiCall{
		operation: "example",
		build: func(s session, count int) (string, url.Values) {
			form := url.Values{}
			form.Set("from", detectedBackend)
			form.Set("to", backendCode(to))
			form.Set("text", text)
			form.Set("translation", mainMeaning)
			form.Set("token", s.token)
			form.Set("key", s.key)
			return fmt.Sprintf("texamplev3?isVertical=1&IG=%s&IID=%s.%d", s.ig, s.iid, count), form
		},
	}
}

func (c *Client) ttsAuthCall() apiCall {
	return apiCall{
		operation: "ttsAuth",
		build: func(s session, count int) (string, url.Values) {
			form := url.Values{}
			form.Set("token", s.token)
			form.Set("key", s.key)
			return fmt.Sprintf("tfetspktok?isVertical=1&IG=%s&IID=%s.%d", s.ig, s.iid, count), form
		},
	}
}

func backendCode(lang string) string {
	if code, ok := languageCodes[lang]; ok {
		return code
	}
	return lang
}

// request issues one backend API call with session guarding.
//
// Recovery paths, in order of checking:
//   - 401/429: backend rate control, surfaced as API_ERR without retry;
//   - regional redirect (effective host differs): persist the new host, renew
//     the session and replay once, outside the renewal-retry budget;
//   - HTML body disguised as success, stale-token status, or an unrecognized
//     status: renew the session and retry once if allowRenewRetry.
func (c *Client) request(ctx context.Context, call apiCall, allowRenewRetry bool) ([]byte, error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	renewRetries := 0
	redirectReplays := 0

	for {
		sess, count := c.snapshotSession()
		path, form := call.build(sess, count)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, sess.host+path, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("build %s request: %w", call.operation, err)
		}
		applyHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s response: %w", call.operation, err)
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusTooManyRequests {
			return nil, translation.NewError(translation.KindAPI, resp.StatusCode, "request rejected by backend rate control")
		}

		if finalHost := effectiveHost(resp); finalHost != "" && finalHost != sess.host {
			c.setHost(finalHost)
			if redirectReplays < 1 {
				redirectReplays++
				if err := c.renewSession(ctx); err != nil {
					return nil, err
				}
				continue
			}
			return nil, translation.NewError(translation.KindAPI, resp.StatusCode, "backend keeps redirecting between regions")
		}

		if looksLikeHTML(resp, body) {
			if allowRenewRetry && renewRetries < maxRenewRetries {
				renewRetries++
				if err := c.renewSession(ctx); err != nil {
					return nil, err
				}
				continue
			}
			return nil, translation.NewError(translation.KindAPI, resp.StatusCode, "unexpected HTML response from backend")
		}

		switch status := embeddedStatus(body); status {
		case http.StatusOK:
			return body, nil
		case statusTokensStale:
			// The backend invalidated our tokens mid-session.
		default:
			c.logger.Debug().Int("status", status).Str("operation", call.operation).Msg("unrecognized backend status")
		}

		if allowRenewRetry && renewRetries < maxRenewRetries {
			renewRetries++
			if err := c.renewSession(ctx); err != nil {
				return nil, err
			}
			continue
		}
		return nil, translation.NewError(translation.KindAPI, embeddedStatus(body), "request failed")
	}
}

// effectiveHost extracts the origin the response actually came from, which
// differs from the requested origin after a regional redirect.
func effectiveHost(resp *http.Response) string {
	if resp.Request == nil || resp.Request.URL == nil {
		return ""
	}
	m := hostPattern.FindStringSubmatch(resp.Request.URL.String())
	if m == nil {
		return ""
	}
	return m[1]
}

// looksLikeHTML detects anti-bot HTML payloads returned with 200 OK.
func looksLikeHTML(resp *http.Response, body []byte) bool {
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "text/html") {
		return true
	}
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "<html") || strings.HasPrefix(trimmed, "<!DOCTYPE") || strings.HasPrefix(trimmed, "<!doctype")
}

// embeddedStatus reads the backend's in-band status. Array-shaped responses
// carry no status and count as success.
func embeddedStatus(body []byte) int {
	var envelope struct {
		StatusCode int `json:"statusCode"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		// Array or other non-object payloads have no embedded status.
		return http.StatusOK
	}
	if envelope.StatusCode == 0 {
		return http.StatusOK
	}
	return envelope.StatusCode
}
