package bing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
)

// session is the mutable bag of backend-issued material required to authorize
// translate calls. It is guarded by Client.mu and mutated only by the renewal
// routine.
type session struct {
	host  string // effective backend origin, may change after regional redirect
	ig    string
	iid   string
	token string
	key   string
	ready bool
}

var (
	hostPattern   = regexp.MustCompile(`(https://[A-Za-z0-9.-]*bing\.com/)`)
	igPattern     = regexp.MustCompile(`IG:"([A-Za-z0-9]+)"`)
	paramsPattern = regexp.MustCompile(`var params_AbusePreventionHelper\s*=\s*\[([0-9]+),\s*"([^"]+)",[^\]]*\];`)
	iidPattern    = regexp.MustCompile(`data-iid="([^"]+)"`)
)

func (c *Client) snapshotSession() (session, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return c.sess, c.count
}

func (c *Client) sessionReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.ready
}

func (c *Client) currentHost() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.host
}

func (c *Client) setHost(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if host != "" && host != c.sess.host {
		c.sess.host = host
		c.sess.ready = false
	}
}

// ensureSession initializes the session lazily. Callers arriving while a
// renewal is in flight await that same renewal.
func (c *Client) ensureSession(ctx context.Context) error {
	if c.sessionReady() {
		return nil
	}
	return c.renewSession(ctx)
}

// renewSession fetches fresh session material. Renewal is single-flighted:
// concurrent callers share one underlying bootstrap request and its outcome.
func (c *Client) renewSession(ctx context.Context) error {
	_, err, _ := c.renewals.Do("session", func() (any, error) {
		return nil, c.fetchSession(ctx)
	})
	return err
}

// fetchSession loads the backend's bootstrap page and extracts session
// material from its body. The backend redirects by region; when the effective
// host differs from the requested one, the new host is persisted so that
// subsequent calls target the region that issued the tokens.
func (c *Client) fetchSession(ctx context.Context) error {
	homePage := c.currentHost() + "translator"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, homePage, nil)
	if err != nil {
		return fmt.Errorf("build session request: %w", err)
	}
	applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch session page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read session page: %w", err)
	}

	host := c.currentHost()
	if resp.Request != nil && resp.Request.URL != nil {
		if m := hostPattern.FindStringSubmatch(resp.Request.URL.String()); m != nil && m[1] != host {
			host = m[1]
			c.logger.Info().Str("host", host).Msg("backend redirected to regional host")
		}
	}

	igMatch := igPattern.FindSubmatch(body)
	if igMatch == nil {
		return fmt.Errorf("session page carries no IG token")
	}
	paramsMatch := paramsPattern.FindSubmatch(body)
	if paramsMatch == nil {
		return fmt.Errorf("session page carries no abuse prevention params")
	}

	iid := ""
	if m := iidPattern.FindSubmatch(body); m != nil {
		iid = string(m[1])
	}

	c.mu.Lock()
	c.sess = session{
		host:  host,
		ig:    string(igMatch[1]),
		iid:   iid,
		key:   string(paramsMatch[1]),
		token: string(paramsMatch[2]),
		ready: true,
	}
	c.count = 0
	c.mu.Unlock()

	c.logger.Debug().Msg("session renewed")
	return nil
}

func applyHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0")
	if req.Method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if strings.Contains(req.URL.Host, "bing.com") {
		req.Header.Set("Origin", strings.TrimSuffix("https://"+req.URL.Host, "/"))
		req.Header.Set("Referer", "https://"+req.URL.Host+"/translator")
	}
}
