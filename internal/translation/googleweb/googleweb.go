// Package googleweb implements the Google web translator engine. Unlike the
// Bing client it needs no scraped session material: the web endpoint answers
// anonymous JSON requests, so the session lifecycle degenerates to plain
// request/response with the shared retry and error-envelope semantics.
package googleweb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"horse.fit/lingo/internal/cache"
	"horse.fit/lingo/internal/translation"
)

const (
	engineName = "google"

	defaultHost    = "https://translate.googleapis.com/"
	defaultTTSHost = "https://translate.google.com/"

	requestTimeout = 8 * time.Second

	defaultCacheMax = 100
	defaultCacheTTL = 10 * time.Minute

	requestInterval = 50 * time.Millisecond
)

// Options configures a Client. The zero value is usable.
type Options struct {
	// Host overrides the translate endpoint origin, mainly for tests. Must
	// end with "/".
	Host string
	// TTSHost overrides the speech endpoint origin. Must end with "/".
	TTSHost    string
	HTTPClient *http.Client
	CacheMax   int
	CacheTTL   time.Duration
	Logger     zerolog.Logger
}

// Client talks to the Google web translator.
type Client struct {
	logger     zerolog.Logger
	httpClient *http.Client
	limiter    *rate.Limiter
	host       string
	ttsHost    string
	results    *cache.Cache[string, *translation.Result]

	ttsMu       sync.Mutex
	stopCurrent context.CancelFunc
}

func New(opts Options) *Client {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = defaultHost
	}
	ttsHost := strings.TrimSpace(opts.TTSHost)
	if ttsHost == "" {
		ttsHost = defaultTTSHost
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	cacheMax := opts.CacheMax
	if cacheMax <= 0 {
		cacheMax = defaultCacheMax
	}
	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	return &Client{
		logger:     opts.Logger.With().Str("engine", engineName).Logger(),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Every(requestInterval), 1),
		host:       host,
		ttsHost:    ttsHost,
		results:    cache.New[string, *translation.Result](cache.Options{Max: cacheMax, TTL: cacheTTL}),
	}
}

func (c *Client) Name() string {
	return engineName
}

func (c *Client) SupportedLanguages() []string {
	return supportedLanguageCodes()
}

// WarmUp is a no-op: the endpoint issues no session material to prime.
func (c *Client) WarmUp(ctx context.Context) {}

// Detect returns the language code of text.
func (c *Client) Detect(ctx context.Context, text string) (string, error) {
	act := translation.Action{Engine: engineName, Operation: "detect", Text: text}

	body, err := c.request(ctx, text, "auto", "en")
	if err != nil {
		return "", translation.WrapError(err, act)
	}
	parsed, err := parseResponse(body)
	if err != nil || parsed.sourceLanguage == "" {
		return "", translation.WrapError(
			translation.NewError(translation.KindAPI, http.StatusOK, "response carries no detected language"), act)
	}
	if code, ok := backendToCode[parsed.sourceLanguage]; ok {
		return code, nil
	}
	return parsed.sourceLanguage, nil
}

// Translate translates text between the given languages. Empty input and
// cache hits short-circuit; the endpoint returns dictionary senses and usage
// examples inline, so no separate enrichment calls are made.
func (c *Client) Translate(ctx context.Context, text, from, to string) (*translation.Result, error) {
	if strings.TrimSpace(text) == "" {
		return &translation.Result{OriginalText: text, MainMeaning: ""}, nil
	}

	key := cache.Key(engineName, from, to, text)
	if cached, ok := c.results.Get(key); ok {
		return cached, nil
	}

	act := translation.Action{Engine: engineName, Operation: "translate", Text: text, From: from, To: to}

	body, err := c.request(ctx, text, from, to)
	if err != nil {
		return nil, translation.WrapError(err, act)
	}
	parsed, err := parseResponse(body)
	if err != nil {
		return nil, translation.WrapError(
			translation.NewError(translation.KindAPI, http.StatusOK, "unparseable translate response"), act)
	}
	if parsed.result.MainMeaning == "" {
		return nil, translation.WrapError(
			translation.NewError(translation.KindAPI, http.StatusOK, "backend produced no usable translation"), act)
	}

	result := parsed.result
	result.OriginalText = text
	result.SourceLanguage = c.resolveSourceLanguage(from, parsed.sourceLanguage)
	result.TargetLanguage = to

	c.results.Set(key, result)
	return result, nil
}

func (c *Client) resolveSourceLanguage(from, detectedBackend string) string {
	if from != translation.LangAuto && from != "" {
		return from
	}
	if code, ok := backendToCode[detectedBackend]; ok {
		return code
	}
	if detectedBackend != "" {
		return detectedBackend
	}
	return "en"
}

// request issues one translate call. The endpoint answers rich object-shaped
// JSON when dj=1 is set; dt parameters select translation, dictionary,
// transliteration, definition and example sections.
func (c *Client) request(ctx context.Context, text, from, to string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("dj", "1")
	query.Set("sl", backendCode(from))
	query.Set("tl", backendCode(to))
	query.Set("hl", "en")
	query["dt"] = []string{"t", "bd", "rm", "md", "ex", "at"}
	query.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"translate_a/single?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build translate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read translate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, translation.NewError(translation.KindAPI, resp.StatusCode, "request rejected by backend")
	}
	return body, nil
}

func backendCode(lang string) string {
	if code, ok := languageCodes[lang]; ok {
		return code
	}
	return lang
}
