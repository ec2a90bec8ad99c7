// Package bing implements the Bing web translator engine: session token
// acquisition and renewal, translate/lookup/example calls, adaptive text
// segmentation and speech synthesis.
package bing

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"horse.fit/lingo/internal/cache"
	"horse.fit/lingo/internal/translation"
)

const (
	engineName = "bing"

	defaultHost = "https://www.bing.com/"

	requestTimeout = 8 * time.Second

	defaultCacheMax = 100
	defaultCacheTTL = 10 * time.Minute

	// requestInterval spaces consecutive backend calls to stay under the
	// backend's informal rate control.
	requestInterval = 50 * time.Millisecond
)

// Options configures a Client. The zero value is usable.
type Options struct {
	// Host overrides the backend origin, mainly for tests. Must end with "/".
	Host       string
	HTTPClient *http.Client
	CacheMax   int
	CacheTTL   time.Duration
	Logger     zerolog.Logger
}

// Client talks to the Bing web translator. It owns the backend's session
// lifecycle and hides its request shapes behind the Engine interface.
type Client struct {
	logger     zerolog.Logger
	httpClient *http.Client
	limiter    *rate.Limiter
	results    *cache.Cache[string, *translation.Result]

	mu    sync.Mutex
	sess  session
	count int

	renewals singleflight.Group

	ttsMu       sync.Mutex
	tts         ttsAuth
	stopCurrent context.CancelFunc
}

func New(opts Options) *Client {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = defaultHost
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
		results:    cache.New[string, *translation.Result](cache.Options{Max: cacheMax, TTL: cacheTTL}),
		sess:       session{host: host},
	}
}

func (c *Client) Name() string {
	return engineName
}

func (c *Client) SupportedLanguages() []string {
	return supportedLanguageCodes()
}

// WarmUp primes the session in the background so the first translation does
// not pay the bootstrap latency. Failures are swallowed.
func (c *Client) WarmUp(ctx context.Context) {
	go func() {
		if err := c.ensureSession(ctx); err != nil {
			c.logger.Debug().Err(err).Msg("warm up failed")
		}
	}()
}

// Detect returns the language code of text.
func (c *Client) Detect(ctx context.Context, text string) (string, error) {
	act := translation.Action{Engine: engineName, Operation: "detect", Text: text}

	body, err := c.request(ctx, c.detectCall(text), true)
	if err != nil {
		return "", translation.WrapError(err, act)
	}

	detected := parseDetectedLanguage(body)
	if detected == "" {
		return "", translation.WrapError(
			translation.NewError(translation.KindAPI, http.StatusOK, "response carries no detected language"), act)
	}
	if code, ok := backendToCode[detected]; ok {
		return code, nil
	}
	return detected, nil
}

// Translate translates text between the given languages.
//
// The call short-circuits on empty input and on a cache hit. A malformed
// primary response forces one session renewal and retry (inside the request
// wrapper); if the response still yields no usable main meaning, the text is
// re-segmented adaptively. Supplementary lookups enrich the result but never
// invalidate the base translation.
func (c *Client) Translate(ctx context.Context, text, from, to string) (*translation.Result, error) {
	if strings.TrimSpace(text) == "" {
		return &translation.Result{OriginalText: text, MainMeaning: ""}, nil
	}

	key := cache.Key(engineName, from, to, text)
	if cached, ok := c.results.Get(key); ok {
		return cached, nil
	}

	act := translation.Action{Engine: engineName, Operation: "translate", Text: text, From: from, To: to}

	body, err := c.request(ctx, c.translateCall(text, from, to), true)
	if err != nil {
		return nil, translation.WrapError(err, act)
	}
	parsed := parseTranslate(body)

	result := &translation.Result{
		OriginalText:   text,
		MainMeaning:    parsed.mainMeaning,
		TPronunciation: parsed.tPronunciation,
	}

	if result.MainMeaning == "" {
		joined, segErr := c.segmentAndTranslate(ctx, text, from, to)
		if segErr != nil || joined == "" {
			return nil, translation.WrapError(
				translation.NewError(translation.KindAPI, http.StatusOK, "backend produced no usable translation"), act)
		}
		result = &translation.Result{
			OriginalText:   text,
			MainMeaning:    joined,
			SourceLanguage: c.resolveSourceLanguage(ctx, text, from, parsed.detectedLanguage),
			TargetLanguage: to,
		}
		c.results.Set(key, result)
		return result, nil
	}

	result.SourceLanguage = c.resolveSourceLanguage(ctx, text, from, parsed.detectedLanguage)
	result.TargetLanguage = to

	// Supplementary lookups degrade gracefully to the base translation.
	c.enrich(ctx, text, parsed.detectedLanguage, to, result)

	c.results.Set(key, result)
	return result, nil
}

// resolveSourceLanguage turns a possibly-"auto" source language into a
// concrete code: backend-reported detection first, an explicit detect call
// second, English as the final fallback.
func (c *Client) resolveSourceLanguage(ctx context.Context, text, from, detectedBackend string) string {
	if from != translation.LangAuto && from != "" {
		return from
	}
	if detectedBackend != "" {
		if code, ok := backendToCode[detectedBackend]; ok {
			return code
		}
	}
	if detected, err := c.Detect(ctx, text); err == nil && detected != "" && detected != translation.LangAuto {
		return detected
	}
	return "en"
}

// enrich augments result with dictionary senses and usage examples. The two
// lookups run concurrently; either may fail without affecting the other or
// the base translation.
func (c *Client) enrich(ctx context.Context, text, detectedBackend, to string, result *translation.Result) {
	if detectedBackend == "" {
		return
	}

	var (
		wg                      sync.WaitGroup
		lookupBody, exampleBody []byte
		lookupErr, exampleErr   error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		lookupBody, lookupErr = c.request(ctx, c.lookupCall(text, detectedBackend, to), false)
	}()

	if result.MainMeaning != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			exampleBody, exampleErr = c.request(ctx, c.exampleCall(detectedBackend, to, text, result.MainMeaning), false)
		}()
	}
	wg.Wait()

	if lookupErr == nil && lookupBody != nil {
		parseLookup(lookupBody, result)
	} else if lookupErr != nil {
		c.logger.Debug().Err(lookupErr).Msg("lookup enrichment failed")
	}
	if exampleErr == nil && exampleBody != nil {
		parseExamples(exampleBody, result)
	} else if exampleErr != nil {
		c.logger.Debug().Err(exampleErr).Msg("example enrichment failed")
	}
}
