package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"horse.fit/lingo/internal/translation"
)

const maxTextLength = 5000

type detectRequest struct {
	Text string `json:"text"`
}

type translateRequest struct {
	Text string `json:"text"`
	From string `json:"from"`
	To   string `json:"to"`
}

type pronounceRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Speed    string `json:"speed"`
}

type defaultTranslatorRequest struct {
	Translator string `json:"translator"`
}

type languageSettingRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service":            "lingo",
		"default_translator": s.dispatcher.DefaultTranslator(),
		"time":               time.Now().UTC(),
	})
}

func (s *Server) handleDetect(c echo.Context) error {
	var req detectRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be valid JSON"})
	}
	if fieldErrors := validateText(req.Text); fieldErrors != nil {
		return failValidation(c, fieldErrors)
	}

	detected, err := s.dispatcher.Detect(c.Request().Context(), req.Text)
	if err != nil {
		return s.translationError(c, err, "detect failed")
	}
	return success(c, map[string]any{
		"language": detected,
	})
}

func (s *Server) handleTranslate(c echo.Context) error {
	var req translateRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be valid JSON"})
	}
	if fieldErrors := validateText(req.Text); fieldErrors != nil {
		return failValidation(c, fieldErrors)
	}

	var (
		result *translation.Result
		err    error
	)
	from := translation.NormalizeLangCode(req.From)
	to := translation.NormalizeLangCode(req.To)
	if from != "" || to != "" {
		result, err = s.dispatcher.TranslateWith(c.Request().Context(), req.Text, from, to)
	} else {
		result, err = s.dispatcher.Translate(c.Request().Context(), req.Text)
	}
	if err != nil {
		return s.translationError(c, err, "translate failed")
	}
	return success(c, map[string]any{
		"result": result,
	})
}

func (s *Server) handlePronounce(c echo.Context) error {
	var req pronounceRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be valid JSON"})
	}
	if fieldErrors := validateText(req.Text); fieldErrors != nil {
		return failValidation(c, fieldErrors)
	}
	speed := translation.Speed(strings.TrimSpace(strings.ToLower(req.Speed)))
	switch speed {
	case "", translation.SpeedFast, translation.SpeedSlow:
	default:
		return failValidation(c, map[string]string{"speed": `must be "fast" or "slow"`})
	}

	language := translation.NormalizeLangCode(req.Language)
	if language == "" {
		language = translation.LangAuto
	}

	audio, err := s.dispatcher.Pronounce(c.Request().Context(), req.Text, language, speed)
	if err != nil {
		return s.translationError(c, err, "pronounce failed")
	}
	return c.Blob(http.StatusOK, "audio/mpeg", audio)
}

func (s *Server) handleStopPronounce(c echo.Context) error {
	s.dispatcher.StopPronounce()
	return success(c, map[string]any{
		"stopped": true,
	})
}

func (s *Server) handleLanguages(c echo.Context) error {
	translator := strings.TrimSpace(c.QueryParam("translator"))
	if translator == "" {
		translator = s.dispatcher.DefaultTranslator()
	}

	codes, err := s.dispatcher.SupportedLanguages(translator)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Unknown translator", nil)
	}
	return success(c, map[string]any{
		"translator": translator,
		"languages":  translation.LanguageOptions(codes),
	})
}

func (s *Server) handleTranslators(c echo.Context) error {
	from := translation.NormalizeLangCode(c.QueryParam("from"))
	to := translation.NormalizeLangCode(c.QueryParam("to"))
	if from == "" || to == "" {
		from, to = s.dispatcher.LanguageSetting()
	}

	return success(c, map[string]any{
		"translators": s.dispatcher.AvailableTranslators(from, to),
		"default":     s.dispatcher.DefaultTranslator(),
		"from":        from,
		"to":          to,
	})
}

func (s *Server) handlePutDefaultTranslator(c echo.Context) error {
	var req defaultTranslatorRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be valid JSON"})
	}
	if strings.TrimSpace(req.Translator) == "" {
		return failValidation(c, map[string]string{"translator": "is required"})
	}

	if err := s.dispatcher.UpdateDefaultTranslator(c.Request().Context(), req.Translator); err != nil {
		return fail(c, http.StatusBadRequest, "Unknown translator", nil)
	}
	return success(c, map[string]any{
		"default": s.dispatcher.DefaultTranslator(),
	})
}

func (s *Server) handleGetLanguageSetting(c echo.Context) error {
	from, to := s.dispatcher.LanguageSetting()
	return success(c, map[string]any{
		"from":   from,
		"to":     to,
		"mutual": s.dispatcher.MutualMode(),
	})
}

func (s *Server) handlePutLanguageSetting(c echo.Context) error {
	var req languageSettingRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be valid JSON"})
	}
	from := translation.NormalizeLangCode(req.From)
	to := translation.NormalizeLangCode(req.To)
	fieldErrors := map[string]string{}
	if from == "" {
		fieldErrors["from"] = "is required"
	}
	if to == "" || to == translation.LangAuto {
		fieldErrors["to"] = "must be a concrete language code"
	}
	if len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}

	if err := s.dispatcher.UpdateLanguageSetting(c.Request().Context(), from, to); err != nil {
		return s.translationError(c, err, "update language setting failed")
	}

	from, to = s.dispatcher.LanguageSetting()
	return success(c, map[string]any{
		"from":        from,
		"to":          to,
		"translators": s.dispatcher.AvailableTranslators(from, to),
		"default":     s.dispatcher.DefaultTranslator(),
	})
}

// handleEvents streams dispatcher lifecycle events as server-sent events
// until the client disconnects.
func (s *Server) handleEvents(c echo.Context) error {
	events, cancel := s.dispatcher.Subscribe(32)
	defer cancel()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-store")
	resp.Header().Set(echo.HeaderConnection, "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	// Periodic comments keep intermediaries from closing an idle stream.
	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-keepAlive.C:
			if _, err := fmt.Fprint(resp, ": keep-alive\n\n"); err != nil {
				return nil
			}
			resp.Flush()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(event)
			if err != nil {
				s.logger.Error().Err(err).Msg("encode dispatcher event failed")
				continue
			}
			if _, err := fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}

// translationError maps an engine error onto an HTTP response without leaking
// backend payloads to clients.
func (s *Server) translationError(c echo.Context, err error, logMsg string) error {
	s.logger.Error().Err(err).Msg(logMsg)
	switch translation.KindOf(err) {
	case translation.KindLanguage:
		return fail(c, http.StatusBadRequest, "The language is not supported for this operation", nil)
	case translation.KindAPI:
		return fail(c, http.StatusBadGateway, "The translation service rejected the request", nil)
	case translation.KindNetwork:
		return fail(c, http.StatusBadGateway, "The translation service could not be reached", nil)
	default:
		return internalError(c, "Internal server error")
	}
}

func validateText(text string) map[string]string {
	if strings.TrimSpace(text) == "" {
		return map[string]string{"text": "is required"}
	}
	if len(text) > maxTextLength {
		return map[string]string{"text": fmt.Sprintf("must be at most %d bytes", maxTextLength)}
	}
	return nil
}
