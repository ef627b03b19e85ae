package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/candinya/ai-translator/modules/feed"
	"github.com/candinya/ai-translator/modules/htmltext"
	"github.com/candinya/ai-translator/modules/translate"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

type detectResponse struct {
	Language string `json:"language"`
	Name     string `json:"name,omitempty"`
}

type translateResponse struct {
	Text   string `json:"text"`
	Target string `json:"target"`
}

func (a *app) detect(c echo.Context) error {
	var req detectRequest
	if err := decodePayload(c.Request().Body, detectRequestSchema, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	text := req.Text
	if htmltext.LooksLikeHTML(text) {
		text = htmltext.PlainText(text)
	}

	lang, err := a.tr.DetectLanguage(c.Request().Context(), text)
	if err != nil {
		return a.fail(c, "failed to detect language", err)
	}

	return c.JSON(http.StatusOK, detectResponse{
		Language: lang,
		Name:     translate.LanguageName(lang),
	})
}

func (a *app) translate(c echo.Context) error {
	var req translateRequest
	if err := decodePayload(c.Request().Body, translateRequestSchema, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	target := req.Target
	if target == "" {
		target = a.cfg.Translate.DefaultLang
	}
	target, err := translate.NormalizeCode(target)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	var translated string
	if req.HTML {
		translated, err = a.ct.TranslateHTML(c.Request().Context(), req.Text, target)
	} else {
		translated, err = a.ct.Translate(c.Request().Context(), req.Text, target)
	}
	if err != nil {
		return a.fail(c, "failed to translate", err)
	}

	return c.JSON(http.StatusOK, translateResponse{Text: translated, Target: target})
}

func (a *app) feed(c echo.Context) error {
	feedURL := c.QueryParam("url")
	if feedURL == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "url is required"})
	}

	targetLang := c.QueryParam("lang")
	if targetLang == "" {
		targetLang = a.cfg.Translate.DefaultLang
	}

	a.l.Debug("feed request", zap.String("url", feedURL), zap.String("target", targetLang))

	// Get data from origin
	f, err := a.fp.Fetch(c.Request().Context(), feedURL)
	if err != nil {
		a.l.Error("failed to fetch feed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
	}

	// Translate
	a.fp.TranslateFeed(c.Request().Context(), f, targetLang)

	// Re-construct to target format
	result, contentType, err := feed.Render(f, c.QueryParam("format"))
	if err != nil {
		a.l.Error("failed to format feed", zap.Error(err))
		return c.NoContent(http.StatusInternalServerError)
	}

	return c.Blob(http.StatusOK, contentType, []byte(result))
}

func (a *app) fail(c echo.Context, msg string, err error) error {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		a.l.Error(msg, zap.Error(err))
	} else {
		a.l.Debug(msg, zap.Error(err))
	}
	return c.JSON(status, errorResponse{Error: err.Error()})
}

func errorStatus(err error) int {
	var (
		ce *translate.ConfigurationError
		pe *translate.ProviderError
		me *translate.MalformedResponseError
	)
	switch {
	case errors.As(err, &ce):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &pe), errors.As(err, &me):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}
