package app

import (
	"fmt"
	"net/http"

	"github.com/candinya/ai-translator/modules/feed"
	"github.com/candinya/ai-translator/modules/langdetect"
	"github.com/candinya/ai-translator/modules/translate"
	"github.com/candinya/ai-translator/modules/translate/providers"
	"github.com/candinya/ai-translator/types"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type app struct {
	cfg *types.Config

	l *zap.Logger

	tr *translate.Translator
	ct *cachedTranslator
	fp *feed.Processor

	e *echo.Echo
}

func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewTranslator builds a translator from the provider section of cfg.
// Credentials missing from the settings block are read from the environment.
// Without any credentials the translator is returned unconfigured and every
// call fails with a ConfigurationError.
func NewTranslator(cfg *types.Config, l *zap.Logger) (*translate.Translator, error) {
	providerCfg, opts, err := providers.ParseSettings(cfg.Provider.Type, cfg.Provider.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to parse provider settings: %w", err)
	}
	opts.HTTPClient = &http.Client{
		Timeout: cfg.System.RequestTimeout,
	}

	store := translate.NewStore()
	if providerCfg != nil {
		err = store.Set(providerCfg)
	} else {
		err = store.SetFromEnv()
	}
	if err != nil {
		l.Warn("translator is not configured", zap.Error(err))
	}

	options := []translate.Option{
		translate.WithLogger(l),
		translate.WithMaxWords(cfg.Translate.MaxWords),
		translate.WithConcurrency(cfg.Translate.Concurrency),
		translate.WithRequestTimeout(cfg.System.RequestTimeout),
	}
	if cfg.Translate.MiniChunkWords != nil {
		options = append(options, translate.WithMiniChunkWords(*cfg.Translate.MiniChunkWords))
	}
	if cfg.Translate.Retries != nil {
		options = append(options, translate.WithRetries(*cfg.Translate.Retries))
	}

	return translate.New(store, providers.NewDialer(opts, l), options...), nil
}

func Start(cfg *types.Config) error {
	// Initialize logger
	l, err := NewLogger(cfg.System.Debug)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize translator
	tr, err := NewTranslator(cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize translator: %w", err)
	}

	// Initialize cache
	var cache Cache
	if cfg.System.Redis.URL != "" {
		cache, err = newRedisCache(cfg.System.Redis.URL, cfg.System.Redis.CacheExpire)
		if err != nil {
			return fmt.Errorf("failed to initialize cache: %w", err)
		}
	}

	a := newApp(cfg, l, tr, cache)

	return a.e.Start(cfg.System.Listen)
}

func newApp(cfg *types.Config, l *zap.Logger, tr *translate.Translator, cache Cache) *app {
	a := &app{
		cfg: cfg,
		l:   l,
		tr:  tr,
	}

	a.ct = &cachedTranslator{
		l:      l,
		tr:     tr,
		cache:  cache,
		prefix: cfg.System.Redis.Prefix,
	}

	// Initialize feed processor
	var detect feed.DetectFunc
	if cfg.Translate.SkipSameLanguage {
		detect = langdetect.DetectISO6393
	}
	a.fp = feed.NewProcessor(a.ct, detect, cfg.Translate.Concurrency, &http.Client{Timeout: cfg.System.RequestTimeout}, l)

	// Initialize echo
	a.e = echo.New()
	a.e.HideBanner = true

	// Set logger
	a.e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			a.l.Info("request",
				zap.String("URI", v.URI),
				zap.Int("status", v.Status),
			)

			return nil
		},
	}))

	// Add panic recover
	a.e.Use(middleware.Recover())

	// Apply health check route (root)
	a.e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "AI Translator is running")
	})

	// Apply main routes
	a.e.POST("/detect", a.detect)
	a.e.POST("/translate", a.translate)
	a.e.GET("/feed", a.feed)

	return a
}
