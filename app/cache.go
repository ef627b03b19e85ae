package app

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/candinya/ai-translator/modules/feed"
	"github.com/candinya/ai-translator/modules/translate"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores translated text. Get returns "" on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
}

type redisCache struct {
	r      *redis.Client
	expire time.Duration
}

func newRedisCache(url string, expire time.Duration) (*redisCache, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return &redisCache{
		r:      redis.NewClient(redisOpts),
		expire: expire,
	}, nil
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.r.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (c *redisCache) Set(ctx context.Context, key string, value string) error {
	return c.r.Set(ctx, key, value, c.expire).Err()
}

// cachedTranslator puts a Cache in front of a translator. Cache failures are
// logged and never fail the translation.
type cachedTranslator struct {
	l *zap.Logger

	tr     feed.Translator
	cache  Cache
	prefix string
}

func (c *cachedTranslator) cacheKey(text string, targetLang string, isHTML bool) string {
	kind := "translate"
	if isHTML {
		kind = "translate:html"
	}
	return fmt.Sprintf("%s%s:%x:%s", c.prefix, kind, sha256.Sum256([]byte(text)), targetLang)
}

func (c *cachedTranslator) Translate(ctx context.Context, text string, targetLang string) (string, error) {
	return c.translate(ctx, text, targetLang, false)
}

func (c *cachedTranslator) TranslateHTML(ctx context.Context, text string, targetLang string) (string, error) {
	return c.translate(ctx, text, targetLang, true)
}

func (c *cachedTranslator) translate(ctx context.Context, text string, targetLang string, isHTML bool) (string, error) {
	// One cache entry per language, however the code was spelled
	targetLang, err := translate.NormalizeCode(targetLang)
	if err != nil {
		return "", err
	}

	send := c.tr.Translate
	if isHTML {
		send = c.tr.TranslateHTML
	}

	if c.cache == nil {
		return send(ctx, text, targetLang)
	}

	// Build cache key
	cacheKey := c.cacheKey(text, targetLang, isHTML)

	// Try to get from cache
	c.l.Debug("try to get cache", zap.String("key", cacheKey))
	cachedResult, err := c.cache.Get(ctx, cacheKey)
	if err != nil {
		c.l.Error("failed to check translated result from cache", zap.String("key", cacheKey), zap.Error(err))
	} else if cachedResult != "" {
		// Valid cache result, return
		c.l.Debug("valid translated result found", zap.String("key", cacheKey))
		return cachedResult, nil
	}

	// Send to translator
	translated, err := send(ctx, text, targetLang)
	if err != nil {
		return "", err
	}

	// Save into cache
	if err := c.cache.Set(ctx, cacheKey, translated); err != nil {
		c.l.Error("failed to save translated result into cache", zap.String("key", cacheKey), zap.Error(err))
	}

	return translated, nil
}
