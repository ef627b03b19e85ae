package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultMaxWords    = 1000
	DefaultConcurrency = 4
	DefaultRetries     = 1

	DefaultMiniChunkWords = 128
)

// Translator detects and translates text through the provider selected by
// the store's active configuration. It keeps no state between calls.
type Translator struct {
	l *zap.Logger

	store *Store
	dial  Dialer

	maxWords       int
	miniChunkWords int
	concurrency    int
	retries        int
	timeout        time.Duration
}

type Option func(*Translator)

func WithLogger(l *zap.Logger) Option {
	return func(t *Translator) {
		if l != nil {
			t.l = l
		}
	}
}

// WithMaxWords limits the words sent per request. Longer texts are translated in chunks.
func WithMaxWords(n int) Option {
	return func(t *Translator) {
		if n > 0 {
			t.maxWords = n
		}
	}
}

// WithMiniChunkWords sets the chunk size used again for chunks the model reports
// as mixing several languages. Zero turns the language count off.
func WithMiniChunkWords(n int) Option {
	return func(t *Translator) {
		if n >= 0 {
			t.miniChunkWords = n
		}
	}
}

func WithConcurrency(n int) Option {
	return func(t *Translator) {
		if n > 0 {
			t.concurrency = n
		}
	}
}

// WithRetries sets how many times a request failing before any response is resent.
func WithRetries(n int) Option {
	return func(t *Translator) {
		if n >= 0 {
			t.retries = n
		}
	}
}

// WithRequestTimeout bounds every attempt. Zero leaves the caller's context as the only limit.
func WithRequestTimeout(d time.Duration) Option {
	return func(t *Translator) {
		if d >= 0 {
			t.timeout = d
		}
	}
}

func New(store *Store, dial Dialer, opts ...Option) *Translator {
	t := &Translator{
		l:              zap.NewNop(),
		store:          store,
		dial:           dial,
		maxWords:       DefaultMaxWords,
		miniChunkWords: DefaultMiniChunkWords,
		concurrency:    DefaultConcurrency,
		retries:        DefaultRetries,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// DetectLanguage returns the ISO 639-3 code of text.
func (t *Translator) DetectLanguage(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	p, err := t.provider()
	if err != nil {
		return "", err
	}

	raw, err := t.invoke(ctx, p, detectPrompt(firstWords(text, t.maxWords)))
	if err != nil {
		return "", err
	}

	t.l.Debug("detect response", zap.String("raw", raw))

	return parseLanguageCode(raw)
}

// Translate translates text into the language identified by the ISO 639-3 code target.
func (t *Translator) Translate(ctx context.Context, text string, target string) (string, error) {
	return t.translate(ctx, text, target, false)
}

// TranslateHTML is Translate for an HTML fragment. Tags and attributes are kept as given.
func (t *Translator) TranslateHTML(ctx context.Context, text string, target string) (string, error) {
	return t.translate(ctx, text, target, true)
}

func (t *Translator) translate(ctx context.Context, text string, target string, markup bool) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	target, err := NormalizeCode(target)
	if err != nil {
		return "", err
	}

	// Resolve once, every chunk goes to the same provider
	p, err := t.provider()
	if err != nil {
		return "", err
	}

	chunks, err := t.splitMixed(ctx, p, splitWords(text, t.maxWords))
	if err != nil {
		return "", err
	}
	if len(chunks) == 1 {
		return t.translateChunk(ctx, p, chunks[0], target, markup)
	}

	t.l.Debug("translate in chunks", zap.Int("chunks", len(chunks)), zap.String("target", target))

	results := make([]string, len(chunks))
	err = t.eachChunk(ctx, len(chunks), func(ctx context.Context, i int) error {
		translated, err := t.translateChunk(ctx, p, chunks[i], target, markup)
		if err != nil {
			return fmt.Errorf("failed to translate chunk %d: %w", i, err)
		}
		results[i] = translated
		return nil
	})
	if err != nil {
		return "", err
	}

	return strings.Join(results, " "), nil
}

// splitMixed asks the model how many languages each chunk holds and cuts the
// mixed ones into mini chunks. Chunks no longer than a mini chunk are not asked about.
func (t *Translator) splitMixed(ctx context.Context, p Provider, chunks []string) ([]string, error) {
	if t.miniChunkWords <= 0 {
		return chunks, nil
	}

	parts := make([][]string, len(chunks))
	err := t.eachChunk(ctx, len(chunks), func(ctx context.Context, i int) error {
		parts[i] = []string{chunks[i]}

		mini := splitWords(chunks[i], t.miniChunkWords)
		if len(mini) == 1 {
			return nil
		}

		n, err := t.countLanguages(ctx, p, chunks[i])
		if err != nil {
			var me *MalformedResponseError
			if errors.As(err, &me) {
				t.l.Warn("unreadable language count, chunk kept whole", zap.Int("chunk", i), zap.Error(err))
				return nil
			}
			return fmt.Errorf("failed to count languages of chunk %d: %w", i, err)
		}
		if n > 1 {
			t.l.Debug("mixed languages, split chunk", zap.Int("chunk", i), zap.Int("languages", n), zap.Int("mini_chunks", len(mini)))
			parts[i] = mini
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []string
	for _, part := range parts {
		out = append(out, part...)
	}
	return out, nil
}

// eachChunk runs fn for every index below n with at most t.concurrency calls
// in flight. The first failure cancels the rest.
func (t *Translator) eachChunk(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	sem := make(chan struct{}, t.concurrency)

	for i := 0; i < n; i++ {
		i := i

		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			if err := fn(ctx, i); err != nil {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}()
	}

	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

func (t *Translator) countLanguages(ctx context.Context, p Provider, chunk string) (int, error) {
	raw, err := t.invoke(ctx, p, countLanguagesPrompt(chunk))
	if err != nil {
		return 0, err
	}

	t.l.Debug("count languages response", zap.String("raw", raw))

	return parseLanguageCount(raw)
}

func (t *Translator) translateChunk(ctx context.Context, p Provider, chunk string, target string, markup bool) (string, error) {
	raw, err := t.invoke(ctx, p, translatePrompt(chunk, target, markup))
	if err != nil {
		return "", err
	}

	t.l.Debug("translate response", zap.String("target", target), zap.String("raw", raw))

	return parseTranslation(raw), nil
}

func (t *Translator) provider() (Provider, error) {
	cfg, err := t.store.load()
	if err != nil {
		return nil, err
	}

	p, err := t.dial(cfg)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	return p, nil
}

func (t *Translator) invoke(ctx context.Context, p Provider, prompt Prompt) (string, error) {
	for attempt := 0; ; attempt++ {
		raw, err := t.attempt(ctx, p, prompt)
		if err == nil {
			return raw, nil
		}
		if attempt >= t.retries || !isTransient(ctx, err) {
			return "", err
		}

		t.l.Warn("provider request failed, retry", zap.Int("attempt", attempt+1), zap.Error(err))
	}
}

func (t *Translator) attempt(ctx context.Context, p Provider, prompt Prompt) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	return p.Complete(ctx, prompt)
}

// isTransient reports network failures that produced no response while the
// caller is still waiting.
func isTransient(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var pe *ProviderError
	return errors.As(err, &pe) && pe.StatusCode == 0
}
