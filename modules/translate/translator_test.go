package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type fakeProvider struct {
	mu      sync.Mutex
	prompts []Prompt
	reply   func(call int, prompt Prompt) (string, error)
}

func (f *fakeProvider) Complete(_ context.Context, prompt Prompt) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	call := len(f.prompts)
	f.mu.Unlock()
	return f.reply(call, prompt)
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func replyWith(s string) *fakeProvider {
	return &fakeProvider{reply: func(int, Prompt) (string, error) { return s, nil }}
}

// newTestTranslator wires p behind a direct key and records the configurations dialed.
func newTestTranslator(t *testing.T, p Provider, opts ...Option) (*Translator, *Store, *[]Configuration) {
	t.Helper()
	store := NewStore()
	var dialed []Configuration
	dial := func(cfg Configuration) (Provider, error) {
		dialed = append(dialed, cfg)
		return p, nil
	}
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	return New(store, dial, opts...), store, &dialed
}

func TestUnconfiguredCallsFail(t *testing.T) {
	p := replyWith("eng")
	tr, _, _ := newTestTranslator(t, p)

	_, err := tr.DetectLanguage(context.Background(), "Hello world")
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("DetectLanguage error = %v, want ConfigurationError", err)
	}
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("DetectLanguage error = %v, want ErrNotConfigured", err)
	}

	_, err = tr.Translate(context.Background(), "Hola", "eng")
	if !errors.As(err, &ce) {
		t.Fatalf("Translate error = %v, want ConfigurationError", err)
	}

	if p.calls() != 0 {
		t.Errorf("provider called %d times before configuration", p.calls())
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    string
		wantErr bool
	}{
		{name: "plain", reply: "eng", want: "eng"},
		{name: "surrounding whitespace", reply: "  eng\n", want: "eng"},
		{name: "invalid code", reply: "XYZ1", wantErr: true},
		{name: "uppercase", reply: "ENG", wantErr: true},
		{name: "two letters", reply: "en", wantErr: true},
		{name: "sentence", reply: "The language is eng", wantErr: true},
		{name: "empty", reply: "   ", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr, store, _ := newTestTranslator(t, replyWith(tc.reply))
			if err := store.SetDirectKey("sk-test"); err != nil {
				t.Fatalf("SetDirectKey: %v", err)
			}

			got, err := tr.DetectLanguage(context.Background(), "Hello world")
			if tc.wantErr {
				var me *MalformedResponseError
				if !errors.As(err, &me) {
					t.Fatalf("error = %v, want MalformedResponseError", err)
				}
				if me.Response != tc.reply {
					t.Errorf("MalformedResponseError.Response = %q, want %q", me.Response, tc.reply)
				}
				return
			}
			if err != nil {
				t.Fatalf("DetectLanguage: %v", err)
			}
			if got != tc.want {
				t.Errorf("DetectLanguage = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDetectLanguagePrompt(t *testing.T) {
	p := replyWith("eng")
	tr, store, _ := newTestTranslator(t, p, WithMaxWords(3))
	if err := store.SetDirectKey("sk-test"); err != nil {
		t.Fatalf("SetDirectKey: %v", err)
	}

	if _, err := tr.DetectLanguage(context.Background(), "one two three four five"); err != nil {
		t.Fatalf("DetectLanguage: %v", err)
	}

	prompt := p.prompts[0]
	if prompt.User != "one two three" {
		t.Errorf("user message = %q, want first three words", prompt.User)
	}
	if !strings.Contains(prompt.System, "ISO 639-3") {
		t.Errorf("system prompt does not state the ISO 639-3 contract: %q", prompt.System)
	}
}

func TestDetectLanguageEmptyText(t *testing.T) {
	p := replyWith("eng")
	tr, store, _ := newTestTranslator(t, p)
	if err := store.SetDirectKey("sk-test"); err != nil {
		t.Fatalf("SetDirectKey: %v", err)
	}

	if _, err := tr.DetectLanguage(context.Background(), " \n"); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("error = %v, want ErrEmptyText", err)
	}
	if p.calls() != 0 {
		t.Errorf("provider called for empty text")
	}
}

func TestTranslatePassesThroughProviderOutput(t *testing.T) {
	const want = "Hello how are you? My name is Adam"
	p := replyWith("\n" + want + "  ")
	tr, store, _ := newTestTranslator(t, p)
	if err := store.SetDirectKey("sk-test"); err != nil {
		t.Fatalf("SetDirectKey: %v", err)
	}

	got, err := tr.Translate(context.Background(), "Cześć jak się masz? Meu nome é Adam", "eng")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != want {
		t.Errorf("Translate = %q, want %q", got, want)
	}

	prompt := p.prompts[0]
	if !strings.Contains(prompt.User, "Cześć jak się masz? Meu nome é Adam") {
		t.Errorf("user message does not carry the text: %q", prompt.User)
	}
	if !strings.Contains(prompt.User, "eng") {
		t.Errorf("user message does not carry the target code: %q", prompt.User)
	}
	if !strings.Contains(prompt.System, "English (eng)") {
		t.Errorf("system prompt does not name the target language: %q", prompt.System)
	}
}

func TestTranslateRejectsInvalidTarget(t *testing.T) {
	p := replyWith("whatever")
	tr, store, _ := newTestTranslator(t, p)
	if err := store.SetDirectKey("sk-test"); err != nil {
		t.Fatalf("SetDirectKey: %v", err)
	}

	for _, target := range []string{"", "en", "english", "e1g"} {
		if _, err := tr.Translate(context.Background(), "Hola", target); err == nil {
			t.Errorf("Translate target %q: expected error", target)
		}
	}
	if p.calls() != 0 {
		t.Errorf("provider called %d times for invalid targets", p.calls())
	}

	if _, err := tr.Translate(context.Background(), "Hola", " ENG "); err != nil {
		t.Errorf("Translate target %q: %v", " ENG ", err)
	}
}

func TestTranslateChunksKeepOrder(t *testing.T) {
	p := &fakeProvider{reply: func(_ int, prompt Prompt) (string, error) {
		// Echo the chunk back upper-cased
		_, text, _ := strings.Cut(prompt.User, "\n\n")
		return strings.ToUpper(text), nil
	}}
	tr, store, dialed := newTestTranslator(t, p, WithMaxWords(2), WithConcurrency(2))
	if err := store.SetDirectKey("sk-test"); err != nil {
		t.Fatalf("SetDirectKey: %v", err)
	}

	got, err := tr.Translate(context.Background(), "a b c d e", "eng")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "A B C D E" {
		t.Errorf("Translate = %q, want %q", got, "A B C D E")
	}
	if p.calls() != 3 {
		t.Errorf("provider calls = %d, want 3", p.calls())
	}
	if len(*dialed) != 1 {
		t.Errorf("configuration resolved %d times, want once per call", len(*dialed))
	}
}

func TestTranslateChunkFailure(t *testing.T) {
	p := &fakeProvider{reply: func(_ int, prompt Prompt) (string, error) {
		if strings.Contains(prompt.User, "c") {
			return "", &ProviderError{Provider: "fake", StatusCode: 500}
		}
		return "ok", nil
	}}
	tr, store, _ := newTestTranslator(t, p, WithMaxWords(2))
	if err := store.SetDirectKey("sk-test"); err != nil {
		t.Fatalf("SetDirectKey: %v", err)
	}

	_, err := tr.Translate(context.Background(), "a b c d", "eng")
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want ProviderError", err)
	}
	if pe.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", pe.StatusCode)
	}
}

func TestNetworkFailureRetriedOnce(t *testing.T) {
	netErr := errors.New("connection reset by peer")
	p := &fakeProvider{reply: func(call int, _ Prompt) (string, error) {
		if call == 1 {
			return "", &ProviderError{Provider: "fake", Err: netErr}
		}
		return "pol", nil
	}}
	tr, store, _ := newTestTranslator(t, p)
	if err := store.SetDirectKey("sk-test"); err != nil {
		t.Fatalf("SetDirectKey: %v", err)
	}

	got, err := tr.DetectLanguage(context.Background(), "Cześć")
	if err != nil {
		t.Fatalf("DetectLanguage: %v", err)
	}
	if got != "pol" {
		t.Errorf("DetectLanguage = %q, want pol", got)
	}
	if p.calls() != 2 {
		t.Errorf("provider calls = %d, want 2", p.calls())
	}
}

func TestNetworkFailureSurfacesAsProviderError(t *testing.T) {
	netErr := errors.New("dial tcp: i/o timeout")
	p := &fakeProvider{reply: func(int, Prompt) (string, error) {
		return "", &ProviderError{Provider: "fake", Err: netErr}
	}}
	tr, store, _ := newTestTranslator(t, p)
	if err := store.SetDirectKey("sk-test"); err != nil {
		t.Fatalf("SetDirectKey: %v", err)
	}

	_, err := tr.Translate(context.Background(), "Hola", "eng")
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want ProviderError", err)
	}
	if !errors.Is(err, netErr) {
		t.Errorf("error %v does not wrap the cause", err)
	}
	if p.calls() != 1+DefaultRetries {
		t.Errorf("provider calls = %d, want %d", p.calls(), 1+DefaultRetries)
	}
}

func TestStatusFailureNotRetried(t *testing.T) {
	p := &fakeProvider{reply: func(int, Prompt) (string, error) {
		return "", &ProviderError{Provider: "fake", StatusCode: 401, Message: "invalid api key"}
	}}
	tr, store, _ := newTestTranslator(t, p)
	if err := store.SetDirectKey("sk-test"); err != nil {
		t.Fatalf("SetDirectKey: %v", err)
	}

	_, err := tr.DetectLanguage(context.Background(), "Hello")
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.StatusCode != 401 {
		t.Fatalf("error = %v, want ProviderError with status 401", err)
	}
	if p.calls() != 1 {
		t.Errorf("provider calls = %d, want 1", p.calls())
	}
}

type blockingProvider struct{}

func (blockingProvider) Complete(ctx context.Context, _ Prompt) (string, error) {
	<-ctx.Done()
	return "", &ProviderError{Provider: "blocking", Err: fmt.Errorf("failed to execute request: %w", ctx.Err())}
}

func TestRequestTimeout(t *testing.T) {
	tr, store, _ := newTestTranslator(t, blockingProvider{}, WithRequestTimeout(20*time.Millisecond), WithRetries(0))
	if err := store.SetDirectKey("sk-test"); err != nil {
		t.Fatalf("SetDirectKey: %v", err)
	}

	_, err := tr.DetectLanguage(context.Background(), "Hello")
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want ProviderError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded cause", err)
	}
}

func TestCallerCancellationNotRetried(t *testing.T) {
	p := &fakeProvider{}
	ctx, cancel := context.WithCancel(context.Background())
	p.reply = func(int, Prompt) (string, error) {
		cancel()
		return "", &ProviderError{Provider: "fake", Err: context.Canceled}
	}
	tr, store, _ := newTestTranslator(t, p)
	if err := store.SetDirectKey("sk-test"); err != nil {
		t.Fatalf("SetDirectKey: %v", err)
	}

	if _, err := tr.DetectLanguage(ctx, "Hello"); err == nil {
		t.Fatal("expected error")
	}
	if p.calls() != 1 {
		t.Errorf("provider calls = %d, want 1", p.calls())
	}
}

func TestDialFailureIsConfigurationError(t *testing.T) {
	store := NewStore()
	if err := store.SetDirectKey("sk-test"); err != nil {
		t.Fatalf("SetDirectKey: %v", err)
	}
	dialErr := errors.New("unsupported configuration")
	tr := New(store, func(Configuration) (Provider, error) { return nil, dialErr })

	_, err := tr.DetectLanguage(context.Background(), "Hello")
	var ce *ConfigurationError
	if !errors.As(err, &ce) || !errors.Is(err, dialErr) {
		t.Fatalf("error = %v, want ConfigurationError wrapping the dial error", err)
	}
}

// mixedLanguageProvider answers the language count with count and echoes
// translation chunks back upper-cased.
func mixedLanguageProvider(count string) *fakeProvider {
	return &fakeProvider{reply: func(_ int, prompt Prompt) (string, error) {
		if prompt.System == countLanguagesSystemPrompt {
			return count, nil
		}
		_, text, _ := strings.Cut(prompt.User, "\n\n")
		return strings.ToUpper(text), nil
	}}
}

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(w, " ")
}

func countPrompts(p *fakeProvider) (counts int, translations int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, prompt := range p.prompts {
		if prompt.System == countLanguagesSystemPrompt {
			counts++
		} else {
			translations++
		}
	}
	return counts, translations
}

func TestTranslateSplitsMixedLanguageChunks(t *testing.T) {
	tests := []struct {
		name         string
		count        string
		opts         []Option
		text         string
		counts       int
		translations int
	}{
		{"mixed chunk is split", "2", nil, words(300), 1, 3},
		{"single language stays whole", "1", nil, words(300), 1, 1},
		{"unreadable count keeps chunk", "several", nil, words(300), 1, 1},
		{"short chunk is not counted", "2", nil, words(100), 0, 1},
		{"counting disabled", "2", []Option{WithMiniChunkWords(0)}, words(300), 0, 1},
		{"custom mini chunk size", "3", []Option{WithMiniChunkWords(50)}, words(120), 1, 3},
		{"every mixed chunk is split", "2", []Option{WithMaxWords(100), WithMiniChunkWords(40)}, words(200), 2, 6},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := mixedLanguageProvider(tc.count)
			tr, store, _ := newTestTranslator(t, p, tc.opts...)
			if err := store.SetDirectKey("sk-test"); err != nil {
				t.Fatalf("SetDirectKey: %v", err)
			}

			got, err := tr.Translate(context.Background(), tc.text, "eng")
			if err != nil {
				t.Fatalf("Translate: %v", err)
			}
			if got != strings.ToUpper(tc.text) {
				t.Errorf("Translate lost or reordered words: %q", got)
			}

			counts, translations := countPrompts(p)
			if counts != tc.counts {
				t.Errorf("language counts = %d, want %d", counts, tc.counts)
			}
			if translations != tc.translations {
				t.Errorf("translation calls = %d, want %d", translations, tc.translations)
			}
		})
	}
}

func TestTranslateLanguageCountFailure(t *testing.T) {
	p := &fakeProvider{reply: func(_ int, prompt Prompt) (string, error) {
		if prompt.System == countLanguagesSystemPrompt {
			return "", &ProviderError{Provider: "fake", StatusCode: 429}
		}
		return "ok", nil
	}}
	tr, store, _ := newTestTranslator(t, p)
	if err := store.SetDirectKey("sk-test"); err != nil {
		t.Fatalf("SetDirectKey: %v", err)
	}

	_, err := tr.Translate(context.Background(), words(300), "eng")
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.StatusCode != 429 {
		t.Fatalf("error = %v, want ProviderError 429", err)
	}
	if _, translations := countPrompts(p); translations != 0 {
		t.Errorf("translation calls = %d after a failed count", translations)
	}
}

func TestTranslateHTMLKeepsMarkupInstruction(t *testing.T) {
	p := replyWith("<p>Hello</p>")
	tr, store, _ := newTestTranslator(t, p)
	if err := store.SetDirectKey("sk-test"); err != nil {
		t.Fatalf("SetDirectKey: %v", err)
	}

	got, err := tr.TranslateHTML(context.Background(), "<p>Cześć</p>", "eng")
	if err != nil {
		t.Fatalf("TranslateHTML: %v", err)
	}
	if got != "<p>Hello</p>" {
		t.Errorf("TranslateHTML = %q", got)
	}
	if !strings.Contains(p.prompts[0].System, "HTML fragment") {
		t.Errorf("system prompt does not ask to keep markup: %q", p.prompts[0].System)
	}

	if _, err := tr.Translate(context.Background(), "Cześć", "eng"); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if strings.Contains(p.prompts[1].System, "HTML fragment") {
		t.Errorf("plain text prompt mentions markup: %q", p.prompts[1].System)
	}
}
