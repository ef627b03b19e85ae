// Package feed translates RSS, Atom and JSON feeds item by item.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/candinya/ai-translator/modules/htmltext"
	"github.com/gorilla/feeds"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

// DefaultConcurrency is the number of items translated at once when none is configured.
const DefaultConcurrency = 4

type Translator interface {
	Translate(ctx context.Context, text string, target string) (string, error)
	TranslateHTML(ctx context.Context, text string, target string) (string, error)
}

// DetectFunc returns the ISO 639-3 code of text, or "" when unsure.
type DetectFunc func(text string) string

type Processor struct {
	l *zap.Logger

	parser *gofeed.Parser
	tr     Translator
	detect DetectFunc

	concurrency int
}

// NewProcessor builds a feed processor translating at most concurrency items
// at once. A nil detect disables the same-language check and sends every part to tr.
func NewProcessor(tr Translator, detect DetectFunc, concurrency int, hc *http.Client, l *zap.Logger) *Processor {
	parser := gofeed.NewParser()
	parser.Client = hc

	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	return &Processor{
		l:           l,
		parser:      parser,
		tr:          tr,
		detect:      detect,
		concurrency: concurrency,
	}
}

func (p *Processor) Fetch(ctx context.Context, feedURL string) (*feeds.Feed, error) {
	p.l.Debug("fetch feed", zap.String("url", feedURL))

	parsed, err := p.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	return convertFeed(parsed), nil
}

func (p *Processor) Parse(r io.Reader) (*feeds.Feed, error) {
	parsed, err := p.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	return convertFeed(parsed), nil
}

// TranslateFeed translates title, description and content of every item in
// place. Parts failing to translate keep their original text.
func (p *Processor) TranslateFeed(ctx context.Context, feed *feeds.Feed, targetLang string) *feeds.Feed {
	// Detectors report lowercase codes
	targetLang = strings.ToLower(strings.TrimSpace(targetLang))

	var itemWg sync.WaitGroup
	sem := make(chan struct{}, p.concurrency)
	for _, item := range feed.Items {
		item := item

		itemWg.Add(1)
		go func() {
			defer itemWg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			p.translateItem(ctx, item, targetLang)
		}()
	}
	itemWg.Wait()

	return feed
}

func (p *Processor) translateItem(ctx context.Context, item *feeds.Item, targetLang string) {
	// Translate wg
	var translateWg sync.WaitGroup

	// Translate channels
	tTitle := make(chan *string, 1)
	tDescription := make(chan *string, 1)
	tContent := make(chan *string, 1)

	// Title
	if item.Title != "" {
		p.l.Debug("translate item title", zap.String("title", item.Title))
		translateWg.Add(1)
		go func() {
			defer translateWg.Done()
			tTitle <- p.translatePart(ctx, item.Title, targetLang, item.Id, "title")
		}()
	}

	// Description
	if item.Description != "" {
		p.l.Debug("translate item description", zap.String("description", item.Description))
		translateWg.Add(1)
		go func() {
			defer translateWg.Done()
			tDescription <- p.translatePart(ctx, item.Description, targetLang, item.Id, "description")
		}()
	}

	// Content
	if item.Content != "" {
		p.l.Debug("translate item content", zap.String("content", item.Content))
		translateWg.Add(1)
		go func() {
			defer translateWg.Done()
			tContent <- p.translatePart(ctx, item.Content, targetLang, item.Id, "content")
		}()
	}

	// Wait for all finish
	translateWg.Wait()

	// Close channels
	close(tTitle)
	close(tDescription)
	close(tContent)

	// Check channel results
	if translatedTitle := <-tTitle; translatedTitle != nil {
		item.Title = *translatedTitle
	}
	if translatedDescription := <-tDescription; translatedDescription != nil {
		item.Description = *translatedDescription
	}
	if translatedContent := <-tContent; translatedContent != nil {
		item.Content = *translatedContent
	}
}

func (p *Processor) translatePart(ctx context.Context, src string, targetLang string, id string, part string) *string {
	isHTML := htmltext.LooksLikeHTML(src)

	if p.detect != nil {
		sample := src
		if isHTML {
			sample = htmltext.PlainText(src)
		}
		if p.detect(sample) == targetLang {
			p.l.Debug("part already in target language", zap.String("part", part), zap.String("id", id))
			return nil
		}
	}

	translate := p.tr.Translate
	if isHTML {
		translate = p.tr.TranslateHTML
	}
	translated, err := translate(ctx, src, targetLang)
	if err != nil {
		p.l.Error("failed to translate", zap.String("part", part), zap.String("id", id), zap.Error(err))
		return nil
	}

	return &translated
}

// Render re-constructs feed in the requested format, RSS 2.0 by default.
func Render(feed *feeds.Feed, format string) (result string, contentType string, err error) {
	switch format {
	case "atom":
		result, err = feed.ToAtom()
		contentType = "application/atom+xml"
	case "json":
		result, err = feed.ToJSON()
		contentType = "application/json"
	default:
		result, err = feed.ToRss()
		contentType = "application/rss+xml"
	}

	if err != nil {
		return "", "", fmt.Errorf("failed to format feed: %w", err)
	}
	return result, contentType, nil
}
