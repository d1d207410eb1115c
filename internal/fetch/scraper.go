package fetch

import (
	"context"

	"github.com/jonathan/persona-engine/internal/logger"
)

// Page is the readable content of a scraped page.
type Page struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Site     Site   `json:"site"`
	Rendered bool   `json:"rendered"`
}

// Scraper fetches pages over HTTP and falls back to a browser for
// client-rendered pages when a Renderer is configured.
type Scraper struct {
	opts     *Options
	renderer Renderer
	log      logger.Logger
}

// NewScraper creates a scraper. renderer may be nil to disable the browser fallback.
func NewScraper(opts *Options, renderer Renderer, log logger.Logger) *Scraper {
	if opts == nil {
		opts = DefaultOptions()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Scraper{opts: opts, renderer: renderer, log: log}
}

// Scrape returns the main text of rawURL. When useBrowser is set and the plain
// fetch yields less than MinContentLength characters, the page is rendered and
// re-extracted; a failed render keeps the HTTP text.
func (s *Scraper) Scrape(ctx context.Context, rawURL string, useBrowser bool) (*Page, error) {
	site := DetectSite(rawURL)

	resp, err := Get(ctx, rawURL, s.opts)
	if err != nil {
		return nil, err
	}

	text, err := ExtractMainText(resp.HTML, site.ContentSelectors(), site.NoiseSelectors()...)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "content extraction failed", Cause: err}
	}
	page := &Page{URL: rawURL, Title: ExtractTitle(resp.HTML), Text: text, Site: site}

	s.log.Debug(ctx, "page fetched",
		logger.String("url", rawURL),
		logger.String("site", string(site)),
		logger.Int("html_bytes", len(resp.HTML)),
		logger.Int("text_chars", len(text)),
	)

	if !useBrowser || s.renderer == nil || !NeedsBrowser(text) {
		return page, nil
	}

	s.log.Info(ctx, "content too short, rendering in browser",
		logger.String("url", rawURL), logger.Int("text_chars", len(text)))

	html, err := s.renderer.Render(ctx, rawURL)
	if err != nil {
		s.log.Warn(ctx, "browser rendering failed, keeping HTTP content", logger.String("url", rawURL), logger.Err(err))
		return page, nil
	}
	rendered, err := ExtractMainText(html, site.ContentSelectors(), site.NoiseSelectors()...)
	if err != nil {
		s.log.Warn(ctx, "rendered content extraction failed", logger.String("url", rawURL), logger.Err(err))
		return page, nil
	}

	page.Text = rendered
	page.Rendered = true
	if title := ExtractTitle(html); title != "" {
		page.Title = title
	}
	return page, nil
}
