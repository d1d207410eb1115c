package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// MinContentLength is the shortest extracted text accepted from a plain HTTP
// fetch before the page is treated as client-rendered.
const MinContentLength = 500

// NeedsBrowser reports whether extracted text is too short to trust.
func NeedsBrowser(extracted string) bool {
	return len(strings.TrimSpace(extracted)) < MinContentLength
}

// Renderer returns the fully rendered HTML of a page.
type Renderer interface {
	Render(ctx context.Context, rawURL string) (string, error)
}

// ChromeRenderer renders pages in headless Chrome. Chrome or Chromium must be installed.
type ChromeRenderer struct {
	Timeout time.Duration
	// Settle is how long to wait after the body is ready for scripts to populate it.
	Settle time.Duration
}

// NewChromeRenderer returns a renderer with a 30s timeout and a 3s settle delay.
func NewChromeRenderer() *ChromeRenderer {
	return &ChromeRenderer{Timeout: DefaultTimeout, Settle: 3 * time.Second}
}

// Render loads rawURL, waits for scripts to settle, dismisses cookie banners
// where it can and returns the outer HTML.
func (r *ChromeRenderer) Render(ctx context.Context, rawURL string) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	browserCtx, cancel := context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(r.Settle),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// best effort; most pages have no banner
			_ = chromedp.Click(`button[id*="accept"], button[class*="accept"]`, chromedp.NodeVisible, chromedp.AtLeast(0)).Do(ctx)
			return nil
		}),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}
	return html, nil
}
