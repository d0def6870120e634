package listing

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"ethical-rent/config"
	"ethical-rent/models"
	"ethical-rent/utils"
)

// Importer renders listing pages in headless Chrome and turns them into raw
// property rows.
type Importer struct {
	cfg     *config.Config
	logger  *utils.Logger
	pool    *utils.WorkerPool
	visited *utils.IDSet
	retry   *utils.RetryConfig

	// fetch renders one page and returns its HTML. Tests replace it.
	fetch func(ctx context.Context, url string) (string, error)
}

// New creates a ready-to-use Importer.
func New(cfg *config.Config, logger *utils.Logger) *Importer {
	return &Importer{
		cfg:     cfg,
		logger:  logger,
		pool:    utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		visited: utils.NewIDSet(),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Import fetches every URL once and returns the parsed rows in input order.
// Pages that fail to load or parse are logged and skipped; an error is only
// returned when the browser cannot be started or ctx is cancelled.
func (im *Importer) Import(ctx context.Context, urls []string) ([]*models.RawProperty, error) {
	im.logger.Info("[listing] Importing %d listing page(s)", len(urls))

	fetch := im.fetch
	if fetch == nil {
		browserCtx, cancel, err := im.startBrowser(ctx)
		if err != nil {
			return nil, err
		}
		defer cancel()
		fetch = func(_ context.Context, url string) (string, error) {
			return renderPage(browserCtx, url)
		}
	}

	results := make([]*models.RawProperty, len(urls))
	var mu sync.Mutex
	failed := 0

	for i, url := range urls {
		if !im.visited.Add(url) {
			im.logger.Debug("[listing] Skipping duplicate URL %s", url)
			continue
		}
		i, url := i, url
		im.pool.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			raw, err := im.importOne(ctx, fetch, url)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				im.logger.Warn("[listing] %s: %v", url, err)
				failed++
				return
			}
			results[i] = raw
		})
	}
	im.pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("listing import: %w", err)
	}

	out := make([]*models.RawProperty, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	im.logger.Info("[listing] Import complete: %d parsed, %d failed", len(out), failed)
	return out, nil
}

func (im *Importer) importOne(ctx context.Context, fetch func(context.Context, string) (string, error), url string) (*models.RawProperty, error) {
	var html string
	err := im.retry.Do(ctx, "listing-page", func() error {
		var err error
		html, err = fetch(ctx, url)
		return err
	})
	if err != nil {
		return nil, err
	}
	raw, err := ParseListingHTML(url, html)
	if err != nil {
		return nil, err
	}
	raw.FetchedAt = time.Now()
	return raw, nil
}

// startBrowser launches one headless browser shared by every page fetch.
func (im *Importer) startBrowser(ctx context.Context) (context.Context, context.CancelFunc, error) {
	chromeBin := im.cfg.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	im.logger.Info("[listing] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Run with no actions starts the browser so launch failures surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, nil, fmt.Errorf("listing: start browser: %w", err)
	}
	return browserCtx, func() {
		cancelBrowser()
		cancelAlloc()
	}, nil
}

// renderPage opens url in a new tab and returns the document HTML once the
// page has had time to hydrate.
func renderPage(browserCtx context.Context, url string) (string, error) {
	ctx, cancel := chromedp.NewContext(browserCtx)
	defer cancel()

	ctx, cancelTimeout := context.WithTimeout(ctx, 60*time.Second)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(4*time.Second),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(1*time.Second),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return html, nil
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
