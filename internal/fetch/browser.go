package fetch

import (
	"context"
	"fmt"
	"os"
	"time"

	"flyhigh/internal/components/telemetry"

	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const report_browser = "browser"

type BrowserOptions struct {
	UrlTemplate string
	// Wait is how long the page is given to render its results after navigation.
	Wait      time.Duration
	Timeout   time.Duration
	UserAgent string
	// Headful shows the browser window, useful when debugging selectors.
	Headful bool
	// ExecPath overrides the chrome binary, chromedp searches the usual locations
	// otherwise.
	ExecPath string
}

// BrowserFetcher renders the results page with a headless chrome, the results of the
// search page are inserted by javascript so the raw response body is not enough.
type BrowserFetcher struct {
	opts BrowserOptions
	tel  telemetry.API
}

func NewBrowserFetcher(opts BrowserOptions, tel telemetry.API) BrowserFetcher {
	if opts.Wait == 0 {
		opts.Wait = 5 * time.Second
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Minute
	}
	if tel == nil {
		tel = telemetry.SlogAPI{}
	}
	return BrowserFetcher{
		opts: opts,
		tel:  telemetry.NewScopedAPI("fetch", tel),
	}
}

func (f BrowserFetcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !f.opts.Headful),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
	)
	if f.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(f.opts.UserAgent))
	}
	if f.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(f.opts.ExecPath))
	}
	return opts
}

func (f BrowserFetcher) Fetch(ctx context.Context, q Query) (string, error) {
	ctx, span := tracer.Start(ctx, "BrowserFetcher.Fetch")
	defer span.End()

	url := BuildUrl(f.opts.UrlTemplate, q)
	span.SetAttributes(attribute.String("url", url))

	contents, err := f.render(ctx, url)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrFetchFailed, q.Date.Format(time.DateOnly), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		f.tel.ReportBroken(report_browser, err, url)
		return "", err
	}
	return contents, nil
}

func (f BrowserFetcher) render(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	chromeDir, err := os.MkdirTemp("", "flyhigh-chrome-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(chromeDir)

	allocOpts := append(f.allocatorOptions(), chromedp.UserDataDir(chromeDir))
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...any) {
		f.tel.ReportDebug(fmt.Sprintf(format, v...))
	}))
	defer cancelBrowser()

	var contents string
	err = chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(f.opts.Wait),
		chromedp.OuterHTML("html", &contents, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}
	return contents, nil
}
