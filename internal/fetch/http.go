package fetch

import (
	"context"
	"fmt"
	"time"

	"flyhigh/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const report_http = "http"

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type HttpOptions struct {
	UrlTemplate string
	Timeout     time.Duration
	UserAgent   string
	// Cloudflare routes requests through the cloudflare bypass transport.
	Cloudflare bool
	// Output receives a dump of every exchange if it is not nil.
	Output telemetry.HttpOutput
}

// HttpFetcher fetches documents that are already rendered by the server (or a
// rendering proxy) with a plain GET.
type HttpFetcher struct {
	client      *resty.Client
	urlTemplate string
	tel         telemetry.API
}

func NewHttpFetcher(opts HttpOptions, tel telemetry.API) HttpFetcher {
	if tel == nil {
		tel = telemetry.SlogAPI{}
	}
	tel = telemetry.NewScopedAPI("fetch", tel)

	client := resty.New()
	if opts.Cloudflare {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client.SetHeader("user-agent", userAgent)
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	client.SetTimeout(timeout)
	telemetry.InstrumentResty(client, tel, opts.Output)

	return HttpFetcher{
		client:      client,
		urlTemplate: opts.UrlTemplate,
		tel:         tel,
	}
}

func (f HttpFetcher) Fetch(ctx context.Context, q Query) (string, error) {
	ctx, span := tracer.Start(ctx, "HttpFetcher.Fetch")
	defer span.End()

	url := BuildUrl(f.urlTemplate, q)
	span.SetAttributes(attribute.String("url", url))

	fail := func(err error) (string, error) {
		err = fmt.Errorf("%w: %s: %w", ErrFetchFailed, q.Date.Format(time.DateOnly), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		f.tel.ReportBroken(report_http, err, url)
		return "", err
	}

	res, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return fail(err)
	}
	if res.IsError() {
		return fail(fmt.Errorf("unexpected status %s", res.Status()))
	}
	body := res.String()
	if body == "" {
		return fail(fmt.Errorf("empty response body"))
	}
	return body, nil
}
