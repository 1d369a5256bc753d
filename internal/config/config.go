package config

import (
	"fmt"
	"time"

	"flyhigh/internal/components/chrono"
	"flyhigh/internal/components/telemetry"
	"flyhigh/internal/fetch"
	"flyhigh/internal/offer"
	"flyhigh/internal/pipeline"
	"flyhigh/lib/configutil"
	configlibsql "flyhigh/lib/configutil/libsql"
	"flyhigh/lib/restyutil"
)

// Dates is the searched departure date range. From and To are YYYY-MM-DD, when they
// are empty the range starts today and spans DaysAhead days.
type Dates struct {
	From      string `json:"from"`
	To        string `json:"to"`
	DaysAhead int    `json:"days_ahead"`
}

// Resolve returns the inclusive range of departure dates to search.
func (d Dates) Resolve(now time.Time, location *time.Location) (time.Time, time.Time, error) {
	today := chrono.TruncateDay(now, location)

	from := today
	if d.From != "" {
		var err error
		from, err = chrono.ParseDate(d.From, location)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("dates.from: %w", err)
		}
	}
	to := time.Date(from.Year(), from.Month(), from.Day()+d.DaysAhead, 0, 0, 0, 0, location)
	if d.To != "" {
		var err error
		to, err = chrono.ParseDate(d.To, location)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("dates.to: %w", err)
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("dates: %s is before %s", d.To, from.Format(time.DateOnly))
	}
	return from, to, nil
}

const (
	FetcherBrowser = "browser"
	FetcherHttp    = "http"
)

type Fetcher struct {
	Kind        string `json:"kind"`
	UrlTemplate string `json:"url_template"`
	// Wait and Timeout are go durations like "5s".
	Wait       string `json:"wait"`
	Timeout    string `json:"timeout"`
	UserAgent  string `json:"user_agent"`
	Headful    bool   `json:"headful"`
	ExecPath   string `json:"exec_path"`
	Cloudflare bool   `json:"cloudflare"`
	// DumpDir receives every http exchange of the http fetcher when set.
	DumpDir string `json:"dump_dir"`
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("fetcher.%s: %w", field, err)
	}
	return d, nil
}

// Build creates the configured fetcher.
func (f Fetcher) Build(tel telemetry.API) (fetch.Fetcher, error) {
	timeout, err := parseDuration("timeout", f.Timeout)
	if err != nil {
		return nil, err
	}

	switch f.Kind {
	case FetcherBrowser, "":
		wait, err := parseDuration("wait", f.Wait)
		if err != nil {
			return nil, err
		}
		return fetch.NewBrowserFetcher(fetch.BrowserOptions{
			UrlTemplate: f.UrlTemplate,
			Wait:        wait,
			Timeout:     timeout,
			UserAgent:   f.UserAgent,
			Headful:     f.Headful,
			ExecPath:    f.ExecPath,
		}, tel), nil
	case FetcherHttp:
		opts := fetch.HttpOptions{
			UrlTemplate: f.UrlTemplate,
			Timeout:     timeout,
			UserAgent:   f.UserAgent,
			Cloudflare:  f.Cloudflare,
		}
		if f.DumpDir != "" {
			output, err := restyutil.NewFilesystemOutput(f.DumpDir)
			if err != nil {
				return nil, fmt.Errorf("fetcher.dump_dir: %w", err)
			}
			opts.Output = output
		}
		return fetch.NewHttpFetcher(opts, tel), nil
	default:
		return nil, fmt.Errorf("fetcher.kind: unknown fetcher %q", f.Kind)
	}
}

type Archive struct {
	// Dir is where raw documents are kept, archiving is off when it is empty.
	Dir string `json:"dir"`
}

type Config struct {
	Route     pipeline.Route      `json:"route"`
	Dates     Dates               `json:"dates"`
	Timezone  string              `json:"timezone"`
	Fetcher   Fetcher             `json:"fetcher"`
	Selectors offer.Selectors     `json:"selectors"`
	Database  configlibsql.Struct `json:"database"`
	Archive   Archive             `json:"archive"`
	// Schedule is the cron spec of the schedule command.
	Schedule string `json:"schedule"`
	LogLevel string `json:"log_level"`
}

var Defaults = Config{
	Route: pipeline.Route{
		Origin:      "ARN",
		Destination: "FRA",
		Currency:    "SEK",
	},
	Dates:    Dates{DaysAhead: 180},
	Timezone: "Europe/Stockholm",
	Fetcher: Fetcher{
		Kind:        FetcherBrowser,
		UrlTemplate: fetch.DefaultUrlTemplate,
		Wait:        "5s",
		Timeout:     "1m",
	},
	Selectors: offer.GoogleFlightsSelectors,
	Database:  configlibsql.Struct{File: "flights.db"},
	Schedule:  "0 * * * *",
	LogLevel:  "info",
}

// Load reads `path` (and its .local override) on top of Defaults.
func Load(path string) (Config, error) {
	config, err := configutil.ReadConfigWithDefaults(path, Defaults)
	if err != nil {
		return Config{}, err
	}
	err = config.validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) validate() error {
	if c.Route.Origin == "" || c.Route.Destination == "" {
		return fmt.Errorf("route: origin and destination are required")
	}
	if c.Dates.DaysAhead < 0 {
		return fmt.Errorf("dates.days_ahead: must not be negative")
	}
	_, err := chrono.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	return nil
}

func (c Config) Location() (*time.Location, error) {
	return chrono.LoadLocation(c.Timezone)
}
