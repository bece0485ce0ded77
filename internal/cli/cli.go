// Package cli wires configuration, the weather client and the presenter into
// the wtw command.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/whats-the-weather/internal/config"
	"github.com/i474232898/whats-the-weather/internal/present"
	"github.com/i474232898/whats-the-weather/internal/scheduler"
	"github.com/i474232898/whats-the-weather/internal/store"
	"github.com/i474232898/whats-the-weather/internal/weather"
	"github.com/i474232898/whats-the-weather/internal/weather/providers"
)

var validate = validator.New()

// Options holds the parsed command line.
type Options struct {
	City     string `validate:"required"`
	Forecast bool
	Indent   int `validate:"gte=0,lte=16"`
	JSON     bool
	// Epoch treats the last call as 1970-01-01 so the rate limit never
	// applies. For development only.
	Epoch   bool
	Watch   bool
	Verbose bool
}

// ParseOptions parses args into Options. Flags may appear before or after
// the city; several positional words are joined with single spaces so that
// `wtw New York` works unquoted.
func ParseOptions(fs *flag.FlagSet, args []string) (Options, error) {
	if fs == nil {
		return Options{}, errors.New("flag parser is required")
	}

	var o Options
	fs.BoolVar(&o.Forecast, "f", false, "shorthand for -forecast")
	fs.BoolVar(&o.Forecast, "forecast", false, "show the forecast instead of current conditions")
	fs.IntVar(&o.Indent, "i", 2, "shorthand for -indent")
	fs.IntVar(&o.Indent, "indent", 2, "indentation of the output")
	fs.BoolVar(&o.JSON, "j", false, "shorthand for -json")
	fs.BoolVar(&o.JSON, "json", false, "pretty print the cached JSON document")
	fs.BoolVar(&o.Epoch, "d", false, "shorthand for -datetime")
	fs.BoolVar(&o.Epoch, "datetime", false, "development only: ignore the rate limit")
	fs.BoolVar(&o.Watch, "w", false, "shorthand for -watch")
	fs.BoolVar(&o.Watch, "watch", false, "keep polling every WTW_WATCH_INTERVAL")
	fs.BoolVar(&o.Verbose, "v", false, "shorthand for -verbose")
	fs.BoolVar(&o.Verbose, "verbose", false, "log to stderr")

	if args == nil {
		args = []string{}
	}
	var words []string
	for {
		if err := fs.Parse(args); err != nil {
			return Options{}, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			break
		}
		words = append(words, rest[0])
		args = rest[1:]
	}
	o.City = strings.Join(words, " ")

	if err := validate.Struct(o); err != nil {
		return Options{}, fmt.Errorf("invalid arguments: %w", err)
	}
	return o, nil
}

// Stdio is the terminal the command talks to.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	// Prompt allows asking for a missing API key on In.
	Prompt bool
}

// Run executes one invocation, or keeps polling in watch mode until ctx is
// cancelled.
func Run(ctx context.Context, cfg *config.AppConfig, opts Options, stdio Stdio) error {
	key, err := cfg.APIKey()
	if errors.Is(err, config.ErrMissingCredentials) && stdio.Prompt {
		key, err = config.SetupAPIKey(cfg.APIKeyFile, stdio.In, stdio.Out)
	}
	if err != nil {
		return err
	}

	directory, err := weather.LoadDirectory(cfg.CityListFile)
	if errors.Is(err, fs.ErrNotExist) {
		return config.MissingCityList(cfg.CityListFile)
	}
	if err != nil {
		return err
	}
	log.Printf("DEBUG: loaded %d cities from %s", directory.Len(), cfg.CityListFile)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	backoff := providers.DefaultBackoff
	backoff.MaxRetries = cfg.HTTPMaxRetries
	provider := providers.NewOpenWeatherProvider(httpClient, key, cfg.BaseURL, backoff)

	cache, err := store.NewSQLiteStore(cfg.CachePath, cfg.RecreateCorruptCache)
	if err != nil {
		return err
	}
	defer cache.Close()

	clientOpts := []weather.Option{weather.WithMinInterval(cfg.MinInterval)}
	if opts.Epoch {
		clientOpts = append(clientOpts, weather.WithLastCallOverride(time.Unix(0, 0).UTC()))
	}
	client := weather.NewClient(directory, provider, cache, clientOpts...)

	kind := weather.KindFor(opts.Forecast)
	renderOpts := present.Options{
		Indent:   opts.Indent,
		JSON:     opts.JSON,
		Location: cfg.Location(),
	}

	once := func(ctx context.Context) error {
		cityID, err := client.GetWeather(ctx, opts.City, kind)
		if err != nil {
			return err
		}
		return present.Render(stdio.Out, client.Entry(cityID), kind, renderOpts)
	}

	if err := once(ctx); err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}

	log.Printf("INFO: watching %s every %s", opts.City, cfg.WatchInterval)
	return scheduler.New(cfg.WatchInterval, cfg.HTTPTimeout*2, once).Run(ctx)
}
