package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gosimple/slug"

	"github.com/xymaxim/vpick/internal/app"
	"github.com/xymaxim/vpick/internal/config"
	"github.com/xymaxim/vpick/internal/picker"
)

// CLI is the root command set of vpick.
type CLI struct {
	Serve        Serve        `cmd:"" help:"Start the fetch-video HTTP service"`
	Pick         Pick         `cmd:"" help:"Print download choices for a video URL"`
	Download     Download     `cmd:"" help:"Download a video in the chosen quality"`
	Install      Install      `cmd:"" help:"Download the yt-dlp binary"`
	SampleConfig SampleConfig `cmd:"" help:"Print an annotated configuration file"`
	Version      Version      `cmd:"" help:"Show version information"`
}

type CommonFlags struct {
	Config   string `help:"Path to configuration file" short:"c" placeholder:"PATH"`
	LogLevel string `help:"Override the configured log level (debug, info, warn, error)"`
}

// setup loads the configuration and installs the logger.
func (f *CommonFlags) setup() (*config.Config, error) {
	cfg, path, exists, err := config.Load(f.Config)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if f.LogLevel != "" {
		cfg.Log.Level = strings.ToLower(f.LogLevel)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	app.SetupLogger(cfg.Log, os.Stderr)

	if exists {
		slog.Debug("loaded config", "path", path)
	} else {
		slog.Debug("no config file found, using defaults", "path", path)
	}
	return cfg, nil
}

// selectFormats runs one extraction through the configured provider.
func selectFormats(ctx context.Context, cfg *config.Config, url string) (*picker.ResponsePayload, error) {
	provider, closeProvider, err := app.NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeProvider()

	payload, err := picker.Select(ctx, url, provider, picker.Options{Malformed: cfg.MalformedPolicy()})
	if err != nil {
		return nil, fmt.Errorf("selecting formats: %w", err)
	}
	return payload, nil
}

func adjustForFilename(s string, length int) string {
	const maxAdjustedLength = 30

	if length == 0 {
		length = maxAdjustedLength
	}

	slug.MaxLength = length
	slug.Lowercase = false

	return slug.Make(s)
}

// buildOutputName returns "<title>_<quality>.mp4" with both parts made safe
// for file names.
func buildOutputName(title *string, quality string) string {
	name := "video"
	if title != nil && strings.TrimSpace(*title) != "" {
		if adjusted := adjustForFilename(*title, 0); adjusted != "" {
			name = adjusted
		}
	}
	if q := adjustForFilename(quality, 0); q != "" {
		name += "_" + q
	}
	return name + "." + picker.ExtMP4
}
