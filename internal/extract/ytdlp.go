package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xymaxim/vpick/internal/exec"
	"github.com/xymaxim/vpick/internal/info"
)

const DefaultTimeout = 60 * time.Second

var extractDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "vpick_extract_duration_seconds",
	Help:    "Duration of yt-dlp metadata extraction by outcome",
	Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
}, []string{"outcome"})

// Ensurer resolves the path of an executable yt-dlp, installing it if needed.
type Ensurer interface {
	Ensure(ctx context.Context) (string, error)
}

// EnsurerFunc adapts a function to Ensurer.
type EnsurerFunc func(ctx context.Context) (string, error)

func (f EnsurerFunc) Ensure(ctx context.Context) (string, error) {
	return f(ctx)
}

// YtdlpProvider extracts metadata by running yt-dlp in JSON dump mode.
type YtdlpProvider struct {
	Runner exec.Runner
	// Installer, when set, takes precedence over Runner: each extraction
	// runs the binary it resolves.
	Installer Ensurer
	Timeout   time.Duration
	// ExtraArgs are appended before the URL, e.g. cookies or proxy flags.
	ExtraArgs []string
}

// maxHeight bounds plausible frame heights; larger values are discarded.
const maxHeight = 1 << 16

type jsonDump struct {
	Title     json.RawMessage `json:"title"`
	Thumbnail json.RawMessage `json:"thumbnail"`
	Formats   json.RawMessage `json:"formats"`
}

type format struct {
	FormatID   string   `json:"format_id"`
	URL        string   `json:"url"`
	VideoCodec *string  `json:"vcodec"`
	AudioCodec *string  `json:"acodec"`
	Ext        string   `json:"ext"`
	FormatNote *string  `json:"format_note"`
	Height     *float64 `json:"height"`
	Tbr        *float64 `json:"tbr"`
}

func (p *YtdlpProvider) Extract(ctx context.Context, url string) (*info.Metadata, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	metadata, err := p.extract(ctx, url)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	extractDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	return metadata, err
}

func (p *YtdlpProvider) extract(ctx context.Context, url string) (*info.Metadata, error) {
	args := []string{
		"--dump-single-json",
		"--skip-download",
		"--no-playlist",
		"--no-warnings",
		"--quiet",
	}
	args = append(args, p.ExtraArgs...)
	args = append(args, "--", url)

	runner := p.Runner
	if p.Installer != nil {
		path, err := p.Installer.Ensure(ctx)
		if err != nil {
			return nil, &ExtractionError{URL: url, Err: err}
		}
		runner = exec.NewCommandRunner(path)
	}

	slog.Debug("running yt-dlp", "url", url)
	result, err := runner.RunWith(ctx, []exec.Option{exec.WithQuiet()}, args...)
	if err != nil {
		extractionErr := &ExtractionError{URL: url, Err: err}
		var cmdErr *exec.CommandError
		if errors.As(err, &cmdErr) && ctx.Err() == nil {
			extractionErr.Stderr = cmdErr.Stderr
		}
		return nil, extractionErr
	}

	metadata, err := decodeDump(result.Stdout)
	if err != nil {
		return nil, &ExtractionError{URL: url, Err: err}
	}
	return metadata, nil
}

// decodeDump parses a yt-dlp JSON dump. Only a non-object top level fails;
// mistyped fields and format entries that do not decode are dropped.
func decodeDump(out []byte) (*info.Metadata, error) {
	var dump jsonDump
	if err := json.Unmarshal(out, &dump); err != nil {
		return nil, fmt.Errorf("parsing info dump: %w", err)
	}

	var formats []json.RawMessage
	if len(dump.Formats) > 0 {
		if err := json.Unmarshal(dump.Formats, &formats); err != nil {
			slog.Debug("ignoring formats that are not a list", "err", err)
			formats = nil
		}
	}

	metadata := &info.Metadata{
		Title:     optionalString("title", dump.Title),
		Thumbnail: optionalString("thumbnail", dump.Thumbnail),
		Formats:   make([]info.FormatRecord, 0, len(formats)),
	}
	for i, raw := range formats {
		var f format
		if err := json.Unmarshal(raw, &f); err != nil {
			slog.Debug("skipping undecodable format", "index", i, "err", err)
			continue
		}
		record := info.FormatRecord{
			FormatID:     f.FormatID,
			URL:          f.URL,
			VideoCodec:   f.VideoCodec,
			AudioCodec:   f.AudioCodec,
			Ext:          f.Ext,
			FormatNote:   f.FormatNote,
			TotalBitrate: f.Tbr,
		}
		if h := f.Height; h != nil && !math.IsNaN(*h) && *h > 0 && *h <= maxHeight {
			record.Height = info.Ptr(int(*h))
		}
		metadata.Formats = append(metadata.Formats, record)
	}

	return metadata, nil
}

// optionalString decodes a nullable string field, treating any other JSON
// type as absent.
func optionalString(field string, raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		slog.Debug("ignoring mistyped field", "field", field, "err", err)
		return nil
	}
	return s
}
