package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/schollz/progressbar/v3"

	"github.com/xymaxim/vpick/internal/httpclient"
	"github.com/xymaxim/vpick/internal/picker"
	"github.com/xymaxim/vpick/internal/urlutil"
)

var ErrNoSuchQuality = errors.New("no format with the requested quality")

type Download struct {
	CommonFlags
	URL     string `arg:"" help:"Video page URL"`
	Quality string `help:"Quality label to download, e.g. 720p (default: best)" short:"q"`
	Output  string `help:"Output file or directory" short:"o" default:"."`
}

func (c *Download) Run() error {
	cfg, err := c.setup()
	if err != nil {
		return err
	}
	if !urlutil.IsWebURL(c.URL) {
		slog.Warn("argument does not look like a web URL", "url", c.URL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("(<<) Collecting info about %s...\n", c.URL)
	payload, err := selectFormats(ctx, cfg, c.URL)
	if err != nil {
		return err
	}

	item, ok := payload.Find(c.Quality)
	if !ok {
		return fmt.Errorf("%w: %q (available: %s)", ErrNoSuchQuality, c.Quality, availableQualities(payload))
	}

	path, err := resolveOutputPath(c.Output, buildOutputName(payload.Title, item.Quality))
	if err != nil {
		return err
	}

	fmt.Printf("(<<) Downloading %s to %s...\n", item.Quality, path)
	client := httpclient.NewStreaming(httpclient.DefaultRetryMax, httpclient.DefaultHeaderTimeout)
	start := time.Now()
	n, err := downloadFile(ctx, client, item.URL, path, isTerminal(os.Stderr))
	if err != nil {
		return err
	}
	slog.Info("download finished", "path", path, "bytes", n, "duration", time.Since(start))
	fmt.Printf("Saved %s (%d bytes)\n", path, n)

	return nil
}

func availableQualities(payload *picker.ResponsePayload) string {
	if len(payload.Picker) == 0 {
		return "none"
	}
	s := ""
	for i, item := range payload.Picker {
		if i > 0 {
			s += ", "
		}
		s += item.Quality
	}
	return s
}

// resolveOutputPath places name inside output when output is a directory;
// otherwise output itself is the file path.
func resolveOutputPath(output, name string) (string, error) {
	if output == "" {
		output = "."
	}
	info, err := os.Stat(output)
	switch {
	case err == nil && info.IsDir():
		return filepath.Join(output, name), nil
	case err == nil || errors.Is(err, os.ErrNotExist):
		return output, nil
	default:
		return "", fmt.Errorf("checking output path: %w", err)
	}
}

// downloadFile streams url into path, replacing it atomically once the
// whole body has been written.
func downloadFile(
	ctx context.Context,
	client *retryablehttp.Client,
	url, path string,
	showProgress bool,
) (int64, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("requesting media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("requesting media: unexpected status %s", resp.Status)
	}

	f, err := renameio.NewPendingFile(path)
	if err != nil {
		return 0, fmt.Errorf("creating output file: %w", err)
	}
	defer f.Cleanup()

	var w io.Writer = f
	if showProgress {
		bar := progressbar.DefaultBytes(resp.ContentLength, "downloading")
		defer bar.Finish()
		w = io.MultiWriter(f, bar)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("writing media: %w", err)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return n, fmt.Errorf("writing media: got %d of %d bytes", n, resp.ContentLength)
	}
	if err := f.CloseAtomicallyReplace(); err != nil {
		return n, fmt.Errorf("saving output file: %w", err)
	}
	return n, nil
}
