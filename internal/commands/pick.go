package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/xymaxim/vpick/internal/picker"
	"github.com/xymaxim/vpick/internal/urlutil"
)

type Pick struct {
	CommonFlags
	URL  string `arg:"" help:"Video page URL"`
	JSON bool   `help:"Print the response payload as JSON even on a terminal" short:"j"`
}

func (c *Pick) Run() error {
	cfg, err := c.setup()
	if err != nil {
		return err
	}
	if !urlutil.IsWebURL(c.URL) {
		slog.Warn("argument does not look like a web URL", "url", c.URL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	payload, err := selectFormats(ctx, cfg, c.URL)
	if err != nil {
		return err
	}

	asJSON := c.JSON || !isTerminal(os.Stdout)
	return renderPayload(os.Stdout, payload, asJSON)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func renderPayload(w io.Writer, payload *picker.ResponsePayload, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return fmt.Errorf("encoding payload: %w", err)
		}
		return nil
	}

	title := "(untitled)"
	if payload.Title != nil {
		title = *payload.Title
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	if len(payload.Picker) == 0 {
		_, err := fmt.Fprintln(w, "No downloadable formats with video and audio found.")
		return err
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Quality", "Audio", "URL"})
	for i, item := range payload.Picker {
		audio := "no"
		if item.Audio {
			audio = "yes"
		}
		tw.AppendRow(table.Row{i + 1, item.Quality, audio, item.URL})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, WidthMax: 80, WidthMaxEnforcer: text.Trim},
	})

	_, err := fmt.Fprintln(w, tw.Render())
	return err
}
