package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/xymaxim/vpick/internal/app"
	"github.com/xymaxim/vpick/internal/urlutil"
)

type Serve struct {
	CommonFlags
	Port int `help:"Port to listen on (overrides config)" short:"p"`
}

func (c *Serve) Run() error {
	cfg, err := c.setup()
	if err != nil {
		return err
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, closeProvider, err := app.NewProvider(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeProvider()

	a := app.NewApp(cfg, provider)

	ln, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("listening: %w", err)
	}

	fmt.Printf(
		"(<<) Listening on %s%s...\n",
		urlutil.FormatServerAddress(ln.Addr().String()),
		app.FetchPath,
	)
	return a.Serve(ctx, ln)
}
