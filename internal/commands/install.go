package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/xymaxim/vpick/internal/httpclient"
	"github.com/xymaxim/vpick/internal/ytdlp"
)

type Install struct {
	CommonFlags
	Dir string `help:"Directory to install yt-dlp into (overrides config)" short:"d" placeholder:"DIR"`
}

func (c *Install) Run() error {
	cfg, err := c.setup()
	if err != nil {
		return err
	}
	dir := c.Dir
	if dir == "" {
		dir = cfg.Extract.InstallDir
	}
	if dir == "" {
		return fmt.Errorf("no install directory: set extract.install_dir or pass --dir")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	installer := &ytdlp.Installer{
		Dir:     dir,
		BaseURL: ytdlp.ReleasesURL,
		Client:  httpclient.New(httpclient.DefaultRetryMax, httpclient.DefaultTimeout),
	}
	path, err := installer.Install(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("yt-dlp is installed at %s\n", path)
	return nil
}
