// Package ytdlp makes sure a yt-dlp binary is available, downloading the
// latest release when it is missing.
package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	BinaryName  = "yt-dlp"
	ReleasesURL = "https://github.com/yt-dlp/yt-dlp/releases/latest/download/"

	lockRetryDelay = 200 * time.Millisecond
)

var (
	ErrDownload    = errors.New("unable to download the video processing engine")
	ErrPermissions = errors.New("unable to set up the video processing engine")
)

// Installer resolves the yt-dlp binary. When Dir is empty only PATH lookup
// is attempted.
type Installer struct {
	// Binary is a binary name looked up in PATH or an explicit path.
	Binary string
	// Dir is where a missing binary is downloaded to.
	Dir string
	// BaseURL is the release download prefix; the platform asset name is
	// appended.
	BaseURL string
	Client  *retryablehttp.Client

	mu    sync.Mutex
	ready string
}

// Ensure returns a path to an executable yt-dlp, downloading it first when
// needed. Once a path is resolved it is reused for the life of the installer.
func (i *Installer) Ensure(ctx context.Context) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.ready != "" {
		return i.ready, nil
	}

	binary := i.Binary
	if binary == "" {
		binary = BinaryName
	}
	if path, err := exec.LookPath(binary); err == nil {
		slog.Debug("found yt-dlp", "path", path)
		i.ready = path
		return path, nil
	}
	if i.Dir == "" {
		return "", fmt.Errorf("unable to find %s in PATH and no install directory configured", binary)
	}

	path, err := i.Install(ctx)
	if err != nil {
		return "", err
	}
	i.ready = path
	return path, nil
}

// Install places yt-dlp into Dir regardless of PATH, downloading it unless
// a previous install is already there.
func (i *Installer) Install(ctx context.Context) (string, error) {
	if i.Dir == "" {
		return "", errors.New("no install directory configured")
	}
	if err := os.MkdirAll(i.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating install directory: %w", err)
	}
	path := filepath.Join(i.Dir, AssetName(runtime.GOOS, runtime.GOARCH))

	// Other processes sharing the directory may be installing concurrently.
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return "", fmt.Errorf("acquiring install lock: %w", err)
	}
	if !locked {
		return "", errors.New("acquiring install lock: not acquired")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("releasing install lock", "err", err)
		}
	}()

	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() && info.Size() > 0 {
		slog.Debug("yt-dlp binary already exists", "path", path)
	} else {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("checking %s: %w", path, err)
		}
		slog.Info("yt-dlp binary not found, downloading", "path", path)
		if err := i.download(ctx, path); err != nil {
			return "", fmt.Errorf("%w: %w", ErrDownload, err)
		}
		slog.Info("download complete", "path", path)
	}

	if err := os.Chmod(path, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPermissions, err)
	}

	return path, nil
}

func (i *Installer) download(ctx context.Context, path string) error {
	baseURL := i.BaseURL
	if baseURL == "" {
		baseURL = ReleasesURL
	}
	u := baseURL + AssetName(runtime.GOOS, runtime.GOARCH)

	client := i.Client
	if client == nil {
		client = retryablehttp.NewClient()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("requesting %s: unexpected status %s", u, resp.Status)
	}

	pendingFile, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("creating pending file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			slog.Debug("cleaning up pending file", "err", err)
		}
	}()

	if _, err := io.Copy(pendingFile, resp.Body); err != nil {
		return fmt.Errorf("writing binary: %w", err)
	}
	if err := pendingFile.Chmod(0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrPermissions, err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replacing binary: %w", err)
	}

	return nil
}

// AssetName returns the release asset for a platform.
func AssetName(goos, goarch string) string {
	switch goos {
	case "windows":
		return "yt-dlp.exe"
	case "darwin":
		return "yt-dlp_macos"
	case "linux":
		switch goarch {
		case "arm64":
			return "yt-dlp_linux_aarch64"
		case "arm":
			return "yt-dlp_linux_armv7l"
		default:
			return "yt-dlp_linux"
		}
	default:
		return "yt-dlp"
	}
}
