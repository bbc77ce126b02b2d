package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xymaxim/vpick/internal/httpclient"
	"github.com/xymaxim/vpick/internal/info"
	"github.com/xymaxim/vpick/internal/picker"
)

//nolint:paralleltest
func TestAdjustForFilename(t *testing.T) {
	testCases := []struct {
		name     string
		s        string
		length   int
		expected string
	}{
		{
			name:     "french title with default length",
			s:        "En direct : Titre de la   vidéo — 24h/7 | Panorama, 360 / ? ",
			length:   0,
			expected: "En-direct-Titre-de-la-video",
		},
		{
			name:     "french title with full length",
			s:        "En direct : Titre de la   vidéo — 24h/7 | Panorama, 360 / ? ",
			length:   1000,
			expected: "En-direct-Titre-de-la-video-24h-7-Panorama-360",
		},
		{
			name: "japanese title",
			//nolint:gosmopolitan
			s:        "【LIVE】新宿駅前の様子 Shinjuku, Tokyo JAPAN【ライブカメラ】 | TBS NEWS DIG",
			length:   50,
			expected: "LIVE-Xin-Su-Yi-Qian-noYang-Zi-Shinjuku-Tokyo-JAPAN",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, adjustForFilename(tc.s, tc.length))
		})
	}
}

//nolint:paralleltest
func TestBuildOutputName(t *testing.T) {
	testCases := []struct {
		name     string
		title    *string
		quality  string
		expected string
	}{
		{
			name:     "title and quality",
			title:    info.Ptr("My Video: Part 1"),
			quality:  "720p",
			expected: "My-Video-Part-1_720p.mp4",
		},
		{
			name:     "missing title",
			title:    nil,
			quality:  "1080p60",
			expected: "video_1080p60.mp4",
		},
		{
			name:     "title without usable characters",
			title:    info.Ptr("???"),
			quality:  "HD",
			expected: "video_HD.mp4",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, buildOutputName(tc.title, tc.quality))
		})
	}
}

func testPayload() *picker.ResponsePayload {
	return &picker.ResponsePayload{
		Status: picker.StatusPicker,
		Title:  info.Ptr("Test title"),
		Picker: []picker.Item{
			{URL: "https://media.test/a?x=1&y=2", Quality: "1080p", Type: "video", Audio: true},
			{URL: "https://media.test/b", Quality: "720p", Type: "video", Audio: true},
		},
	}
}

func TestRenderPayload_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, renderPayload(&buf, testPayload(), true))

	assert.Contains(t, buf.String(), "x=1&y=2")
	var got picker.ResponsePayload
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, *testPayload(), got)
}

func TestRenderPayload_Table(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, renderPayload(&buf, testPayload(), false))

	out := buf.String()
	assert.Contains(t, out, "Test title")
	assert.Contains(t, out, "Quality")
	assert.Contains(t, out, "1080p")
	assert.Contains(t, out, "720p")
	assert.Contains(t, out, "https://media.test/b")
}

func TestRenderPayload_TableEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	payload := &picker.ResponsePayload{Status: picker.StatusPicker, Picker: []picker.Item{}}
	require.NoError(t, renderPayload(&buf, payload, false))

	assert.Contains(t, buf.String(), "(untitled)")
	assert.Contains(t, buf.String(), "No downloadable formats")
}

func TestResolveOutputPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	path, err := resolveOutputPath(dir, "video_720p.mp4")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "video_720p.mp4"), path)

	file := filepath.Join(dir, "custom.mp4")
	path, err = resolveOutputPath(file, "video_720p.mp4")
	require.NoError(t, err)
	assert.Equal(t, file, path)
}

func TestDownloadFile(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/media.mp4" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("media bytes"))
	}))
	t.Cleanup(server.Close)

	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.Logger = nil

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "out.mp4")

		n, err := downloadFile(context.Background(), client, server.URL+"/media.mp4", path, false)
		require.NoError(t, err)
		assert.Equal(t, int64(len("media bytes")), n)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "media bytes", string(data))
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "out.mp4")

		_, err := downloadFile(context.Background(), client, server.URL+"/missing", path, false)
		assert.ErrorContains(t, err, "unexpected status")
		assert.NoFileExists(t, path)
	})
}

func TestDownloadFile_SlowBodyOutlastsHeaderTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		for range 10 {
			_, _ = w.Write([]byte("m"))
			if flusher != nil {
				flusher.Flush()
			}
			time.Sleep(50 * time.Millisecond)
		}
	}))
	t.Cleanup(server.Close)

	client := httpclient.NewStreaming(0, 200*time.Millisecond)
	path := filepath.Join(t.TempDir(), "out.mp4")

	n, err := downloadFile(context.Background(), client, server.URL, path, false)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mmmmmmmmmm", string(data))
}

func TestAvailableQualities(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1080p, 720p", availableQualities(testPayload()))
	assert.Equal(t, "none", availableQualities(&picker.ResponsePayload{}))
}

func TestCLI_Parse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		args    []string
		command string
		check   func(t *testing.T, cli *CLI)
	}{
		{
			name:    "pick with json",
			args:    []string{"pick", "--json", "https://example.test/v"},
			command: "pick <url>",
			check: func(t *testing.T, cli *CLI) {
				assert.True(t, cli.Pick.JSON)
				assert.Equal(t, "https://example.test/v", cli.Pick.URL)
			},
		},
		{
			name:    "download with quality",
			args:    []string{"download", "-q", "720p", "-o", "/tmp", "-c", "vpick.toml", "https://example.test/v"},
			command: "download <url>",
			check: func(t *testing.T, cli *CLI) {
				assert.Equal(t, "720p", cli.Download.Quality)
				assert.Equal(t, "/tmp", cli.Download.Output)
				assert.Equal(t, "vpick.toml", cli.Download.Config)
			},
		},
		{
			name:    "serve with port",
			args:    []string{"serve", "-p", "9000", "--log-level", "debug"},
			command: "serve",
			check: func(t *testing.T, cli *CLI) {
				assert.Equal(t, 9000, cli.Serve.Port)
				assert.Equal(t, "debug", cli.Serve.LogLevel)
			},
		},
		{
			name:    "short version",
			args:    []string{"version", "-s"},
			command: "version",
			check: func(t *testing.T, cli *CLI) {
				assert.True(t, cli.Version.Short)
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var cli CLI
			parser, err := kong.New(&cli, kong.Name("vpick"))
			require.NoError(t, err)

			ctx, err := parser.Parse(tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.command, ctx.Command())
			tc.check(t, &cli)
		})
	}
}
