package testutil

import (
	"context"
	"sync/atomic"

	"github.com/xymaxim/vpick/internal/info"
)

const TestVideoURL = "https://www.youtube.com/watch?v=abcdefgh123"

// MockProvider returns fixed metadata or a fixed error and counts calls.
type MockProvider struct {
	Metadata *info.Metadata
	Err      error
	// Block, when set, is waited on before returning.
	Block chan struct{}

	calls atomic.Int64
}

func (p *MockProvider) Extract(ctx context.Context, _ string) (*info.Metadata, error) {
	p.calls.Add(1)
	if p.Block != nil {
		select {
		case <-p.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Metadata, nil
}

func (p *MockProvider) Calls() int {
	return int(p.calls.Load())
}

// Format builds a format record for tests. Empty codec strings mean the
// codec is absent; zero height means no height.
func Format(id, vcodec, acodec, ext, note string, height int) info.FormatRecord {
	f := info.FormatRecord{
		FormatID: id,
		URL:      "https://media.test/videoplayback/" + id,
		Ext:      ext,
	}
	if vcodec != "" {
		f.VideoCodec = info.Ptr(vcodec)
	}
	if acodec != "" {
		f.AudioCodec = info.Ptr(acodec)
	}
	if note != "" {
		f.FormatNote = info.Ptr(note)
	}
	if height != 0 {
		f.Height = info.Ptr(height)
	}
	return f
}

// TestMetadata mirrors a typical dump: a muxed 720p stream, a 1080p stream
// labelled only by height, and an audio-less 360p stream.
func TestMetadata() *info.Metadata {
	return &info.Metadata{
		Title:     info.Ptr("Test title"),
		Thumbnail: info.Ptr("https://i.test/thumb.jpg"),
		Formats: []info.FormatRecord{
			Format("22", "avc1.64001F", "mp4a.40.2", "mp4", "720p", 720),
			Format("37", "avc1.640028", "mp4a.40.2", "mp4", "", 1080),
			Format("134", "none", "mp4a.40.2", "mp4", "360p", 360),
		},
	}
}
