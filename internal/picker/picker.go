package picker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/xymaxim/vpick/internal/extract"
	"github.com/xymaxim/vpick/internal/info"
)

const (
	StatusPicker = "picker"
	TypeVideo    = "video"
	ExtMP4       = "mp4"
)

// MalformedPolicy decides what happens to records whose quality label has no
// numeric prefix.
type MalformedPolicy string

const (
	// MalformedLast keeps such items and ranks them below numeric labels.
	MalformedLast MalformedPolicy = "last"
	// MalformedDrop excludes such records.
	MalformedDrop MalformedPolicy = "drop"
	// MalformedFail aborts the whole selection with a MalformedFormatError.
	MalformedFail MalformedPolicy = "fail"
)

func ParseMalformedPolicy(s string) (MalformedPolicy, error) {
	switch p := MalformedPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case MalformedLast, MalformedDrop, MalformedFail:
		return p, nil
	case "":
		return MalformedLast, nil
	default:
		return "", fmt.Errorf("unknown malformed label policy %q", s)
	}
}

type Options struct {
	Malformed MalformedPolicy
}

// Item is a single user-facing download choice.
type Item struct {
	URL     string `json:"url"`
	Quality string `json:"quality"`
	Type    string `json:"type"`
	Audio   bool   `json:"audio"`
}

// ResponsePayload is the success body returned to the caller.
type ResponsePayload struct {
	Status    string  `json:"status"`
	Title     *string `json:"title"`
	Thumbnail *string `json:"thumbnail"`
	Picker    []Item  `json:"picker"`
}

// Select validates the URL, extracts metadata through the provider and
// reduces it to a picker payload. The provider is called once, without
// retries.
func Select(
	ctx context.Context,
	url string,
	provider extract.Provider,
	opts Options,
) (*ResponsePayload, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, &ValidationError{Field: "url", Reason: "missing URL"}
	}

	metadata, err := provider.Extract(ctx, url)
	if err != nil {
		var extractionErr *extract.ExtractionError
		if errors.As(err, &extractionErr) {
			return nil, err
		}
		return nil, &extract.ExtractionError{URL: url, Err: err}
	}

	return Build(metadata, opts)
}

// Admit reports whether a format record is a combined audio and video MP4
// stream.
func Admit(f info.FormatRecord) bool {
	return f.HasVideo() && f.HasAudio() && f.Ext == ExtMP4
}

type ranked struct {
	item    Item
	quality int
	numeric bool
}

// Build turns extracted metadata into a payload: admitted records are
// labelled, sorted by descending numeric quality and deduplicated by label.
// Sorting is stable, so among equal qualities the first extracted wins.
func Build(metadata *info.Metadata, opts Options) (*ResponsePayload, error) {
	if opts.Malformed == "" {
		opts.Malformed = MalformedLast
	}

	payload := &ResponsePayload{
		Status: StatusPicker,
		Picker: []Item{},
	}
	if metadata == nil {
		return payload, nil
	}
	payload.Title = metadata.Title
	payload.Thumbnail = metadata.Thumbnail

	candidates := make([]ranked, 0, len(metadata.Formats))
	for _, f := range metadata.Formats {
		if !Admit(f) {
			continue
		}

		label := Label(f)
		quality, err := ParseQuality(label)
		numeric := err == nil
		if !numeric {
			switch opts.Malformed {
			case MalformedFail:
				return nil, &MalformedFormatError{Label: label, FormatID: f.FormatID}
			case MalformedDrop:
				slog.Debug("dropping format with malformed label", "format", f.FormatID, "label", label)
				continue
			}
			if label == "" {
				slog.Debug("dropping format without label", "format", f.FormatID)
				continue
			}
		}

		candidates = append(candidates, ranked{
			item: Item{
				URL:     f.URL,
				Quality: label,
				Type:    TypeVideo,
				Audio:   true,
			},
			quality: quality,
			numeric: numeric,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.numeric != b.numeric {
			return a.numeric
		}
		return a.quality > b.quality
	})

	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.item.Quality]; ok {
			continue
		}
		seen[c.item.Quality] = struct{}{}
		payload.Picker = append(payload.Picker, c.item)
	}

	return payload, nil
}

// Find returns the item with the given quality label. An empty quality
// selects the best item.
func (p *ResponsePayload) Find(quality string) (Item, bool) {
	if len(p.Picker) == 0 {
		return Item{}, false
	}
	if quality == "" {
		return p.Picker[0], true
	}
	for _, item := range p.Picker {
		if item.Quality == quality {
			return item, true
		}
	}
	return Item{}, false
}
