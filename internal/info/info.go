package info

import "strconv"

// NoneCodec is the sentinel yt-dlp uses for an absent audio or video track.
const NoneCodec = "none"

// Metadata is what a provider extracts for a single video URL.
type Metadata struct {
	Title     *string        `json:"title"`
	Thumbnail *string        `json:"thumbnail"`
	Formats   []FormatRecord `json:"formats"`
}

// FormatRecord describes one encoded stream option. Nullable attributes are
// pointers: nil means the provider did not report the value at all.
type FormatRecord struct {
	FormatID     string   `json:"format_id"`
	URL          string   `json:"url"`
	VideoCodec   *string  `json:"vcodec"`
	AudioCodec   *string  `json:"acodec"`
	Ext          string   `json:"ext"`
	FormatNote   *string  `json:"format_note"`
	Height       *int     `json:"height"`
	TotalBitrate *float64 `json:"tbr"`
}

// HasVideo reports whether the record carries a real video track.
func (f FormatRecord) HasVideo() bool {
	return hasCodec(f.VideoCodec)
}

// HasAudio reports whether the record carries a real audio track.
func (f FormatRecord) HasAudio() bool {
	return hasCodec(f.AudioCodec)
}

// Note returns the format note, or an empty string when absent.
func (f FormatRecord) Note() string {
	if f.FormatNote == nil {
		return ""
	}
	return *f.FormatNote
}

// HeightLabel returns "{height}p", or an empty string without a height.
func (f FormatRecord) HeightLabel() string {
	if f.Height == nil {
		return ""
	}
	return strconv.Itoa(*f.Height) + "p"
}

func hasCodec(codec *string) bool {
	return codec != nil && *codec != "" && *codec != NoneCodec
}

// Ptr returns a pointer to v. Handy for building records in literals.
func Ptr[T any](v T) *T {
	return &v
}
