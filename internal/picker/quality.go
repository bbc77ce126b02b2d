package picker

import (
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/oleiade/gomme"

	"github.com/xymaxim/vpick/internal/info"
)

// qualityLabel matches labels of the form <digits><unit>, e.g. "720p".
var qualityLabel = gomme.Terminated(
	gomme.Pair(integer[string](), unit[string]()),
	eof[string](),
)

// Label returns the human quality label of a format record: its format note
// when non-empty, otherwise "{height}p". It is empty when neither is known.
func Label(f info.FormatRecord) string {
	if note := f.Note(); note != "" {
		return note
	}
	return f.HeightLabel()
}

// ParseQuality extracts the numeric sort key from a quality label. The label
// must be an integer followed by exactly one unit character.
func ParseQuality(label string) (int, error) {
	result := qualityLabel(label)
	if result.Err != nil {
		return 0, &MalformedFormatError{Label: label}
	}
	return result.Output.Left, nil
}

func integer[Input gomme.Bytes]() gomme.Parser[Input, int] {
	return func(input Input) gomme.Result[int, Input] {
		result := gomme.Recognize(gomme.Digit1[Input]())(input)
		if result.Err != nil {
			return gomme.Failure[Input, int](gomme.NewError(input, "integer"), input)
		}

		n, err := strconv.Atoi(string(result.Output))
		if err != nil {
			return gomme.Failure[Input, int](gomme.NewError(input, "integer"), input)
		}

		return gomme.Success(n, result.Remaining)
	}
}

// unit consumes a single non-digit, non-space character.
func unit[Input gomme.Bytes]() gomme.Parser[Input, rune] {
	return func(input Input) gomme.Result[rune, Input] {
		r, size := utf8.DecodeRuneInString(string(input))
		if r == utf8.RuneError || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return gomme.Failure[Input, rune](gomme.NewError(input, "unit"), input)
		}
		return gomme.Success(r, input[size:])
	}
}

func eof[Input gomme.Bytes]() gomme.Parser[Input, Input] {
	return func(input Input) gomme.Result[Input, Input] {
		if len(input) == 0 {
			return gomme.Success(input, input)
		}
		return gomme.Failure[Input, Input](
			gomme.NewError(input, "end of input"),
			input,
		)
	}
}
