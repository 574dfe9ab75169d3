package corpus

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/KBNLresearch/frame-generator/types"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Decoding turns raw file bytes into text, or fails.
type Decoding struct {
	Name   string
	Decode func(data []byte) (string, error)
}

var errInvalidUTF8 = errors.New("invalid utf-8")

var UTF8 = Decoding{
	Name: "utf-8",
	Decode: func(data []byte) (string, error) {
		if !utf8.Valid(data) {
			return "", errInvalidUTF8
		}
		return string(data), nil
	},
}

var Latin1 = Decoding{
	Name: "iso-8859-1",
	Decode: func(data []byte) (string, error) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	},
}

// DefaultDecodings are tried in order until one succeeds.
var DefaultDecodings = []Decoding{UTF8, Latin1}

// Decode tries each candidate in order and returns the NFC-normalized text of the first that
// succeeds.
func Decode(data []byte, candidates []Decoding) (string, error) {
	for _, candidate := range candidates {
		text, err := candidate.Decode(data)
		if err != nil {
			continue
		}
		return norm.NFC.String(trimBOM(text)), nil
	}
	return "", types.ErrNoDecoding
}

func trimBOM(text string) string {
	return strings.TrimPrefix(text, "\ufeff")
}
