package dataprocessing

import (
	"bytes"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	EncodingUTF8        = "utf-8"
	EncodingUTF16       = "utf-16"
	EncodingLatin1      = "iso-8859-1"
	EncodingWindows1252 = "windows-1252"
)

// maxControlRatio is the share of non-whitespace control characters above
// which decoded content is treated as binary.
const maxControlRatio = 0.01

var legacyEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{EncodingLatin1, charmap.ISO8859_1},
	{EncodingWindows1252, charmap.Windows1252},
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DecodeText decodes data as UTF-8 (with or without BOM), UTF-16 with BOM,
// Latin-1 or Windows-1252, in that order. ok is false when no decoding
// yields plausible text.
func DecodeText(data []byte) (text string, encodingName string, ok bool) {
	if len(data) == 0 {
		return "", "", false
	}

	if hasBOM(data) {
		decoded, _, err := transform.Bytes(xunicode.BOMOverride(xunicode.UTF8.NewDecoder()), data)
		if err == nil && plausibleText(string(decoded), false) {
			name := EncodingUTF8
			if !bytes.HasPrefix(data, bomUTF8) {
				name = EncodingUTF16
			}
			return string(decoded), name, true
		}
	}

	if utf8.Valid(data) {
		s := string(data)
		if plausibleText(s, false) {
			return s, EncodingUTF8, true
		}
		return "", "", false
	}

	for _, candidate := range legacyEncodings {
		decoded, err := candidate.enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		if s := string(decoded); plausibleText(s, true) {
			return s, candidate.name, true
		}
	}
	return "", "", false
}

func hasBOM(data []byte) bool {
	return bytes.HasPrefix(data, bomUTF8) || bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE)
}

// plausibleText rejects content with NUL bytes, replacement characters or a
// noticeable share of control characters. Legacy decodings additionally
// reject C1 controls, which only appear when binary data is decoded.
func plausibleText(s string, legacy bool) bool {
	total, controls := 0, 0
	for _, r := range s {
		total++
		switch {
		case r == 0, r == utf8.RuneError:
			return false
		case legacy && r >= 0x80 && r <= 0x9F:
			return false
		case r == '\n', r == '\r', r == '\t', r == '\f':
		case unicode.IsControl(r):
			controls++
		}
	}
	if total == 0 {
		return false
	}
	return float64(controls)/float64(total) <= maxControlRatio
}
