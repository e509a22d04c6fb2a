// Package decoder classifies and decodes content blocks recovered from raw
// email bytes. The transfer encoding of a block is guessed from its shape
// rather than from headers, because the surrounding scan works on messages
// whose MIME structure is frequently damaged in transit.
package decoder

import (
	"bytes"
	"encoding/base64"
	"strings"
	"unicode"

	"github.com/homemetrics/backend/internal/metrics"
)

// Detection thresholds. These were tuned against years of real sensor
// export emails; changing them changes which attachments decode at all.
const (
	// base64MinLength is the minimum stripped length before a block is
	// even considered base64.
	base64MinLength = 10
	// base64MinRatio is the minimum density of base64 payload characters
	// (alphanumerics, '+', '/') among non-whitespace characters.
	base64MinRatio = 0.8
	// quotedPrintableMinEquals is the number of '=' characters a block
	// must exceed to be treated as quoted-printable.
	quotedPrintableMinEquals = 2
)

// Decode converts a content block into its decoded bytes. It never fails:
// when no encoding is detected, or base64 decoding fails, the trimmed block
// is returned as raw bytes.
//
// The branches are tried in a fixed order and the first detection wins. A
// block that looks like base64 but fails to decode falls through to the raw
// fallback, not to quoted-printable.
func Decode(block string) []byte {
	trimmed := strings.TrimSpace(block)

	switch {
	case looksLikeBase64(trimmed):
		if decoded, err := base64.StdEncoding.DecodeString(stripLineBreaks(trimmed)); err == nil {
			metrics.DecodeTotal.WithLabelValues("base64").Inc()
			return decoded
		}
		// Retry once on the unstripped block before giving up on
		// this branch entirely.
		if decoded, err := base64.StdEncoding.DecodeString(trimmed); err == nil {
			metrics.DecodeTotal.WithLabelValues("base64").Inc()
			return decoded
		}
	case looksLikeQuotedPrintable(trimmed):
		metrics.DecodeTotal.WithLabelValues("quoted-printable").Inc()
		return decodeQuotedPrintable(trimmed)
	}

	metrics.DecodeTotal.WithLabelValues("plain").Inc()
	return []byte(trimmed)
}

// looksLikeBase64 reports whether the block is dense enough in base64
// alphabet characters to be worth a decode attempt.
func looksLikeBase64(block string) bool {
	var clean []rune
	for _, r := range block {
		if !unicode.IsSpace(r) {
			clean = append(clean, r)
		}
	}

	if len(clean) <= base64MinLength {
		return false
	}

	payload := 0
	for _, r := range clean {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '+', r == '/':
			payload++
		case r == '=':
			// padding, allowed but not counted as payload
		default:
			return false
		}
	}

	return float64(payload)/float64(len(clean)) > base64MinRatio
}

func looksLikeQuotedPrintable(block string) bool {
	return strings.Count(block, "=") > quotedPrintableMinEquals
}

// decodeQuotedPrintable decodes =XX hex escapes one character at a time.
//
// A malformed escape (non-hex follow characters) re-emits the literal '='
// and the two raw characters that followed, even though that can
// desynchronize later escapes; downstream consumers depend on this exact
// behavior. CRLF pairs are swallowed entirely, a bare LF is kept unless it
// would be the first byte of output, and non-ASCII characters are truncated
// to their low byte.
func decodeQuotedPrintable(block string) []byte {
	var out bytes.Buffer
	runes := []rune(block)

	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '=':
			if i+2 < len(runes) {
				h1, h2 := runes[i+1], runes[i+2]
				d1, ok1 := hexDigit(h1)
				d2, ok2 := hexDigit(h2)
				if ok1 && ok2 {
					out.WriteByte(d1<<4 | d2)
				} else {
					out.WriteByte('=')
					out.WriteByte(byte(h1))
					out.WriteByte(byte(h2))
				}
				i += 2
			} else {
				// Truncated escape at end of block: keep the
				// '=' and drop whatever followed.
				out.WriteByte('=')
				i = len(runes)
			}
		case ch == '\r':
			if i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
		case ch == '\n':
			if out.Len() > 0 {
				out.WriteByte('\n')
			}
		default:
			out.WriteByte(byte(ch))
		}
	}

	return out.Bytes()
}

func hexDigit(r rune) (byte, bool) {
	switch {
	case r >= '0' && r <= '9':
		return byte(r - '0'), true
	case r >= 'a' && r <= 'f':
		return byte(r-'a') + 10, true
	case r >= 'A' && r <= 'F':
		return byte(r-'A') + 10, true
	}
	return 0, false
}

func stripLineBreaks(s string) string {
	return strings.NewReplacer("\r", "", "\n", "", " ", "").Replace(s)
}
