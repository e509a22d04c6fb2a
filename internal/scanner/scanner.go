// Package scanner recovers file attachments from raw RFC-822 message
// bytes. Sensor vendors send exports through gateways that mangle MIME
// structure often enough that a compliant parser alone misses them, so the
// scan works on the raw text with cascading strategies: a manual
// Content-Disposition scan, a direct filename token search, and finally a
// delegate to a full MIME parser.
package scanner

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/homemetrics/backend/internal/decoder"
	"github.com/homemetrics/backend/internal/metrics"
)

const (
	dispositionMarker = "Content-Disposition: attachment"
	filenameToken     = "filename="
	headerBodySep     = "\r\n\r\n"

	// minPartSize is the minimum delegate part size; smaller parts are
	// discarded as parsing artifacts.
	minPartSize = 10
)

// Scanner extracts attachments from raw messages.
type Scanner struct {
	parts PartLister
	log   *slog.Logger
}

// New creates a Scanner. parts may be nil, in which case the final
// fallback strategy is skipped.
func New(parts PartLister, log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{parts: parts, log: log}
}

// Scan returns the attachments found in a raw message, in scan order.
// Strategies are tried in a fixed sequence until one yields a non-empty
// result; a message with no recoverable attachments yields an empty slice,
// never an error.
func (s *Scanner) Scan(raw []byte) []Attachment {
	text := strings.ToValidUTF8(string(raw), "�")

	attachments := s.scanDispositionHeaders(text)
	if len(attachments) > 0 {
		metrics.AttachmentsRecoveredTotal.WithLabelValues("disposition").Add(float64(len(attachments)))
		return attachments
	}

	attachments = s.scanFilenameTokens(text)
	if len(attachments) > 0 {
		metrics.AttachmentsRecoveredTotal.WithLabelValues("filename").Add(float64(len(attachments)))
		return attachments
	}

	attachments = s.scanDelegate(raw)
	if len(attachments) > 0 {
		metrics.AttachmentsRecoveredTotal.WithLabelValues("delegate").Add(float64(len(attachments)))
	}
	return attachments
}

// scanDispositionHeaders is the primary strategy: walk every occurrence of
// the attachment disposition marker, pull the filename out of the
// following headers, and bound the content block between the first blank
// line and the next boundary marker.
func (s *Scanner) scanDispositionHeaders(text string) []Attachment {
	var attachments []Attachment

	pos := 0
	for {
		idx := strings.Index(text[pos:], dispositionMarker)
		if idx < 0 {
			break
		}
		abs := pos + idx

		// A header with no parseable filename is skipped, not an
		// error. The cursor still advances by one so overlapping
		// markers are not missed.
		filename, ok := filenameFromHeaders(text[abs:])
		if ok && isDataFile(filename) {
			if sep := strings.Index(text[abs:], headerBodySep); sep >= 0 {
				contentStart := abs + sep + len(headerBodySep)
				contentEnd := contentStart + attachmentEnd(text[contentStart:])
				block := text[contentStart:contentEnd]

				attachments = append(attachments, Attachment{
					Filename:    filename,
					Content:     decoder.Decode(block),
					ContentType: guessContentType(filename),
				})
				s.log.Debug("attachment found",
					slog.String("filename", filename),
					slog.Int("content_bytes", contentEnd-contentStart))
			}
		}

		pos = abs + 1
	}

	return attachments
}

// scanFilenameTokens is the first fallback: look for filename= tokens
// anywhere in the message, not just in attachment disposition headers.
func (s *Scanner) scanFilenameTokens(text string) []Attachment {
	var attachments []Attachment

	pos := 0
	for {
		idx := strings.Index(text[pos:], filenameToken)
		if idx < 0 {
			break
		}
		abs := pos + idx

		lineEnd := abs + 200
		if lineEnd > len(text) {
			lineEnd = len(text)
		}

		filename, ok := filenameFromLine(text[abs:lineEnd])
		if ok && isDataFile(filename) {
			if content, found := contentAfter(text, abs); found {
				attachments = append(attachments, Attachment{
					Filename:    filename,
					Content:     content,
					ContentType: guessContentType(filename),
				})
				s.log.Debug("attachment found via filename search",
					slog.String("filename", filename))
			}
		}

		pos = abs + 1
	}

	return attachments
}

// scanDelegate hands the raw bytes to the full MIME parser. Parts at or
// below the minimum size are discarded as parsing artifacts; a part the
// parser cannot name is dropped with an error log.
func (s *Scanner) scanDelegate(raw []byte) []Attachment {
	if s.parts == nil {
		return nil
	}

	parts, err := s.parts.ListParts(raw)
	if err != nil {
		s.log.Debug("mime parser fallback failed", slog.String("error", err.Error()))
		return nil
	}

	var attachments []Attachment
	for i, part := range parts {
		if len(part.Content) <= minPartSize {
			s.log.Debug("part content too small, skipping", slog.Int("part", i))
			continue
		}
		if part.Filename == "" {
			s.log.Error("mime parser produced a part without a filename",
				slog.Int("part", i), slog.Int("content_bytes", len(part.Content)))
			continue
		}
		attachments = append(attachments, Attachment{
			Filename:    part.Filename,
			Content:     part.Content,
			ContentType: guessContentType(part.Filename),
		})
	}

	return attachments
}

// filenameFromHeaders extracts the filename= value from a header block.
// The value runs to the first CR, LF or semicolon; surrounding quotes and
// whitespace are trimmed. Without a terminator there is no filename.
func filenameFromHeaders(headers string) (string, bool) {
	idx := strings.Index(headers, filenameToken)
	if idx < 0 {
		return "", false
	}
	rest := headers[idx+len(filenameToken):]

	end := strings.IndexAny(rest, "\r\n;")
	if end < 0 {
		return "", false
	}

	filename := strings.TrimSpace(strings.Trim(rest[:end], `"`))
	return filename, filename != ""
}

// filenameFromLine is the looser variant used by the token search: a space
// also terminates the value, and with no terminator the rest of the line
// is taken.
func filenameFromLine(line string) (string, bool) {
	idx := strings.Index(line, filenameToken)
	if idx < 0 {
		return "", false
	}
	rest := line[idx+len(filenameToken):]

	if end := strings.IndexAny(rest, "\r\n; "); end >= 0 {
		rest = rest[:end]
	}

	filename := strings.TrimSpace(strings.Trim(rest, `"`))
	return filename, filename != ""
}

// contentAfter bounds and decodes the content block following a filename
// position: headers end at the first blank line, content ends at the next
// CRLF boundary marker or end of message.
func contentAfter(text string, filenamePos int) ([]byte, bool) {
	sep := strings.Index(text[filenamePos:], headerBodySep)
	if sep < 0 {
		return nil, false
	}
	contentStart := filenamePos + sep + len(headerBodySep)

	contentEnd := len(text)
	if boundary := strings.Index(text[contentStart:], "\r\n--"); boundary >= 0 {
		contentEnd = contentStart + boundary
	}

	return decoder.Decode(text[contentStart:contentEnd]), true
}

// attachmentEnd returns the offset of the next boundary marker, or the end
// of the remaining content if there is none.
func attachmentEnd(content string) int {
	if idx := strings.Index(content, "--"); idx >= 0 {
		return idx
	}
	return len(content)
}

func isDataFile(filename string) bool {
	return dataFileExtensions[strings.ToLower(filepath.Ext(filename))]
}

func guessContentType(filename string) string {
	if ct, ok := contentTypeByExtension[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return defaultContentType
}
