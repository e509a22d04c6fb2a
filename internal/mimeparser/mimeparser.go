// Package mimeparser is the standards-compliant counterpart to the
// heuristic attachment scan: it reads a raw message with net/mail and
// walks its multipart tree. The scanner uses it as a last-resort delegate;
// the pool processor uses it to pull body text out of well-formed
// messages.
package mimeparser

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/homemetrics/backend/internal/scanner"
)

const (
	headerContentType = "Content-Type"
	headerEncoding    = "Content-Transfer-Encoding"
	headerDisposition = "Content-Disposition"
)

// Parser lists attachment parts and extracts body text from raw messages.
type Parser struct{}

// New creates a Parser.
func New() *Parser {
	return &Parser{}
}

// ListParts returns the attachment parts of a raw message with their
// transfer encoding already decoded. Nested multiparts are descended one
// level; deeper nesting is not supported.
func (p *Parser) ListParts(raw []byte) ([]scanner.Part, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get(headerContentType))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return nil, nil
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, fmt.Errorf("multipart message without boundary")
	}

	return collectParts(msg.Body, boundary, true)
}

func collectParts(body io.Reader, boundary string, descend bool) ([]scanner.Part, error) {
	var parts []scanner.Part

	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A damaged tail part should not discard what was
			// already collected.
			return parts, nil
		}

		mediaType, params, _ := mime.ParseMediaType(part.Header.Get(headerContentType))
		if strings.HasPrefix(mediaType, "multipart/") {
			if descend && params["boundary"] != "" {
				nested, _ := collectParts(part, params["boundary"], false)
				parts = append(parts, nested...)
			}
			continue
		}

		if !isAttachmentPart(part) {
			continue
		}

		content, err := io.ReadAll(decodingReader(part, part.Header.Get(headerEncoding)))
		if err != nil {
			continue
		}

		parts = append(parts, scanner.Part{
			Filename: part.FileName(),
			Content:  content,
		})
	}

	return parts, nil
}

// isAttachmentPart reports whether a part carries a file: either an
// attachment disposition or a filename parameter on an inline part.
func isAttachmentPart(part *multipart.Part) bool {
	if strings.HasPrefix(part.Header.Get(headerDisposition), "attachment") {
		return true
	}
	return part.FileName() != ""
}

// decodingReader wraps a part reader with its Content-Transfer-Encoding
// decoder. Unknown encodings are passed through unchanged.
func decodingReader(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}
