package mimeparser

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
)

const (
	contentTypePlain = "text/plain"
	contentTypeHTML  = "text/html"
)

// BodyText extracts the plain-text and HTML bodies of a raw message.
// For multipart messages the first matching part of each type wins;
// attachment parts are skipped. A non-multipart message is returned as
// plain text or HTML depending on its content type.
func (p *Parser) BodyText(raw []byte) (text, html string, err error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return "", "", err
	}

	contentType := msg.Header.Get(headerContentType)
	if contentType == "" {
		contentType = contentTypePlain
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		body, readErr := io.ReadAll(msg.Body)
		if readErr != nil {
			return "", "", readErr
		}
		return string(body), "", nil
	}

	switch {
	case mediaType == contentTypePlain:
		body, err := io.ReadAll(decodingReader(msg.Body, msg.Header.Get(headerEncoding)))
		if err != nil {
			return "", "", err
		}
		return string(body), "", nil

	case mediaType == contentTypeHTML:
		body, err := io.ReadAll(decodingReader(msg.Body, msg.Header.Get(headerEncoding)))
		if err != nil {
			return "", "", err
		}
		return "", string(body), nil

	case strings.HasPrefix(mediaType, "multipart/"):
		if params["boundary"] == "" {
			return "", "", nil
		}
		text, html = bodyFromMultipart(msg.Body, params["boundary"], true)
		return text, html, nil

	default:
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", "", err
		}
		return string(body), "", nil
	}
}

func bodyFromMultipart(body io.Reader, boundary string, descend bool) (text, html string) {
	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			return text, html
		}

		if strings.HasPrefix(part.Header.Get(headerDisposition), "attachment") {
			continue
		}

		mediaType, params, _ := mime.ParseMediaType(part.Header.Get(headerContentType))
		switch {
		case mediaType == contentTypePlain && text == "":
			if b, err := io.ReadAll(decodingReader(part, part.Header.Get(headerEncoding))); err == nil {
				text = string(b)
			}
		case mediaType == contentTypeHTML && html == "":
			if b, err := io.ReadAll(decodingReader(part, part.Header.Get(headerEncoding))); err == nil {
				html = string(b)
			}
		case strings.HasPrefix(mediaType, "multipart/") && descend && params["boundary"] != "":
			nestedText, nestedHTML := bodyFromMultipart(part, params["boundary"], false)
			if text == "" {
				text = nestedText
			}
			if html == "" {
				html = nestedHTML
			}
		}
	}
}
