package mimeparser

import (
	"encoding/base64"
	"strings"
	"testing"
)

func multipartMessage(boundary string, parts ...string) []byte {
	var b strings.Builder
	b.WriteString("From: sensor@example.com\r\n")
	b.WriteString("Subject: export\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/mixed; boundary=" + boundary + "\r\n")
	b.WriteString("\r\n")
	for _, part := range parts {
		b.WriteString("--" + boundary + "\r\n")
		b.WriteString(part)
		b.WriteString("\r\n")
	}
	b.WriteString("--" + boundary + "--\r\n")
	return []byte(b.String())
}

func TestListParts_Base64Attachment(t *testing.T) {
	payload := "timestamp,temp,hum\n2023/12/26 23:59,21.5,45.2\n"
	encoded := base64.StdEncoding.EncodeToString([]byte(payload))

	raw := multipartMessage("BOUND",
		"Content-Type: text/plain\r\n\r\nSee attached export.",
		"Content-Type: text/csv; name=export.csv\r\n"+
			"Content-Transfer-Encoding: base64\r\n"+
			"Content-Disposition: attachment; filename=export.csv\r\n"+
			"\r\n"+encoded,
	)

	parts, err := New().ListParts(raw)
	if err != nil {
		t.Fatalf("ListParts failed: %v", err)
	}
	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	if parts[0].Filename != "export.csv" {
		t.Errorf("filename = %q, want export.csv", parts[0].Filename)
	}
	if string(parts[0].Content) != payload {
		t.Errorf("content = %q, want %q", parts[0].Content, payload)
	}
}

func TestListParts_InlineWithFilename(t *testing.T) {
	raw := multipartMessage("BOUND",
		"Content-Type: text/csv\r\n"+
			"Content-Disposition: inline; filename=data.csv\r\n"+
			"\r\na,b,c\n1,2,3",
	)

	parts, err := New().ListParts(raw)
	if err != nil {
		t.Fatalf("ListParts failed: %v", err)
	}
	if len(parts) != 1 || parts[0].Filename != "data.csv" {
		t.Fatalf("parts = %+v, want one data.csv part", parts)
	}
}

func TestListParts_NonMultipart(t *testing.T) {
	raw := []byte("From: a@b.c\r\nContent-Type: text/plain\r\n\r\njust a body")

	parts, err := New().ListParts(raw)
	if err != nil {
		t.Fatalf("ListParts failed: %v", err)
	}
	if len(parts) != 0 {
		t.Errorf("expected no parts, got %d", len(parts))
	}
}

func TestListParts_NestedMultipart(t *testing.T) {
	inner := "Content-Type: multipart/alternative; boundary=INNER\r\n" +
		"\r\n" +
		"--INNER\r\n" +
		"Content-Type: text/csv\r\n" +
		"Content-Disposition: attachment; filename=nested.csv\r\n" +
		"\r\nx,y\n1,2\r\n" +
		"--INNER--\r\n"

	raw := multipartMessage("OUTER", inner)

	parts, err := New().ListParts(raw)
	if err != nil {
		t.Fatalf("ListParts failed: %v", err)
	}
	if len(parts) != 1 || parts[0].Filename != "nested.csv" {
		t.Fatalf("parts = %+v, want one nested.csv part", parts)
	}
}

func TestBodyText_PlainMessage(t *testing.T) {
	raw := []byte("From: pool@example.com\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"Temperature: 25.5\npH: 7.2")

	text, html, err := New().BodyText(raw)
	if err != nil {
		t.Fatalf("BodyText failed: %v", err)
	}
	if !strings.Contains(text, "pH: 7.2") {
		t.Errorf("text = %q", text)
	}
	if html != "" {
		t.Errorf("html should be empty, got %q", html)
	}
}

func TestBodyText_QuotedPrintableBody(t *testing.T) {
	raw := []byte("From: pool@example.com\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"Temp=C3=A9rature: 24,8")

	text, _, err := New().BodyText(raw)
	if err != nil {
		t.Fatalf("BodyText failed: %v", err)
	}
	if !strings.Contains(text, "Température") {
		t.Errorf("text = %q, want decoded accent", text)
	}
}

func TestBodyText_MultipartAlternative(t *testing.T) {
	raw := multipartMessage("ALT",
		"Content-Type: text/plain\r\n\r\nplain version",
		"Content-Type: text/html\r\n\r\n<p>html version</p>",
		"Content-Type: text/csv\r\nContent-Disposition: attachment; filename=x.csv\r\n\r\na,b",
	)

	text, html, err := New().BodyText(raw)
	if err != nil {
		t.Fatalf("BodyText failed: %v", err)
	}
	if text != "plain version" {
		t.Errorf("text = %q, want plain version", text)
	}
	if html != "<p>html version</p>" {
		t.Errorf("html = %q", html)
	}
}

func TestBodyText_MissingContentTypeDefaultsToPlain(t *testing.T) {
	raw := []byte("From: pool@example.com\r\n\r\nbare body text")

	text, _, err := New().BodyText(raw)
	if err != nil {
		t.Fatalf("BodyText failed: %v", err)
	}
	if text != "bare body text" {
		t.Errorf("text = %q", text)
	}
}
