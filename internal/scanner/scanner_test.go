package scanner

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

type fakePartLister struct {
	parts []Part
	err   error
}

func (f *fakePartLister) ListParts(raw []byte) ([]Part, error) {
	return f.parts, f.err
}

func buildMessage(filename, content string) string {
	return "From: sensor@example.com\r\n" +
		"Subject: export\r\n" +
		"Content-Type: multipart/mixed; boundary=XYZ\r\n" +
		"\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/csv\r\n" +
		"Content-Disposition: attachment; filename=\"" + filename + "\"\r\n" +
		"\r\n" +
		content +
		"\r\n--XYZ--\r\n"
}

func TestScan_DispositionHeader(t *testing.T) {
	s := New(nil, nil)
	csv := "timestamp,sensor,temperature\n2024/01/15 10:00,cabane,21.5\n"
	raw := []byte(buildMessage("export.csv", csv))

	attachments := s.Scan(raw)
	if len(attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(attachments))
	}
	att := attachments[0]
	if att.Filename != "export.csv" {
		t.Errorf("filename = %q, want export.csv", att.Filename)
	}
	if att.ContentType != "text/csv" {
		t.Errorf("content type = %q, want text/csv", att.ContentType)
	}
	if !strings.Contains(string(att.Content), "cabane,21.5") {
		t.Errorf("content missing expected row: %q", att.Content)
	}
}

func TestScan_DispositionHeaderMultiple(t *testing.T) {
	s := New(nil, nil)
	raw := []byte("Content-Disposition: attachment; filename=first.csv\r\n" +
		"\r\n" +
		"data for the first file\r\n" +
		"--sep\r\n" +
		"Content-Disposition: attachment; filename=second.txt\r\n" +
		"\r\n" +
		"data for the second file\r\n" +
		"--sep--\r\n")

	attachments := s.Scan(raw)
	if len(attachments) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(attachments))
	}
	if attachments[0].Filename != "first.csv" || attachments[1].Filename != "second.txt" {
		t.Errorf("filenames = %q, %q", attachments[0].Filename, attachments[1].Filename)
	}
}

func TestScan_SkipsNonDataExtensions(t *testing.T) {
	s := New(nil, nil)
	raw := []byte(buildMessage("virus.exe", "MZ\x90\x00"))

	if attachments := s.Scan(raw); len(attachments) != 0 {
		t.Errorf("expected no attachments for .exe, got %d", len(attachments))
	}
}

// A filename token outside any disposition header is still recovered by
// the fallback token search.
func TestScan_FilenameTokenFallback(t *testing.T) {
	s := New(nil, nil)
	raw := []byte("Subject: export\r\n" +
		"X-Export: filename=readings.txt\r\n" +
		"\r\n" +
		"2024-01-15 10:00:00 cabane 21.5\r\n")

	attachments := s.Scan(raw)
	if len(attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(attachments))
	}
	if attachments[0].Filename != "readings.txt" {
		t.Errorf("filename = %q, want readings.txt", attachments[0].Filename)
	}
	if !strings.Contains(string(attachments[0].Content), "cabane 21.5") {
		t.Errorf("content = %q", attachments[0].Content)
	}
}

func TestScan_DelegateFallback(t *testing.T) {
	lister := &fakePartLister{
		parts: []Part{
			{Filename: "export.csv", Content: []byte("long enough content")},
			{Filename: "tiny.csv", Content: []byte("short")},
			{Filename: "", Content: []byte("unnamed part content")},
		},
	}
	s := New(lister, nil)

	// No disposition markers or filename tokens in the raw text.
	attachments := s.Scan([]byte("plain body with nothing to find"))
	if len(attachments) != 1 {
		t.Fatalf("expected 1 attachment from delegate, got %d", len(attachments))
	}
	if attachments[0].Filename != "export.csv" {
		t.Errorf("filename = %q, want export.csv", attachments[0].Filename)
	}
}

func TestScan_DelegateError(t *testing.T) {
	s := New(&fakePartLister{err: errors.New("broken message")}, nil)
	if attachments := s.Scan([]byte("nothing here")); len(attachments) != 0 {
		t.Errorf("expected no attachments, got %d", len(attachments))
	}
}

func TestFilenameFromHeaders(t *testing.T) {
	tests := []struct {
		headers string
		want    string
		ok      bool
	}{
		{"Content-Disposition: attachment; filename=\"export.csv\"\r\n", "export.csv", true},
		{"Content-Disposition: attachment; filename=export.csv; size=100\r\n", "export.csv", true},
		{"Content-Disposition: attachment; filename=export.csv", "", false},
		{"Content-Disposition: attachment\r\n", "", false},
		{"Content-Disposition: attachment; filename=\r\n", "", false},
	}

	for _, tt := range tests {
		got, ok := filenameFromHeaders(tt.headers)
		if ok != tt.ok || got != tt.want {
			t.Errorf("filenameFromHeaders(%q) = %q, %v; want %q, %v",
				tt.headers, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFilenameFromLine_RestOfLineFallback(t *testing.T) {
	got, ok := filenameFromLine("filename=export.csv")
	if !ok || got != "export.csv" {
		t.Errorf("filenameFromLine without terminator = %q, %v", got, ok)
	}

	got, ok = filenameFromLine("filename=export.csv more words")
	if !ok || got != "export.csv" {
		t.Errorf("filenameFromLine with space terminator = %q, %v", got, ok)
	}
}

// Any well-formed single-attachment message with a data file extension is
// recovered by the primary strategy with its filename intact.
func TestScan_RecoversGeneratedAttachments(t *testing.T) {
	s := New(nil, nil)

	rapid.Check(t, func(t *rapid.T) {
		base := rapid.StringMatching(`[A-Za-z0-9_-]{1,20}`).Draw(t, "base")
		ext := rapid.SampledFrom([]string{".csv", ".json", ".txt", ".xml", ".xlsx", ".xls"}).Draw(t, "ext")
		filename := base + ext
		content := fmt.Sprintf("timestamp,sensor,temperature\n2024/01/15 10:00,%s,21.5", base)

		attachments := s.Scan([]byte(buildMessage(filename, content)))
		if len(attachments) != 1 {
			t.Fatalf("expected 1 attachment for %q, got %d", filename, len(attachments))
		}
		if attachments[0].Filename != filename {
			t.Fatalf("filename = %q, want %q", attachments[0].Filename, filename)
		}
	})
}
