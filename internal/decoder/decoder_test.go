package decoder

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestDecode_Base64(t *testing.T) {
	payload := "timestamp,sensor,temperature\n2024-01-15 10:00:00,cabane,21.5\n"
	encoded := base64.StdEncoding.EncodeToString([]byte(payload))

	got := Decode(encoded)
	if string(got) != payload {
		t.Errorf("decoded base64 mismatch: got %q, want %q", got, payload)
	}
}

func TestDecode_Base64WithLineBreaks(t *testing.T) {
	payload := strings.Repeat("sensor data line\n", 10)
	encoded := base64.StdEncoding.EncodeToString([]byte(payload))

	// Wrap at 40 columns the way MTAs do.
	var wrapped strings.Builder
	for i := 0; i < len(encoded); i += 40 {
		end := i + 40
		if end > len(encoded) {
			end = len(encoded)
		}
		wrapped.WriteString(encoded[i:end])
		wrapped.WriteString("\r\n")
	}

	got := Decode(wrapped.String())
	if string(got) != payload {
		t.Errorf("decoded wrapped base64 mismatch: got %q, want %q", got, payload)
	}
}

func TestDecode_QuotedPrintable(t *testing.T) {
	tests := []struct {
		name  string
		block string
		want  string
	}{
		{
			name:  "hex escapes",
			block: "temp=C3=A9rature=3A 25.5 =3D done",
			want:  "temp\xc3\xa9rature: 25.5 = done",
		},
		{
			name:  "crlf swallowed",
			block: "a=3D=3Db\r\nc=3Dd",
			want:  "a==bc=d",
		},
		{
			name:  "bare lf kept after output",
			block: "x=3D=3D=3D\ny",
			want:  "x===\ny",
		},
		{
			name:  "malformed escape reemits literal",
			block: "a=zzb=3D=3D",
			want:  "a=zzb==",
		},
		{
			name:  "truncated escape keeps equals only",
			block: "pH=3D=3D=7",
			want:  "pH===",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.block)
			if string(got) != tt.want {
				t.Errorf("Decode(%q) = %q, want %q", tt.block, got, tt.want)
			}
		})
	}
}

func TestDecode_PlainFallback(t *testing.T) {
	tests := []struct {
		name  string
		block string
		want  string
	}{
		{
			name:  "plain text",
			block: "  Temperature: 25.5\n",
			want:  "Temperature: 25.5",
		},
		{
			name:  "short block never base64",
			block: "dGVzdA==",
			want:  "dGVzdA==",
		},
		{
			name: "two equals not quoted printable",
			block: "a=b c=d and some text that disqualifies the base64 " +
				"branch because of spaces and punctuation.",
			want: "a=b c=d and some text that disqualifies the base64 " +
				"branch because of spaces and punctuation.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.block)
			if string(got) != tt.want {
				t.Errorf("Decode(%q) = %q, want %q", tt.block, got, tt.want)
			}
		})
	}
}

func TestDecode_InvalidBase64FallsThroughToRaw(t *testing.T) {
	// Dense in the base64 alphabet but not decodable: length 11 is not
	// a multiple of 4. Contains no '=' so the quoted-printable branch
	// must not be reached either.
	block := "abcdefghijk"
	got := Decode(block)
	if string(got) != block {
		t.Errorf("Decode(%q) = %q, want raw passthrough", block, got)
	}
}

func TestLooksLikeBase64_Thresholds(t *testing.T) {
	if looksLikeBase64("abcdefghij") {
		t.Error("block of exactly 10 chars should not be base64")
	}
	if !looksLikeBase64("abcdefghijk") {
		t.Error("block of 11 alphabet chars should be base64")
	}
	if looksLikeBase64("abcdef*ghijk") {
		t.Error("block with a non-alphabet char should not be base64")
	}
}

// Round trip: any byte payload long enough to pass the length gate must
// survive encode-then-decode.
func TestDecode_Base64RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 9, 512).Draw(t, "payload")
		encoded := base64.StdEncoding.EncodeToString(payload)

		got := Decode(encoded)
		if !bytes.Equal(got, payload) {
			t.Fatalf("round trip mismatch: got %q, want %q", got, payload)
		}
	})
}

// Round trip: a fully hex-escaped payload is detected as quoted-printable
// (every escape contributes an '=', and the '=' density keeps it out of
// the base64 branch) and decodes back to the original bytes.
func TestDecode_QuotedPrintableRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 3, 256).Draw(t, "payload")

		var encoded strings.Builder
		for _, b := range payload {
			fmt.Fprintf(&encoded, "=%02X", b)
		}

		got := Decode(encoded.String())
		if !bytes.Equal(got, payload) {
			t.Fatalf("round trip mismatch: got %q, want %q", got, payload)
		}
	})
}
