package mime

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewBoundary(t *testing.T) {
	b := NewBoundary()
	if len(b) != 32 {
		t.Fatalf("boundary length = %d, want 32", len(b))
	}
	for _, c := range b {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Errorf("boundary contains non-hex character %q", c)
		}
	}
	if b == NewBoundary() {
		t.Error("two fresh boundaries are equal")
	}
}

func TestEncodeBase64Unwrapped(t *testing.T) {
	got := EncodeBase64([]byte("my.user@example.com"), 0)
	want := "bXkudXNlckBleGFtcGxlLmNvbQ=="
	if got != want {
		t.Errorf("EncodeBase64 = %q, want %q", got, want)
	}
}

func TestEncodeBase64Wrapped(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 100)
	got := EncodeBase64(data, 64)
	lines := strings.Split(got, "\r\n")
	if len(lines) < 2 {
		t.Fatalf("expected wrapped output, got %d line(s)", len(lines))
	}
	for i, line := range lines {
		if len(line) > 64 {
			t.Errorf("line %d is %d columns, want <= 64", i, len(line))
		}
	}
	joined := strings.Join(lines, "")
	if joined != EncodeBase64(data, 0) {
		t.Error("wrapped output does not round-trip to unwrapped encoding")
	}
}

func TestRenderLeaf(t *testing.T) {
	part := NewText(`text/plain; charset="UTF-8"`, []byte("hello"), false)

	var buf bytes.Buffer
	part.Render(&buf, 0)

	want := "Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\nhello\r\n"
	if buf.String() != want {
		t.Errorf("Render = %q, want %q", buf.String(), want)
	}
}

func TestRenderAttachmentHeaders(t *testing.T) {
	part := NewAttachment("application/pdf", DispositionAttachment, "report.pdf", "<doc1>", []byte{1, 2, 3})

	var buf bytes.Buffer
	part.Render(&buf, 0)
	out := buf.String()

	for _, want := range []string{
		"Content-Type: application/pdf\r\n",
		"Content-Transfer-Encoding: base64\r\n",
		"Content-Disposition: attachment; filename=\"report.pdf\"\r\n",
		"Content-ID: <doc1>\r\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered part missing %q in %q", want, out)
		}
	}
}

func TestRenderMultipart(t *testing.T) {
	plain := NewText(`text/plain; charset="UTF-8"`, []byte("plain body"), false)
	html := NewText(`text/html; charset="UTF-8"`, []byte("<p>html body</p>"), false)
	root := NewMultipart("alternative", plain, html)

	var buf bytes.Buffer
	root.Render(&buf, 0)
	out := buf.String()

	b := root.Boundary
	want := "Content-Type: multipart/alternative; boundary=" + b + "\r\n" +
		"\r\n" +
		"--" + b + "\r\n" +
		"Content-Type: text/plain; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		"plain body\r\n" +
		"\r\n" +
		"--" + b + "\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		"<p>html body</p>\r\n" +
		"\r\n" +
		"--" + b + "--\r\n"
	if out != want {
		t.Errorf("Render =\n%q\nwant\n%q", out, want)
	}
}

func TestNestedBoundariesDistinct(t *testing.T) {
	inner := NewMultipart("alternative",
		NewText(`text/plain; charset="UTF-8"`, []byte("a"), false),
		NewText(`text/html; charset="UTF-8"`, []byte("b"), false))
	outer := NewMultipart("mixed", inner,
		NewAttachment("text/csv", DispositionAttachment, "data.csv", "", []byte("1,2")))

	if inner.Boundary == outer.Boundary {
		t.Error("nested boundaries are equal")
	}
}
