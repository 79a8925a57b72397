// Package mime composes MIME 1.0 message bodies (RFC 2045, RFC 2046).
//
// A message body is modelled as a tree of Parts: leaves carry content,
// multipart containers carry children and a boundary. Render serializes
// the tree with CRLF line endings, emitting `--boundary` delimiters
// between children and `--boundary--` after the last one. Every
// container gets its own fresh boundary, so boundaries at different
// nesting levels are pairwise distinct.
package mime

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
)

// Transfer encodings emitted by this package.
const (
	// EncodingBase64 marks a part body for base64 transfer encoding.
	EncodingBase64 = "base64"
)

// Content dispositions emitted by this package.
const (
	// DispositionAttachment marks a part as a file attachment.
	DispositionAttachment = "attachment"
	// DispositionInline marks a part as inline content referenced by
	// Content-ID.
	DispositionInline = "inline"
)

// Part is one node of a MIME body tree.
type Part struct {
	// ContentType is the full Content-Type value for leaf parts,
	// including any parameters (e.g. `text/plain; charset="UTF-8"`).
	// Ignored for containers.
	ContentType string

	// TransferEncoding, when set, adds a Content-Transfer-Encoding
	// header and encodes the body at render time. Only EncodingBase64
	// is produced by this library.
	TransferEncoding string

	// Disposition, when set, adds a Content-Disposition header carrying
	// Filename.
	Disposition string

	// Filename is the filename parameter of the Content-Disposition
	// header.
	Filename string

	// ContentID, when set, adds a Content-ID header.
	ContentID string

	// Body is the raw leaf content.
	Body []byte

	// Subtype is the multipart subtype ("mixed", "related",
	// "alternative") for containers.
	Subtype string

	// Boundary is the container's delimiter token.
	Boundary string

	// Children are the container's nested parts, in order.
	Children []*Part
}

// NewText returns a leaf part with the given full content type and
// body. When base64 is true the body is base64-encoded at render time.
func NewText(contentType string, body []byte, base64 bool) *Part {
	p := &Part{ContentType: contentType, Body: body}
	if base64 {
		p.TransferEncoding = EncodingBase64
	}
	return p
}

// NewAttachment returns a base64-encoded leaf part with an attachment
// or inline disposition.
func NewAttachment(contentType, disposition, filename, contentID string, data []byte) *Part {
	return &Part{
		ContentType:      contentType,
		TransferEncoding: EncodingBase64,
		Disposition:      disposition,
		Filename:         filename,
		ContentID:        contentID,
		Body:             data,
	}
}

// NewMultipart returns a container with the given subtype and children,
// delimited by a fresh boundary.
func NewMultipart(subtype string, children ...*Part) *Part {
	return &Part{
		Subtype:  subtype,
		Boundary: NewBoundary(),
		Children: children,
	}
}

// IsMultipart reports whether the part is a container.
func (p *Part) IsMultipart() bool {
	return len(p.Children) > 0 || p.Subtype != ""
}

// Render serializes the part: headers, a blank line, then content. Leaf
// content is followed by CRLF; container content ends with the closing
// `--boundary--` delimiter line. wrap is the base64 line-wrap column
// (zero for unwrapped output).
func (p *Part) Render(buf *bytes.Buffer, wrap int) {
	p.renderHeaders(buf)
	buf.WriteString("\r\n")
	if p.IsMultipart() {
		for _, child := range p.Children {
			buf.WriteString("--" + p.Boundary + "\r\n")
			child.Render(buf, wrap)
			buf.WriteString("\r\n")
		}
		buf.WriteString("--" + p.Boundary + "--\r\n")
		return
	}
	if p.TransferEncoding == EncodingBase64 {
		buf.WriteString(EncodeBase64(p.Body, wrap))
	} else {
		buf.Write(p.Body)
	}
	buf.WriteString("\r\n")
}

func (p *Part) renderHeaders(buf *bytes.Buffer) {
	if p.IsMultipart() {
		buf.WriteString("Content-Type: multipart/" + p.Subtype + "; boundary=" + p.Boundary + "\r\n")
		return
	}
	buf.WriteString("Content-Type: " + p.ContentType + "\r\n")
	if p.TransferEncoding != "" {
		buf.WriteString("Content-Transfer-Encoding: " + p.TransferEncoding + "\r\n")
	}
	if p.Disposition != "" {
		buf.WriteString("Content-Disposition: " + p.Disposition + `; filename="` + p.Filename + `"` + "\r\n")
	}
	if p.ContentID != "" {
		buf.WriteString("Content-ID: " + p.ContentID + "\r\n")
	}
}

// NewBoundary returns a fresh 32-character hexadecimal multipart
// boundary token.
func NewBoundary() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// EncodeBase64 encodes data with the standard base64 alphabet. When
// lineLength is positive the output is wrapped at that column with CRLF
// line breaks.
func EncodeBase64(data []byte, lineLength int) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	if lineLength <= 0 || len(encoded) <= lineLength {
		return encoded
	}
	var buf bytes.Buffer
	for len(encoded) > lineLength {
		buf.WriteString(encoded[:lineLength])
		buf.WriteString("\r\n")
		encoded = encoded[lineLength:]
	}
	buf.WriteString(encoded)
	return buf.String()
}
