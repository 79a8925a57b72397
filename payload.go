package carrier

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/synqronlabs/carrier/mime"
	"github.com/synqronlabs/carrier/utils"
)

// dateLayout is the locale-invariant RFC 2822 style date format
// (`EEE, dd MMM yyyy HH:mm:ss Z`).
const dateLayout = "Mon, 02 Jan 2006 15:04:05 -0700"

// Content types for text body parts.
const (
	contentTypePlain = `text/plain; charset="UTF-8"`
	contentTypeHTML  = `text/html; charset="UTF-8"`
)

// renderDataPayload appends the DATA payload for email to buf: the
// header block, a blank line, and the MIME body tree. The caller adds
// the `CRLF . CRLF` terminator.
func renderDataPayload(buf *bytes.Buffer, date time.Time, email *Email, features FeatureFlags) {
	buf.WriteString("From: " + email.Sender.HeaderValue() + "\r\n")
	buf.WriteString("To: " + joinContacts(email.Recipients) + "\r\n")
	if email.ReplyTo != nil {
		buf.WriteString("Reply-to: " + email.ReplyTo.HeaderValue() + "\r\n")
	}
	if len(email.CC) > 0 {
		buf.WriteString("Cc: " + joinContacts(email.CC) + "\r\n")
	}
	buf.WriteString("Date: " + date.Format(dateLayout) + "\r\n")
	buf.WriteString("Message-ID: <" + unixSecondsWithFraction(date) + email.Sender.domainTail() + ">\r\n")
	buf.WriteString("Subject: " + encodeSubject(email.Subject) + "\r\n")
	buf.WriteString("MIME-Version: 1.0\r\n")

	bodyPart(email, features).Render(buf, features.Base64LineLength())
}

// bodyPart builds the MIME tree for the email body and attachments.
// The body core (a single text part, or multipart/alternative for
// universal bodies) is wrapped in multipart/related when inline
// attachments are present, and the result in multipart/mixed when
// regular attachments are present.
func bodyPart(email *Email, features FeatureFlags) *mime.Part {
	base64All := features.Contains(Base64EncodeAllMessages)

	var core *mime.Part
	switch email.Body.Kind() {
	case BodyHTML:
		core = mime.NewText(contentTypeHTML, []byte(email.Body.HTML()), base64All)
	case BodyUniversal:
		core = mime.NewMultipart("alternative",
			mime.NewText(contentTypePlain, []byte(email.Body.Plain()), base64All),
			mime.NewText(contentTypeHTML, []byte(email.Body.HTML()), base64All))
	default:
		core = mime.NewText(contentTypePlain, []byte(email.Body.Plain()), base64All)
	}

	regular, inline := email.partitionAttachments()

	if len(inline) > 0 {
		children := make([]*mime.Part, 0, len(inline)+1)
		children = append(children, core)
		for _, a := range inline {
			children = append(children, mime.NewAttachment(
				a.ContentType, mime.DispositionInline, a.Name, contentIDHeader(a.ContentID), a.Data))
		}
		core = mime.NewMultipart("related", children...)
	}

	if len(regular) > 0 {
		children := make([]*mime.Part, 0, len(regular)+1)
		children = append(children, core)
		for _, a := range regular {
			children = append(children, mime.NewAttachment(
				a.ContentType, mime.DispositionAttachment, a.Name, contentIDHeader(a.ContentID), a.Data))
		}
		core = mime.NewMultipart("mixed", children...)
	}

	return core
}

// contentIDHeader wraps a content id in angle brackets, tolerating ids
// already carrying them. Empty ids stay empty.
func contentIDHeader(id string) string {
	if id == "" {
		return ""
	}
	if strings.HasPrefix(id, "<") {
		return id
	}
	return "<" + id + ">"
}

// unixSecondsWithFraction formats the date as Unix seconds with a
// decimal fraction, always carrying at least one fractional digit.
func unixSecondsWithFraction(date time.Time) string {
	seconds := float64(date.UnixNano()) / float64(time.Second)
	s := strconv.FormatFloat(seconds, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// encodeSubject RFC 2047 encodes non-ASCII subjects; ASCII subjects
// pass through verbatim.
func encodeSubject(subject string) string {
	if utils.ContainsNonASCII(subject) {
		return utils.EncodeRFC2047(subject)
	}
	return subject
}
