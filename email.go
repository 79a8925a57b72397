package carrier

import (
	"fmt"
)

// BodyKind discriminates the Body variants.
type BodyKind int

const (
	// BodyPlain is a text/plain body.
	BodyPlain BodyKind = iota

	// BodyHTML is a text/html body.
	BodyHTML

	// BodyUniversal carries both a plain and an HTML rendition, sent as
	// multipart/alternative.
	BodyUniversal
)

// Body is the message body: plain text, HTML, or both.
type Body struct {
	kind  BodyKind
	plain string
	html  string
}

// PlainBody returns a text/plain body.
func PlainBody(text string) Body {
	return Body{kind: BodyPlain, plain: text}
}

// HTMLBody returns a text/html body.
func HTMLBody(html string) Body {
	return Body{kind: BodyHTML, html: html}
}

// UniversalBody returns a body carrying both a plain and an HTML
// rendition.
func UniversalBody(plain, html string) Body {
	return Body{kind: BodyUniversal, plain: plain, html: html}
}

// Kind returns the body variant.
func (b Body) Kind() BodyKind { return b.kind }

// Plain returns the plain text rendition ("" for HTML-only bodies).
func (b Body) Plain() string { return b.plain }

// HTML returns the HTML rendition ("" for plain-only bodies).
func (b Body) HTML() string { return b.html }

// AttachmentKind discriminates regular and inline attachments.
type AttachmentKind int

const (
	// AttachmentRegular is a file attachment (Content-Disposition:
	// attachment). A content id is optional.
	AttachmentRegular AttachmentKind = iota

	// AttachmentInline is an inline part referenced from an HTML body by
	// content id (Content-Disposition: inline). A content id is required.
	AttachmentInline
)

// Attachment is a named blob attached to an Email.
type Attachment struct {
	// Name is the filename advertised in the Content-Disposition header.
	Name string

	// ContentType is the MIME content type of Data.
	ContentType string

	// Data is the attachment payload. Always transferred base64-encoded.
	Data []byte

	// Kind selects regular or inline disposition.
	Kind AttachmentKind

	// ContentID is the Content-ID. Required for inline attachments,
	// optional for regular ones.
	ContentID string
}

// Validate checks the attachment invariants.
func (a Attachment) Validate() error {
	if a.Kind == AttachmentInline && a.ContentID == "" {
		return ErrMissingContentID
	}
	return nil
}

// Email is one in-memory message to submit.
type Email struct {
	// Sender is the originator, used for MAIL FROM and the From header.
	Sender Contact

	// ReplyTo, when non-nil, adds a Reply-to header.
	ReplyTo *Contact

	// Recipients are the To addresses. Must be non-empty.
	Recipients []Contact

	// CC addresses appear in the Cc header and the envelope.
	CC []Contact

	// BCC addresses appear in the envelope only, never in headers.
	BCC []Contact

	// Subject is the message subject.
	Subject string

	// Body is the message body.
	Body Body

	// Attachments are sent in submission order, regular and inline parts
	// each keeping their relative order.
	Attachments []Attachment
}

// AllRecipients returns the envelope recipient list: recipients, then
// cc, then bcc, in that order. These are the addresses handed to
// RCPT TO.
func (e *Email) AllRecipients() []Contact {
	all := make([]Contact, 0, len(e.Recipients)+len(e.CC)+len(e.BCC))
	all = append(all, e.Recipients...)
	all = append(all, e.CC...)
	all = append(all, e.BCC...)
	return all
}

// Validate checks the construction invariants: a non-empty sender
// address, at least one recipient, non-empty recipient addresses, and
// content ids on inline attachments.
func (e *Email) Validate() error {
	if err := e.Sender.Validate(); err != nil {
		return fmt.Errorf("smtp: invalid sender: %w", err)
	}
	if len(e.Recipients) == 0 {
		return ErrNoRecipients
	}
	if e.ReplyTo != nil {
		if err := e.ReplyTo.Validate(); err != nil {
			return fmt.Errorf("smtp: invalid reply-to: %w", err)
		}
	}
	for _, group := range [][]Contact{e.Recipients, e.CC, e.BCC} {
		for _, c := range group {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("smtp: invalid recipient: %w", err)
			}
		}
	}
	for _, a := range e.Attachments {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("smtp: invalid attachment %q: %w", a.Name, err)
		}
	}
	return nil
}

// partitionAttachments splits attachments into regular and inline
// groups, preserving submission order within each.
func (e *Email) partitionAttachments() (regular, inline []Attachment) {
	for _, a := range e.Attachments {
		if a.Kind == AttachmentInline {
			inline = append(inline, a)
		} else {
			regular = append(regular, a)
		}
	}
	return regular, inline
}

// EmailBuilder provides a fluent API for constructing Email values.
type EmailBuilder struct {
	email  Email
	errors []error
}

// NewEmailBuilder creates an empty EmailBuilder.
func NewEmailBuilder() *EmailBuilder {
	return &EmailBuilder{}
}

// From sets the sender.
func (b *EmailBuilder) From(sender Contact) *EmailBuilder {
	if err := sender.Validate(); err != nil {
		b.errors = append(b.errors, fmt.Errorf("invalid from address: %w", err))
		return b
	}
	b.email.Sender = sender
	return b
}

// ReplyTo sets the Reply-to contact.
func (b *EmailBuilder) ReplyTo(contact Contact) *EmailBuilder {
	if err := contact.Validate(); err != nil {
		b.errors = append(b.errors, fmt.Errorf("invalid reply-to address: %w", err))
		return b
	}
	b.email.ReplyTo = &contact
	return b
}

// To adds recipients.
func (b *EmailBuilder) To(contacts ...Contact) *EmailBuilder {
	for _, c := range contacts {
		if err := c.Validate(); err != nil {
			b.errors = append(b.errors, fmt.Errorf("invalid to address: %w", err))
			continue
		}
		b.email.Recipients = append(b.email.Recipients, c)
	}
	return b
}

// Cc adds carbon-copy recipients.
func (b *EmailBuilder) Cc(contacts ...Contact) *EmailBuilder {
	for _, c := range contacts {
		if err := c.Validate(); err != nil {
			b.errors = append(b.errors, fmt.Errorf("invalid cc address: %w", err))
			continue
		}
		b.email.CC = append(b.email.CC, c)
	}
	return b
}

// Bcc adds blind-carbon-copy recipients. They receive the message but
// never appear in its headers.
func (b *EmailBuilder) Bcc(contacts ...Contact) *EmailBuilder {
	for _, c := range contacts {
		if err := c.Validate(); err != nil {
			b.errors = append(b.errors, fmt.Errorf("invalid bcc address: %w", err))
			continue
		}
		b.email.BCC = append(b.email.BCC, c)
	}
	return b
}

// Subject sets the subject.
func (b *EmailBuilder) Subject(subject string) *EmailBuilder {
	b.email.Subject = subject
	return b
}

// PlainBody sets a text/plain body.
func (b *EmailBuilder) PlainBody(text string) *EmailBuilder {
	b.email.Body = PlainBody(text)
	return b
}

// HTMLBody sets a text/html body.
func (b *EmailBuilder) HTMLBody(html string) *EmailBuilder {
	b.email.Body = HTMLBody(html)
	return b
}

// UniversalBody sets a body with both plain and HTML renditions.
func (b *EmailBuilder) UniversalBody(plain, html string) *EmailBuilder {
	b.email.Body = UniversalBody(plain, html)
	return b
}

// Attach adds a regular attachment.
func (b *EmailBuilder) Attach(name, contentType string, data []byte) *EmailBuilder {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	b.email.Attachments = append(b.email.Attachments, Attachment{
		Name:        name,
		ContentType: contentType,
		Data:        data,
	})
	return b
}

// AttachWithContentID adds a regular attachment carrying a Content-ID.
func (b *EmailBuilder) AttachWithContentID(name, contentType, contentID string, data []byte) *EmailBuilder {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	b.email.Attachments = append(b.email.Attachments, Attachment{
		Name:        name,
		ContentType: contentType,
		Data:        data,
		ContentID:   contentID,
	})
	return b
}

// AttachInline adds an inline attachment referenced from the HTML body
// by content id.
func (b *EmailBuilder) AttachInline(name, contentType, contentID string, data []byte) *EmailBuilder {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	b.email.Attachments = append(b.email.Attachments, Attachment{
		Name:        name,
		ContentType: contentType,
		Data:        data,
		Kind:        AttachmentInline,
		ContentID:   contentID,
	})
	return b
}

// Build validates and returns the Email.
func (b *EmailBuilder) Build() (Email, error) {
	if len(b.errors) > 0 {
		return Email{}, fmt.Errorf("smtp: email builder errors: %v", b.errors)
	}
	if err := b.email.Validate(); err != nil {
		return Email{}, err
	}
	return b.email, nil
}

// MustBuild is like Build but panics on error.
func (b *EmailBuilder) MustBuild() Email {
	email, err := b.Build()
	if err != nil {
		panic(err)
	}
	return email
}
