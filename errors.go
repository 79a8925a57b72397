package carrier

import "errors"

var (
	// ErrMalformedReply is returned when a server reply line does not
	// match the DDD<SP|-> grammar with a numeric reply code.
	ErrMalformedReply = errors.New("smtp: malformed server reply")

	// ErrMailerClosed is returned by Send after the Mailer has been closed.
	ErrMailerClosed = errors.New("smtp: mailer closed")

	// ErrNoRecipients is returned when an Email has no recipients.
	ErrNoRecipients = errors.New("smtp: no recipients specified")

	// ErrEmptyAddress is returned when a Contact carries an empty address.
	ErrEmptyAddress = errors.New("smtp: empty email address")

	// ErrMissingContentID is returned when an inline attachment has no
	// content id.
	ErrMissingContentID = errors.New("smtp: inline attachment requires a content id")

	// ErrTLSNotSupported is returned when the server rejects STARTTLS and
	// the configured mode requires it.
	ErrTLSNotSupported = errors.New("smtp: STARTTLS not supported by server")
)

// ServerError is a terminal non-2xx/3xx reply from the server. Message
// carries the full server line verbatim.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "smtp: server error: " + e.Message
}
