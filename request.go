package carrier

import (
	"bytes"
	"time"

	"github.com/synqronlabs/carrier/mime"
)

// Request is one outbound SMTP command. The concrete types form a
// closed set; consumers switch exhaustively over them.
type Request interface {
	isRequest()
}

// SayHello greets the server with EHLO (UseESMTP) or HELO.
type SayHello struct {
	ServerName string
	UseESMTP   bool
}

// StartTLSRequest asks the server to upgrade the connection to TLS.
type StartTLSRequest struct{}

// BeginAuthentication starts the AUTH LOGIN exchange.
type BeginAuthentication struct{}

// AuthUser answers the username challenge. The credential is
// base64-encoded on the wire.
type AuthUser struct {
	Username string
}

// AuthPassword answers the password challenge. The credential is
// base64-encoded on the wire.
type AuthPassword struct {
	Password string
}

// MailFrom opens the envelope with the reverse-path.
type MailFrom struct {
	Address string
}

// RecipientTo adds one forward-path to the envelope.
type RecipientTo struct {
	Address string
}

// DataCommand announces the message payload.
type DataCommand struct{}

// TransferData carries the serialized message payload, terminated by
// the RFC 5321 `CRLF . CRLF` sequence.
type TransferData struct {
	Date  time.Time
	Email *Email
}

// QuitRequest ends the session.
type QuitRequest struct{}

func (SayHello) isRequest()            {}
func (StartTLSRequest) isRequest()     {}
func (BeginAuthentication) isRequest() {}
func (AuthUser) isRequest()            {}
func (AuthPassword) isRequest()        {}
func (MailFrom) isRequest()            {}
func (RecipientTo) isRequest()         {}
func (DataCommand) isRequest()         {}
func (TransferData) isRequest()        {}
func (QuitRequest) isRequest()         {}

// requestEncoder renders outbound requests to wire bytes. Every emitted
// command is terminated by CRLF; TransferData relies on that trailing
// CRLF to complete its `CRLF . CRLF` terminator.
type requestEncoder struct {
	features FeatureFlags
}

// Encode appends the wire form of req to buf.
func (e *requestEncoder) Encode(buf *bytes.Buffer, req Request) {
	switch r := req.(type) {
	case SayHello:
		if r.UseESMTP {
			buf.WriteString("EHLO " + r.ServerName)
		} else {
			buf.WriteString("HELO " + r.ServerName)
		}
	case StartTLSRequest:
		buf.WriteString("STARTTLS")
	case BeginAuthentication:
		buf.WriteString("AUTH LOGIN")
	case AuthUser:
		buf.WriteString(mime.EncodeBase64([]byte(r.Username), e.features.Base64LineLength()))
	case AuthPassword:
		buf.WriteString(mime.EncodeBase64([]byte(r.Password), e.features.Base64LineLength()))
	case MailFrom:
		buf.WriteString("MAIL FROM:<" + r.Address + ">")
	case RecipientTo:
		buf.WriteString("RCPT TO:<" + r.Address + ">")
	case DataCommand:
		buf.WriteString("DATA")
	case TransferData:
		renderDataPayload(buf, r.Date, r.Email, e.features)
		buf.WriteString("\r\n.")
	case QuitRequest:
		buf.WriteString("QUIT")
	}
	buf.WriteString("\r\n")
}
