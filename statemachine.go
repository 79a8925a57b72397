package carrier

import (
	"fmt"
	"time"

	"github.com/synqronlabs/carrier/sasl"
)

// convState enumerates the conversation states. Each terminal success
// reply from the server advances the conversation by exactly one
// transition.
type convState int

const (
	stateIdle convState = iota
	stateHelloSent
	stateStartTLSSent
	stateAuthBegan
	stateUsernameSent
	statePasswordSent
	stateMailFromSent
	stateRecipientSent
	stateDataCommandSent
	stateMailDataSent
	stateQuitSent
	stateDone
)

func (s convState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateHelloSent:
		return "helloSent"
	case stateStartTLSSent:
		return "startTLSSent"
	case stateAuthBegan:
		return "authBegan"
	case stateUsernameSent:
		return "usernameSent"
	case statePasswordSent:
		return "passwordSent"
	case stateMailFromSent:
		return "mailFromSent"
	case stateRecipientSent:
		return "recipientSent"
	case stateDataCommandSent:
		return "dataCommandSent"
	case stateMailDataSent:
		return "mailDataSent"
	case stateQuitSent:
		return "quitSent"
	case stateDone:
		return "done"
	default:
		return fmt.Sprintf("convState(%d)", int(s))
	}
}

// conversation drives one SMTP session for one email. It is
// single-threaded per connection: the pipeline feeds it one terminal
// success reply at a time and writes the request it returns.
type conversation struct {
	config *Configuration
	email  *Email
	login  *sasl.Login

	state         convState
	afterStartTLS bool

	// Envelope recipient cursor. An explicit index, so advancing the
	// conversation never re-sends a recipient.
	recipients    []Contact
	nextRecipient int

	now func() time.Time
}

func newConversation(config *Configuration, email *Email, now func() time.Time) *conversation {
	c := &conversation{
		config:     config,
		email:      email,
		recipients: email.AllRecipients(),
		now:        now,
	}
	if config.Credentials != nil {
		c.login = sasl.NewLogin(sasl.Credentials{
			Username: config.Credentials.Username,
			Password: config.Credentials.Password,
		})
	}
	return c
}

// InTerminalState reports whether the session has reached QUIT. In a
// terminal state transport-level shutdown errors are expected and
// suppressed: servers commonly drop the connection right after 221.
func (c *conversation) InTerminalState() bool {
	return c.state == stateQuitSent || c.state == stateDone
}

// Next consumes one terminal success reply and returns the next request
// to emit. done is true once the session is complete; the connection is
// then closed and the submission succeeds.
func (c *conversation) Next(reply *Reply) (Request, bool, error) {
	switch c.state {
	case stateIdle:
		// Server greeting received.
		c.state = stateHelloSent
		return SayHello{
			ServerName: c.config.Server.Hostname,
			UseESMTP:   c.config.Features.Contains(UseESMTP),
		}, false, nil

	case stateHelloSent:
		if _, ok := c.config.Server.Encryption.IsStartTLS(); ok && !c.afterStartTLS {
			c.state = stateStartTLSSent
			return StartTLSRequest{}, false, nil
		}
		if c.login != nil {
			c.state = stateAuthBegan
			return BeginAuthentication{}, false, nil
		}
		c.state = stateMailFromSent
		return MailFrom{Address: c.email.Sender.Address}, false, nil

	case stateStartTLSSent:
		// The transport has been upgraded (or the filter fell back to
		// plaintext); the hello exchange restarts.
		c.afterStartTLS = true
		c.state = stateHelloSent
		return SayHello{
			ServerName: c.config.Server.Hostname,
			UseESMTP:   c.config.Features.Contains(UseESMTP),
		}, false, nil

	case stateAuthBegan:
		username, _, err := c.login.Next(reply.Text)
		if err != nil {
			return nil, false, err
		}
		c.state = stateUsernameSent
		return AuthUser{Username: username}, false, nil

	case stateUsernameSent:
		password, _, err := c.login.Next(reply.Text)
		if err != nil {
			return nil, false, err
		}
		c.state = statePasswordSent
		return AuthPassword{Password: password}, false, nil

	case statePasswordSent:
		c.state = stateMailFromSent
		return MailFrom{Address: c.email.Sender.Address}, false, nil

	case stateMailFromSent:
		if len(c.recipients) == 0 {
			// Unreachable: Email validation requires recipients.
			c.state = stateDataCommandSent
			return DataCommand{}, false, nil
		}
		c.state = stateRecipientSent
		c.nextRecipient = 1
		return RecipientTo{Address: c.recipients[0].Address}, false, nil

	case stateRecipientSent:
		if c.nextRecipient < len(c.recipients) {
			rcpt := c.recipients[c.nextRecipient]
			c.nextRecipient++
			return RecipientTo{Address: rcpt.Address}, false, nil
		}
		c.state = stateDataCommandSent
		return DataCommand{}, false, nil

	case stateDataCommandSent:
		c.state = stateMailDataSent
		return TransferData{Date: c.now(), Email: c.email}, false, nil

	case stateMailDataSent:
		c.state = stateQuitSent
		return QuitRequest{}, false, nil

	case stateQuitSent:
		c.state = stateDone
		return nil, true, nil

	default:
		return nil, true, nil
	}
}
