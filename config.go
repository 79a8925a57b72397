package carrier

import (
	"crypto/tls"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Default submission ports by encryption (RFC 5321, RFC 8314).
const (
	portPlain    = 25
	portSSL      = 465
	portStartTLS = 587
)

// DefaultConnectionTimeout is the connect timeout applied when a
// Configuration does not specify one.
const DefaultConnectionTimeout = 60 * time.Second

// StartTLSMode controls how a STARTTLS rejection by the server is handled.
type StartTLSMode int

const (
	// StartTLSAlways fails the submission if the server rejects STARTTLS.
	StartTLSAlways StartTLSMode = iota

	// StartTLSIfAvailable continues in plaintext if the server rejects
	// STARTTLS.
	StartTLSIfAvailable
)

// String returns the mode name.
func (m StartTLSMode) String() string {
	switch m {
	case StartTLSAlways:
		return "always"
	case StartTLSIfAvailable:
		return "ifAvailable"
	default:
		return fmt.Sprintf("StartTLSMode(%d)", int(m))
	}
}

type encryptionKind int

const (
	encPlain encryptionKind = iota
	encSSL
	encStartTLS
)

// Encryption selects the transport security for a connection: plaintext,
// implicit TLS at connect time, or a STARTTLS upgrade after the first
// EHLO/HELO exchange.
type Encryption struct {
	kind encryptionKind
	mode StartTLSMode
}

// EncryptionPlain returns the plaintext encryption setting (port 25).
func EncryptionPlain() Encryption {
	return Encryption{kind: encPlain}
}

// EncryptionSSL returns the implicit-TLS encryption setting (port 465).
func EncryptionSSL() Encryption {
	return Encryption{kind: encSSL}
}

// EncryptionStartTLS returns the STARTTLS-upgrade encryption setting
// (port 587) with the given rejection handling mode.
func EncryptionStartTLS(mode StartTLSMode) Encryption {
	return Encryption{kind: encStartTLS, mode: mode}
}

// IsSSL reports whether TLS is established before any SMTP bytes are
// exchanged.
func (e Encryption) IsSSL() bool { return e.kind == encSSL }

// IsStartTLS reports whether a STARTTLS upgrade is attempted, and if so
// with which mode.
func (e Encryption) IsStartTLS() (StartTLSMode, bool) {
	return e.mode, e.kind == encStartTLS
}

// DefaultPort returns the submission port conventionally paired with this
// encryption: 25 for plaintext, 465 for implicit TLS, 587 for STARTTLS.
func (e Encryption) DefaultPort() int {
	switch e.kind {
	case encSSL:
		return portSSL
	case encStartTLS:
		return portStartTLS
	default:
		return portPlain
	}
}

// String returns a human-readable description of the encryption setting.
func (e Encryption) String() string {
	switch e.kind {
	case encSSL:
		return "ssl"
	case encStartTLS:
		return "startTLS(" + e.mode.String() + ")"
	default:
		return "plain"
	}
}

// Server identifies the SMTP submission server to connect to.
type Server struct {
	// Hostname is the DNS name or IP address of the server. Required.
	// Also used as the SNI name for TLS.
	Hostname string

	// Port is the TCP port. Zero selects the encryption's default port
	// (25 for plain, 465 for ssl, 587 for startTLS).
	Port int

	// Encryption selects the transport security.
	Encryption Encryption
}

// EffectivePort returns the configured port, substituting the
// encryption's default when unset.
func (s Server) EffectivePort() int {
	if s.Port != 0 {
		return s.Port
	}
	return s.Encryption.DefaultPort()
}

// Address returns the host:port dial target.
func (s Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.EffectivePort())
}

// Credentials holds the AUTH LOGIN username and password.
type Credentials struct {
	Username string
	Password string
}

// FeatureFlags is a bit set of protocol and encoding options.
type FeatureFlags uint8

const (
	// UseESMTP greets the server with EHLO instead of HELO.
	UseESMTP FeatureFlags = 1 << iota

	// Base64EncodeAllMessages base64-encodes every text body part.
	Base64EncodeAllMessages

	// MaxBase64LineLength64 wraps base64 output at 64 columns.
	MaxBase64LineLength64

	// MaxBase64LineLength76 wraps base64 output at 76 columns.
	MaxBase64LineLength76
)

// Contains reports whether all bits of flag are set.
func (f FeatureFlags) Contains(flag FeatureFlags) bool {
	return f&flag == flag
}

// Base64LineLength returns the configured base64 wrap column, or zero
// for unwrapped output. When both line-length flags are set, the
// stricter 64 wins.
func (f FeatureFlags) Base64LineLength() int {
	if f.Contains(MaxBase64LineLength64) {
		return 64
	}
	if f.Contains(MaxBase64LineLength76) {
		return 76
	}
	return 0
}

// Configuration describes one submission target. It is immutable after
// NewMailer snapshots it; mutating a Configuration after constructing a
// Mailer has no effect on that Mailer.
type Configuration struct {
	// Server is the submission server to deliver to. Required.
	Server Server

	// ConnectionTimeout bounds the TCP connect (and TLS handshake for
	// implicit TLS). Zero selects DefaultConnectionTimeout.
	ConnectionTimeout time.Duration

	// Credentials enables AUTH LOGIN when non-nil.
	Credentials *Credentials

	// Features is the protocol and encoding option bit set.
	Features FeatureFlags
}

// NewConfiguration returns a Configuration for the given server with the
// default connection timeout and no credentials.
func NewConfiguration(server Server) Configuration {
	return Configuration{
		Server:            server,
		ConnectionTimeout: DefaultConnectionTimeout,
	}
}

// Validate checks construction invariants.
func (c *Configuration) Validate() error {
	if c.Server.Hostname == "" {
		return errors.New("smtp: server hostname is required")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("smtp: invalid server port %d", c.Server.Port)
	}
	if c.ConnectionTimeout < 0 {
		return errors.New("smtp: connection timeout must not be negative")
	}
	return nil
}

// normalized returns a copy with defaults substituted.
func (c Configuration) normalized() Configuration {
	if c.ConnectionTimeout == 0 {
		c.ConnectionTimeout = DefaultConnectionTimeout
	}
	c.Server.Port = c.Server.EffectivePort()
	return c
}

// Shared process-wide TLS client configuration. Created once, read-only
// afterwards; cloned per connection to set the SNI name.
var (
	clientTLSOnce   sync.Once
	clientTLSShared *tls.Config
)

func clientTLSConfig(serverName string) *tls.Config {
	clientTLSOnce.Do(func() {
		if clientTLSShared == nil {
			clientTLSShared = &tls.Config{}
		}
	})
	cfg := clientTLSShared.Clone()
	cfg.ServerName = serverName
	return cfg
}
