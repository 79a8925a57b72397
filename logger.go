package carrier

import "log/slog"

// Frame direction prefixes used in transmission logs.
const (
	inboundLogPrefix  = "☁️ "
	outboundLogPrefix = "💻 "
)

// TransmissionLogger receives every SMTP frame crossing the wire, one
// line-formatted string per call. Implementations must be safe for
// concurrent invocation: frames from concurrent connections interleave.
type TransmissionLogger interface {
	LogSMTPMessage(message string)
}

// TransmissionLoggerFunc adapts a function to the TransmissionLogger
// interface.
type TransmissionLoggerFunc func(message string)

// LogSMTPMessage calls f(message).
func (f TransmissionLoggerFunc) LogSMTPMessage(message string) {
	f(message)
}

// NewSlogTransmissionLogger adapts a *slog.Logger to the
// TransmissionLogger capability. Frames are emitted at debug level.
func NewSlogTransmissionLogger(logger *slog.Logger) TransmissionLogger {
	return TransmissionLoggerFunc(func(message string) {
		logger.Debug(message)
	})
}
