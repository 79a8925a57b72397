package carrier

import (
	"errors"
	"fmt"
)

// startTLSFilter sits between the reply decoder and the conversation.
// It watches for an outbound STARTTLS command and intercepts the
// server's answer to it: on success it installs TLS at the transport
// end of the pipeline, on failure it either falls back to plaintext
// (StartTLSIfAvailable) by synthesizing a success reply, or fails the
// submission (StartTLSAlways). Afterwards it removes itself: all later
// traffic passes through untouched.
type startTLSFilter struct {
	mode     StartTLSMode
	awaiting bool
	done     bool

	// upgrade installs the TLS wrapper before the framer.
	upgrade func() error
}

// synthesized success reply for the if-available plaintext fallback.
const (
	startTLSFallbackCode = 201
	startTLSFallbackText = "STARTTLS is not supported"
)

// observeOutbound notes the outbound STARTTLS command.
func (f *startTLSFilter) observeOutbound(req Request) {
	if f.done || f.awaiting {
		return
	}
	if _, ok := req.(StartTLSRequest); ok {
		f.awaiting = true
	}
}

// filterInbound processes one decode outcome. While not awaiting the
// STARTTLS answer, everything passes through unchanged.
func (f *startTLSFilter) filterInbound(reply *Reply, decodeErr error) (*Reply, error) {
	if f.done || !f.awaiting {
		return reply, decodeErr
	}
	if reply == nil && decodeErr == nil {
		// Continuation line; keep waiting for the terminal answer.
		return nil, nil
	}

	f.awaiting = false
	f.done = true

	if reply != nil {
		if err := f.upgrade(); err != nil {
			return nil, fmt.Errorf("smtp: TLS handshake failed: %w", err)
		}
		return reply, nil
	}

	var serverErr *ServerError
	if errors.As(decodeErr, &serverErr) && f.mode == StartTLSIfAvailable {
		return &Reply{Code: startTLSFallbackCode, Text: startTLSFallbackText}, nil
	}
	if serverErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrTLSNotSupported, serverErr.Message)
	}
	return nil, decodeErr
}
