package carrier

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/synqronlabs/carrier/wire"
)

// pipeline composes one connection's processing stages over a single
// TCP transport: [optional TLS] → line framer → reply decoder →
// [STARTTLS filter] → conversation, with the request encoder on the
// outbound path and the transmission logger tapping both directions.
//
// All handlers for a connection run serially in the connection's
// goroutine; the Mailer never shares a pipeline between submissions.
type pipeline struct {
	config *Configuration
	email  *Email
	logger TransmissionLogger

	conn      net.Conn
	framer    *wire.Framer
	encoder   requestEncoder
	conv      *conversation
	tlsFilter *startTLSFilter

	readBuf []byte
}

// runSubmission dials the configured server and drives one complete
// SMTP session delivering email. It returns nil once the session
// finishes cleanly (or the server drops the connection after QUIT).
func runSubmission(config *Configuration, email *Email, logger TransmissionLogger, now func() time.Time) error {
	conn, err := dialServer(config)
	if err != nil {
		return err
	}

	p := &pipeline{
		config:  config,
		email:   email,
		logger:  logger,
		conn:    conn,
		framer:  &wire.Framer{},
		encoder: requestEncoder{features: config.Features},
		conv:    newConversation(config, email, now),
		readBuf: make([]byte, 4096),
	}
	if mode, ok := config.Server.Encryption.IsStartTLS(); ok {
		p.tlsFilter = &startTLSFilter{mode: mode, upgrade: p.upgradeTLS}
	}

	defer p.conn.Close()
	return p.run()
}

// dialServer opens the TCP connection, wrapping it in TLS immediately
// when the encryption is implicit (port 465 pattern).
func dialServer(config *Configuration) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: config.ConnectionTimeout}
	address := config.Server.Address()

	if config.Server.Encryption.IsSSL() {
		tlsDialer := &tls.Dialer{
			NetDialer: dialer,
			Config:    clientTLSConfig(config.Server.Hostname),
		}
		conn, err := tlsDialer.Dial("tcp", address)
		if err != nil {
			return nil, fmt.Errorf("smtp: dial TLS failed: %w", err)
		}
		return conn, nil
	}

	conn, err := dialer.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("smtp: dial failed: %w", err)
	}
	return conn, nil
}

// run reads server bytes, frames and decodes them, advances the
// conversation on each terminal reply, and writes the requested
// commands, until the session completes or fails.
func (p *pipeline) run() error {
	for {
		n, readErr := p.conn.Read(p.readBuf)
		if n > 0 {
			for _, frame := range p.framer.Push(p.readBuf[:n]) {
				done, err := p.handleFrame(frame)
				if err != nil {
					return err
				}
				if done {
					return nil
				}
			}
		}
		if readErr != nil {
			// Includes clean EOF, TLS unclean shutdown, and resets.
			if leftoverErr := p.framer.Close(); leftoverErr != nil && !p.conv.InTerminalState() {
				return leftoverErr
			}
			if p.conv.InTerminalState() {
				return nil
			}
			return fmt.Errorf("smtp: connection failed: %w", readErr)
		}
	}
}

// handleFrame processes one inbound frame through decoder, STARTTLS
// filter, and conversation. done is true when the session is complete.
func (p *pipeline) handleFrame(frame string) (bool, error) {
	if p.logger != nil {
		p.logger.LogSMTPMessage(inboundLogPrefix + frame)
	}

	reply, err := DecodeReply(frame)
	if p.tlsFilter != nil {
		reply, err = p.tlsFilter.filterInbound(reply, err)
		if p.tlsFilter.done {
			p.tlsFilter = nil
		}
	}
	if err != nil {
		return false, err
	}
	if reply == nil {
		// Intermediate line of a multi-line reply.
		return false, nil
	}

	req, done, err := p.conv.Next(reply)
	if err != nil {
		return false, err
	}
	if done {
		return true, nil
	}
	return false, p.write(req)
}

// write encodes and sends one request.
func (p *pipeline) write(req Request) error {
	if p.tlsFilter != nil {
		p.tlsFilter.observeOutbound(req)
	}

	var buf bytes.Buffer
	p.encoder.Encode(&buf, req)

	if p.logger != nil {
		p.logger.LogSMTPMessage(outboundLogPrefix + strings.TrimSuffix(buf.String(), "\r\n"))
	}

	if _, err := p.conn.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("smtp: write failed: %w", err)
	}
	return nil
}

// upgradeTLS swaps the plain transport for TLS in place, using the
// configured server hostname for SNI and the shared client TLS
// context. The framer restarts empty: no plaintext bytes may carry
// across the handshake.
func (p *pipeline) upgradeTLS() error {
	tlsConn := tls.Client(p.conn, clientTLSConfig(p.config.Server.Hostname))
	if err := tlsConn.Handshake(); err != nil {
		return err
	}
	p.conn = tlsConn
	p.framer = &wire.Framer{}
	return nil
}
