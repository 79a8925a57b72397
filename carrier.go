// Carrier is an SMTP submission client library for Go.
//
// It delivers in-memory email messages to a configured SMTP/ESMTP
// submission server over TCP, negotiating TLS either implicitly at
// connect time or via STARTTLS, authenticating with AUTH LOGIN, and
// serializing MIME 1.0 multipart messages to the wire.
//
// # Mailer
//
// Create a Mailer and submit messages:
//
//	config := carrier.NewConfiguration(carrier.Server{
//	    Hostname:   "smtp.example.com",
//	    Encryption: carrier.EncryptionStartTLS(carrier.StartTLSAlways),
//	})
//	config.Credentials = &carrier.Credentials{Username: "user", Password: "pass"}
//
//	mailer, err := carrier.NewMailer(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mailer.Close()
//
//	delivery, err := mailer.Send(email)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := delivery.Wait(ctx); err != nil {
//	    log.Printf("delivery failed: %v", err)
//	}
//
// Each submission uses a brand-new TCP connection; SMTP submission
// closes the connection after QUIT, so no connection reuse is
// attempted. Submissions are dispatched in FIFO order, bounded by the
// Mailer's connection cap.
//
// # Email Builder
//
// Build emails with the fluent builder:
//
//	email, err := carrier.NewEmailBuilder().
//	    From(carrier.Contact{Address: "sender@example.com", Name: "Sender"}).
//	    To(carrier.Contact{Address: "recipient@example.com"}).
//	    Subject("Hello").
//	    PlainBody("Message content").
//	    Build()
//
// # Transmission Logging
//
// Pass a TransmissionLogger to observe the raw SMTP dialogue. Inbound
// frames are prefixed with "☁️ ", outbound with "💻 ":
//
//	mailer, err := carrier.NewMailer(config,
//	    carrier.WithTransmissionLogger(carrier.NewSlogTransmissionLogger(logger)))
package carrier
