package carrier

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// generateTestCert creates a self-signed certificate for the fixture
// server, valid for localhost and 127.0.0.1.
func generateTestCert(t *testing.T) (tls.Certificate, *x509.CertPool) {
	t.Helper()

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate private key: %v", err)
	}

	serialNumber, _ := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"Fixture"},
			CommonName:   "fixture.test",
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyDER, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		t.Fatalf("failed to marshal private key: %v", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		t.Fatalf("failed to parse certificate: %v", err)
	}

	certPool := x509.NewCertPool()
	certPool.AppendCertsFromPEM(certPEM)

	return cert, certPool
}

// trustFixtureCert points the shared client TLS context at the fixture
// certificate pool for the duration of the test. Without it the client
// would reject the self-signed fixture certificate.
func trustFixtureCert(t *testing.T, pool *x509.CertPool) {
	t.Helper()
	clientTLSShared = &tls.Config{RootCAs: pool}
	t.Cleanup(func() { clientTLSShared = &tls.Config{} })
}

// sniRecorder returns a server TLS config that records the SNI name of
// every client handshake.
func sniRecorder(cert tls.Certificate) (*tls.Config, func() []string) {
	var mu sync.Mutex
	var names []string

	config := &tls.Config{
		GetCertificate: func(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
			mu.Lock()
			names = append(names, hello.ServerName)
			mu.Unlock()
			return &cert, nil
		},
	}
	return config, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), names...)
	}
}

func TestMailerImplicitTLSDelivery(t *testing.T) {
	cert, pool := generateTestCert(t)
	serverTLS, recordedSNI := sniRecorder(cert)
	server := startFixtureServer(t, fixtureOptions{tls: serverTLS, implicitTLS: true})
	trustFixtureCert(t, pool)

	config := NewConfiguration(Server{
		Hostname:   "localhost",
		Port:       server.port(),
		Encryption: EncryptionSSL(),
	})

	mailer, err := NewMailer(config)
	if err != nil {
		t.Fatalf("NewMailer failed: %v", err)
	}
	defer mailer.Close()

	delivery, err := mailer.Send(testEmail())
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := waitDelivery(t, delivery); err != nil {
		t.Fatalf("implicit TLS delivery failed: %v", err)
	}

	if len(server.received()) != 1 {
		t.Fatalf("server received %d messages, want 1", len(server.received()))
	}
	names := recordedSNI()
	if len(names) == 0 || names[0] != "localhost" {
		t.Errorf("handshake SNI = %v, want the configured hostname", names)
	}
}

func TestMailerStartTLSUpgradeDelivery(t *testing.T) {
	cert, pool := generateTestCert(t)
	serverTLS, recordedSNI := sniRecorder(cert)
	server := startFixtureServer(t, fixtureOptions{tls: serverTLS})
	trustFixtureCert(t, pool)

	config := NewConfiguration(Server{
		Hostname:   "localhost",
		Port:       server.port(),
		Encryption: EncryptionStartTLS(StartTLSAlways),
	})
	config.Features = UseESMTP

	var mu sync.Mutex
	var lines []string
	logger := TransmissionLoggerFunc(func(message string) {
		mu.Lock()
		lines = append(lines, message)
		mu.Unlock()
	})

	mailer, err := NewMailer(config, WithTransmissionLogger(logger))
	if err != nil {
		t.Fatalf("NewMailer failed: %v", err)
	}
	defer mailer.Close()

	delivery, err := mailer.Send(testEmail())
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := waitDelivery(t, delivery); err != nil {
		t.Fatalf("STARTTLS delivery failed: %v", err)
	}

	if len(server.received()) != 1 {
		t.Fatalf("server received %d messages, want 1", len(server.received()))
	}
	names := recordedSNI()
	if len(names) == 0 || names[0] != "localhost" {
		t.Errorf("handshake SNI = %v, want the configured hostname", names)
	}

	// The hello exchange must restart after the upgrade: STARTTLS
	// between the first and second EHLO.
	mu.Lock()
	defer mu.Unlock()
	var ehlos, starttls []int
	for i, line := range lines {
		if strings.HasPrefix(line, outboundLogPrefix+"EHLO ") {
			ehlos = append(ehlos, i)
		}
		if line == outboundLogPrefix+"STARTTLS" {
			starttls = append(starttls, i)
		}
	}
	if len(ehlos) != 2 || len(starttls) != 1 {
		t.Fatalf("dialogue had %d EHLO and %d STARTTLS commands, want 2 and 1", len(ehlos), len(starttls))
	}
	if !(ehlos[0] < starttls[0] && starttls[0] < ehlos[1]) {
		t.Errorf("command order wrong: EHLO@%d STARTTLS@%d EHLO@%d", ehlos[0], starttls[0], ehlos[1])
	}
}

func TestMailerStartTLSRejectedIfAvailable(t *testing.T) {
	server := startFixtureServer(t, fixtureOptions{})

	config := NewConfiguration(Server{
		Hostname:   "127.0.0.1",
		Port:       server.port(),
		Encryption: EncryptionStartTLS(StartTLSIfAvailable),
	})

	mailer, err := NewMailer(config)
	if err != nil {
		t.Fatalf("NewMailer failed: %v", err)
	}
	defer mailer.Close()

	delivery, err := mailer.Send(testEmail())
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := waitDelivery(t, delivery); err != nil {
		t.Fatalf("plaintext fallback delivery failed: %v", err)
	}

	if len(server.received()) != 1 {
		t.Errorf("server received %d messages, want 1", len(server.received()))
	}
}

func TestMailerStartTLSRejectedAlways(t *testing.T) {
	server := startFixtureServer(t, fixtureOptions{})

	config := NewConfiguration(Server{
		Hostname:   "127.0.0.1",
		Port:       server.port(),
		Encryption: EncryptionStartTLS(StartTLSAlways),
	})

	mailer, err := NewMailer(config)
	if err != nil {
		t.Fatalf("NewMailer failed: %v", err)
	}
	defer mailer.Close()

	delivery, err := mailer.Send(testEmail())
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := waitDelivery(t, delivery); !errors.Is(err, ErrTLSNotSupported) {
		t.Errorf("delivery error = %v, want ErrTLSNotSupported", err)
	}

	if len(server.received()) != 0 {
		t.Errorf("server received %d messages, want 0", len(server.received()))
	}
}
