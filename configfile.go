package carrier

import (
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML form of a Configuration.
type fileConfig struct {
	Server            fileServer       `yaml:"server"`
	ConnectionTimeout string           `yaml:"connection_timeout"`
	Credentials       *fileCredentials `yaml:"credentials"`
	Features          fileFeatures     `yaml:"features"`
}

type fileServer struct {
	Hostname     string `yaml:"hostname"`
	Port         int    `yaml:"port"`
	Encryption   string `yaml:"encryption"`
	StartTLSMode string `yaml:"starttls_mode"`
}

type fileCredentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type fileFeatures struct {
	UseESMTP                bool `yaml:"use_esmtp"`
	Base64EncodeAllMessages bool `yaml:"base64_encode_all_messages"`
	MaxBase64LineLength64   bool `yaml:"max_base64_line_length_64"`
	MaxBase64LineLength76   bool `yaml:"max_base64_line_length_76"`
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		Server:            fileServer{Encryption: "plain", StartTLSMode: "always"},
		ConnectionTimeout: "60s",
	}
}

// LoadConfigurationFile loads a Configuration from a YAML file. Values
// absent from the file fall back to the defaults (plaintext encryption,
// the encryption's default port, a 60 second connection timeout).
//
//	server:
//	  hostname: smtp.example.com
//	  encryption: starttls        # plain | ssl | starttls
//	  starttls_mode: always       # always | if_available
//	connection_timeout: 30s
//	credentials:
//	  username: user
//	  password: pass
//	features:
//	  use_esmtp: true
func LoadConfigurationFile(path string) (Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, fmt.Errorf("smtp: failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Configuration{}, fmt.Errorf("smtp: failed to parse config file: %w", err)
	}

	// Fill fields the file left unset from the defaults.
	if err := mergo.Merge(&fc, defaultFileConfig()); err != nil {
		return Configuration{}, fmt.Errorf("smtp: failed to apply config defaults: %w", err)
	}

	return fc.toConfiguration()
}

func (fc fileConfig) toConfiguration() (Configuration, error) {
	encryption, err := parseEncryption(fc.Server.Encryption, fc.Server.StartTLSMode)
	if err != nil {
		return Configuration{}, err
	}

	timeout, err := time.ParseDuration(fc.ConnectionTimeout)
	if err != nil {
		return Configuration{}, fmt.Errorf("smtp: invalid connection_timeout %q: %w", fc.ConnectionTimeout, err)
	}

	config := Configuration{
		Server: Server{
			Hostname:   fc.Server.Hostname,
			Port:       fc.Server.Port,
			Encryption: encryption,
		},
		ConnectionTimeout: timeout,
	}
	if fc.Credentials != nil {
		config.Credentials = &Credentials{
			Username: fc.Credentials.Username,
			Password: fc.Credentials.Password,
		}
	}

	if fc.Features.UseESMTP {
		config.Features |= UseESMTP
	}
	if fc.Features.Base64EncodeAllMessages {
		config.Features |= Base64EncodeAllMessages
	}
	if fc.Features.MaxBase64LineLength64 {
		config.Features |= MaxBase64LineLength64
	}
	if fc.Features.MaxBase64LineLength76 {
		config.Features |= MaxBase64LineLength76
	}

	if err := config.Validate(); err != nil {
		return Configuration{}, err
	}
	return config, nil
}

func parseEncryption(encryption, mode string) (Encryption, error) {
	switch encryption {
	case "plain":
		return EncryptionPlain(), nil
	case "ssl":
		return EncryptionSSL(), nil
	case "starttls":
		switch mode {
		case "always":
			return EncryptionStartTLS(StartTLSAlways), nil
		case "if_available":
			return EncryptionStartTLS(StartTLSIfAvailable), nil
		default:
			return Encryption{}, fmt.Errorf("smtp: unknown starttls_mode %q", mode)
		}
	default:
		return Encryption{}, fmt.Errorf("smtp: unknown encryption %q", encryption)
	}
}
