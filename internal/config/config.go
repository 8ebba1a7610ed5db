package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	CertDir               string // Directory holding the TLS key/certificate pair
	CommonName            string // Common Name (and primary DNS SAN) for the service certificate
	ValidityDays          int    // Validity period of a freshly generated certificate in days
	RenewalThresholdDays  int    // Regenerate when this many days (or fewer) remain before expiry
	HTTPSAddress          string // The address to listen on for HTTPS
	ExternalPort          int    // Port client devices dial; used to build the bootstrap URL
	OpenSSLBinary         string // Name or path of the openssl binary
	OpenSSLTimeoutSeconds int    // Upper bound on a single openssl invocation
	QRSize                int    // QR code edge length in pixels
	QRDisabled            bool   // Disable QR rendering; bootstrap responses carry the URL only
}

const (
	defaultCertDir               = "./certs"
	defaultCommonName            = "sticker.local"
	defaultValidityDays          = 365
	defaultRenewalThresholdDays  = 30
	defaultHTTPSAddress          = ":8443"
	defaultExternalPort          = 8443
	defaultOpenSSLBinary         = "openssl"
	defaultOpenSSLTimeoutSeconds = 60
	defaultQRSize                = 256
)

// LoadConfig loads the service configuration from environment variables or defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		CertDir:               getEnv("STICKERD_CERT_DIR", defaultCertDir),
		CommonName:            getEnv("STICKERD_COMMON_NAME", defaultCommonName),
		ValidityDays:          getEnvAsInt("STICKERD_VALIDITY_DAYS", defaultValidityDays),
		RenewalThresholdDays:  getEnvAsInt("STICKERD_RENEWAL_THRESHOLD_DAYS", defaultRenewalThresholdDays),
		HTTPSAddress:          getEnv("STICKERD_HTTPS_ADDRESS", defaultHTTPSAddress),
		ExternalPort:          getEnvAsInt("STICKERD_EXTERNAL_PORT", defaultExternalPort),
		OpenSSLBinary:         getEnv("STICKERD_OPENSSL_BINARY", defaultOpenSSLBinary),
		OpenSSLTimeoutSeconds: getEnvAsInt("STICKERD_OPENSSL_TIMEOUT_SECONDS", defaultOpenSSLTimeoutSeconds),
		QRSize:                getEnvAsInt("STICKERD_QR_SIZE", defaultQRSize),
		QRDisabled:            getEnvAsBool("STICKERD_QR_DISABLED", false),
	}
	return cfg, nil
}

// KeyFile returns the path of the private key file inside CertDir.
func (c *Config) KeyFile() string {
	return filepath.Join(c.CertDir, "key.pem")
}

// CertFile returns the path of the certificate file inside CertDir.
func (c *Config) CertFile() string {
	return filepath.Join(c.CertDir, "cert.pem")
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s (%s), using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s (%s), using default: %t", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
