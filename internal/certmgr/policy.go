package certmgr

import (
	"crypto/x509"
	"encoding/pem"
	"math"
	"os"
	"time"

	"go.uber.org/zap"
)

// Policy decides whether an existing certificate should be reused or
// regenerated, based on how close it is to expiry.
type Policy struct {
	certPath      string
	thresholdDays int
	now           func() time.Time
	logger        *zap.Logger
}

// NewPolicy creates an expiration policy over the certificate at certPath.
// thresholdDays is the renew-ahead window: a certificate within that many
// days of expiry is regenerated early, so a long-lived device that restarts
// rarely does not cross expiry between two restarts.
func NewPolicy(certPath string, thresholdDays int, logger *zap.Logger) *Policy {
	return &Policy{
		certPath:      certPath,
		thresholdDays: thresholdDays,
		now:           time.Now,
		logger:        logger.With(zap.String("package", "certmgr")),
	}
}

// DaysUntilExpiration returns floor((notAfter - now) / 24h) for the stored
// certificate. It returns -1 when the file cannot be read or parsed; the
// sentinel is deliberately indistinguishable from "expired today", which is
// safe because both outcomes trigger regeneration.
func (p *Policy) DaysUntilExpiration() int {
	data, err := os.ReadFile(p.certPath)
	if err != nil {
		p.logger.Warn("could not read certificate for expiry check", zap.String("cert_file", p.certPath), zap.Error(err))
		return -1
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		p.logger.Warn("certificate file contains no CERTIFICATE PEM block", zap.String("cert_file", p.certPath))
		return -1
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		p.logger.Warn("could not parse certificate for expiry check", zap.String("cert_file", p.certPath), zap.Error(err))
		return -1
	}

	remaining := cert.NotAfter.Sub(p.now())
	return int(math.Floor(remaining.Hours() / 24))
}

// NeedsRenewal reports whether the stored certificate is expired, unreadable,
// or within the renew-ahead window (boundary inclusive: exactly thresholdDays
// left still renews).
func (p *Policy) NeedsRenewal() bool {
	days := p.DaysUntilExpiration()
	return days < 0 || days <= p.thresholdDays
}
