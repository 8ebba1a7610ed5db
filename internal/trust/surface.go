// Package trust is the minimal surface a client device needs to install and
// trust the service's self-signed certificate: the raw certificate bytes and
// a machine-reachable URL, optionally rendered as a scannable QR code.
package trust

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/stickerworks/stickerd/internal/certmgr"
	"github.com/stickerworks/stickerd/internal/netid"
)

// Surface exposes read-only trust-bootstrap operations to the HTTP layer.
// It never writes certificate files; the lifecycle manager owns those.
type Surface struct {
	certPath     string
	externalPort int
	policy       *certmgr.Policy
	resolve      func() netid.Identity
	renderer     QRRenderer
	qrSize       int
	logger       *zap.Logger
}

// NewSurface builds the trust surface over the certificate at certPath.
// externalPort is the port client devices dial when following the bootstrap
// URL; renderer may be the unavailable variant.
func NewSurface(certPath string, externalPort int, policy *certmgr.Policy, resolve func() netid.Identity, renderer QRRenderer, qrSize int, logger *zap.Logger) *Surface {
	return &Surface{
		certPath:     certPath,
		externalPort: externalPort,
		policy:       policy,
		resolve:      resolve,
		renderer:     renderer,
		qrSize:       qrSize,
		logger:       logger.With(zap.String("package", "trust")),
	}
}

// CertificateBytes returns the raw PEM bytes of the certificate file. A
// missing file (deleted after startup) satisfies errors.Is(err,
// os.ErrNotExist) so the HTTP layer can answer not-found instead of crashing.
func (s *Surface) CertificateBytes() ([]byte, error) {
	data, err := os.ReadFile(s.certPath)
	if err != nil {
		return nil, fmt.Errorf("trust: failed to read certificate file: %w", err)
	}
	return data, nil
}

// BootstrapURL returns the HTTPS URL a device on the local network should
// open to reach this service. The address is resolved fresh on every call
// and may differ from the one embedded in the certificate if the network
// changed since generation; that is accepted behavior.
func (s *Surface) BootstrapURL() string {
	identity := s.resolve()
	return fmt.Sprintf("https://%s:%d", identity.IP, s.externalPort)
}

// Payload is the JSON body of the QR endpoint. QR is empty (and omitted)
// when no renderer is available; the URL alone is still usable.
type Payload struct {
	URL string `json:"url"`
	QR  string `json:"qr,omitempty"`
}

// QRPayload returns the bootstrap URL together with an embeddable QR image
// for it. Renderer unavailability degrades to a URL-only payload; any other
// rendering failure is surfaced.
func (s *Surface) QRPayload() (Payload, error) {
	url := s.BootstrapURL()
	qr, err := s.renderer.Render(url, s.qrSize)
	if err != nil {
		if errors.Is(err, ErrRendererUnavailable) {
			return Payload{URL: url}, nil
		}
		return Payload{}, err
	}
	return Payload{URL: url, QR: qr}, nil
}

// Status describes the current certificate for diagnostics.
type Status struct {
	Subject             string    `json:"subject"`
	Fingerprint         string    `json:"fingerprint"`
	NotBefore           time.Time `json:"not_before"`
	NotAfter            time.Time `json:"not_after"`
	DaysUntilExpiration int       `json:"days_until_expiration"`
	NeedsRenewal        bool      `json:"needs_renewal"`
	SubjectAlternatives []string  `json:"subject_alternatives"`
}

// CertificateStatus parses the stored certificate and reports its identity
// and validity window.
func (s *Surface) CertificateStatus() (Status, error) {
	data, err := s.CertificateBytes()
	if err != nil {
		return Status{}, err
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return Status{}, errors.New("trust: certificate file contains no CERTIFICATE PEM block")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return Status{}, fmt.Errorf("trust: failed to parse certificate: %w", err)
	}

	sum := sha256.Sum256(cert.Raw)
	alts := make([]string, 0, len(cert.DNSNames)+len(cert.IPAddresses))
	alts = append(alts, cert.DNSNames...)
	for _, ip := range cert.IPAddresses {
		alts = append(alts, ip.String())
	}

	return Status{
		Subject:             cert.Subject.String(),
		Fingerprint:         "sha256:" + hex.EncodeToString(sum[:]),
		NotBefore:           cert.NotBefore,
		NotAfter:            cert.NotAfter,
		DaysUntilExpiration: s.policy.DaysUntilExpiration(),
		NeedsRenewal:        s.policy.NeedsRenewal(),
		SubjectAlternatives: alts,
	}, nil
}
