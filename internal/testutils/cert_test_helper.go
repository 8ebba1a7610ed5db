// internal/testutils/cert_test_helper.go
package testutils

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/stickerworks/stickerd/internal/certmgr"
)

// SelfSignedPEM builds a throwaway self-signed certificate pair in memory
// with the given subject and validity end. Used to seed stores and policies
// without shelling out to openssl.
func SelfSignedPEM(t *testing.T, commonName string, notAfter time.Time, sans []certmgr.SAN) (keyPEM, certPEM []byte) {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate test key: %v", err)
	}
	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		t.Fatalf("failed to generate test serial: %v", err)
	}

	template := x509.Certificate{
		SerialNumber:          serialNumber,
		Subject:               pkix.Name{CommonName: commonName},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, san := range sans {
		switch san.Kind {
		case certmgr.SANDNS:
			template.DNSNames = append(template.DNSNames, san.Value)
		case certmgr.SANIP:
			template.IPAddresses = append(template.IPAddresses, net.ParseIP(san.Value))
		}
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("failed to create test certificate: %v", err)
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: derBytes})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})
	return keyPEM, certPEM
}

// StubGenerator satisfies certmgr.Generator without invoking any subprocess.
// It mints real parseable certificates (so the expiration policy can read
// them back) and counts invocations so idempotency can be asserted.
type StubGenerator struct {
	T        *testing.T
	NotAfter time.Time
	Err      error

	Calls       int
	LastSubject string
	LastSANs    []certmgr.SAN
}

func (g *StubGenerator) Generate(_ context.Context, subjectCN string, sans []certmgr.SAN) ([]byte, []byte, error) {
	g.Calls++
	g.LastSubject = subjectCN
	g.LastSANs = sans
	if g.Err != nil {
		return nil, nil, g.Err
	}
	keyPEM, certPEM := SelfSignedPEM(g.T, subjectCN, g.NotAfter, sans)
	return keyPEM, certPEM, nil
}
