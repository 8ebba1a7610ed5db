// Package certmgr provisions and maintains the self-signed TLS identity of
// the service: the on-disk key/certificate pair, the reuse-or-regenerate
// policy, and the external tool that mints new material.
package certmgr

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/stickerworks/stickerd/internal/netid"
)

// Resolver yields the machine's current network identity. Matches
// netid.Resolve; injected so tests can pin an address.
type Resolver func() netid.Identity

// Manager orchestrates store, policy and generator into one idempotent
// "ensure a valid certificate is in place" operation, run once at startup.
//
// Single-writer constraint: there is no lock file or cross-process mutual
// exclusion. Two processes sharing one certificate directory and calling
// Ensure concurrently is undefined behavior and out of scope.
type Manager struct {
	store     *Store
	policy    *Policy
	generator Generator
	resolve   Resolver
	subjectCN string
	logger    *zap.Logger
}

// NewManager wires the lifecycle manager. subjectCN becomes both the
// certificate subject and its primary DNS alternative name.
func NewManager(store *Store, policy *Policy, generator Generator, resolve Resolver, subjectCN string, logger *zap.Logger) *Manager {
	return &Manager{
		store:     store,
		policy:    policy,
		generator: generator,
		resolve:   resolve,
		subjectCN: subjectCN,
		logger:    logger.With(zap.String("package", "certmgr")),
	}
}

// Ensure makes sure a usable certificate pair exists and returns its paths.
//
// Missing pair: generate. Existing pair: reuse when more than the renewal
// threshold remains; regenerate when expiring soon, expired, or unparsable.
// Calling Ensure twice in succession with no elapsed time and no file
// tampering returns the same paths and generates at most once.
func (m *Manager) Ensure(ctx context.Context) (keyPath, certPath string, err error) {
	keyPath, certPath = m.store.Paths()

	if m.store.Exists() {
		days := m.policy.DaysUntilExpiration()
		if !m.policy.NeedsRenewal() {
			m.logger.Info("reusing existing certificate",
				zap.String("cert_file", certPath),
				zap.Int("days_until_expiration", days))
			return keyPath, certPath, nil
		}
		if days < 0 {
			m.logger.Info("existing certificate is expired or unreadable, regenerating",
				zap.String("cert_file", certPath))
		} else {
			m.logger.Info("existing certificate is expiring soon, regenerating",
				zap.String("cert_file", certPath),
				zap.Int("days_until_expiration", days))
		}
	} else {
		m.logger.Info("no certificate pair found, generating", zap.String("cert_file", certPath))
	}

	if err := m.regenerate(ctx); err != nil {
		return "", "", err
	}
	return keyPath, certPath, nil
}

func (m *Manager) regenerate(ctx context.Context) error {
	identity := m.resolve()

	// Fixed SAN order: service hostname, localhost, loopback IP, then the
	// discovered network IP. On loopback fallback the last entry would
	// duplicate 127.0.0.1 and is omitted.
	sans := []SAN{
		{Kind: SANDNS, Value: m.subjectCN},
		{Kind: SANDNS, Value: "localhost"},
		{Kind: SANIP, Value: netid.Loopback},
	}
	if !identity.LoopbackFallback {
		sans = append(sans, SAN{Kind: SANIP, Value: identity.IP})
	}

	keyPEM, certPEM, err := m.generator.Generate(ctx, m.subjectCN, sans)
	if err != nil {
		return fmt.Errorf("certmgr: failed to generate certificate pair: %w", err)
	}
	if err := m.store.Persist(keyPEM, certPEM); err != nil {
		return err
	}
	return nil
}
