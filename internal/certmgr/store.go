package certmgr

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Store owns the on-disk key/certificate pair. No other component writes to
// these files; the HTTPS listener and the trust surface only read.
type Store struct {
	keyPath  string
	certPath string
	logger   *zap.Logger
}

// NewStore creates a store over the given key and certificate paths.
func NewStore(keyPath, certPath string, logger *zap.Logger) *Store {
	return &Store{
		keyPath:  keyPath,
		certPath: certPath,
		logger:   logger.With(zap.String("package", "certmgr")),
	}
}

// Paths returns the key and certificate file paths. Pure and deterministic.
func (s *Store) Paths() (keyPath, certPath string) {
	return s.keyPath, s.certPath
}

// Exists reports whether both the key and the certificate file are present.
// The two paths are checked independently: a partial pair (one file missing
// after an interrupted write) reads as "missing" and triggers regeneration.
// No content validation happens here; an unparsable certificate is caught by
// the expiration policy instead.
func (s *Store) Exists() bool {
	if _, err := os.Stat(s.keyPath); err != nil {
		return false
	}
	if _, err := os.Stat(s.certPath); err != nil {
		return false
	}
	return true
}

// Persist writes a freshly generated pair, creating the base directory if
// absent. The private key file ends up owner read/write only; the chmod runs
// on every generation, including regeneration over an existing file, so a
// key is never left group- or world-readable.
func (s *Store) Persist(keyPEM, certPEM []byte) error {
	dir := filepath.Dir(s.certPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("certmgr: failed to create certificate directory %s: %w", dir, err)
	}

	if err := os.WriteFile(s.certPath, certPEM, 0644); err != nil {
		return fmt.Errorf("certmgr: failed to write certificate file: %w", err)
	}
	if err := os.WriteFile(s.keyPath, keyPEM, 0600); err != nil {
		return fmt.Errorf("certmgr: failed to write private key file: %w", err)
	}
	// WriteFile's mode only applies on create; tighten an existing file too.
	if err := os.Chmod(s.keyPath, 0600); err != nil {
		return fmt.Errorf("certmgr: failed to restrict private key permissions: %w", err)
	}

	s.logger.Info("persisted certificate pair",
		zap.String("key_file", s.keyPath),
		zap.String("cert_file", s.certPath))
	return nil
}
