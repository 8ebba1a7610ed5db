package certmgr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// SANKind distinguishes DNS from IP subject alternative names.
type SANKind string

const (
	SANDNS SANKind = "DNS"
	SANIP  SANKind = "IP"
)

// SAN is one subject alternative name entry. Order matters to callers; the
// generator preserves the order it is given.
type SAN struct {
	Kind  SANKind
	Value string
}

func (s SAN) String() string {
	return string(s.Kind) + ":" + s.Value
}

// Generator produces a new self-signed key/certificate pair bound to a
// subject and a set of alternative names.
type Generator interface {
	Generate(ctx context.Context, subjectCN string, sans []SAN) (keyPEM, certPEM []byte, err error)
}

// OpenSSLGenerator mints key material by invoking the openssl binary as a
// subprocess. Arguments are always passed as a discrete argv, never through
// a shell, so interpolated subject and SAN values cannot inject commands.
type OpenSSLGenerator struct {
	binary       string
	validityDays int
	logger       *zap.Logger
}

// NewOpenSSLGenerator creates a generator using the given openssl binary
// name or path. validityDays becomes the -days argument of each invocation.
func NewOpenSSLGenerator(binary string, validityDays int, logger *zap.Logger) *OpenSSLGenerator {
	return &OpenSSLGenerator{
		binary:       binary,
		validityDays: validityDays,
		logger:       logger.With(zap.String("package", "certmgr")),
	}
}

// Generate runs one openssl invocation producing an unencrypted 2048-bit RSA
// key and a self-signed X.509v3 certificate, then reads both back. The
// subprocess inherits ctx, so the caller controls timeout and cancellation.
//
// Failure taxonomy: a missing or unexecutable binary yields
// ErrToolUnavailable; a non-zero exit or unreadable output yields a
// *GenerationError carrying the exit code and a stderr excerpt.
func (g *OpenSSLGenerator) Generate(ctx context.Context, subjectCN string, sans []SAN) (keyPEM, certPEM []byte, err error) {
	binary, err := exec.LookPath(g.binary)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %q not found in PATH (install openssl or set STICKERD_OPENSSL_BINARY)", ErrToolUnavailable, g.binary)
	}

	workDir, err := os.MkdirTemp("", "stickerd-certgen-*")
	if err != nil {
		return nil, nil, fmt.Errorf("certmgr: failed to create generation scratch directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	keyOut := filepath.Join(workDir, "key.pem")
	certOut := filepath.Join(workDir, "cert.pem")

	altNames := make([]string, 0, len(sans))
	for _, san := range sans {
		altNames = append(altNames, san.String())
	}

	args := []string{
		"req", "-x509", "-new", "-nodes",
		"-newkey", "rsa:2048",
		"-keyout", keyOut,
		"-out", certOut,
		"-days", strconv.Itoa(g.validityDays),
		"-sha256",
		"-subj", "/CN=" + subjectCN,
		"-addext", "subjectAltName=" + strings.Join(altNames, ","),
	}

	g.logger.Info("generating self-signed certificate",
		zap.String("subject_cn", subjectCN),
		zap.Strings("sans", altNames),
		zap.Int("validity_days", g.validityDays))

	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, nil, &GenerationError{ExitCode: -1, Stderr: stderrExcerpt(&stderr), Err: ctx.Err()}
		}
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return nil, nil, &GenerationError{ExitCode: exitCode, Stderr: stderrExcerpt(&stderr), Err: err}
	}

	keyPEM, err = os.ReadFile(keyOut)
	if err != nil {
		return nil, nil, &GenerationError{Err: fmt.Errorf("tool exited cleanly but key output is unreadable: %w", err)}
	}
	certPEM, err = os.ReadFile(certOut)
	if err != nil {
		return nil, nil, &GenerationError{Err: fmt.Errorf("tool exited cleanly but certificate output is unreadable: %w", err)}
	}
	return keyPEM, certPEM, nil
}

// stderrExcerpt trims openssl's often chatty stderr to a single loggable line.
func stderrExcerpt(buf *bytes.Buffer) string {
	s := strings.TrimSpace(buf.String())
	const limit = 512
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return strings.ReplaceAll(s, "\n", " | ")
}
