package certmgr

import (
	"errors"
	"fmt"
)

// ErrToolUnavailable indicates the external certificate tool could not be
// found or executed at all. Startup should abort with a remediation hint.
var ErrToolUnavailable = errors.New("certmgr: certificate generation tool unavailable")

// GenerationError indicates the external tool ran but failed: non-zero exit,
// or output that could not be read back. Fatal to the generation attempt.
type GenerationError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("certmgr: certificate generation failed (exit %d): %s", e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("certmgr: certificate generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
