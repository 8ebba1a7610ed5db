package certmgr

import "time"

// WithNow pins the policy clock so boundary arithmetic is deterministic in
// tests. Only compiled into the test binary.
func (p *Policy) WithNow(now func() time.Time) {
	p.now = now
}
