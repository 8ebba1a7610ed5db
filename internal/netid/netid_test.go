package netid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stickerworks/stickerd/internal/netid"
)

func TestIsStrictIPv4(t *testing.T) {
	valid := []string{
		"0.0.0.0",
		"127.0.0.1",
		"192.168.1.50",
		"255.255.255.255",
		"10.0.0.1",
	}
	for _, addr := range valid {
		assert.True(t, netid.IsStrictIPv4(addr), "expected %q to be accepted", addr)
	}

	invalid := []string{
		"",
		"192.168.1",
		"192.168.1.1.1",
		"192.168.1.256",
		"192.168.1.-1",
		"192.168.1.1a",
		"fe80::1",
		"::1",
		"1.2.3.",
		".1.2.3",
		"1..2.3",
		"1.2.3.4444",
		"a.b.c.d",
		"192.168.1.1 ",
	}
	for _, addr := range invalid {
		assert.False(t, netid.IsStrictIPv4(addr), "expected %q to be rejected", addr)
	}
}

// Resolve runs against whatever interfaces the host actually has, so the
// test asserts the contract rather than a specific address: the result is
// always strictly valid IPv4, and a fallback is always exactly loopback.
func TestResolve_AlwaysYieldsValidIPv4(t *testing.T) {
	identity := netid.Resolve()

	assert.True(t, netid.IsStrictIPv4(identity.IP), "resolved address %q must pass strict IPv4 validation", identity.IP)
	if identity.LoopbackFallback {
		assert.Equal(t, netid.Loopback, identity.IP)
		assert.Empty(t, identity.Interface)
	} else {
		assert.NotEqual(t, netid.Loopback, identity.IP)
		assert.NotEmpty(t, identity.Interface)
	}
}

func TestResolve_IsFreshEachCall(t *testing.T) {
	// Two immediate resolutions with a stable network must agree; this also
	// documents that no caching layer sits between the call sites.
	first := netid.Resolve()
	second := netid.Resolve()
	assert.Equal(t, first, second)
}
