// Package netid discovers the machine's reachable IPv4 identity for
// embedding in certificate metadata and bootstrap URLs.
package netid

import (
	"net"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Loopback is the address reported when no usable interface exists.
const Loopback = "127.0.0.1"

// Identity is the outcome of one resolution. LoopbackFallback is set when no
// non-loopback IPv4 interface qualified and the loopback address was
// substituted; callers decide whether that deserves a warning or an alert.
type Identity struct {
	IP               string
	Interface        string
	LoopbackFallback bool
}

// Resolve enumerates the local network interfaces and returns the first
// non-loopback IPv4 address, in the enumeration order the platform reports.
// Addresses that fail strict dotted-quad validation are skipped; the OS is
// not trusted to only report well-formed strings.
//
// Resolution is fresh on every call. Two call sites within one process run
// may observe different addresses if the network changed in between (DHCP
// lease change); that is accepted behavior, not reconciled here.
//
// Resolve never fails: with no qualifying interface it returns 127.0.0.1
// with LoopbackFallback set and logs a warning, since an offline or
// local-only deployment is an expected mode.
func Resolve() Identity {
	logger := zap.L().With(zap.String("package", "netid"))

	ifaces, err := net.Interfaces()
	if err != nil {
		logger.Warn("failed to enumerate network interfaces, remote devices will not be able to reach this machine", zap.Error(err))
		return Identity{IP: Loopback, LoopbackFallback: true}
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipNet.IP.To4()
			if ip == nil || ip.IsLoopback() {
				continue
			}
			if !IsStrictIPv4(ip.String()) {
				continue
			}
			return Identity{IP: ip.String(), Interface: iface.Name}
		}
	}

	logger.Warn("no non-loopback IPv4 interface found, falling back to loopback; remote devices will not be able to reach this machine",
		zap.String("fallback", Loopback))
	return Identity{IP: Loopback, LoopbackFallback: true}
}

// IsStrictIPv4 reports whether s is exactly four dot-separated decimal
// octets, each in [0,255], with no leading/trailing garbage. Stricter than
// net.ParseIP, which also accepts IPv6 and some shorthand forms.
func IsStrictIPv4(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		if part == "" || len(part) > 3 {
			return false
		}
		for i := 0; i < len(part); i++ {
			if part[i] < '0' || part[i] > '9' {
				return false
			}
		}
		n, err := strconv.Atoi(part)
		if err != nil || n > 255 {
			return false
		}
	}
	return true
}
