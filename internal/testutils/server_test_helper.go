// internal/testutils/server_test_helper.go
package testutils

import (
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"

	"github.com/stickerworks/stickerd/internal/certmgr"
	"github.com/stickerworks/stickerd/internal/netid"
	"github.com/stickerworks/stickerd/internal/server"
	"github.com/stickerworks/stickerd/internal/trust"
)

// FixedIdentity returns a resolver pinned to one address, so tests are not
// at the mercy of the host's interface list.
func FixedIdentity(ip string) func() netid.Identity {
	return func() netid.Identity {
		return netid.Identity{IP: ip, Interface: "test0"}
	}
}

// SetupTestServer composes the Echo app over the certificate at certDir
// exactly the way main does, minus the TLS listener. Returns the configured
// Echo instance ready for httptest.
func SetupTestServer(t *testing.T, certDir string, renderer trust.QRRenderer) *echo.Echo {
	t.Helper()

	testLogger := zaptest.NewLogger(t)
	certPath := filepath.Join(certDir, "cert.pem")

	policy := certmgr.NewPolicy(certPath, 30, testLogger)
	surface := trust.NewSurface(certPath, 8443, policy, FixedIdentity("192.168.1.50"), renderer, 256, testLogger)

	e := echo.New()
	server.ApplyCommonMiddleware(e, testLogger)
	server.SetupRouter(e, surface)
	return e
}
