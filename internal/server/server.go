package server

import (
	"errors"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/stickerworks/stickerd/internal/trust"
)

const pemContentType = "application/x-pem-file"

// ApplyCommonMiddleware applies essential middleware to an Echo instance and
// places a request-scoped logger into the context.
func ApplyCommonMiddleware(e *echo.Echo, baseLogger *zap.Logger) {
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			c.Set("logger", baseLogger.With(zap.String("request_id", reqID)))
			return next(c)
		}
	})
}

// SetupRouter defines the trust-bootstrap routes.
func SetupRouter(e *echo.Echo, surface *trust.Surface) {
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "stickerd is running")
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	// Certificate download for device-level trust installation. Must stay
	// unauthenticated: the client has no trust anchor yet.
	e.GET("/certs/cert.pem", handleCertDownload(surface))

	apiGroup := e.Group("/api")
	apiGroup.GET("/qr", handleQR(surface))
	apiGroup.GET("/status", handleStatus(surface))
}

func handleCertDownload(surface *trust.Surface) echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := surface.CertificateBytes()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return echo.NewHTTPError(http.StatusNotFound, "certificate not found")
			}
			requestLogger(c).Error("failed to read certificate for download", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to read certificate")
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="cert.pem"`)
		return c.Blob(http.StatusOK, pemContentType, data)
	}
}

func handleQR(surface *trust.Surface) echo.HandlerFunc {
	return func(c echo.Context) error {
		payload, err := surface.QRPayload()
		if err != nil {
			requestLogger(c).Error("failed to build QR payload", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to build QR payload")
		}
		return c.JSON(http.StatusOK, payload)
	}
}

func handleStatus(surface *trust.Surface) echo.HandlerFunc {
	return func(c echo.Context) error {
		status, err := surface.CertificateStatus()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return echo.NewHTTPError(http.StatusNotFound, "certificate not found")
			}
			requestLogger(c).Error("failed to read certificate status", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to read certificate status")
		}
		return c.JSON(http.StatusOK, status)
	}
}

func requestLogger(c echo.Context) *zap.Logger {
	if l, ok := c.Get("logger").(*zap.Logger); ok {
		return l
	}
	return zap.L()
}
