package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stickerworks/stickerd/internal/certmgr"
	"github.com/stickerworks/stickerd/internal/config"
	"github.com/stickerworks/stickerd/internal/netid"
	"github.com/stickerworks/stickerd/internal/server"
	"github.com/stickerworks/stickerd/internal/trust"
)

var logger *zap.Logger

func init() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(l)
	logger = l.With(zap.String("package", "main"))
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	logger.Info("stickerd starting...", zap.Any("configuration", cfg))

	store := certmgr.NewStore(cfg.KeyFile(), cfg.CertFile(), logger)
	policy := certmgr.NewPolicy(cfg.CertFile(), cfg.RenewalThresholdDays, logger)
	generator := certmgr.NewOpenSSLGenerator(cfg.OpenSSLBinary, cfg.ValidityDays, logger)
	manager := certmgr.NewManager(store, policy, generator, netid.Resolve, cfg.CommonName, logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.OpenSSLTimeoutSeconds)*time.Second)
	keyFile, certFile, err := manager.Ensure(ctx)
	cancel()
	if err != nil {
		var genErr *certmgr.GenerationError
		switch {
		case errors.Is(err, certmgr.ErrToolUnavailable):
			logger.Fatal("certificate tool unavailable; install openssl or point STICKERD_OPENSSL_BINARY at it", zap.Error(err))
		case errors.As(err, &genErr):
			logger.Fatal("certificate generation failed",
				zap.Int("exit_code", genErr.ExitCode),
				zap.String("stderr", genErr.Stderr),
				zap.Error(err))
		default:
			logger.Fatal("failed to ensure HTTPS certificates", zap.Error(err))
		}
	}

	var renderer trust.QRRenderer
	if cfg.QRDisabled {
		renderer = trust.NewNoopRenderer()
	} else {
		renderer = trust.NewQRRenderer()
	}
	surface := trust.NewSurface(certFile, cfg.ExternalPort, policy, netid.Resolve, renderer, cfg.QRSize, logger)

	e := echo.New()
	server.ApplyCommonMiddleware(e, logger)
	server.SetupRouter(e, surface)

	// Second, independent resolution. May disagree with the address baked
	// into the certificate if the network changed since generation.
	logger.Info("trust bootstrap URL", zap.String("url", surface.BootstrapURL()))

	logger.Info("listening on address", zap.String("address", cfg.HTTPSAddress))
	err = e.StartTLS(cfg.HTTPSAddress, certFile, keyFile)
	if err != nil {
		logger.Fatal("error starting HTTPS server", zap.Error(err), zap.String("address", cfg.HTTPSAddress))
		os.Exit(1)
	}
}
