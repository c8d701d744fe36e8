package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cult-booker/booking"
	"cult-booker/client"
	"cult-booker/config"
	"cult-booker/diag"
)

func newLogger(level string) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return logger
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:], ".env", os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}

	runID := uuid.NewString()
	logger := newLogger(cfg.LogLevel).With(zap.String("run_id", runID))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	overrides, err := config.LoadOverrides(cfg.LandmarksFile)
	if err != nil {
		logger.Error("landmark overrides", zap.Error(err))
		return 2
	}
	lm := booking.DefaultLandmarks().Merge(overrides.Landmarks)

	headless := cfg.Headless && !cfg.Login
	mode := "headed"
	if headless {
		mode = "headless"
	}
	if cfg.Login {
		mode = "login"
	}
	report := &client.RunReport{
		RunID:         runID,
		StartedAt:     time.Now(),
		Center:        cfg.Center,
		Time:          cfg.Time,
		ExecutionMode: mode,
	}
	finish := func(res *booking.Report, runErr error) {
		report.Record(res, runErr)
		report.Duration = time.Since(report.StartedAt)
		client.PrintRunReport(os.Stdout, report)
		if cfg.ReportFile != "" {
			if err := client.WriteStructuredLog(report, cfg.ReportFile); err != nil {
				logger.Warn("write run log", zap.Error(err))
			}
		}
	}

	// 1. Network identity: one proxy and one user agent for the whole run
	pm := client.NewProxyManager()
	if cfg.ProxiesFile != "" {
		n, err := pm.LoadProxies(cfg.ProxiesFile)
		if err != nil {
			logger.Error("load proxies", zap.Error(err))
			return 2
		}
		logger.Info("proxies loaded", zap.Int("count", n))
	}
	proxyURL := pm.GetSticky()
	report.Network = pm.Describe()

	fm := client.NewFingerprintManager()
	var userAgent string
	if cfg.UserAgentsFile != "" {
		n, err := fm.LoadUserAgents(cfg.UserAgentsFile)
		if err != nil {
			logger.Error("load user agents", zap.Error(err))
			return 2
		}
		logger.Info("user agents loaded", zap.Int("count", n))
		userAgent = fm.GetRandomUserAgent()
	}
	report.UserAgent = userAgent

	// 2. Optional precise wake
	if cfg.At != "" && !cfg.Login {
		target, err := client.NextOccurrence(time.Now(), cfg.At)
		if err != nil {
			logger.Error("schedule", zap.Error(err))
			return 2
		}
		logger.Info("waiting for booking window", zap.Time("wake_at", target))
		scheduler := client.NewScheduler()
		drift, err := scheduler.SleepUntil(ctx, target)
		if err != nil {
			logger.Info("stopped by user before the booking window")
			return 130
		}
		scheduler.LogDrift(logger, drift)
		report.WakeTarget, report.WakeDrift = target, drift
	}

	// 3. Optional preflight
	if cfg.Preflight && !cfg.Login {
		prober := client.NewProber(client.ProberOptions{
			ProxyURL:  proxyURL,
			UserAgent: userAgent,
			Headers:   fm.GetRandomHeaders(),
			Safety:    client.NewSafetyManager().WithLogger(logger),
		})
		res, err := prober.Probe(ctx, lm.BookingURL)
		report.Probe = res
		if err == nil {
			err = prober.Safety().Err()
		}
		switch {
		case err != nil && !cfg.Force:
			logger.Error("preflight refused, not launching the browser", zap.Error(err))
			finish(nil, err)
			return 1
		case err != nil:
			logger.Warn("preflight refused, continuing because of -force", zap.Error(err))
		case res.Error != "":
			logger.Warn("preflight could not reach the site", zap.String("error", res.Error))
		default:
			logger.Info("preflight ok",
				zap.Int("status", res.StatusCode),
				zap.Duration("ttfb", res.GotFirstResponseByte))
		}
	}

	// 4. Browser
	b, err := client.LaunchBrowser(client.BrowserOptions{
		ProfileDir: cfg.ProfileDir,
		Headless:   headless,
		SlowMo:     cfg.SlowMo,
		ProxyURL:   proxyURL,
		UserAgent:  userAgent,
		Timeout:    cfg.ActionTimeout,
		Install:    cfg.Install,
	}, logger)
	if err != nil {
		logger.Error("launch browser", zap.Error(err))
		finish(nil, err)
		return 1
	}
	defer b.Close()

	if cfg.Login {
		if err := client.Login(ctx, b, lm, cfg.LoginWait, logger); err != nil {
			logger.Error("login mode", zap.Error(err))
			return 1
		}
		logger.Info("session saved", zap.String("profile", cfg.ProfileDir))
		return 0
	}

	// 5. Booking flow
	sink, err := diag.NewFileSink(cfg.DiagnosticsDir, lm, cfg.Time, logger)
	if err != nil {
		logger.Error("diagnostics", zap.Error(err))
		return 1
	}
	page := client.NewPlaywrightPage(b.Page)
	ctrl, err := booking.NewController(page, booking.Options{
		Sink:      sink,
		Logger:    logger,
		Landmarks: overrides.Landmarks,
		Timings:   overrides.Timings,
	})
	if err != nil {
		logger.Error("booking controller", zap.Error(err))
		return 1
	}

	res, runErr := ctrl.Run(ctx, booking.Request{Center: cfg.Center, Time: cfg.Time})
	interrupted := errors.Is(runErr, context.Canceled)
	switch {
	case interrupted:
		logger.Info("operation stopped by user, session is kept")
	case runErr != nil:
		logger.Error("booking run failed", zap.Error(runErr))
		if err := booking.CaptureDiagnostic(page, sink, booking.DiagErrorCapture); err != nil {
			logger.Warn("error capture", zap.Error(err))
		}
	}
	finish(res, runErr)

	if !headless && !interrupted {
		logger.Info("process finished, closing browser", zap.Duration("in", cfg.HoldOpen))
		hold := time.NewTimer(cfg.HoldOpen)
		select {
		case <-ctx.Done():
			hold.Stop()
		case <-hold.C:
		}
	}

	switch {
	case interrupted:
		return 130
	case runErr != nil:
		return 1
	}
	return 0
}
