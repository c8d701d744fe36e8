package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"cult-booker/booking"
)

// Login opens the home page in a headed browser and gives the operator
// wait (or until ctx is cancelled) to sign in by hand. The persistent
// profile keeps the session for later runs.
func Login(ctx context.Context, b *Browser, lm booking.Landmarks, wait time.Duration, log *zap.Logger) error {
	log.Info("opening home page for manual login", zap.String("url", lm.HomeURL))
	if _, err := b.Page.Goto(lm.HomeURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	}); err != nil {
		return fmt.Errorf("open home page: %w", err)
	}

	icon := b.Page.Locator(lm.ProfileIcon).First()
	if ok, _ := icon.IsVisible(); !ok {
		log.Info("profile icon not found, open the login menu by hand")
	} else if err := icon.Click(); err != nil {
		log.Info("profile icon click failed, open the login menu by hand", zap.Error(err))
	} else {
		log.Info("clicked profile icon, enter phone number and OTP")
	}

	log.Info("waiting for manual login, press Ctrl+C when done", zap.Duration("max_wait", wait))
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		if !errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		log.Info("login wait interrupted")
	case <-timer.C:
		log.Info("login wait elapsed")
	}

	DebugCookies(b.Context, lm.HomeURL, log)
	return nil
}
