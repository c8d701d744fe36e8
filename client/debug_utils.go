package client

import (
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// DebugCookies logs the cookies the browser holds for urlStr. Values are
// not logged.
func DebugCookies(bctx playwright.BrowserContext, urlStr string, log *zap.Logger) {
	cookies, err := bctx.Cookies(urlStr)
	if err != nil {
		log.Warn("read cookies", zap.String("url", urlStr), zap.Error(err))
		return
	}
	log.Info("cookies for site", zap.String("url", urlStr), zap.Int("count", len(cookies)))
	for _, c := range cookies {
		log.Debug("cookie", zap.String("name", c.Name), zap.String("domain", c.Domain))
	}
}
