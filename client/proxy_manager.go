package client

import (
	"bufio"
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// ProxyManager loads a proxy list and hands out one proxy per run.
type ProxyManager struct {
	proxies      []string
	currentIndex int
	mu           sync.Mutex
	random       *rand.Rand

	// Sticky session: reuses the same proxy URL until explicitly rotated.
	// The browser and the preflight probe must leave from the same IP.
	stickyURL string
}

// NewProxyManager creates a new ProxyManager.
func NewProxyManager() *ProxyManager {
	return &ProxyManager{
		proxies: []string{},
		random:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// LoadProxies loads proxies from a file (one per line, # comments).
// Format: scheme://ip:port or scheme://user:pass@ip:port
func (pm *ProxyManager) LoadProxies(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var loaded []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if u, err := url.Parse(line); err == nil && u.Host != "" {
			loaded = append(loaded, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.proxies = loaded
	pm.currentIndex = 0
	pm.stickyURL = ""
	pm.random.Shuffle(len(pm.proxies), func(i, j int) {
		pm.proxies[i], pm.proxies[j] = pm.proxies[j], pm.proxies[i]
	})
	return len(pm.proxies), nil
}

// HasProxies returns true if any proxy was loaded.
func (pm *ProxyManager) HasProxies() bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return len(pm.proxies) > 0
}

// GetSticky returns the same proxy URL until RotateSticky() is called,
// or "" when no proxies are loaded.
func (pm *ProxyManager) GetSticky() string {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.stickyURL != "" {
		return pm.stickyURL
	}
	if len(pm.proxies) > 0 {
		pm.stickyURL = pm.proxies[pm.currentIndex]
		pm.currentIndex = (pm.currentIndex + 1) % len(pm.proxies)
	}
	return pm.stickyURL
}

// RotateSticky clears the sticky proxy so the next GetSticky() call picks a new one.
func (pm *ProxyManager) RotateSticky() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.stickyURL = ""
}

// Describe returns a human-readable label for the sticky proxy.
func (pm *ProxyManager) Describe() string {
	pm.mu.Lock()
	sticky := pm.stickyURL
	pm.mu.Unlock()
	if sticky == "" {
		return "DIRECT (no proxy)"
	}
	return fmt.Sprintf("Proxy (%s)", MaskProxy(sticky))
}

// MaskProxy hides the password of a proxy URL for logging.
func MaskProxy(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid proxy>"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
