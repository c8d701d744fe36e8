package client

import (
	"bufio"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"
)

// FingerprintManager picks the user agent for a run and the matching
// browser-like headers for the preflight probe.
type FingerprintManager struct {
	userAgents []string
	mu         sync.Mutex
	random     *rand.Rand
}

// NewFingerprintManager creates a new FingerprintManager.
func NewFingerprintManager() *FingerprintManager {
	return &FingerprintManager{
		userAgents: []string{
			// Default fallback
			defaultUserAgent,
		},
		random: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// LoadUserAgents loads user agents from a file (one per line). An empty
// file keeps the current pool.
func (fm *FingerprintManager) LoadUserAgents(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var loaded []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			loaded = append(loaded, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}

	if len(loaded) > 0 {
		fm.mu.Lock()
		fm.userAgents = loaded
		fm.mu.Unlock()
	}
	return len(loaded), nil
}

// GetRandomUserAgent returns a random User-Agent string.
func (fm *FingerprintManager) GetRandomUserAgent() string {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	return fm.userAgents[fm.random.Intn(len(fm.userAgents))]
}

// GetRandomHeaders returns common browser navigation headers with
// randomized values.
func (fm *FingerprintManager) GetRandomHeaders() map[string]string {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	headers := make(map[string]string)

	languages := []string{"en-IN,en;q=0.9", "en-US,en;q=0.9", "en-GB,en;q=0.9,hi;q=0.8"}
	headers["Accept-Language"] = languages[fm.random.Intn(len(languages))]

	accepts := []string{
		"text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
		"text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	}
	headers["Accept"] = accepts[fm.random.Intn(len(accepts))]

	headers["Upgrade-Insecure-Requests"] = "1"
	headers["Sec-Fetch-Dest"] = "document"
	headers["Sec-Fetch-Mode"] = "navigate"
	headers["Sec-Fetch-Site"] = "none"
	headers["Sec-Fetch-User"] = "?1"

	return headers
}
