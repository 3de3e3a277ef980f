package engine

import (
	"math"
	"sync"
	"time"
)

// Browser health scoring:
//   - success: errScore -= 0.5 (min 0)
//   - crash-class failure: errScore += 1.0
//
// The browser is relaunched when errScore reaches 3.0 or the process is
// older than maxAge. Ordinary page failures (HTTP status, timeouts on a slow
// site) are not recorded; only failures that implicate the browser itself.
const (
	retireScore = 3.0
	maxAge      = 6 * time.Hour
)

// BrowserHealth tracks whether the shared browser process should be replaced.
type BrowserHealth struct {
	mu       sync.Mutex
	errScore float64
	launched time.Time
	now      func() time.Time
}

// NewBrowserHealth starts tracking a freshly launched browser.
func NewBrowserHealth() *BrowserHealth {
	return &BrowserHealth{launched: time.Now(), now: time.Now}
}

// RecordSuccess decreases the error score.
func (h *BrowserHealth) RecordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errScore = math.Max(0, h.errScore-0.5)
}

// RecordFailure increases the error score.
func (h *BrowserHealth) RecordFailure() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errScore += 1.0
}

// ShouldRelaunch reports whether the browser should be closed and relaunched
// before the next fetch.
func (h *BrowserHealth) ShouldRelaunch() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.errScore >= retireScore || h.now().Sub(h.launched) >= maxAge
}
