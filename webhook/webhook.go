package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/use-agent/skisnap/models"
)

// EventSnapshotUpdated is sent after every successful snapshot write.
const EventSnapshotUpdated = "snapshot.updated"

// SignatureHeader carries "sha256=<hex>" of the body when a secret is set.
const SignatureHeader = "X-Skisnap-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string      `json:"type"`
	ID        string      `json:"id"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// SnapshotSummary is the Data of a snapshot.updated event.
type SnapshotSummary struct {
	Path        string `json:"path"`
	LastUpdated string `json:"last_updated"`
	Resorts     int    `json:"resorts"`
	Lifts       int    `json:"lifts"`
	Weather     int    `json:"weather"`
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if secret is non-empty.
func Deliver(ctx context.Context, client *http.Client, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Skisnap-Webhook/1.0")

	if secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(secret, body))
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Notifier posts snapshot.updated events. A nil Notifier does nothing.
type Notifier struct {
	url    string
	secret string
	client *http.Client
	delays []time.Duration
	wg     sync.WaitGroup
}

// NewNotifier returns nil when url is empty.
func NewNotifier(url, secret string) *Notifier {
	if url == "" {
		return nil
	}
	return &Notifier{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
		delays: []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second},
	}
}

// SnapshotWritten sends a snapshot.updated event in the background.
func (n *Notifier) SnapshotWritten(snap models.Snapshot, path string) {
	if n == nil {
		return
	}
	summary := SnapshotSummary{
		Path:        path,
		LastUpdated: snap.LastUpdated.Format(models.TimestampLayout),
		Resorts:     len(snap.Resorts),
	}
	for _, rs := range snap.Resorts {
		summary.Lifts += len(rs.Lifts)
		summary.Weather += len(rs.Weather)
	}
	n.DeliverAsync(&Event{
		Type:      EventSnapshotUpdated,
		ID:        uuid.NewString(),
		Timestamp: time.Now().Unix(),
		Data:      summary,
	})
}

// DeliverAsync sends event in a goroutine with up to 3 retries.
// Retry intervals: 1s, 5s, 30s.
func (n *Notifier) DeliverAsync(event *Event) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.deliverWithRetry(event)
	}()
}

// Wait blocks until every pending delivery has succeeded or given up.
func (n *Notifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}

func (n *Notifier) deliverWithRetry(event *Event) bool {
	for attempt, delay := range n.delays {
		if delay > 0 {
			time.Sleep(delay)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := Deliver(ctx, n.client, n.url, n.secret, event)
		cancel()
		if err == nil {
			slog.Info("webhook delivered",
				"url", n.url,
				"event", event.Type,
				"id", event.ID,
				"attempt", attempt+1,
			)
			return true
		}
		slog.Warn("webhook delivery failed",
			"url", n.url,
			"event", event.Type,
			"id", event.ID,
			"attempt", attempt+1,
			"error", err,
		)
	}
	slog.Error("webhook delivery exhausted all retries",
		"url", n.url,
		"event", event.Type,
		"id", event.ID,
	)
	return false
}
