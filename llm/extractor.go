package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/use-agent/skisnap/cache"
	"github.com/use-agent/skisnap/config"
	"github.com/use-agent/skisnap/models"
)

// Extractor wraps a Completer with the protections a batch run needs: a
// request-rate limit, a circuit breaker that stops calling a failing
// provider, and an optional completion cache. None of them retry.
type Extractor struct {
	completer Completer
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	cache     *cache.Cache
}

// NewExtractor builds an Extractor from cfg around completer.
func NewExtractor(completer Completer, cfg config.LLMConfig) *Extractor {
	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute/60), 1)
	}

	failures := uint32(cfg.BreakerFailures)
	if failures == 0 {
		failures = 3
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        completer.Model(),
		MaxRequests: 1,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// Context cancellation says nothing about the provider.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("LLM circuit breaker state changed",
				"model", name, "from", from.String(), "to", to.String())
		},
	})

	return &Extractor{
		completer: completer,
		limiter:   limiter,
		breaker:   breaker,
		cache:     cache.New(cfg.CacheTTL, cfg.CacheMaxEntries),
	}
}

// Complete returns the model's raw text for prompt, or false when the call
// failed or produced no text. Failures are logged with a classified code.
func (e *Extractor) Complete(ctx context.Context, prompt string) (string, bool) {
	key := cache.Key(e.completer.Model(), prompt)
	if text, ok := e.cache.Get(key); ok {
		slog.Debug("completion cache hit", "model", e.completer.Model())
		return text, true
	}

	start := time.Now()
	text, err := e.complete(ctx, prompt)
	if err != nil {
		slog.Warn("completion failed",
			"model", e.completer.Model(),
			"code", models.CodeOf(err),
			"error", err,
			"duration", time.Since(start).Round(time.Millisecond),
		)
		return "", false
	}

	slog.Debug("completion received",
		"model", e.completer.Model(),
		"chars", len(text),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	e.cache.Set(key, text)
	return text, true
}

func (e *Extractor) complete(ctx context.Context, prompt string) (string, error) {
	if e.breaker.State() == gobreaker.StateOpen {
		return "", models.NewPipelineError(models.ErrCodeLLMCircuitOpen, "provider circuit open", gobreaker.ErrOpenState)
	}
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return "", models.NewPipelineError(models.ErrCodeLLMFailure, "rate limiter wait", err)
		}
	}

	result, err := e.breaker.Execute(func() (interface{}, error) {
		return e.completer.Complete(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", models.NewPipelineError(models.ErrCodeLLMCircuitOpen, "provider circuit open", err)
		}
		return "", err
	}
	return result.(string), nil
}
