package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/skisnap/engine"
	"github.com/use-agent/skisnap/models"
)

// render loads req.URL in a fresh incognito context and returns the DOM
// once the page has settled.
//
// Lifecycle:
//
//  1. Deadline        – NavigationTimeout caps the whole render
//  2. Context         – new incognito browser context, disposed on return
//  3. Page setup      – stealth script, user agent, headers, request blocking
//  4. Idle listener   – registered before Navigate so no request is missed
//  5. Navigate
//  6. Wait            – network idle (bounded) or DOM stable when blocking
//  7. Settle          – fixed delay for client-side rendering
//  8. Status check    – a document status >= 400 is a failure
//  9. Extract         – page.HTML()
func (s *Scraper) render(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	timeout := s.fetchCfg.NavigationTimeout
	if req.Timeout > 0 && (timeout <= 0 || req.Timeout < timeout) {
		timeout = req.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	browser, health, err := s.acquireBrowser()
	if err != nil {
		return nil, err
	}

	incognito, err := browser.Incognito()
	if err != nil {
		health.RecordFailure()
		return nil, models.NewPipelineError(models.ErrCodeBrowserCrash, "failed to create browser context", err)
	}
	defer func() {
		if closeErr := incognito.Close(); closeErr != nil {
			slog.Debug("disposing browser context", "error", closeErr)
		}
	}()

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		health.RecordFailure()
		return nil, models.NewPipelineError(models.ErrCodeBrowserCrash, "failed to open page", err)
	}

	if s.browserCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}
	_ = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      engine.ChromeUA,
		AcceptLanguage: "en-US,en;q=0.9,ja;q=0.8",
	})
	_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(extraHeaders(req.URL))}.Call(page)

	router := mountBlocker(page, newBlocker(s.browserCfg.BlockedResourceTypes, s.browserCfg.BlockAds))
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)

	// WaitRequestIdle conflicts with request interception, so the idle
	// wait is only used when nothing is blocked.
	var waitIdle func()
	var idleCtx context.Context
	if router == nil {
		var cancelIdle context.CancelFunc
		idleCtx, cancelIdle = context.WithTimeout(ctx, s.fetchCfg.NetworkIdleTimeout)
		defer cancelIdle()
		waitIdle = page.Context(idleCtx).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)
	}

	if err := p.Navigate(req.URL); err != nil {
		return nil, categorizeError(err, "navigation failed")
	}

	if waitIdle != nil {
		waitIdle()
		if idleCtx.Err() != nil && ctx.Err() == nil {
			slog.Warn("network did not go idle, using current DOM",
				"url", req.URL,
				"waited", s.fetchCfg.NetworkIdleTimeout,
			)
		}
	} else if stableErr := p.WaitDOMStable(500*time.Millisecond, 0.1); stableErr != nil && ctx.Err() == nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", stableErr)
	}
	if ctx.Err() != nil {
		return nil, categorizeError(ctx.Err(), "page did not load in time")
	}

	if s.fetchCfg.SettleDelay > 0 {
		timer := time.NewTimer(s.fetchCfg.SettleDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, categorizeError(ctx.Err(), "interrupted while settling")
		case <-timer.C:
		}
	}

	status := documentStatus(p)
	if status >= 400 {
		return nil, models.NewPipelineError(models.ErrCodeHTTPStatus,
			fmt.Sprintf("HTTP %d for %s", status, req.URL), nil)
	}

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to extract page HTML")
	}
	health.RecordSuccess()

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}
	return &engine.FetchResult{
		HTML:       rawHTML,
		Title:      evalStringOrEmpty(p, `() => document.title`),
		StatusCode: status,
		FinalURL:   finalURL,
		EngineName: "rod",
	}, nil
}

// documentStatus reads the main document's HTTP status from the Navigation
// Timing API. It returns 0 when the browser does not expose it.
func documentStatus(p *rod.Page) int {
	res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch (e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// extraHeaders makes the visit look like it came from a search result.
func extraHeaders(rawURL string) map[string]string {
	headers := map[string]string{}
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		headers["Referer"] = "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
	}
	return headers
}

func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to proto.NetworkHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError maps a rod error to a pipeline error code.
func categorizeError(err error, msg string) *models.PipelineError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewPipelineError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewPipelineError(models.ErrCodeTimeout, "fetch canceled", err)
	default:
		return models.NewPipelineError(models.ErrCodeNavigation, msg, err)
	}
}
