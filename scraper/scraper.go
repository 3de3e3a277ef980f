package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"

	"github.com/use-agent/skisnap/config"
	"github.com/use-agent/skisnap/engine"
	"github.com/use-agent/skisnap/models"
)

// Scraper fetches resort pages. The browser process is launched on the
// first rendered fetch and shared by all later ones; every rendered fetch
// gets its own incognito context. It is safe for concurrent use.
type Scraper struct {
	fetchCfg   config.FetchConfig
	browserCfg config.BrowserConfig
	strategy   Strategy

	static     *engine.HTTPEngine
	dispatcher *engine.Dispatcher

	mu      sync.Mutex
	browser *rod.Browser
	health  *engine.BrowserHealth
	closed  bool
}

// New creates a Scraper. No browser is started until it is needed.
func New(fetchCfg config.FetchConfig, browserCfg config.BrowserConfig) (*Scraper, error) {
	strategy, err := ParseStrategy(fetchCfg.Strategy, Rendered)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeConfigInvalid, "fetch strategy", err)
	}

	s := &Scraper{
		fetchCfg:   fetchCfg,
		browserCfg: browserCfg,
		strategy:   strategy,
		static: engine.NewHTTPEngine(engine.HTTPOptions{
			Timeout: fetchCfg.StaticTimeout,
			Proxy:   browserCfg.Proxy,
		}),
	}

	shellAware := engine.NewHTTPEngine(engine.HTTPOptions{
		Timeout:      fetchCfg.StaticTimeout,
		Proxy:        browserCfg.Proxy,
		RejectShells: true,
	})
	s.dispatcher = engine.NewDispatcher(engine.NewDomainMemory(0),
		engine.Stage{Engine: shellAware},
		engine.Stage{Engine: engine.NewRodEngine(s.render), After: fetchCfg.EscalationDelay},
	)
	return s, nil
}

// DefaultStrategy is used when a resort does not override the strategy.
func (s *Scraper) DefaultStrategy() Strategy { return s.strategy }

// Fetch returns the HTML of url, or false when the page could not be
// obtained. Failures are logged here and never retried.
func (s *Scraper) Fetch(ctx context.Context, url string, strategy Strategy) (string, bool) {
	if strategy == "" {
		strategy = s.strategy
	}
	start := time.Now()

	res, err := s.fetch(ctx, &engine.FetchRequest{URL: url}, strategy)
	if err != nil {
		slog.Warn("fetch failed",
			"url", url,
			"strategy", strategy,
			"code", models.CodeOf(err),
			"error", err,
		)
		return "", false
	}

	slog.Info("page fetched",
		"url", url,
		"strategy", strategy,
		"engine", res.EngineName,
		"status", res.StatusCode,
		"bytes", len(res.HTML),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return res.HTML, true
}

func (s *Scraper) fetch(ctx context.Context, req *engine.FetchRequest, strategy Strategy) (*engine.FetchResult, error) {
	switch strategy {
	case Static:
		return s.static.Fetch(ctx, req)
	case Rendered:
		return s.render(ctx, req)
	case Auto:
		return s.dispatcher.Dispatch(ctx, req)
	}
	return nil, models.NewPipelineError(models.ErrCodeConfigInvalid,
		fmt.Sprintf("unknown strategy %q", strategy), nil)
}

// acquireBrowser returns the shared browser, launching or relaunching it
// as needed.
func (s *Scraper) acquireBrowser() (*rod.Browser, *engine.BrowserHealth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, nil, models.NewPipelineError(models.ErrCodeBrowserCrash, "scraper is closed", nil)
	}
	if s.browser != nil && s.health.ShouldRelaunch() {
		slog.Info("relaunching browser")
		if err := s.browser.Close(); err != nil {
			slog.Debug("closing unhealthy browser", "error", err)
		}
		s.browser = nil
	}
	if s.browser == nil {
		b, err := launchBrowser(s.browserCfg)
		if err != nil {
			return nil, nil, err
		}
		s.browser = b
		s.health = engine.NewBrowserHealth()
	}
	return s.browser, s.health, nil
}

func launchBrowser(cfg config.BrowserConfig) (*rod.Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewPipelineError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}
	return browser, nil
}

// Close kills the browser process if one was started. Fetches after Close
// fail for the rendered strategy.
func (s *Scraper) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.browser == nil {
		return
	}
	if err := s.browser.Close(); err != nil {
		slog.Warn("closing browser", "error", err)
	}
	s.browser = nil
	slog.Info("browser closed")
}
