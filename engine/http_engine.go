package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"

	"github.com/use-agent/skisnap/models"
)

// ChromeUA is the user agent sent by the static fetcher and the browser.
const ChromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxBody caps how much of a response body is read.
const maxBody = 10 << 20

// HTTPOptions configures an HTTPEngine.
type HTTPOptions struct {
	// Timeout bounds one GET including the body read.
	Timeout time.Duration

	// Proxy is an http(s) proxy URL. Empty means direct.
	Proxy string

	// RejectShells fails pages that look like client-rendered shells so a
	// browser engine can take over.
	RejectShells bool
}

// HTTPEngine fetches pages with a single GET and no script execution.
type HTTPEngine struct {
	client *http.Client
	opts   HTTPOptions
}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Go's http.Transport cannot speak h2 over a utls connection.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// NewHTTPEngine creates an HTTPEngine with a Chrome-like TLS fingerprint.
func NewHTTPEngine(opts HTTPOptions) *HTTPEngine {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	transport := &http.Transport{
		DialTLSContext:    dialTLSChrome,
		ForceAttemptHTTP2: false,
	}
	if opts.Proxy != "" {
		if proxyURL, err := url.Parse(opts.Proxy); err == nil &&
			(proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &HTTPEngine{
		opts: opts,
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
	if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
		conn.Close()
		return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

func (e *HTTPEngine) Name() string { return "http" }

func (e *HTTPEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	timeout := e.opts.Timeout
	if req.Timeout > 0 && req.Timeout < timeout {
		timeout = req.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeNavigation, "build request", err)
	}
	httpReq.Header.Set("User-Agent", ChromeUA)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9,ja;q=0.8")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, models.NewPipelineError(models.ErrCodeHTTPStatus,
			fmt.Sprintf("HTTP %d for %s", resp.StatusCode, req.URL), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, classifyTransport(err, "read body")
	}

	if e.opts.RejectShells {
		if ct := resp.Header.Get("Content-Type"); !isHTMLContentType(ct) {
			return nil, models.NewPipelineError(models.ErrCodeNavigation,
				fmt.Sprintf("non-html content-type %q", ct), nil)
		}
		if NeedsBrowser(body) {
			return nil, models.NewPipelineError(models.ErrCodeNavigation,
				"page looks client-rendered", nil)
		}
	}

	return &FetchResult{
		HTML:       string(body),
		Title:      ExtractTitle(body),
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
		EngineName: e.Name(),
	}, nil
}

// classifyTransport maps a transport error to a timeout or navigation failure.
func classifyTransport(err error, msg string) *models.PipelineError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return models.NewPipelineError(models.ErrCodeTimeout, msg, err)
	}
	if errors.Is(err, context.Canceled) {
		return models.NewPipelineError(models.ErrCodeTimeout, "request canceled", err)
	}
	return models.NewPipelineError(models.ErrCodeNavigation, msg, err)
}

// isHTMLContentType returns true if the content-type header looks like HTML.
func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
