package scraper

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceTypes maps config names to protocol resource types.
var resourceTypes = map[string]proto.NetworkResourceType{
	"image":      proto.NetworkResourceTypeImage,
	"stylesheet": proto.NetworkResourceTypeStylesheet,
	"font":       proto.NetworkResourceTypeFont,
	"media":      proto.NetworkResourceTypeMedia,
}

// adDomains are ad and tracking hosts blocked when BlockAds is set.
// Resort sites embed many of these and they keep the network busy long
// after the status tables have rendered.
var adDomains = map[string]struct{}{
	"doubleclick.net":       {},
	"googlesyndication.com": {},
	"googleadservices.com":  {},
	"google-analytics.com":  {},
	"googletagmanager.com":  {},
	"googletagservices.com": {},
	"facebook.net":          {},
	"connect.facebook.net":  {},
	"adnxs.com":             {},
	"adsrvr.org":            {},
	"amazon-adsystem.com":   {},
	"criteo.com":            {},
	"criteo.net":            {},
	"outbrain.com":          {},
	"taboola.com":           {},
	"scorecardresearch.com": {},
	"hotjar.com":            {},
	"clarity.ms":            {},
	"mixpanel.com":          {},
	"segment.io":            {},
	"analytics.twitter.com": {},
	"ads-twitter.com":       {},
	"optimizely.com":        {},
	"demdex.net":            {},
	"rlcdn.com":             {},
	"addthis.com":           {},
	"sharethis.com":         {},
	"consensu.org":          {},
	"i-mobile.co.jp":        {},
}

// blocker decides which browser requests are failed before they leave.
type blocker struct {
	types map[proto.NetworkResourceType]struct{}
	ads   bool
}

// newBlocker builds a blocker from config names. Unknown names are ignored
// and script is never blocked since status pages render with it. It
// returns nil when nothing would be blocked.
func newBlocker(typeNames []string, blockAds bool) *blocker {
	types := make(map[proto.NetworkResourceType]struct{}, len(typeNames))
	for _, name := range typeNames {
		if rt, ok := resourceTypes[strings.ToLower(strings.TrimSpace(name))]; ok {
			types[rt] = struct{}{}
		}
	}
	if len(types) == 0 && !blockAds {
		return nil
	}
	return &blocker{types: types, ads: blockAds}
}

func (b *blocker) shouldBlock(rt proto.NetworkResourceType, rawURL string) bool {
	if _, ok := b.types[rt]; ok {
		return true
	}
	if b.ads {
		if u, err := url.Parse(rawURL); err == nil && isAdDomain(u.Hostname()) {
			return true
		}
	}
	return false
}

// isAdDomain checks a hostname and each of its parent domains.
func isAdDomain(host string) bool {
	host = strings.ToLower(host)
	for host != "" {
		if _, ok := adDomains[host]; ok {
			return true
		}
		idx := strings.IndexByte(host, '.')
		if idx < 0 {
			break
		}
		host = host[idx+1:]
	}
	return false
}

// mountBlocker installs a request interceptor on page. The caller must Stop
// the returned router. It returns nil when b is nil.
func mountBlocker(page *rod.Page, b *blocker) *rod.HijackRouter {
	if b == nil {
		return nil
	}
	router := page.HijackRequests()
	_ = router.Add("*", "", func(h *rod.Hijack) {
		if b.shouldBlock(h.Request.Type(), h.Request.URL().String()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}
