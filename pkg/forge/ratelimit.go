package forge

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// rateLimitedTransport paces outgoing requests.
type rateLimitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// newHTTPClient returns a client whose transport allows at most perSecond
// requests per second (unlimited when perSecond <= 0), wrapping base.
func newHTTPClient(base http.RoundTripper, perSecond float64, timeout time.Duration) *http.Client {
	if base == nil {
		base = http.DefaultTransport
	}
	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = int(perSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &http.Client{
		Transport: &rateLimitedTransport{base: base, limiter: rate.NewLimiter(limit, burst)},
		Timeout:   timeout,
	}
}
