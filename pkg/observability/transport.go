package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// InstrumentTransport wraps next so every round trip is recorded in
// gemini_http_requests_total, gemini_http_request_duration_seconds and
// gemini_http_in_flight_requests. A nil next means http.DefaultTransport.
// CloseIdleConnections on the result is forwarded to next.
func InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &instrumentedTransport{
		RoundTripper: promhttp.InstrumentRoundTripperInFlight(HTTPInFlight,
			promhttp.InstrumentRoundTripperCounter(HTTPRequestsTotal,
				promhttp.InstrumentRoundTripperDuration(HTTPRequestDuration, next),
			),
		),
		next: next,
	}
}

// instrumentedTransport keeps http.Client.CloseIdleConnections reaching the
// wrapped transport.
type instrumentedTransport struct {
	http.RoundTripper
	next http.RoundTripper
}

func (t *instrumentedTransport) CloseIdleConnections() {
	if c, ok := t.next.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}

// Handler returns the Prometheus scrape handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
