package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(tokenRefreshesTotal, credentialUploadsTotal) }

var tokenRefreshesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "shorts_token_refreshes_total",
		Help: "OAuth token refreshes by outcome.",
	},
	[]string{"outcome"}, // 'success', 'failed', 'skipped'
)

var credentialUploadsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "shorts_credential_uploads_total",
		Help: "Client credential files accepted into the vault.",
	},
)

func IncTokenRefresh(outcome string) {
	tokenRefreshesTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncCredentialUpload() { credentialUploadsTotal.Inc() }
