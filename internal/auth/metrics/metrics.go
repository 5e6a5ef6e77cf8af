package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for auth operations.
type Metrics struct {
	LoginAttempts               *prometheus.CounterVec
	TokenRefreshes              prometheus.Counter
	RefreshTokenReuseDetections prometheus.Counter
	UsersCreated                prometheus.Counter
	LoginDurationMs             prometheus.Histogram
}

// New registers and returns auth metrics collectors.
func New() *Metrics {
	return &Metrics{
		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registro_login_attempts_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		TokenRefreshes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registro_token_refreshes_total",
			Help: "Total number of successful refresh token rotations",
		}),
		RefreshTokenReuseDetections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registro_refresh_token_reuse_total",
			Help: "Refresh tokens presented after they were already rotated",
		}),
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registro_users_created_total",
			Help: "Total number of users created",
		}),
		LoginDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "registro_login_duration_ms",
			Help:    "Duration of login requests in milliseconds",
			Buckets: []float64{25, 50, 100, 250, 500, 1000, 2500},
		}),
	}
}

func (m *Metrics) IncrementLogin(outcome string) {
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementTokenRefresh() {
	m.TokenRefreshes.Inc()
}

func (m *Metrics) IncrementRefreshReuse() {
	m.RefreshTokenReuseDetections.Inc()
}

func (m *Metrics) IncrementUsersCreated() {
	m.UsersCreated.Inc()
}

func (m *Metrics) ObserveLoginDuration(ms float64) {
	m.LoginDurationMs.Observe(ms)
}
