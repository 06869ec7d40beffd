// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラー層から利用する。
type MetricsCollector interface {
	RecordLogin(outcome string)
	RecordDinnerCreated()
	RecordDinnerDeleted()
	RecordSuggestionServed()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests      *prometheus.CounterVec
	httpLatency       prometheus.Histogram
	logins            *prometheus.CounterVec
	dinnersCreated    prometheus.Counter
	dinnersDeleted    prometheus.Counter
	suggestionsServed prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "whatsfordinner_http_requests_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "whatsfordinner_http_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "whatsfordinner_logins_total",
			Help: "終端状態別のログイン試行数",
		}, []string{"outcome"}),
		dinnersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "whatsfordinner_dinners_created_total",
			Help: "作成された夕食の合計数",
		}),
		dinnersDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "whatsfordinner_dinners_deleted_total",
			Help: "削除された夕食の合計数",
		}),
		suggestionsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "whatsfordinner_suggestions_served_total",
			Help: "提示したランダム提案の合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.logins,
		c.dinnersCreated,
		c.dinnersDeleted,
		c.suggestionsServed,
	)

	return c
}

// RecordLogin は終端状態別にログイン試行を記録する。
func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

// RecordDinnerCreated は夕食の作成を記録する。
func (c *Collector) RecordDinnerCreated() {
	c.dinnersCreated.Inc()
}

// RecordDinnerDeleted は夕食の削除を記録する。
func (c *Collector) RecordDinnerDeleted() {
	c.dinnersDeleted.Inc()
}

// RecordSuggestionServed はランダム提案の提示を記録する。
func (c *Collector) RecordSuggestionServed() {
	c.suggestionsServed.Inc()
}

// Middleware はHTTPレスポンスのステータスとレイテンシを記録するミドルウェアを返す。
func (c *Collector) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			c.httpRequests.WithLabelValues(strconv.Itoa(rec.statusCode)).Inc()
			c.httpLatency.Observe(time.Since(start).Seconds())
		})
	}
}

// Handler は/metricsエンドポイントのハンドラーを返す。
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// statusRecorder はhttp.ResponseWriterをラップし、ステータスコードを記録する。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}
