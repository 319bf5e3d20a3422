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
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method string, statusCode int, duration time.Duration)
	RecordPostCreated()
	RecordPostEdited()
	RecordLoginFailure()
	RecordSessionsCleaned(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    prometheus.Histogram
	postsCreated    prometheus.Counter
	postsEdited     prometheus.Counter
	loginFailures   prometheus.Counter
	sessionsCleaned prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_http_requests_total",
			Help: "メソッド・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "status_code"}),
		httpDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blog_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		postsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_posts_created_total",
			Help: "作成された記事の合計数",
		}),
		postsEdited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_posts_edited_total",
			Help: "編集された記事の合計数",
		}),
		loginFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_login_failures_total",
			Help: "ログイン失敗の合計数",
		}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_sessions_cleaned_total",
			Help: "削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.postsCreated,
		c.postsEdited,
		c.loginFailures,
		c.sessionsCleaned,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの件数と処理時間を記録する。
func (c *Collector) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.Observe(duration.Seconds())
}

// RecordPostCreated は記事作成を記録する。
func (c *Collector) RecordPostCreated() {
	c.postsCreated.Inc()
}

// RecordPostEdited は記事編集を記録する。
func (c *Collector) RecordPostEdited() {
	c.postsEdited.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFailures.Inc()
}

// RecordSessionsCleaned は削除した期限切れセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(count int64) {
	c.sessionsCleaned.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// NopCollector は何も記録しないMetricsCollector。テストやCLIコマンドで使用する。
type NopCollector struct{}

func (NopCollector) RecordHTTPRequest(string, int, time.Duration) {}
func (NopCollector) RecordPostCreated()                            {}
func (NopCollector) RecordPostEdited()                             {}
func (NopCollector) RecordLoginFailure()                           {}
func (NopCollector) RecordSessionsCleaned(int64)                   {}

// compile-time interface check
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
