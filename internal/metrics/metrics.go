// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェア・サービス層・ポーラーから利用する。
type MetricsCollector interface {
	RecordSignIn(outcome string)
	RecordGuardDecision(decision string)
	RecordStreamPoll(status string, duration time.Duration)
	RecordEpisodesImported(count int)
	RecordContactSubmitted()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	signIn           *prometheus.CounterVec
	guardDecision    *prometheus.CounterVec
	streamPoll       *prometheus.CounterVec
	streamPollDur    prometheus.Histogram
	episodesImported prometheus.Counter
	contactSubmitted prometheus.Counter
}

// コンパイル時のインターフェース実装チェック
var _ MetricsCollector = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "airwave_sign_in_total",
			Help: "サインイン試行の結果別合計数",
		}, []string{"outcome"}),
		guardDecision: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "airwave_guard_decision_total",
			Help: "ルートガードの判断別合計数",
		}, []string{"decision"}),
		streamPoll: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "airwave_stream_poll_total",
			Help: "配信ステータスポーリングの結果別合計数",
		}, []string{"status"}),
		streamPollDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "airwave_stream_poll_duration_seconds",
			Help:    "配信ステータスポーリングの所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		episodesImported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "airwave_episodes_imported_total",
			Help: "インポートされたエピソードの合計数",
		}),
		contactSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "airwave_contact_submitted_total",
			Help: "受け付けたお問い合わせの合計数",
		}),
	}

	reg.MustRegister(
		c.signIn,
		c.guardDecision,
		c.streamPoll,
		c.streamPollDur,
		c.episodesImported,
		c.contactSubmitted,
	)

	return c
}

// RecordSignIn はサインイン試行の結果を記録する。
// outcomeは"success"または"failure"。
func (c *Collector) RecordSignIn(outcome string) {
	c.signIn.WithLabelValues(outcome).Inc()
}

// RecordGuardDecision はルートガードの判断を記録する。
func (c *Collector) RecordGuardDecision(decision string) {
	c.guardDecision.WithLabelValues(decision).Inc()
}

// RecordStreamPoll は配信ステータスポーリングの結果と所要時間を記録する。
func (c *Collector) RecordStreamPoll(status string, duration time.Duration) {
	c.streamPoll.WithLabelValues(status).Inc()
	c.streamPollDur.Observe(duration.Seconds())
}

// RecordEpisodesImported はインポートされたエピソード数を記録する。
func (c *Collector) RecordEpisodesImported(count int) {
	c.episodesImported.Add(float64(count))
}

// RecordContactSubmitted はお問い合わせの受け付けを記録する。
func (c *Collector) RecordContactSubmitted() {
	c.contactSubmitted.Inc()
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
