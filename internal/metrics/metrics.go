// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ワーカーやコマンド処理から利用する。
type MetricsCollector interface {
	RecordSendSuccess()
	RecordSendFailure()
	RecordGenerationAttempts(count int)
	RecordSafetyFallback()
	RecordCommand(kind string, allowed bool)
	RecordRepeatSent()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	sendSuccess        prometheus.Counter
	sendFail           prometheus.Counter
	generationAttempts prometheus.Counter
	safetyFallback     prometheus.Counter
	commands           *prometheus.CounterVec
	repeatsSent        prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sendSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aromabot_send_success_total",
			Help: "メッセージ送信成功の合計数",
		}),
		sendFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aromabot_send_fail_total",
			Help: "メッセージ送信失敗の合計数",
		}),
		generationAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aromabot_generation_attempts_total",
			Help: "生成APIの試行回数の合計（安全再試行を含む）",
		}),
		safetyFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aromabot_safety_fallback_total",
			Help: "安全テンプレートへの置換回数の合計",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aromabot_commands_total",
			Help: "受信コマンドの種別・許可判定別の合計数",
		}, []string{"kind", "allowed"}),
		repeatsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aromabot_repeats_sent_total",
			Help: "再送予約の送信完了数の合計",
		}),
	}

	reg.MustRegister(
		c.sendSuccess,
		c.sendFail,
		c.generationAttempts,
		c.safetyFallback,
		c.commands,
		c.repeatsSent,
	)

	return c
}

// RecordSendSuccess はメッセージ送信成功を記録する。
func (c *Collector) RecordSendSuccess() {
	c.sendSuccess.Inc()
}

// RecordSendFailure はメッセージ送信失敗を記録する。
func (c *Collector) RecordSendFailure() {
	c.sendFail.Inc()
}

// RecordGenerationAttempts は生成APIの試行回数を記録する。
func (c *Collector) RecordGenerationAttempts(count int) {
	c.generationAttempts.Add(float64(count))
}

// RecordSafetyFallback は安全テンプレートへの置換を記録する。
func (c *Collector) RecordSafetyFallback() {
	c.safetyFallback.Inc()
}

// RecordCommand は受信コマンドの処理を記録する。
func (c *Collector) RecordCommand(kind string, allowed bool) {
	c.commands.WithLabelValues(kind, strconv.FormatBool(allowed)).Inc()
}

// RecordRepeatSent は再送予約の送信完了を記録する。
func (c *Collector) RecordRepeatSent() {
	c.repeatsSent.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
