// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層やハンドラーから利用する。
type MetricsCollector interface {
	RecordPing(emotion string, isOwner, healthFlag bool, similarity float64)
	RecordCrisisAlert(sent bool)
	RecordMessage(channel string, ok bool)
	RecordAnswer(source string)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	pings        *prometheus.CounterVec
	healthFlags  prometheus.Counter
	similarity   prometheus.Histogram
	crisisAlerts *prometheus.CounterVec
	messages     *prometheus.CounterVec
	answers      *prometheus.CounterVec
	httpStatus   *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		pings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "elora_voice_pings_total",
			Help: "判定したpingの合計数（感情・本人判定別）",
		}, []string{"emotion", "owner"}),
		healthFlags: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "elora_voice_health_flags_total",
			Help: "体調不良の兆候を検出したpingの合計数",
		}),
		similarity: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "elora_voice_similarity",
			Help:    "pingと最も近い声紋プロファイルとの類似度",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		crisisAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "elora_crisis_alerts_total",
			Help: "危機エスカレーション通知の試行数（結果別）",
		}, []string{"result"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "elora_messages_total",
			Help: "外部チャネルへのメッセージ送信数（チャネル・結果別）",
		}, []string{"channel", "result"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "elora_qa_answers_total",
			Help: "Q&A回答の合計数（回答元別）",
		}, []string{"source"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "elora_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.pings,
		c.healthFlags,
		c.similarity,
		c.crisisAlerts,
		c.messages,
		c.answers,
		c.httpStatus,
	)

	return c
}

// RecordPing はpingの判定結果を記録する。
func (c *Collector) RecordPing(emotion string, isOwner, healthFlag bool, similarity float64) {
	c.pings.WithLabelValues(emotion, strconv.FormatBool(isOwner)).Inc()
	if healthFlag {
		c.healthFlags.Inc()
	}
	c.similarity.Observe(similarity)
}

// RecordCrisisAlert は危機通知の送信結果を記録する。
func (c *Collector) RecordCrisisAlert(sent bool) {
	c.crisisAlerts.WithLabelValues(resultLabel(sent)).Inc()
}

// RecordMessage はチャネル送信の結果を記録する。
func (c *Collector) RecordMessage(channel string, ok bool) {
	c.messages.WithLabelValues(channel, resultLabel(ok)).Inc()
}

// RecordAnswer はQ&Aの回答元（openai, wikipedia, none）を記録する。
func (c *Collector) RecordAnswer(source string) {
	c.answers.WithLabelValues(source).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使用する。
type Nop struct{}

func (Nop) RecordPing(string, bool, bool, float64) {}
func (Nop) RecordCrisisAlert(bool)                {}
func (Nop) RecordMessage(string, bool)            {}
func (Nop) RecordAnswer(string)                   {}
func (Nop) RecordHTTPStatus(int)                  {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
