// internal/utils/metrics/collector.go
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricType представляет тип метрики
type MetricType string

const (
	TransactionCounterType  MetricType = "transaction_counter"
	TransactionDurationType MetricType = "transaction_duration"
	RPCLatencyType          MetricType = "rpc_latency"
	RPCRequestsType         MetricType = "rpc_requests"
	RPCRetriesType          MetricType = "rpc_retries"
	DecodeCounterType       MetricType = "decode_counter"
	SubscriptionUpdateType  MetricType = "subscription_updates"
	WebsocketConnectionType MetricType = "websocket_connections"
)

const namespace = "solstrike"

// Collector управляет набором метрик клиента. Nil-коллектор допустим:
// все методы записи на нём ничего не делают.
type Collector struct {
	metrics sync.Map

	transactionCounter   *prometheus.CounterVec
	transactionDuration  *prometheus.HistogramVec
	rpcLatency           *prometheus.HistogramVec
	rpcRequests          *prometheus.CounterVec
	rpcRetries           *prometheus.CounterVec
	decodeCounter        *prometheus.CounterVec
	subscriptionUpdates  *prometheus.CounterVec
	websocketConnections *prometheus.GaugeVec
}

// NewCollector создает коллектор и регистрирует его метрики в reg.
// Если reg == nil, используется prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		transactionCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_total",
				Help:      "Total number of program transactions sent",
			},
			[]string{"status", "instruction"},
		),
		transactionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transaction_duration_seconds",
				Help:      "Time from send to confirmation in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"instruction"},
		),
		rpcLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rpc_latency_seconds",
				Help:      "RPC request latency in seconds, retries included",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"method"},
		),
		rpcRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rpc_requests_total",
				Help:      "RPC requests by method and outcome",
			},
			[]string{"method", "status"},
		),
		rpcRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rpc_retries_total",
				Help:      "RPC attempts that were retried",
			},
			[]string{"method"},
		),
		decodeCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "account_decodes_total",
				Help:      "Account decode attempts by kind and result",
			},
			[]string{"kind", "result"},
		),
		subscriptionUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "subscription_updates_total",
				Help:      "Account subscription updates by kind and result",
			},
			[]string{"kind", "result"},
		),
		websocketConnections: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "websocket_connections",
				Help:      "Number of active websocket subscriptions",
			},
			[]string{"stream"},
		),
	}
	c.initializeMetrics(reg)
	return c
}

func (c *Collector) initializeMetrics(reg prometheus.Registerer) {
	metricsMap := map[MetricType]prometheus.Collector{
		TransactionCounterType:  c.transactionCounter,
		TransactionDurationType: c.transactionDuration,
		RPCLatencyType:          c.rpcLatency,
		RPCRequestsType:         c.rpcRequests,
		RPCRetriesType:          c.rpcRetries,
		DecodeCounterType:       c.decodeCounter,
		SubscriptionUpdateType:  c.subscriptionUpdates,
		WebsocketConnectionType: c.websocketConnections,
	}

	for metricType, metric := range metricsMap {
		c.metrics.Store(metricType, metric)
		reg.MustRegister(metric)
	}
}

// Reset сбрасывает все метрики (полезно для тестирования)
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.metrics.Range(func(_, value interface{}) bool {
		switch m := value.(type) {
		case *prometheus.CounterVec:
			m.Reset()
		case *prometheus.GaugeVec:
			m.Reset()
		case *prometheus.HistogramVec:
			m.Reset()
		}
		return true
	})
}
