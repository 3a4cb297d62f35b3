// internal/utils/metrics/metrics.go
package metrics

import (
	"context"
	"time"
)

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failed"
}

// RecordTransaction записывает метрики транзакции с учетом контекста
func (c *Collector) RecordTransaction(ctx context.Context, instruction string, duration time.Duration, success bool) {
	if c == nil {
		return
	}
	// Если контекст отменен, записываем метрику с пометкой cancelled
	if ctx.Err() != nil {
		c.transactionCounter.WithLabelValues("cancelled", instruction).Inc()
		return
	}
	c.transactionCounter.WithLabelValues(outcome(success), instruction).Inc()
	if success {
		c.transactionDuration.WithLabelValues(instruction).Observe(duration.Seconds())
	}
}

// RecordRPC записывает метрики RPC-запроса
func (c *Collector) RecordRPC(method string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	c.rpcRequests.WithLabelValues(method, outcome(err == nil)).Inc()
	c.rpcLatency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordRetry отмечает повторную попытку RPC-запроса
func (c *Collector) RecordRetry(method string) {
	if c == nil {
		return
	}
	c.rpcRetries.WithLabelValues(method).Inc()
}

// RecordDecode отмечает результат декодирования аккаунта
func (c *Collector) RecordDecode(kind string, ok bool) {
	if c == nil {
		return
	}
	c.decodeCounter.WithLabelValues(kind, outcome(ok)).Inc()
}

// RecordSubscriptionUpdate отмечает обновление подписки
func (c *Collector) RecordSubscriptionUpdate(kind string, decoded bool) {
	if c == nil {
		return
	}
	c.subscriptionUpdates.WithLabelValues(kind, outcome(decoded)).Inc()
}

// AddWebsocketConnections изменяет число активных веб-сокет подписок
func (c *Collector) AddWebsocketConnections(stream string, delta int) {
	if c == nil {
		return
	}
	c.websocketConnections.WithLabelValues(stream).Add(float64(delta))
}
