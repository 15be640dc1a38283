package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// 注文ライフサイクルイベント（下流：メール・出荷・分析が購読する）。
// 金銭的な正はあくまでDB側。配信失敗はログだけ残して処理は止めない。
type OrderEvent struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"` // order.created / order.status_changed
	OrderID    int64     `json:"order_id"`
	Status     string    `json:"status"`
	TotalCents int64     `json:"total_cents,omitempty"`
	Currency   string    `json:"currency,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewPublisher はKafkaへのイベント配信を作る。brokersが空ならnilを返し、
// 呼び出し側はそのまま使える（メソッドはnil-safe）。
func NewPublisher(brokers []string, topic string, logger zerolog.Logger) *Publisher {
	if len(brokers) == 0 {
		return nil
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}

	return &Publisher{writer: w, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, ev OrderEvent) {
	if p == nil || p.writer == nil {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error().Err(err).Int64("order_id", ev.OrderID).Msg("marshal order event")
		return
	}

	//注文IDをキーにして同一注文のイベント順序を保つ
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.OrderID, 10)),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error().Err(err).Int64("order_id", ev.OrderID).Str("type", ev.Type).Msg("publish order event")
	}
}

func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
