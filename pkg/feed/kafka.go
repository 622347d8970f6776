// Package feed publishes executed trades to Kafka for external
// consumers (settlement, analytics). The feed is optional; when no
// brokers are configured the engine simply runs without this sink.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dkimq/matchbook/pkg/engine"
)

// TradePublisher writes one message per trade, keyed by symbol so a
// symbol's trades stay ordered within a partition.
type TradePublisher struct {
	writer *kafka.Writer
}

func NewTradePublisher(brokers []string, topic string) *TradePublisher {
	return &TradePublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// tradeMessage is the wire shape; prices travel as exact decimal
// strings, never floats.
type tradeMessage struct {
	ID           string `json:"id"`
	Symbol       string `json:"symbol"`
	TakerOrderID string `json:"takerOrderId"`
	MakerOrderID string `json:"makerOrderId"`
	TakerSide    string `json:"takerSide"`
	Price        string `json:"price"`
	Qty          int64  `json:"qty"`
	Timestamp    int64  `json:"timestamp"`
}

// PublishTrade implements engine.TradeSink.
func (p *TradePublisher) PublishTrade(t engine.Trade) error {
	msg := tradeMessage{
		ID:           t.ID,
		Symbol:       t.Symbol,
		TakerOrderID: t.TakerOrderID,
		MakerOrderID: t.MakerOrderID,
		TakerSide:    t.TakerSide,
		Price:        t.Price.String(),
		Qty:          t.Qty,
		Timestamp:    t.Timestamp,
	}
	val, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal trade %s: %w", t.ID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(t.Symbol),
		Value: val,
	})
}

func (p *TradePublisher) Close() error { return p.writer.Close() }
