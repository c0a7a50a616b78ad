// Package events provides the asynchronous Kafka producer used to publish
// domain events. Writes are buffered in-process and flushed by a background
// goroutine so publishing never blocks a request.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer wraps a kafka.Writer with an in-process buffer. Messages that do
// not fit the buffer are dropped and logged rather than blocking the caller.
type Producer struct {
	writer *kafka.Writer
	inbox  chan kafka.Message
	done   chan struct{}
	logger *slog.Logger
}

type Option func(*Producer)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Producer) {
		p.logger = logger
	}
}

// NewProducer builds a producer for one topic. Call Start before publishing
// and Close on shutdown to flush buffered messages.
func NewProducer(brokers []string, topic string, buffer int, opts ...Option) *Producer {
	if buffer <= 0 {
		buffer = 256
	}
	p := &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		inbox: make(chan kafka.Message, buffer),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Start launches the flush loop. It drains the buffer on context
// cancellation before closing the writer.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.done)
		defer func() {
			if err := p.writer.Close(); err != nil {
				p.logError(context.Background(), "failed to close kafka writer", err)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case msg, ok := <-p.inbox:
				if !ok {
					return
				}
				p.write(msg)
			}
		}
	}()
}

// Publish enqueues one message. It never blocks; on a full buffer the
// message is dropped with an error log.
func (p *Producer) Publish(ctx context.Context, key, value []byte) {
	msg := kafka.Message{Key: key, Value: value, Time: time.Now()}
	select {
	case p.inbox <- msg:
	default:
		p.logError(ctx, "event buffer full, dropping message", nil, slog.String("key", string(key)))
	}
}

// Close flushes buffered messages and waits for the flush loop to exit.
func (p *Producer) Close() {
	close(p.inbox)
	<-p.done
}

func (p *Producer) drain() {
	for {
		select {
		case msg, ok := <-p.inbox:
			if !ok {
				return
			}
			p.write(msg)
		default:
			return
		}
	}
}

func (p *Producer) write(msg kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logError(ctx, "failed to write kafka message", err, slog.String("key", string(msg.Key)))
	}
}

func (p *Producer) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if p.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	p.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}
