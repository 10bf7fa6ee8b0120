package events

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventHandler reacts to one decoded event
type EventHandler func(ctx context.Context, event *Event) error

// Consumer dispatches messages from a subscription to handlers by event type.
// Messages without a handler are acked and dropped.
type Consumer struct {
	handlers map[EventType][]EventHandler
	logger   *slog.Logger
}

func NewConsumer(logger *slog.Logger) *Consumer {
	return &Consumer{
		handlers: make(map[EventType][]EventHandler),
		logger:   logger,
	}
}

// Handle registers handler for eventType. Not safe to call once Run started.
func (c *Consumer) Handle(eventType EventType, handler EventHandler) {
	c.handlers[eventType] = append(c.handlers[eventType], handler)
}

// Run processes messages until the channel closes or ctx is done
func (c *Consumer) Run(ctx context.Context, messages <-chan *message.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			c.process(ctx, msg)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg *message.Message) {
	event, err := DecodeEvent(msg)
	if err != nil {
		// A malformed message will not get better on redelivery
		c.logger.Error("Dropping undecodable event", "message_id", msg.UUID, "error", err)
		msg.Ack()
		return
	}

	for _, handler := range c.handlers[event.Type] {
		if err := handler(ctx, event); err != nil {
			c.logger.Warn("Event handler failed",
				"event_id", event.ID,
				"event_type", event.Type,
				"error", err)
		}
	}
	msg.Ack()
}
