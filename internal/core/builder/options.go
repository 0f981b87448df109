package builder

import (
	"github.com/zeusync/droneforge/internal/core/events/bus"
	"github.com/zeusync/droneforge/internal/core/history"
	"github.com/zeusync/droneforge/internal/core/observability/log"
)

type options struct {
	historyLimit int
	bus          bus.EventBus
	topic        string
	source       string
	logger       log.Log
}

type Option func(*options)

// WithHistoryLimit bounds the number of undo entries.
func WithHistoryLimit(limit int) Option {
	return func(o *options) { o.historyLimit = limit }
}

// WithBus publishes change and rejection events to topic on b.
func WithBus(b bus.EventBus, topic string) Option {
	return func(o *options) {
		o.bus = b
		o.topic = topic
	}
}

// WithSource names the publisher on emitted events.
func WithSource(source string) Option {
	return func(o *options) { o.source = source }
}

func WithLogger(l log.Log) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func defaultOptions() options {
	return options{
		historyLimit: history.DefaultLimit,
		source:       "builder",
		logger:       log.NewNop(),
	}
}
