package server

import (
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/zeusync/droneforge/internal/core/builder"
	"github.com/zeusync/droneforge/internal/core/events/bus"
	"github.com/zeusync/droneforge/internal/core/observability/log"
)

const slowDelivery = 50 * time.Millisecond

// deliveryObserver runs inside builder critical sections, so it only counts and logs.
type deliveryObserver struct {
	logger     log.Log
	changes    atomic.Uint64
	rejections atomic.Uint64
	failures   atomic.Uint64
}

func newDeliveryObserver(logger log.Log) *deliveryObserver {
	return &deliveryObserver{logger: logger.With(log.String("component", "bus"))}
}

func (o *deliveryObserver) OnPublish(_, eventType string, _ bus.Event) {
	switch eventType {
	case builder.EventChanged:
		o.changes.Add(1)
	case builder.EventRejected:
		o.rejections.Add(1)
	}
}

func (o *deliveryObserver) OnDelivered(topic, eventType string, handlers int, err error, d time.Duration) {
	if err != nil {
		o.failures.Add(1)
		o.logger.Warn("Event handler failed",
			log.String("topic", topic), log.String("event", eventType), log.Error(err))
	}
	if d > slowDelivery {
		o.logger.Warn("Slow event delivery",
			log.String("topic", topic), log.String("event", eventType),
			log.Int("handlers", handlers), log.Duration("duration", d))
	}
}

// RoomMetrics describes one room in GET /metrics.
type RoomMetrics struct {
	ID       string `json:"id"`
	Clients  int    `json:"clients"`
	Rejected uint64 `json:"rejected"`
}

// MetricsResponse is served on GET /metrics.
type MetricsResponse struct {
	Changes    uint64              `json:"changes"`
	Rejections uint64              `json:"rejections"`
	Failures   uint64              `json:"handler_failures"`
	Bus        bus.EventBusMetrics `json:"bus"`
	Topics     []bus.TopicInfo     `json:"topics"`
	Rooms      []RoomMetrics       `json:"rooms"`
}

func (s *Server) Metrics() MetricsResponse {
	topics := s.bus.GetTopics()
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name < topics[j].Name })

	s.mu.Lock()
	rooms := make([]RoomMetrics, 0, len(s.rooms))
	for id, r := range s.rooms {
		rooms = append(rooms, RoomMetrics{ID: id, Clients: r.clientCount(), Rejected: r.Rejected()})
	}
	s.mu.Unlock()
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })

	return MetricsResponse{
		Changes:    s.observer.changes.Load(),
		Rejections: s.observer.rejections.Load(),
		Failures:   s.observer.failures.Load(),
		Bus:        s.bus.GetMetrics(),
		Topics:     topics,
		Rooms:      rooms,
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.logger, s.Metrics())
}
