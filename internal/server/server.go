// Package server exposes assembly rooms to renderers over HTTP and websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/droneforge/internal/config"
	"github.com/zeusync/droneforge/internal/core/assembly"
	"github.com/zeusync/droneforge/internal/core/builder"
	"github.com/zeusync/droneforge/internal/core/catalog"
	"github.com/zeusync/droneforge/internal/core/events/bus"
	"github.com/zeusync/droneforge/internal/core/observability/log"
	"github.com/zeusync/droneforge/internal/core/projector"
)

// DefaultRoom is used when a client names no room.
const DefaultRoom = "workbench"

// Server hosts rooms. Each room owns its own builder; nothing is global.
type Server struct {
	config    config.Config
	catalog   *catalog.Catalog
	bus       bus.EventBus
	projector projector.Projector
	observer  *deliveryObserver
	logger    log.Log
	upgrader  websocket.Upgrader

	mu    sync.Mutex
	rooms map[string]*Room

	httpServer *http.Server
	closed     atomic.Bool
}

func NewServer(cfg config.Config, cat *catalog.Catalog, eventBus bus.EventBus, logger log.Log) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	s := &Server{
		config:    cfg,
		catalog:   cat,
		bus:       eventBus,
		projector: projector.NewPlane(),
		logger:    logger.With(log.String("component", "server")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		rooms: make(map[string]*Room),
	}
	s.observer = newDeliveryObserver(s.logger)
	eventBus.AddObserver(s.observer)
	s.httpServer = &http.Server{Handler: s.Handler()}

	s.logger.Info("Server created",
		log.String("listen_addr", cfg.ListenAddr),
		log.Bool("guided", cfg.Guided && cat.Guided()),
		log.Int("history_limit", cfg.HistoryLimit))
	return s
}

// Handler routes /ws, /catalog, /state and /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/catalog", s.handleCatalog)
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/metrics", s.handleMetrics)
	return mux
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		s.logger.Error("Failed to create listener", log.Error(err))
		return nil, err
	}
	s.logger.Info("Listening", log.String("addr", ln.Addr().String()))
	return ln, nil
}

// Serve blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", log.Error(err))
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return s.Shutdown()
	})

	return g.Wait()
}

// Shutdown stops accepting connections and closes every room.
func (s *Server) Shutdown() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)

	s.mu.Lock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.mu.Unlock()

	s.bus.RemoveObserver(s.observer)
	for _, r := range rooms {
		for _, sub := range r.subs {
			_ = s.bus.Unsubscribe(sub)
		}
		r.mu.Lock()
		for c := range r.clients {
			c.close()
		}
		r.mu.Unlock()
	}
	s.logger.Info("Server stopped", log.Int("rooms", len(rooms)))
	return err
}

// Room returns the room with the given id, creating it on first use.
func (s *Server) Room(id string) *Room {
	if id == "" {
		id = DefaultRoom
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if room, exists := s.rooms[id]; exists {
		return room
	}

	roomLogger := s.logger.With(log.String("room", id))
	store := assembly.NewStore(s.catalog, s.config.StoreOptions()...)
	room := &Room{
		id: id,
		builder: builder.New(store,
			builder.WithHistoryLimit(s.config.HistoryLimit),
			builder.WithBus(s.bus, id),
			builder.WithSource("room:"+id),
			builder.WithLogger(roomLogger)),
		logger:  roomLogger,
		clients: make(map[*client]struct{}),
	}
	for eventType, handler := range map[string]bus.EventHandler{
		builder.EventChanged:  room.onChanged,
		builder.EventRejected: room.onRejected,
	} {
		sub, err := s.bus.SubscribeTopic(id, eventType, handler)
		if err != nil {
			s.logger.Error("Failed to subscribe room",
				log.String("room", id), log.String("event", eventType), log.Error(err))
			continue
		}
		room.subs = append(room.subs, sub)
	}
	s.rooms[id] = room
	s.logger.Info("Room created", log.String("room", id))
	return room
}

// LookupRoom returns an existing room only.
func (s *Server) LookupRoom(id string) (*Room, error) {
	if id == "" {
		id = DefaultRoom
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	parts := s.catalog.Entries()
	for i := range parts {
		parts[i].Asset = s.catalog.AssetOrPlaceholder(parts[i].Kind)
	}
	writeJSON(w, s.logger, CatalogResponse{
		Parts:    parts,
		Sequence: s.catalog.Sequence(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	room, err := s.LookupRoom(r.URL.Query().Get("room"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, s.logger, room.builder.View())
}

func writeJSON(w http.ResponseWriter, logger log.Log, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", log.Error(err))
	}
}
