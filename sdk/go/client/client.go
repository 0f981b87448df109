// Package client is a Go SDK for driving a droneforge room over websocket.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/droneforge/internal/core/assembly"
	"github.com/zeusync/droneforge/internal/core/builder"
	"github.com/zeusync/droneforge/internal/core/catalog"
	"github.com/zeusync/droneforge/internal/core/observability/log"
	"github.com/zeusync/droneforge/internal/core/projector"
	"github.com/zeusync/droneforge/internal/server"
)

// Client is one websocket connection to a room.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	seq      atomic.Uint64
	latest   atomic.Pointer[builder.Update]
	incoming chan server.Message
	dropped  atomic.Uint64

	stateHandlers []StateHandler
	handlerMutex  sync.RWMutex

	connected atomic.Bool
	closed    atomic.Bool
	done      chan struct{}
	readErr   error

	config Config
	logger log.Log

	workerGroup sync.WaitGroup
}

// Config holds configuration for the client
type Config struct {
	// ServerURL is the websocket endpoint, e.g. ws://localhost:8080/ws.
	ServerURL string
	Room      string
	Token     string

	ConnectTimeout    time.Duration
	WriteTimeout      time.Duration
	MessageBufferSize int

	LogLevel log.Level
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() Config {
	return Config{
		ServerURL:         "ws://localhost:8080/ws",
		ConnectTimeout:    10 * time.Second,
		WriteTimeout:      5 * time.Second,
		MessageBufferSize: 256,
		LogLevel:          log.LevelInfo,
	}
}

// StateHandler is called from the read loop for every state push. It must not
// block.
type StateHandler func(update builder.Update)

func NewClient(config Config) *Client {
	if config.MessageBufferSize <= 0 {
		config.MessageBufferSize = DefaultClientConfig().MessageBufferSize
	}
	logger := log.New(config.LogLevel)
	return &Client{
		incoming: make(chan server.Message, config.MessageBufferSize),
		done:     make(chan struct{}),
		config:   config,
		logger:   logger.With(log.String("component", "client")),
	}
}

// Dial creates a client with default settings and connects it to room.
func Dial(ctx context.Context, serverURL, room string) (*Client, error) {
	cfg := DefaultClientConfig()
	cfg.ServerURL = serverURL
	cfg.Room = room
	c := NewClient(cfg)
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Connect dials the server and waits for the initial state push.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if c.connected.Load() {
		return ErrAlreadyConnected
	}

	target, err := c.endpoint()
	if err != nil {
		return err
	}

	if c.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}

	c.logger.Info("Connecting to server", log.String("url", c.config.ServerURL), log.String("room", c.config.Room))
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		c.logger.Error("Failed to connect to server", log.String("url", c.config.ServerURL), log.Error(err))
		return err
	}

	var first server.Message
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}
	if err = conn.ReadJSON(&first); err != nil {
		_ = conn.Close()
		return fmt.Errorf("read initial state: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})
	if first.State != nil {
		c.latest.Store(first.State)
	}

	c.conn = conn
	c.connected.Store(true)

	c.workerGroup.Add(1)
	go c.readLoop()

	c.logger.Info("Connected to server", log.String("remote_addr", conn.RemoteAddr().String()))
	return nil
}

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.config.ServerURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: server url %q", ErrInvalidConfig, c.config.ServerURL)
	}
	q := u.Query()
	if c.config.Room != "" {
		q.Set("room", c.config.Room)
	}
	if c.config.Token != "" {
		q.Set("token", c.config.Token)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) readLoop() {
	defer c.workerGroup.Done()
	defer close(c.incoming)

	for {
		var msg server.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if !c.closed.Load() {
				c.readErr = err
				c.logger.Warn("Read loop stopped", log.Error(err))
			}
			c.connected.Store(false)
			return
		}

		if msg.Type == server.MessageState && msg.State != nil {
			c.latest.Store(msg.State)
			c.handlerMutex.RLock()
			for _, h := range c.stateHandlers {
				h(*msg.State)
			}
			c.handlerMutex.RUnlock()
		}

		c.push(msg)
	}
}

// push never blocks the read loop. A full buffer drops new state pushes, since
// State always holds the latest; replies evict the oldest queued message.
func (c *Client) push(msg server.Message) {
	select {
	case c.incoming <- msg:
		return
	default:
	}
	if msg.Type != server.MessageState {
		select {
		case <-c.incoming:
		default:
		}
		select {
		case c.incoming <- msg:
		default:
		}
	}
	if c.dropped.Add(1) == 1 {
		c.logger.Warn("Message buffer full, dropping messages",
			log.Int("buffer_size", cap(c.incoming)), log.String("type", msg.Type))
	}
}

// Dropped is the number of messages discarded because nobody drained Next.
func (c *Client) Dropped() uint64 {
	return c.dropped.Load()
}

// OnState registers a handler for state pushes.
func (c *Client) OnState(handler StateHandler) {
	c.handlerMutex.Lock()
	defer c.handlerMutex.Unlock()
	c.stateHandlers = append(c.stateHandlers, handler)
}

// State returns the most recent state pushed by the server.
func (c *Client) State() (builder.Update, bool) {
	u := c.latest.Load()
	if u == nil {
		return builder.Update{}, false
	}
	return *u, true
}

// Send writes cmd with a fresh sequence number and returns that number.
func (c *Client) Send(cmd server.Command) (uint64, error) {
	if c.closed.Load() {
		return 0, ErrClientClosed
	}
	if !c.connected.Load() {
		return 0, ErrNotConnected
	}
	cmd.Seq = c.seq.Add(1)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.config.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}
	if err := c.conn.WriteJSON(cmd); err != nil {
		c.logger.Error("Failed to send command", log.String("op", cmd.Op), log.Error(err))
		return 0, err
	}
	return cmd.Seq, nil
}

// Next returns the next message pushed by the server.
func (c *Client) Next(ctx context.Context) (server.Message, error) {
	select {
	case msg, ok := <-c.incoming:
		if !ok {
			if c.readErr != nil {
				return server.Message{}, c.readErr
			}
			return server.Message{}, ErrNotConnected
		}
		return msg, nil
	case <-ctx.Done():
		return server.Message{}, ctx.Err()
	}
}

// Do sends cmd and waits for its ack. Messages that arrive before the reply
// are consumed; the latest state stays available through State.
func (c *Client) Do(ctx context.Context, cmd server.Command) (server.Message, error) {
	seq, err := c.Send(cmd)
	if err != nil {
		return server.Message{}, err
	}
	for {
		msg, err := c.Next(ctx)
		if err != nil {
			return server.Message{}, err
		}
		if msg.Seq != seq {
			continue
		}
		switch msg.Type {
		case server.MessageAck:
			return msg, nil
		case server.MessageRejected:
			return msg, fmt.Errorf("%w: %s: %s", ErrRejected, msg.Op, msg.Error)
		}
	}
}

func (c *Client) Spawn(ctx context.Context, kind catalog.PartKind) (assembly.PartID, error) {
	msg, err := c.Do(ctx, server.Command{Op: server.OpSpawn, Kind: kind})
	return msg.PartID, err
}

func (c *Client) PickUp(ctx context.Context, id assembly.PartID) error {
	_, err := c.Do(ctx, server.Command{Op: server.OpPickUp, ID: id})
	return err
}

// Move moves the carried part when id is empty.
func (c *Client) Move(ctx context.Context, id assembly.PartID, pt projector.GroundPoint) error {
	_, err := c.Do(ctx, server.Command{Op: server.OpMove, ID: id, Point: &pt})
	return err
}

func (c *Client) StopCarry(ctx context.Context) error {
	_, err := c.Do(ctx, server.Command{Op: server.OpStopCarry})
	return err
}

func (c *Client) SetElevation(ctx context.Context, id assembly.PartID, y float64) error {
	_, err := c.Do(ctx, server.Command{Op: server.OpSetElevation, ID: id, Y: &y})
	return err
}

func (c *Client) Rotate(ctx context.Context, id assembly.PartID) error {
	_, err := c.Do(ctx, server.Command{Op: server.OpRotate, ID: id})
	return err
}

func (c *Client) Lock(ctx context.Context, id assembly.PartID) error {
	_, err := c.Do(ctx, server.Command{Op: server.OpLock, ID: id})
	return err
}

func (c *Client) Undo(ctx context.Context) error {
	_, err := c.Do(ctx, server.Command{Op: server.OpUndo})
	return err
}

func (c *Client) Redo(ctx context.Context) error {
	_, err := c.Do(ctx, server.Command{Op: server.OpRedo})
	return err
}

// Close sends a close frame and waits for the read loop to stop.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)

	var err error
	if c.conn != nil {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		if cerr := c.conn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
		c.workerGroup.Wait()
	}
	c.connected.Store(false)
	c.logger.Info("Client closed")
	return err
}
