package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coderoom/coderoom/internal/metrics"
	"github.com/coderoom/coderoom/internal/protocol"
	"github.com/coderoom/coderoom/internal/room"
	"github.com/coderoom/coderoom/internal/runner"
	"github.com/coderoom/coderoom/internal/session"
	"github.com/coderoom/coderoom/internal/stats"
)

// Runner executes shared code against the external service.
type Runner interface {
	Run(ctx context.Context, req runner.Request) (json.RawMessage, error)
}

// Options carries the hub's optional collaborators and tunables.
type Options struct {
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
	Stats        *stats.Store
	MessageRate  float64
	MessageBurst int
}

// Hub owns the set of active clients and serializes every protocol event
// through one run loop, so room mutations and broadcasts stay in
// as-if-sequential order. Only the outbound execution call leaves the loop.
type Hub struct {
	engine *session.Engine
	store  *room.Store
	runner Runner

	logger   *zap.Logger
	metrics  *metrics.Metrics
	stats    *stats.Store
	msgRate  float64
	msgBurst int

	// Inbound frames from clients
	frames chan inboundFrame

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Finished execution results
	results chan runResult

	mu      sync.RWMutex
	clients map[string]*Client
}

type inboundFrame struct {
	client *Client
	frame  protocol.Frame
}

type runResult struct {
	roomID  string
	payload map[string]any
}

func NewHub(engine *session.Engine, store *room.Store, run Runner, opts Options) *Hub {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MessageRate <= 0 {
		opts.MessageRate = 100
	}
	if opts.MessageBurst <= 0 {
		opts.MessageBurst = 200
	}
	return &Hub{
		engine:     engine,
		store:      store,
		runner:     run,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		stats:      opts.Stats,
		msgRate:    opts.MessageRate,
		msgBurst:   opts.MessageBurst,
		frames:     make(chan inboundFrame),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		results:    make(chan runResult, 16),
		clients:    make(map[string]*Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			clientCount := len(h.clients)
			h.mu.Unlock()

			h.engine.Connect(client.id)
			h.metrics.ClientConnected()
			h.recordStat(stats.CounterConnections)
			h.logger.Info("client connected",
				zap.String("conn_id", client.id),
				zap.Int("total", clientCount))

		case client := <-h.unregister:
			h.dropClient(client.id)

		case in := <-h.frames:
			h.handleFrame(in)

		case result := <-h.results:
			h.deliver(h.engine.ExecutionResult(result.roomID, result.payload))
		}
	}
}

func (h *Hub) handleFrame(in inboundFrame) {
	connID := in.client.id

	switch in.frame.Event {
	case protocol.EventJoin:
		var p protocol.JoinPayload
		if err := json.Unmarshal(in.frame.Data, &p); err != nil || p.RoomID == "" || p.UserName == "" {
			return
		}
		h.deliver(h.engine.Join(connID, p.RoomID, p.UserName))
		h.metrics.SetRooms(h.store.Count())
		h.recordStat(stats.CounterJoins)
		h.logger.Info("client joined room",
			zap.String("conn_id", connID),
			zap.String("room", p.RoomID),
			zap.String("user", p.UserName))

	case protocol.EventCodeChange:
		var p protocol.CodeChangePayload
		if err := json.Unmarshal(in.frame.Data, &p); err != nil || p.RoomID == "" {
			return
		}
		h.deliver(h.engine.CodeChange(connID, p.RoomID, p.Code))

	case protocol.EventTyping:
		var p protocol.TypingPayload
		if err := json.Unmarshal(in.frame.Data, &p); err != nil || p.RoomID == "" || p.UserName == "" {
			return
		}
		h.deliver(h.engine.Typing(connID, p.RoomID, p.UserName))

	case protocol.EventLanguageChange:
		var p protocol.LanguageChangePayload
		if err := json.Unmarshal(in.frame.Data, &p); err != nil || p.RoomID == "" || p.Language == "" {
			return
		}
		h.deliver(h.engine.LanguageChange(connID, p.RoomID, p.Language))

	case protocol.EventCompileCode:
		var p protocol.CompilePayload
		if err := json.Unmarshal(in.frame.Data, &p); err != nil || p.RoomID == "" || p.Language == "" {
			return
		}
		h.startExecution(p)

	case protocol.EventLeaveRoom:
		h.deliver(h.engine.Leave(connID))
		h.metrics.SetRooms(h.store.Count())
		h.logger.Info("client left room", zap.String("conn_id", connID))

	default:
		h.logger.Debug("ignoring unknown event",
			zap.String("conn_id", connID),
			zap.String("event", string(in.frame.Event)))
	}
}

// startExecution fires the external call off-loop. The result comes back
// through h.results so the broadcast decision runs on the loop, where a
// room destroyed mid-flight is seen and the response discarded.
func (h *Hub) startExecution(p protocol.CompilePayload) {
	if !h.engine.RoomExists(p.RoomID) {
		return
	}

	requestID := uuid.NewString()
	req := runner.Request{
		Language: p.Language,
		Version:  p.Version,
		Code:     p.Code,
		Stdin:    p.Input,
	}
	h.recordStat(stats.CounterExecutions)

	go func() {
		raw, err := h.runner.Run(context.Background(), req)
		var payload map[string]any
		if err != nil {
			h.logger.Warn("execution failed",
				zap.String("room", p.RoomID),
				zap.String("request_id", requestID),
				zap.Error(err))
			h.metrics.RecordExecution("failure")
			h.recordStat(stats.CounterExecutionFailures)
			payload = runner.ErrorPayload(requestID)
		} else {
			h.metrics.RecordExecution("success")
			payload = runner.ResultPayload(requestID, raw)
		}
		h.results <- runResult{roomID: p.RoomID, payload: payload}
	}()
}

func (h *Hub) deliver(outs []session.Outbound) {
	var dropped []string

	for _, out := range outs {
		raw, err := protocol.EncodeFrame(out.Event, out.Data)
		if err != nil {
			h.logger.Error("encode outbound frame", zap.String("event", string(out.Event)), zap.Error(err))
			continue
		}
		h.metrics.RecordBroadcast(string(out.Event))

		for _, connID := range out.Conns {
			h.mu.RLock()
			client, ok := h.clients[connID]
			h.mu.RUnlock()
			if !ok {
				continue
			}

			select {
			case client.send <- raw:
			default:
				dropped = append(dropped, connID)
			}
		}
	}

	for _, connID := range dropped {
		h.metrics.RecordSlowClientDrop()
		h.logger.Warn("dropping slow client", zap.String("conn_id", connID))
		h.dropClient(connID)
	}
}

// dropClient tears down a connection exactly once: later calls for the
// same id find nothing and return.
func (h *Hub) dropClient(connID string) {
	h.mu.Lock()
	client, ok := h.clients[connID]
	if ok {
		delete(h.clients, connID)
	}
	clientCount := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}

	close(client.send)
	h.metrics.ClientDisconnected()
	outs := h.engine.Disconnect(connID)
	h.metrics.SetRooms(h.store.Count())
	h.logger.Info("client disconnected",
		zap.String("conn_id", connID),
		zap.Int("remaining", clientCount))
	h.deliver(outs)
}

func (h *Hub) recordStat(name string) {
	if h.stats == nil {
		return
	}
	if err := h.stats.Increment(name); err != nil {
		h.logger.Debug("stats increment failed", zap.String("counter", name), zap.Error(err))
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetRoomCount returns the number of live rooms.
func (h *Hub) GetRoomCount() int {
	return h.store.Count()
}
