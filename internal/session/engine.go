package session

import (
	"github.com/coderoom/coderoom/internal/protocol"
	"github.com/coderoom/coderoom/internal/room"
)

// Outbound is one addressed notification produced by a state transition.
// The hub delivers Data under Event to every connection id in Conns.
type Outbound struct {
	Conns []string
	Event protocol.Event
	Data  any
}

// Engine translates protocol events into room store mutations plus
// outbound notifications. Every method is a plain state transition:
// (event, store, registry) in, outbound envelopes out. Delivery, sockets,
// and scheduling belong to the caller.
type Engine struct {
	store    *room.Store
	registry *Registry
}

func NewEngine(store *room.Store) *Engine {
	return &Engine{
		store:    store,
		registry: NewRegistry(),
	}
}

// Connect initializes registry state for a new connection.
func (e *Engine) Connect(connID string) {
	e.registry.Register(connID)
}

// Join binds the connection to a room, implicitly leaving any previous
// room first. The joiner alone receives the room's current document; the
// whole room, joiner included, receives the updated member list.
func (e *Engine) Join(connID, roomID, user string) []Outbound {
	outs := e.leave(connID)

	e.store.Ensure(roomID)
	e.store.AddMember(roomID, connID, user)
	e.registry.Bind(connID, roomID, user)

	doc, _ := e.store.Document(roomID)
	outs = append(outs,
		Outbound{Conns: []string{connID}, Event: protocol.EventCodeUpdate, Data: doc},
		Outbound{Conns: e.store.MemberConns(roomID), Event: protocol.EventUserJoined, Data: e.store.MemberNames(roomID)},
	)
	return outs
}

// CodeChange overwrites the room's document and notifies every member
// except the sender, whose editor already holds the text.
func (e *Engine) CodeChange(connID, roomID, code string) []Outbound {
	if !e.store.Exists(roomID) {
		return nil
	}
	e.store.SetDocument(roomID, code)

	conns := excluding(e.store.MemberConns(roomID), connID)
	if len(conns) == 0 {
		return nil
	}
	return []Outbound{{Conns: conns, Event: protocol.EventCodeUpdate, Data: code}}
}

// Typing relays a transient typing signal to every other member. Nothing
// is stored.
func (e *Engine) Typing(connID, roomID, user string) []Outbound {
	conns := excluding(e.store.MemberConns(roomID), connID)
	if len(conns) == 0 {
		return nil
	}
	return []Outbound{{Conns: conns, Event: protocol.EventUserTyping, Data: user}}
}

// LanguageChange overwrites the room's language and notifies every member
// including the sender, whose UI transition is driven by the broadcast.
func (e *Engine) LanguageChange(connID, roomID, lang string) []Outbound {
	if !e.store.Exists(roomID) {
		return nil
	}
	e.store.SetLanguage(roomID, lang)
	return []Outbound{{Conns: e.store.MemberConns(roomID), Event: protocol.EventLanguageUpdate, Data: lang}}
}

// Leave removes the connection from its bound room, if any.
func (e *Engine) Leave(connID string) []Outbound {
	return e.leave(connID)
}

// Disconnect runs the same cleanup as Leave and then drops the registry
// entry. Safe after an explicit leave: there is nothing left to clear.
func (e *Engine) Disconnect(connID string) []Outbound {
	outs := e.leave(connID)
	e.registry.Unregister(connID)
	return outs
}

func (e *Engine) leave(connID string) []Outbound {
	b, ok := e.registry.Clear(connID)
	if !ok {
		return nil
	}

	removed, destroyed := e.store.RemoveMember(b.Room, connID)
	if !removed || destroyed {
		return nil
	}
	return []Outbound{{
		Conns: e.store.MemberConns(b.Room),
		Event: protocol.EventUserJoined,
		Data:  e.store.MemberNames(b.Room),
	}}
}

// RoomExists reports whether an execution request still has a target.
func (e *Engine) RoomExists(roomID string) bool {
	return e.store.Exists(roomID)
}

// ExecutionResult addresses a finished run to the room's current members.
// Returns nothing if the room died while the run was in flight.
func (e *Engine) ExecutionResult(roomID string, payload any) []Outbound {
	conns := e.store.MemberConns(roomID)
	if len(conns) == 0 {
		return nil
	}
	return []Outbound{{Conns: conns, Event: protocol.EventCodeResponse, Data: payload}}
}

// Binding exposes the connection's current binding for logging.
func (e *Engine) Binding(connID string) (Binding, bool) {
	return e.registry.Get(connID)
}

func excluding(conns []string, connID string) []string {
	out := conns[:0]
	for _, c := range conns {
		if c != connID {
			out = append(out, c)
		}
	}
	return out
}
