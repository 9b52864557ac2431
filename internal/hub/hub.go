package hub

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mkarlsen/roomcast/internal/observability"
	"github.com/mkarlsen/roomcast/internal/session"
)

// Hub sequences connection lifecycle events against the session store and
// broadcasts the resulting chat and presence events to room members.
//
// Each of Join, Message, and Disconnect runs start-to-finish under a single
// mutex, so every member-list snapshot observes the state produced by the
// mutation that triggered it. A departing session never appears in its own
// "has left" snapshot.
type Hub struct {
	mu     sync.Mutex
	store  *session.Store
	logger *zap.Logger
}

// NewHub creates a Hub over the given session store.
//
// Precondition: store and logger must be non-nil.
func NewHub(store *session.Store, logger *zap.Logger) *Hub {
	return &Hub{
		store:  store,
		logger: logger,
	}
}

// Join registers the connection under the given nickname and room, then
// announces the arrival and a fresh member list to the whole room, joiner
// included. Nickname and room are accepted as-is; empty strings are valid.
//
// A join from an already-joined connection replaces the record. When the
// room changes, the old room first receives the full leave sequence so its
// members do not keep a stale view of the departed session.
//
// Precondition: out must be non-nil and owned by the connection for its
// whole lifetime; the hub never closes it.
func (h *Hub) Join(id, nickname, room string, out *session.Outbox) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.store.Lookup(id); ok && prev.Room != room {
		h.store.Remove(id)
		h.announceLeave(prev)
	}

	sess := h.store.Register(id, nickname, room, out)

	h.logger.Info("session joined",
		zap.String("id", id),
		zap.String("nickname", nickname),
		zap.String("room", room),
	)
	observability.EventsTotal.WithLabelValues("join").Inc()
	observability.SessionsActive.Set(float64(h.store.Count()))

	h.announceJoin(sess)
}

// Message broadcasts chat text to the sender's room, echoed to the entire
// room including the sender so every client renders one transcript order.
// A message from an unjoined connection is silently dropped: no broadcast,
// no feedback to the sender.
func (h *Hub) Message(id, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.store.Lookup(id)
	if !ok {
		h.logger.Debug("chat from unjoined connection dropped",
			zap.String("id", id),
		)
		return
	}

	observability.EventsTotal.WithLabelValues("chat").Inc()

	data, err := encodeEvent(EventChatMessage, ChatMessage{
		Nickname: sess.DisplayName,
		Message:  text,
	})
	if err != nil {
		h.logger.Error("encoding chat message", zap.Error(err))
		return
	}
	h.sendToRoom(sess.Room, "", data)
}

// Disconnect removes the connection's session, if any, and announces the
// departure to the room it was in. The member snapshot is computed after
// removal. Disconnect of an unjoined or already-removed connection is a
// no-op, so repeated disconnects are safe.
func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.store.Remove(id)
	if !ok {
		return
	}

	h.logger.Info("session disconnected",
		zap.String("id", id),
		zap.String("nickname", sess.DisplayName),
		zap.String("room", sess.Room),
	)
	observability.EventsTotal.WithLabelValues("disconnect").Inc()
	observability.SessionsActive.Set(float64(h.store.Count()))

	h.announceLeave(sess)
}

// MembersOf returns the display names of the room's current sessions in
// insertion order.
func (h *Hub) MembersOf(room string) []string {
	return h.store.MembersOf(room)
}

// announceJoin emits the join sequence to sess's room: the system text
// first, then the member snapshot. Caller must hold h.mu.
func (h *Hub) announceJoin(sess *session.Session) {
	h.systemMessage(sess.Room, fmt.Sprintf("%s has joined", sess.DisplayName))
	h.pushUserList(sess.Room)
}

// announceLeave emits the leave sequence to the room sess was in. The
// session must already be removed from the store. Caller must hold h.mu.
func (h *Hub) announceLeave(sess *session.Session) {
	h.systemMessage(sess.Room, fmt.Sprintf("%s has left", sess.DisplayName))
	h.pushUserList(sess.Room)
}

func (h *Hub) systemMessage(room, text string) {
	data, err := encodeEvent(EventSystemMessage, text)
	if err != nil {
		h.logger.Error("encoding system message", zap.Error(err))
		return
	}
	h.sendToRoom(room, "", data)
}

func (h *Hub) pushUserList(room string) {
	members := h.store.MembersOf(room)
	if members == nil {
		members = []string{}
	}
	data, err := encodeEvent(EventUserList, UserList{
		RoomName: room,
		UserList: members,
	})
	if err != nil {
		h.logger.Error("encoding user list", zap.Error(err))
		return
	}
	h.sendToRoom(room, "", data)
}

// sendToRoom pushes data to every session currently in the room except the
// one named by excludeID (empty = deliver to all). Delivery is best-effort:
// a failed push is logged and dropped.
func (h *Hub) sendToRoom(room, excludeID string, data []byte) {
	for _, sess := range h.store.SessionsInRoom(room) {
		if sess.ID == excludeID {
			continue
		}
		if err := sess.Outbox.Push(data); err != nil {
			h.logger.Warn("push to outbox failed",
				zap.String("id", sess.ID),
				zap.String("room", room),
				zap.Error(err),
			)
			observability.DeliveryDropsTotal.Inc()
			continue
		}
		observability.DeliveriesTotal.Inc()
	}
}
