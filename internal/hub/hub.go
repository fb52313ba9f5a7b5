package hub

import (
	"context"
	"slices"

	wire "github.com/DoyleJ11/take5-client/pkg/types"
)

type HubMsg interface{ isHubMsg() }

// UpdateRooms replaces the directory with the latest room_list push.
type UpdateRooms struct {
	Rooms []wire.RoomSummary
}

type GetRooms struct {
	Reply chan []wire.RoomSummary
}

type HasRoom struct {
	ID    string
	Reply chan bool
}

type ShutdownHub struct{}

func (UpdateRooms) isHubMsg() {}
func (GetRooms) isHubMsg()    {}
func (HasRoom) isHubMsg()     {}
func (ShutdownHub) isHubMsg() {}

// Hub is the client's view of the server's room directory.
type Hub struct {
	inbox  chan HubMsg
	rooms  []wire.RoomSummary
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  []wire.RoomSummary{},
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case UpdateRooms:
				h.rooms = slices.Clone(msg.Rooms)

			case GetRooms:
				msg.Reply <- slices.Clone(h.rooms)

			case HasRoom:
				msg.Reply <- slices.ContainsFunc(h.rooms, func(r wire.RoomSummary) bool { return r.ID == msg.ID })

			case ShutdownHub:
				h.rooms = nil
				h.cancel()
			}
		}
	}
}

// Rooms asks the directory for a copy of the current list.
func (h *Hub) Rooms(ctx context.Context) ([]wire.RoomSummary, error) {
	reply := make(chan []wire.RoomSummary, 1)
	select {
	case h.inbox <- GetRooms{Reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case rooms := <-reply:
		return rooms, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Listed reports whether id appears in the last room list received.
func (h *Hub) Listed(ctx context.Context, id string) (bool, error) {
	reply := make(chan bool, 1)
	select {
	case h.inbox <- HasRoom{ID: id, Reply: reply}:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case ok := <-reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
