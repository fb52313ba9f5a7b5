package room

import (
	"github.com/DoyleJ11/take5-client/internal/engine"
	"github.com/DoyleJ11/take5-client/internal/types"
	"github.com/DoyleJ11/take5-client/internal/view"
	wire "github.com/DoyleJ11/take5-client/pkg/types"
)

type Msg interface{ isRoomMsg() }

// FromServer carries one decoded push. From is the channel it was read from;
// pushes from a channel the controller no longer holds are dropped.
type FromServer struct {
	From Sender
	In   types.Inbound
}

func (FromServer) isRoomMsg() {}

type Tap struct{ Value int }

func (Tap) isRoomMsg() {}

// Confirm submits the selected card. Origin is where the card was drawn when
// it was submitted; nil falls back to the grid layout.
type Confirm struct{ Origin *engine.Rect }

func (Confirm) isRoomMsg() {}

type ChooseRow struct{ Row int }

func (ChooseRow) isRoomMsg() {}

type Ready struct{}

func (Ready) isRoomMsg() {}

type Restart struct{}

func (Restart) isRoomMsg() {}

type ForceRestart struct{}

func (ForceRestart) isRoomMsg() {}

// Leave returns to the lobby. Passive leaves skip the leave_room action.
type Leave struct{ Passive bool }

func (Leave) isRoomMsg() {}

type Delete struct{}

func (Delete) isRoomMsg() {}

type DismissAlert struct{}

func (DismissAlert) isRoomMsg() {}

// Attach hands the controller a freshly dialled game channel.
type Attach struct{ Sender Sender }

func (Attach) isRoomMsg() {}

// AttachLobby registers the lobby channel. It is forgotten on entering a room.
type AttachLobby struct{ Source Sender }

func (AttachLobby) isRoomMsg() {}

// Identify validates the display name and returns the identity to log in with.
type Identify struct {
	Name  string
	Reply chan IdentifyReply
}

func (Identify) isRoomMsg() {}

type IdentifyReply struct {
	Identity wire.Identity
	Err      error
}

// Alert surfaces a local failure the same way a server error is shown.
type Alert struct{ Text string }

func (Alert) isRoomMsg() {}

// Arrived and Settled are posted by animation timers.
type Arrived struct{ Value int }

func (Arrived) isRoomMsg() {}

type Settled struct{ Value int }

func (Settled) isRoomMsg() {}

type Subscribe struct {
	ID     string
	Outbox chan view.View
}

func (Subscribe) isRoomMsg() {}

type Unsubscribe struct{ ID string }

func (Unsubscribe) isRoomMsg() {}

type GetView struct {
	Reply chan view.View
}

func (GetView) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

// Sender is the outbound half of the game channel.
type Sender interface {
	Send(a wire.Action)
	Close()
}

// Journal records play events for later inspection. Record must not block.
type Journal interface {
	Record(roomID string, ev engine.PlayEvent)
}
