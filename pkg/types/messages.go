package types

// Server -> Client (game channel), envelope {type, payload}:
//   identity               {id, name}
//   error                  "free text"
//   state                  StatePayload
//   info                   "free text"
//   stats                  [PlayerStat]
//   room_closed            ""
//   auto_restart_countdown {Count}
//
// Server -> Client (lobby channel):
//   room_list              [RoomSummary]
//
// Client -> Server (game channel), flat Action object:
//   create_room / login    {id, payload: name, roomId}
//   leave_room, delete_room, ready, restart, force_restart  {}
//   play_card              {value: card}
//   choose_row             {value: row index}

const (
	TagIdentity     = "identity"
	TagError        = "error"
	TagState        = "state"
	TagInfo         = "info"
	TagStats        = "stats"
	TagRoomClosed   = "room_closed"
	TagCountdown    = "auto_restart_countdown"
	TagRoomList     = "room_list"
	ActCreateRoom   = "create_room"
	ActLogin        = "login"
	ActLeaveRoom    = "leave_room"
	ActDeleteRoom   = "delete_room"
	ActReady        = "ready"
	ActRestart      = "restart"
	ActForceRestart = "force_restart"
	ActPlayCard     = "play_card"
	ActChooseRow    = "choose_row"
)

type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PlayerStat struct {
	Name       string `json:"name"`
	TotalGames int    `json:"totalGames"`
	TotalScore int    `json:"totalScore"`
}

type RoomSummary struct {
	ID          string `json:"id"`
	OwnerName   string `json:"ownerName"`
	PlayerCount int    `json:"playerCount"`
	Status      Status `json:"status"`
}

// Countdown keeps the server's capitalised field name.
type Countdown struct {
	Count int `json:"Count"`
}

// Action is every outbound command. Value is never omitted because row 0 is a
// valid choose_row target.
type Action struct {
	Type    string `json:"type"`
	Value   int    `json:"value"`
	Payload string `json:"payload,omitempty"`
	ID      string `json:"id,omitempty"`
	RoomID  string `json:"roomId,omitempty"`
}
