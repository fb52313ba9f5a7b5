package types

// Status is the room lifecycle stage as reported by the server.
type Status string

const (
	StatusWaiting     Status = "waiting"
	StatusPlaying     Status = "playing"
	StatusChoosingRow Status = "choosing_row"
	StatusFinished    Status = "finished"
)

// InRound reports whether a round is in progress (cards may be held or pending).
func (s Status) InRound() bool {
	return s == StatusPlaying || s == StatusChoosingRow
}

// Card is a single card. OwnerID is only set on cards that were played onto the
// board during the current game.
type Card struct {
	Value   int    `json:"value"`
	Score   int    `json:"score"`
	OwnerID string `json:"ownerId,omitempty"`
}

type Row struct {
	Cards []Card `json:"cards"`
}

// Top returns the last card of the row.
func (r Row) Top() (Card, bool) {
	if len(r.Cards) == 0 {
		return Card{}, false
	}
	return r.Cards[len(r.Cards)-1], true
}

// Score is the bullhead total a player collecting this row would take.
func (r Row) Score() int {
	total := 0
	for _, c := range r.Cards {
		total += c.Score
	}
	return total
}

type PlayerPublic struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	HandSize    int    `json:"handSize"`
	Ready       bool   `json:"ready"`
	IsOnline    bool   `json:"isOnline"`
	HasSelected bool   `json:"hasSelected"`
	IsOwner     bool   `json:"isOwner,omitempty"`
}

// PublicState is the room state every player sees. It always replaces the
// previous one wholesale.
type PublicState struct {
	Status          Status                  `json:"status"`
	Players         map[string]PlayerPublic `json:"players"`
	Rows            []Row                   `json:"rows"`
	OwnerID         string                  `json:"ownerId"`
	PendingPlayerID string                  `json:"pendingPlayerId"`
	PendingCard     *Card                   `json:"pendingCard"`
}

// StatePayload is the body of a "state" push: the public state plus the view
// private to the receiving connection.
type StatePayload struct {
	RoomID         string      `json:"roomId"`
	PublicState    PublicState `json:"publicState"`
	MyHand         []Card      `json:"myHand"`
	MySelectedCard *int        `json:"mySelectedCard,omitempty"`
}
