package view

import (
	"sort"

	"github.com/DoyleJ11/take5-client/internal/engine"
	"github.com/DoyleJ11/take5-client/pkg/types"
)

// Grid geometry in abstract screen units.
const (
	CardWidth    = 50.0
	CardHeight   = 80.0
	Gap          = 10.0
	AvatarWidth  = 100.0
	AvatarHeight = 30.0
	RowLabel     = 60.0
	BoardTop     = AvatarHeight + 2*Gap
)

// GridLayout places avatars in a strip on top, the board below it and the hand
// at the bottom. It is rebuilt from every push, so positions follow the
// current player list.
type GridLayout struct {
	avatars map[string]int
	rows    []int
	hand    []int
}

func NewGridLayout(st *types.StatePayload) *GridLayout {
	g := &GridLayout{avatars: map[string]int{}}
	if st == nil {
		return g
	}
	for i, p := range SortedPlayers(st.PublicState.Players) {
		g.avatars[p.ID] = i
	}
	for _, row := range st.PublicState.Rows {
		g.rows = append(g.rows, len(row.Cards))
	}
	for _, c := range st.MyHand {
		g.hand = append(g.hand, c.Value)
	}
	return g
}

func (g *GridLayout) AvatarRect(playerID string) (engine.Rect, bool) {
	i, ok := g.avatars[playerID]
	if !ok {
		return engine.Rect{}, false
	}
	return engine.Rect{Left: float64(i) * (AvatarWidth + Gap), Top: 0, Width: AvatarWidth, Height: AvatarHeight}, true
}

func (g *GridLayout) SlotRect(row, slot int) (engine.Rect, bool) {
	if row < 0 || row >= len(g.rows) || slot < 0 || slot >= g.rows[row] {
		return engine.Rect{}, false
	}
	return engine.Rect{
		Left:   RowLabel + float64(slot)*(CardWidth+Gap),
		Top:    BoardTop + float64(row)*(CardHeight+Gap),
		Width:  CardWidth,
		Height: CardHeight,
	}, true
}

// HandRect is where a hand card is drawn; it doubles as the submission origin.
func (g *GridLayout) HandRect(value int) (engine.Rect, bool) {
	for i, v := range g.hand {
		if v == value {
			top := BoardTop + float64(len(g.rows))*(CardHeight+Gap) + 2*Gap
			return engine.Rect{Left: float64(i) * (CardWidth + Gap), Top: top, Width: CardWidth, Height: CardHeight}, true
		}
	}
	return engine.Rect{}, false
}

// SortedPlayers orders players by name, then id.
func SortedPlayers(players map[string]types.PlayerPublic) []types.PlayerPublic {
	out := make([]types.PlayerPublic, 0, len(players))
	for _, p := range players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}
