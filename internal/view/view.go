// Package view projects session state into a render-ready value. It holds no
// logic of its own beyond formatting.
package view

import (
	"fmt"
	"sort"

	"github.com/DoyleJ11/take5-client/internal/engine"
	"github.com/DoyleJ11/take5-client/internal/session"
	"github.com/DoyleJ11/take5-client/pkg/types"
)

type Screen string

const (
	ScreenLobby Screen = "lobby"
	ScreenGame  Screen = "game"
)

// Phase tracks an animated card on the board. Cards without a phase are shown.
type Phase string

const (
	PhaseHidden  Phase = "hidden"
	PhaseLanding Phase = "landing"
)

const (
	maxBullheads = 3
	logCapacity  = 100
)

type CardView struct {
	Value     int  `json:"value"`
	Score     int  `json:"score"`
	Bullheads int  `json:"bullheads"`
	Visible   bool `json:"visible"`
	Landing   bool `json:"landing,omitempty"`
	Selected  bool `json:"selected,omitempty"`
}

type RowView struct {
	Index      int        `json:"index"`
	Cards      []CardView `json:"cards"`
	Score      int        `json:"score"`
	Predicted  bool       `json:"predicted,omitempty"`
	Selectable bool       `json:"selectable,omitempty"`
}

type PlayerView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Ready    bool   `json:"ready"`
	Online   bool   `json:"online"`
	Owner    bool   `json:"owner"`
	Me       bool   `json:"me"`
	Selected bool   `json:"selected"`
	Pending  bool   `json:"pending"`
}

type Standing struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Me     bool   `json:"me"`
	Winner bool   `json:"winner"`
}

type View struct {
	Version int            `json:"version"`
	Screen  Screen         `json:"screen"`
	RoomID  string         `json:"roomId,omitempty"`
	Me      types.Identity `json:"me"`
	Status  types.Status   `json:"status,omitempty"`

	Players []PlayerView `json:"players"`
	Rows    []RowView    `json:"rows"`
	Hand    []CardView   `json:"hand"`

	Lock              engine.LockState  `json:"lock"`
	HandLocked        bool              `json:"handLocked"`
	CanConfirm        bool              `json:"canConfirm"`
	CanChooseRow      bool              `json:"canChooseRow"`
	Prediction        engine.Prediction `json:"prediction"`
	PredictionMessage string            `json:"predictionMessage,omitempty"`

	Instruction      string `json:"instruction,omitempty"`
	ShowReady        bool   `json:"showReady"`
	ReadyLabel       string `json:"readyLabel,omitempty"`
	ReadyDisabled    bool   `json:"readyDisabled"`
	ShowDelete       bool   `json:"showDelete"`
	ShowRestart      bool   `json:"showRestart"`
	ShowForceRestart bool   `json:"showForceRestart"`
	Countdown        int    `json:"countdown,omitempty"`

	Stats       []types.PlayerStat  `json:"stats"`
	GameOver    []Standing          `json:"gameOver,omitempty"`
	Alert       string              `json:"alert,omitempty"`
	Log         []string            `json:"log"`
	Transitions []engine.Transition `json:"transitions,omitempty"`
	Rooms       []types.RoomSummary `json:"rooms,omitempty"`
}

// Input is everything Build needs besides the session itself.
type Input struct {
	Version     int
	Screen      Screen
	Prediction  engine.Prediction
	Phases      map[int]Phase
	Transitions []engine.Transition
	Alert       string
	Log         *Log
	Rooms       []types.RoomSummary
}

func Build(sess *session.Context, in Input) View {
	v := View{
		Version:     in.Version,
		Screen:      in.Screen,
		RoomID:      sess.RoomID,
		Me:          sess.Identity,
		Lock:        sess.Lock.State(),
		HandLocked:  sess.Lock.HandLocked(),
		CanConfirm:  sess.Lock.CanConfirm(),
		Prediction:  in.Prediction,
		Stats:       sess.Stats,
		Alert:       in.Alert,
		Transitions: in.Transitions,
		Rooms:       in.Rooms,
		Players:     []PlayerView{},
		Rows:        []RowView{},
		Hand:        []CardView{},
		Log:         []string{},
	}
	if in.Log != nil {
		v.Log = in.Log.Lines()
	}
	v.PredictionMessage = PredictionMessage(in.Prediction)

	st := sess.State
	if st == nil {
		return v
	}
	ps := st.PublicState
	v.Status = ps.Status
	v.CanChooseRow = engine.CanChooseRow(ps, sess.Identity.ID)

	for _, p := range SortedPlayers(ps.Players) {
		v.Players = append(v.Players, PlayerView{
			ID:       p.ID,
			Name:     p.Name,
			Score:    p.Score,
			Ready:    p.Ready,
			Online:   p.IsOnline,
			Owner:    p.ID == ps.OwnerID,
			Me:       p.ID == sess.Identity.ID,
			Selected: p.HasSelected,
			Pending:  p.ID == ps.PendingPlayerID,
		})
	}

	for idx, row := range ps.Rows {
		rv := RowView{
			Index:      idx,
			Cards:      []CardView{},
			Score:      row.Score(),
			Predicted:  in.Prediction.Row == idx && in.Prediction.Kind != engine.PredictionNone,
			Selectable: v.CanChooseRow,
		}
		for _, c := range row.Cards {
			cv := cardView(c)
			switch in.Phases[c.Value] {
			case PhaseHidden:
				cv.Visible = false
			case PhaseLanding:
				cv.Landing = true
			}
			rv.Cards = append(rv.Cards, cv)
		}
		v.Rows = append(v.Rows, rv)
	}

	selected := sess.Lock.Selected()
	for _, c := range st.MyHand {
		cv := cardView(c)
		cv.Selected = selected != nil && *selected == c.Value
		v.Hand = append(v.Hand, cv)
	}

	isOwner := sess.IsOwner()
	v.ShowDelete = isOwner
	v.ShowRestart = isOwner && ps.Status == types.StatusFinished
	v.ShowForceRestart = isOwner && ps.Status == types.StatusPlaying && anyOffline(ps.Players)

	applyInstructions(&v, sess)

	if ps.Status == types.StatusFinished {
		v.GameOver = Standings(ps.Players, sess.Identity.ID)
	}
	return v
}

func cardView(c types.Card) CardView {
	return CardView{Value: c.Value, Score: c.Score, Bullheads: min(c.Score, maxBullheads), Visible: true}
}

func anyOffline(players map[string]types.PlayerPublic) bool {
	for _, p := range players {
		if !p.IsOnline {
			return true
		}
	}
	return false
}

func applyInstructions(v *View, sess *session.Context) {
	ps := sess.State.PublicState
	if sess.Countdown > 0 {
		v.Countdown = sess.Countdown
		v.Instruction = fmt.Sprintf("A new game starts in %d seconds...", sess.Countdown)
		return
	}

	switch ps.Status {
	case types.StatusWaiting:
		me, _ := sess.Me()
		v.ShowReady = true
		v.ReadyDisabled = me.Ready
		if me.Ready {
			v.ReadyLabel = "Waiting for others..."
		} else {
			v.ReadyLabel = "Ready"
		}
	case types.StatusChoosingRow:
		if ps.PendingPlayerID == sess.Identity.ID {
			v.Instruction = "Pick a row to take!"
		} else if p, ok := ps.Players[ps.PendingPlayerID]; ok {
			v.Instruction = fmt.Sprintf("Waiting for %s to pick a row...", p.Name)
		} else {
			v.Instruction = "Waiting for someone to pick a row..."
		}
	}
}

func PredictionMessage(p engine.Prediction) string {
	switch p.Kind {
	case engine.PredictionRow:
		return fmt.Sprintf("Expected to land in row %d", p.Row+1)
	case engine.PredictionForcedPickup:
		if p.Row >= 0 {
			return fmt.Sprintf("This card would be the 6th in row %d and collect it.", p.Row+1)
		}
		return "This card may force you to take a row, choose carefully."
	default:
		return ""
	}
}

// Standings ranks players by ascending score; the lowest score wins.
func Standings(players map[string]types.PlayerPublic, myID string) []Standing {
	sorted := SortedPlayers(players)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score < sorted[j].Score })

	out := make([]Standing, 0, len(sorted))
	for i, p := range sorted {
		out = append(out, Standing{Rank: i + 1, Name: p.Name, Score: p.Score, Me: p.ID == myID, Winner: i == 0})
	}
	return out
}

// Log keeps the most recent lines, newest first.
type Log struct {
	lines []string
}

func (l *Log) Add(line string) {
	l.lines = append([]string{line}, l.lines...)
	if len(l.lines) > logCapacity {
		l.lines = l.lines[:logCapacity]
	}
}

func (l *Log) Lines() []string {
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}
