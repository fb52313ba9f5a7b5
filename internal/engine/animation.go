package engine

import (
	"time"

	"github.com/DoyleJ11/take5-client/pkg/types"
)

const (
	CloneDuration = 600 * time.Millisecond
	// ArrivalDelay leaves a little slack after the clone finishes moving.
	ArrivalDelay     = 650 * time.Millisecond
	EmphasisDuration = 500 * time.Millisecond
	CloneStartScale  = 0.5
)

var CloneEasing = CubicBezier{X1: 0.2, Y1: 0.8, X2: 0.2, Y2: 1}

type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Center() (float64, float64) {
	return r.Left + r.Width/2, r.Top + r.Height/2
}

// Layout is provided by the presentation layer.
type Layout interface {
	AvatarRect(playerID string) (Rect, bool)
	SlotRect(row, slot int) (Rect, bool)
}

// OneShot holds the screen rectangle of the card the local player last
// submitted. It is consumed by the first landing that uses it.
type OneShot struct {
	rect *Rect
}

func (o *OneShot) Capture(r Rect) { o.rect = &r }

func (o *OneShot) Armed() bool { return o.rect != nil }

func (o *OneShot) Clear() { o.rect = nil }

func (o *OneShot) Take() (Rect, bool) {
	if o.rect == nil {
		return Rect{}, false
	}
	r := *o.rect
	o.rect = nil
	return r, true
}

type OriginKind string

const (
	OriginSubmission OriginKind = "submission"
	OriginAvatar     OriginKind = "avatar"
	OriginNone       OriginKind = "none"
)

// Transition describes how one landed card reaches its slot. With OriginNone the
// card is placed immediately at full visibility.
type Transition struct {
	CardValue int           `json:"cardValue"`
	Row       int           `json:"row"`
	Slot      int           `json:"slot"`
	OwnerID   string        `json:"ownerId,omitempty"`
	Origin    OriginKind    `json:"origin"`
	From      Rect          `json:"from"`
	To        Rect          `json:"to"`
	FromScale float64       `json:"fromScale"`
	ToScale   float64       `json:"toScale"`
	Duration  time.Duration `json:"duration"`
	Emphasis  time.Duration `json:"emphasis"`
	Easing    CubicBezier   `json:"easing"`
}

func (t Transition) Animated() bool { return t.Origin != OriginNone }

// Frame returns the clone's rectangle and scale after elapsed time.
func (t Transition) Frame(elapsed time.Duration) (Rect, float64) {
	if !t.Animated() || t.Duration <= 0 {
		return t.To, t.ToScale
	}
	p := float64(elapsed) / float64(t.Duration)
	e := t.Easing.Ease(p)
	r := Rect{
		Left:   t.From.Left + (t.To.Left-t.From.Left)*e,
		Top:    t.From.Top + (t.To.Top-t.From.Top)*e,
		Width:  t.From.Width + (t.To.Width-t.From.Width)*e,
		Height: t.From.Height + (t.To.Height-t.From.Height)*e,
	}
	return r, t.FromScale + (t.ToScale-t.FromScale)*e
}

// Arrival is delivered when a clone reaches its slot (Settled false) and again
// when the emphasis effect ends (Settled true).
type Arrival struct {
	CardValue int
	Settled   bool
}

type Scheduler struct {
	after func(time.Duration, func())
}

// NewScheduler uses time.AfterFunc when after is nil.
func NewScheduler(after func(time.Duration, func())) *Scheduler {
	if after == nil {
		after = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	return &Scheduler{after: after}
}

// Plan builds one transition per landed card, by row then discovery order.
// Origin priority: the local player's one-shot submission rectangle, then the
// owner's avatar, then none. The local player never falls back to an avatar,
// and the one-shot rectangle is dropped after any tick that had landings.
func (s *Scheduler) Plan(landing Landing, owners map[int]string, rows []types.Row, myID string, layout Layout, origin *OneShot) []Transition {
	var out []Transition
	for _, row := range landing.RowIndexes() {
		for _, c := range landing[row] {
			slot := slotOf(rows, row, c.Value)
			tr := Transition{
				CardValue: c.Value,
				Row:       row,
				Slot:      slot,
				OwnerID:   owners[c.Value],
				Origin:    OriginNone,
				FromScale: 1,
				ToScale:   1,
			}

			dest, ok := Rect{}, false
			if layout != nil && slot >= 0 {
				dest, ok = layout.SlotRect(row, slot)
			}
			if ok {
				tr.To = dest
				if start, kind := resolveOrigin(tr.OwnerID, myID, layout, origin); kind != OriginNone {
					tr.Origin = kind
					tr.From = centredOn(start, dest)
					tr.FromScale = CloneStartScale
					tr.Duration = CloneDuration
					tr.Emphasis = EmphasisDuration
					tr.Easing = CloneEasing
				}
			}
			out = append(out, tr)
		}
	}
	if len(landing) > 0 && origin != nil {
		origin.Clear()
	}
	return out
}

func resolveOrigin(ownerID, myID string, layout Layout, origin *OneShot) (Rect, OriginKind) {
	if ownerID == "" {
		return Rect{}, OriginNone
	}
	if ownerID == myID {
		if origin == nil {
			return Rect{}, OriginNone
		}
		if r, ok := origin.Take(); ok {
			return r, OriginSubmission
		}
		return Rect{}, OriginNone
	}
	if r, ok := layout.AvatarRect(ownerID); ok {
		return r, OriginAvatar
	}
	return Rect{}, OriginNone
}

// centredOn places a destination-sized rectangle on the origin's centre.
func centredOn(origin, dest Rect) Rect {
	cx, cy := origin.Center()
	return Rect{Left: cx - dest.Width/2, Top: cy - dest.Height/2, Width: dest.Width, Height: dest.Height}
}

func slotOf(rows []types.Row, row, value int) int {
	if row < 0 || row >= len(rows) {
		return -1
	}
	for i, c := range rows[row].Cards {
		if c.Value == value {
			return i
		}
	}
	return -1
}

// Start arms the timers for every animated transition. notify runs on the timer
// goroutine; callers are expected to hand the arrival back to their own loop.
// Timers are never cancelled.
func (s *Scheduler) Start(transitions []Transition, notify func(Arrival)) {
	for _, tr := range transitions {
		if !tr.Animated() {
			continue
		}
		v := tr.CardValue
		s.after(ArrivalDelay, func() { notify(Arrival{CardValue: v}) })
		s.after(ArrivalDelay+tr.Emphasis, func() { notify(Arrival{CardValue: v, Settled: true}) })
	}
}
