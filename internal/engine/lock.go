package engine

import (
	"errors"

	"github.com/DoyleJ11/take5-client/pkg/types"
)

var ErrHandLocked = errors.New("hand locked")
var ErrNothingSelected = errors.New("no card selected")

type LockState string

const (
	LockIdle           LockState = "idle"
	LockCardSelected   LockState = "card_selected"
	LockConfirmPending LockState = "confirm_pending"
	LockCleared        LockState = "cleared"
)

// TurnLock decides whether the hand accepts input. Selection is local only;
// ConfirmPending is left only when a new authoritative push says so.
type TurnLock struct {
	status      types.Status
	hasSelected bool // server truth for the local player
	selected    *int
	pending     bool
	hand        []types.Card // last reconciled hand
}

func (l *TurnLock) State() LockState {
	switch {
	case !l.status.InRound():
		return LockCleared
	case l.pending:
		return LockConfirmPending
	case l.selected != nil:
		return LockCardSelected
	default:
		return LockIdle
	}
}

// Selected returns the locally remembered card, if any.
func (l *TurnLock) Selected() *int {
	if l.selected == nil {
		return nil
	}
	v := *l.selected
	return &v
}

func (l *TurnLock) Pending() bool { return l.pending }

// HandLocked reports whether taps on the hand must be ignored.
func (l *TurnLock) HandLocked() bool {
	return l.pending || l.hasSelected || l.status != types.StatusPlaying
}

// CanConfirm reports whether a submission would be accepted right now.
func (l *TurnLock) CanConfirm() bool {
	return !l.HandLocked() && l.selected != nil
}

// Tap selects a card, deselects it when tapped again, or replaces the current
// selection. Values outside the last reconciled hand are ignored. It reports
// whether anything changed.
func (l *TurnLock) Tap(value int) bool {
	if l.HandLocked() || !containsCard(l.hand, value) {
		return false
	}
	if l.selected != nil && *l.selected == value {
		l.selected = nil
		return true
	}
	l.selected = &value
	return true
}

// Submit moves a selected card into ConfirmPending and returns the value to
// send. The hand stays locked until Reconcile sees the next push.
func (l *TurnLock) Submit() (int, error) {
	if l.HandLocked() {
		return 0, ErrHandLocked
	}
	if l.selected == nil {
		return 0, ErrNothingSelected
	}
	l.pending = true
	return *l.selected, nil
}

// Reconcile re-evaluates the machine against a full authoritative push.
// Order matters: server override, round advance, clearing, stale selection.
func (l *TurnLock) Reconcile(status types.Status, hasSelected bool, hand []types.Card, mySelected *int) {
	l.status = status
	l.hasSelected = hasSelected
	l.hand = hand

	if mySelected != nil {
		v := *mySelected
		l.selected = &v
		l.pending = true
	}

	if status == types.StatusPlaying && !hasSelected && mySelected == nil {
		l.pending = false
	}

	if !status.InRound() {
		l.pending = false
		l.selected = nil
	}

	if l.selected != nil && !l.pending && !containsCard(hand, *l.selected) {
		l.selected = nil
	}
}

// CanChooseRow is true only for the player the server is waiting on to pick a
// row.
func CanChooseRow(ps types.PublicState, myID string) bool {
	return ps.Status == types.StatusChoosingRow && myID != "" && ps.PendingPlayerID == myID
}
