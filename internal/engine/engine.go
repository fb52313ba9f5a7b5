package engine

import (
	"slices"
	"sort"

	"github.com/DoyleJ11/take5-client/pkg/types"
)

// Snapshot is the reduced projection of the last processed PublicState. It is
// only kept to diff the next push against.
type Snapshot struct {
	RowValues [][]int
	HandSizes map[string]int
}

// Landing maps a row index to the cards that newly appeared in it, in row order.
type Landing map[int][]types.Card

// PlayEvent attributes one landed card to the player who played it.
type PlayEvent struct {
	PlayerID   string
	PlayerName string
	CardValue  int
	Row        int
}

// ComputeLanding returns, per row index, the cards present in rows whose value
// was absent from the same row index in prev. A nil prev is the first update:
// the result is empty and only the baseline gets established by the caller.
func ComputeLanding(prev *Snapshot, rows []types.Row) Landing {
	res := Landing{}
	if prev == nil {
		return res
	}
	for idx, row := range rows {
		var prevVals []int
		if idx < len(prev.RowValues) {
			prevVals = prev.RowValues[idx]
		}
		var added []types.Card
		for _, c := range row.Cards {
			if !slices.Contains(prevVals, c.Value) {
				added = append(added, c)
			}
		}
		if len(added) > 0 {
			res[idx] = added
		}
	}
	return res
}

// RowIndexes returns the rows that received cards, ascending.
func (l Landing) RowIndexes() []int {
	idx := make([]int, 0, len(l))
	for i := range l {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// Cards flattens the landing by row index then discovery order.
func (l Landing) Cards() []types.Card {
	var out []types.Card
	for _, i := range l.RowIndexes() {
		out = append(out, l[i]...)
	}
	return out
}

// DuplicateValues lists values that landed more than once in the same tick.
// Attribution of those values is ambiguous; callers should flag them.
func (l Landing) DuplicateValues() []int {
	seen := map[int]int{}
	var dups []int
	for _, c := range l.Cards() {
		seen[c.Value]++
		if seen[c.Value] == 2 {
			dups = append(dups, c.Value)
		}
	}
	return dups
}

// DiffPlayerPlays attributes each landed card to the player named by the owner
// id the server attached to it. Cards with no known owner produce no event.
// Assumes at most one landed card per player per tick.
func DiffPlayerPlays(landing Landing, players map[string]types.PlayerPublic) []PlayEvent {
	var events []PlayEvent
	for _, row := range landing.RowIndexes() {
		for _, c := range landing[row] {
			if c.OwnerID == "" {
				continue
			}
			p, ok := players[c.OwnerID]
			if !ok {
				continue
			}
			events = append(events, PlayEvent{PlayerID: p.ID, PlayerName: p.Name, CardValue: c.Value, Row: row})
		}
	}
	return events
}

// OwnerMap indexes play events by card value.
func OwnerMap(events []PlayEvent) map[int]string {
	owners := make(map[int]string, len(events))
	for _, ev := range events {
		owners[ev.CardValue] = ev.PlayerID
	}
	return owners
}

// FindLandingRow maps a landed value back to its row. ok is false when the value
// is not part of this landing.
func FindLandingRow(landing Landing, value int) (int, bool) {
	for _, row := range landing.RowIndexes() {
		for _, c := range landing[row] {
			if c.Value == value {
				return row, true
			}
		}
	}
	return -1, false
}

// CollectedRows reports rows whose previous values are no longer a prefix of the
// new row: the row was picked up and restarted. These are resets, not shrinkage.
func CollectedRows(prev *Snapshot, rows []types.Row) []int {
	if prev == nil {
		return nil
	}
	var out []int
	for idx, row := range rows {
		if idx >= len(prev.RowValues) {
			continue
		}
		if !IsPrefix(prev.RowValues[idx], rowValues(row)) {
			out = append(out, idx)
		}
	}
	return out
}
