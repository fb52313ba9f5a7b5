package engine

import "github.com/DoyleJ11/take5-client/pkg/types"

func TakeSnapshot(ps types.PublicState) *Snapshot {
	s := &Snapshot{
		RowValues: make([][]int, len(ps.Rows)),
		HandSizes: make(map[string]int, len(ps.Players)),
	}
	for i, row := range ps.Rows {
		s.RowValues[i] = rowValues(row)
	}
	for id, p := range ps.Players {
		s.HandSizes[id] = p.HandSize
	}
	return s
}

func rowValues(row types.Row) []int {
	vals := make([]int, 0, len(row.Cards))
	for _, c := range row.Cards {
		vals = append(vals, c.Value)
	}
	return vals
}

// IsPrefix reports whether prefix is a leading subsequence of vals.
func IsPrefix(prefix, vals []int) bool {
	if len(prefix) > len(vals) {
		return false
	}
	for i := range prefix {
		if prefix[i] != vals[i] {
			return false
		}
	}
	return true
}

func containsCard(hand []types.Card, value int) bool {
	for _, c := range hand {
		if c.Value == value {
			return true
		}
	}
	return false
}
