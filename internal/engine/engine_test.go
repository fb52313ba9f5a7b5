package engine

import (
	"reflect"
	"testing"

	"github.com/DoyleJ11/take5-client/pkg/types"
)

func card(v int, owner string) types.Card {
	return types.Card{Value: v, Score: types.BullheadScore(v), OwnerID: owner}
}

func rowsOf(vals ...[]int) []types.Row {
	rows := make([]types.Row, len(vals))
	for i, vs := range vals {
		for _, v := range vs {
			rows[i].Cards = append(rows[i].Cards, card(v, ""))
		}
	}
	return rows
}

func snapshotOf(vals ...[]int) *Snapshot {
	return TakeSnapshot(types.PublicState{Rows: rowsOf(vals...)})
}

func values(cards []types.Card) []int {
	out := []int{}
	for _, c := range cards {
		out = append(out, c.Value)
	}
	return out
}

func TestComputeLanding_Scenario(t *testing.T) {
	prev := snapshotOf([]int{1, 2}, []int{10})
	rows := []types.Row{
		{Cards: []types.Card{card(1, ""), card(2, ""), card(3, "u1")}},
		{Cards: []types.Card{card(10, ""), card(45, "u2")}},
	}

	landing := ComputeLanding(prev, rows)
	if len(landing) != 2 {
		t.Fatalf("want 2 rows with landings, got %d: %+v", len(landing), landing)
	}
	if got := values(landing[0]); !reflect.DeepEqual(got, []int{3}) {
		t.Fatalf("row 0: got %v, want [3]", got)
	}
	if got := values(landing[1]); !reflect.DeepEqual(got, []int{45}) {
		t.Fatalf("row 1: got %v, want [45]", got)
	}

	players := map[string]types.PlayerPublic{
		"u1": {ID: "u1", Name: "ann"},
		"u2": {ID: "u2", Name: "bob"},
	}
	events := DiffPlayerPlays(landing, players)
	want := []PlayEvent{
		{PlayerID: "u1", PlayerName: "ann", CardValue: 3, Row: 0},
		{PlayerID: "u2", PlayerName: "bob", CardValue: 45, Row: 1},
	}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("got %+v, want %+v", events, want)
	}
}

func TestComputeLanding_Idempotent(t *testing.T) {
	rows := rowsOf([]int{4, 9}, []int{20}, []int{33, 40, 41}, []int{70})
	snap := TakeSnapshot(types.PublicState{Rows: rows})

	for i := 0; i < 2; i++ {
		if landing := ComputeLanding(snap, rows); len(landing) != 0 {
			t.Fatalf("pass %d: want empty landing, got %+v", i, landing)
		}
	}
}

func TestComputeLanding_FirstUpdateIsBaselineOnly(t *testing.T) {
	landing := ComputeLanding(nil, rowsOf([]int{4}, []int{20}, []int{33}, []int{70}))
	if landing == nil || len(landing) != 0 {
		t.Fatalf("want empty non-nil landing, got %#v", landing)
	}
}

func TestComputeLanding_CollectedRowIsReset(t *testing.T) {
	prev := snapshotOf([]int{3, 4, 5, 6, 7}, []int{20})
	rows := []types.Row{
		{Cards: []types.Card{card(8, "u1")}},
		{Cards: []types.Card{card(20, "")}},
	}

	landing := ComputeLanding(prev, rows)
	if got := values(landing[0]); !reflect.DeepEqual(got, []int{8}) {
		t.Fatalf("want 8 to land on collected row, got %v", got)
	}
	if _, ok := landing[1]; ok {
		t.Fatalf("row 1 unchanged, got landing %+v", landing[1])
	}
	if got := CollectedRows(prev, rows); !reflect.DeepEqual(got, []int{0}) {
		t.Fatalf("CollectedRows: got %v, want [0]", got)
	}
}

func TestMonotonicAppendOutsideReset(t *testing.T) {
	prev := snapshotOf([]int{1, 2}, []int{10}, []int{50}, []int{60, 61})
	next := rowsOf([]int{1, 2, 3}, []int{10, 45}, []int{50}, []int{60, 61})
	for i, row := range next {
		if !IsPrefix(prev.RowValues[i], rowValues(row)) {
			t.Fatalf("row %d: %v is not a prefix of %v", i, prev.RowValues[i], rowValues(row))
		}
		if len(row.Cards) < len(prev.RowValues[i]) {
			t.Fatalf("row %d shrank", i)
		}
	}
	if got := CollectedRows(prev, next); len(got) != 0 {
		t.Fatalf("no collections expected, got %v", got)
	}
}

func TestDiffPlayerPlays_SkipsUnknownOwners(t *testing.T) {
	landing := Landing{
		2: {card(17, "ghost"), card(18, "")},
		0: {card(5, "u1")},
	}
	players := map[string]types.PlayerPublic{"u1": {ID: "u1", Name: "ann"}}

	events := DiffPlayerPlays(landing, players)
	if len(events) != 1 || events[0].CardValue != 5 {
		t.Fatalf("got %+v", events)
	}
}

func TestFindLandingRow(t *testing.T) {
	landing := Landing{1: {card(45, "u2")}, 3: {card(90, "u3")}}
	cases := []struct {
		name    string
		value   int
		wantRow int
		wantOK  bool
	}{
		{name: "present in row 1", value: 45, wantRow: 1, wantOK: true},
		{name: "present in row 3", value: 90, wantRow: 3, wantOK: true},
		{name: "absent", value: 12, wantRow: -1, wantOK: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			row, ok := FindLandingRow(landing, tc.value)
			if row != tc.wantRow || ok != tc.wantOK {
				t.Fatalf("got (%d, %v), want (%d, %v)", row, ok, tc.wantRow, tc.wantOK)
			}
		})
	}
}

func TestLanding_DuplicateValues(t *testing.T) {
	landing := Landing{0: {card(12, "u1")}, 2: {card(12, "u2"), card(30, "u3")}}
	if got := landing.DuplicateValues(); !reflect.DeepEqual(got, []int{12}) {
		t.Fatalf("got %v, want [12]", got)
	}
	if got := (Landing{0: {card(1, "")}}).DuplicateValues(); len(got) != 0 {
		t.Fatalf("got %v, want none", got)
	}
}

func TestTakeSnapshot_RecordsHandSizes(t *testing.T) {
	snap := TakeSnapshot(types.PublicState{
		Rows:    rowsOf([]int{1}),
		Players: map[string]types.PlayerPublic{"u1": {ID: "u1", HandSize: 7}},
	})
	if snap.HandSizes["u1"] != 7 {
		t.Fatalf("got %d", snap.HandSizes["u1"])
	}
	if !reflect.DeepEqual(snap.RowValues, [][]int{{1}}) {
		t.Fatalf("got %v", snap.RowValues)
	}
}
