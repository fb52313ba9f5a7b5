package engine

import "github.com/DoyleJ11/take5-client/pkg/types"

type PredictionKind string

const (
	PredictionNone         PredictionKind = "none"
	PredictionRow          PredictionKind = "row"
	PredictionForcedPickup PredictionKind = "forced_pickup"
)

// Prediction is advisory only and never sent to the server.
// For PredictionForcedPickup, Row is -1 when the card is below every row's top and
// the row that would overflow otherwise.
type Prediction struct {
	Kind PredictionKind `json:"kind"`
	Row  int            `json:"row"`
}

var noPrediction = Prediction{Kind: PredictionNone, Row: -1}

// PredictRow suggests the row a candidate card would attach to: the non-empty row
// whose top is the nearest value strictly below it. Ties go to the first row
// index encountered.
func PredictRow(candidate *int, rows []types.Row, status types.Status) Prediction {
	if status != types.StatusPlaying || candidate == nil || len(rows) == 0 {
		return noPrediction
	}

	best, bestDelta := -1, 0
	for idx, row := range rows {
		top, ok := row.Top()
		if !ok {
			continue
		}
		delta := *candidate - top.Value
		if delta <= 0 {
			continue
		}
		if best == -1 || delta < bestDelta {
			best, bestDelta = idx, delta
		}
	}

	if best == -1 {
		return Prediction{Kind: PredictionForcedPickup, Row: -1}
	}
	if len(rows[best].Cards) >= types.RowCapacity {
		return Prediction{Kind: PredictionForcedPickup, Row: best}
	}
	return Prediction{Kind: PredictionRow, Row: best}
}
