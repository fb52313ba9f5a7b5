package types

const (
	MinCardValue = 1
	MaxCardValue = 104
	BoardRows    = 4
	// RowCapacity is the most cards a row holds; the next placement collects it.
	RowCapacity = 5
)

// ValidCard reports whether v is a card in the deck.
func ValidCard(v int) bool { return v >= MinCardValue && v <= MaxCardValue }

// ValidRow reports whether i indexes a board row.
func ValidRow(i int) bool { return i >= 0 && i < BoardRows }

// BullheadScore is the penalty printed on a card.
func BullheadScore(value int) int {
	switch {
	case value == 55:
		return 7
	case value%11 == 0:
		return 5
	case value%10 == 0:
		return 3
	case value%5 == 0:
		return 2
	default:
		return 1
	}
}
