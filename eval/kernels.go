package eval

import (
	"slices"

	"github.com/domino14/ddsolver/cards"
)

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// honors returns a weighted sum over A, K, Q, J and T.
func honors(h cards.Holding, a, k, q, j, t float64) float64 {
	return a*b2f(h.Contains(cards.Ace)) +
		k*b2f(h.Contains(cards.King)) +
		q*b2f(h.Contains(cards.Queen)) +
		j*b2f(h.Contains(cards.Jack)) +
		t*b2f(h.Contains(cards.Ten))
}

// HCP is the Milton Work 4-3-2-1 count.
func HCP(h cards.Holding) float64 {
	return honors(h, 4, 3, 2, 1, 0)
}

// Shortness counts 3 for a void, 2 for a singleton and 1 for a doubleton.
func Shortness(h cards.Holding) float64 {
	return float64(3 - min(h.Len(), 3))
}

// HCPPlus takes the larger of high cards and shortness in each suit, so a
// short honor is not counted twice.
func HCPPlus(h cards.Holding) float64 {
	return max(HCP(h), Shortness(h))
}

// Fifths is Thomas Andrews's computed count for 3NT: 4.0-2.8-1.8-1.0-0.4.
func Fifths(h cards.Holding) float64 {
	return honors(h, 40, 28, 18, 10, 4) / 10
}

// BumRap is the 4.5-3-1.5-0.75-0.25 count.
func BumRap(h cards.Holding) float64 {
	return honors(h, 18, 12, 6, 3, 1) * 0.25
}

func BumRapPlus(h cards.Holding) float64 {
	return max(BumRap(h), Shortness(h))
}

// losers weighs a missing ace, king and queen; only the first three cards
// of a suit can lose.
func losers(h cards.Holding, a, k, q float64) float64 {
	n := h.Len()
	return a*b2f(n >= 1 && !h.Contains(cards.Ace)) +
		k*b2f(n >= 2 && !h.Contains(cards.King)) +
		q*b2f(n >= 3 && !h.Contains(cards.Queen))
}

// LTC is the plain losing trick count.
func LTC(h cards.Holding) float64 {
	return losers(h, 1, 1, 1)
}

// NLTC is the new losing trick count: a missing A, K or Q costs 1.5, 1 or
// 0.5.
func NLTC(h cards.Holding) float64 {
	return losers(h, 3, 2, 1) * 0.5
}

// Zar points: 6-4-2-1 honors less wasted short honors, plus the two longest
// suit lengths and the spread between longest and shortest.
func Zar(hand cards.Hand) float64 {
	var lengths [cards.NumSuits]int
	total := 0.0
	for s, h := range hand {
		n := h.Len()
		lengths[s] = n
		total += honors(h, 6, 4, 2, 1, 0)
		k, q, j := h.Contains(cards.King), h.Contains(cards.Queen), h.Contains(cards.Jack)
		if (n == 1 && (k || q || j)) || (n == 2 && (q || j)) {
			total--
		}
	}
	slices.Sort(lengths[:])
	total += float64(lengths[3] + lengths[2])
	total += float64(lengths[3] - lengths[0])
	return total
}
