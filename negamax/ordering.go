package negamax

import (
	"github.com/domino14/ddsolver/cards"
	"github.com/domino14/ddsolver/game"
)

const (
	HashMoveOffset = 1000
	cashOffset     = 500
	entryOffset    = 400
	ruffOffset     = 350
	drawOffset     = 300
	winnerOffset   = 200
	duckOffset     = 100
	followOffset   = 50
)

// assignEstimates scores each candidate card and sorts cards high score
// first. The estimates only steer the search; they never prune.
func (s *Searcher) assignEstimates(moves []cards.Card, ply int, hashMove cards.Card) {
	st := s.st
	est := s.estimates[ply][:len(moves)]
	mover := st.Turn().Side()

	if st.NumPlayed() == 0 {
		for i, c := range moves {
			est[i] = leadEstimate(st, c)
		}
	} else {
		winSeat, winCard := st.Winning()
		partnerWinning := winSeat.Side() == mover
		last := st.NumPlayed() == cards.NumSeats-1
		led, _ := st.LedSuit()
		// Second hand ducks when fourth hand, our partner, holds the master.
		partnerCovers := false
		if st.NumPlayed() == 1 {
			ph := st.Hand(st.Turn().Partner())[led]
			partnerCovers = !ph.IsEmpty() && ph.Highest() == st.Unplayed(led).Highest()
		}
		for i, c := range moves {
			rank := int(c.Rank())
			beats := c.Beats(winCard, st.Strain())
			switch {
			case partnerWinning && (last || !beats):
				// Partner has it; play low.
				est[i] = duckOffset - rank
			case partnerCovers && c.Suit() == led:
				est[i] = duckOffset - rank
			case beats && !partnerWinning:
				// The cheapest winning card.
				est[i] = winnerOffset - rank
			case c.Suit() == led:
				est[i] = followOffset - rank
			default:
				// Discard from the longest suit.
				est[i] = st.Hand(st.Turn())[c.Suit()].Len() - rank
			}
		}
	}
	for i, c := range moves {
		if c == hashMove {
			est[i] += HashMoveOffset
		}
	}

	// insertion sort; move lists are short.
	for i := 1; i < len(moves); i++ {
		c, e := moves[i], est[i]
		j := i - 1
		for ; j >= 0 && est[j] < e; j-- {
			moves[j+1], est[j+1] = moves[j], est[j]
		}
		moves[j+1], est[j+1] = c, e
	}
}

// leadEstimate prefers, in order: cashing a master the opponents cannot
// ruff, a low card to partner's master, a suit partner ruffs, drawing
// trumps while the side holds more of them, and otherwise low cards from
// suits where the next hand does not hold the master.
func leadEstimate(st *game.State, c cards.Card) int {
	leader := st.Turn()
	suit := c.Suit()
	rank := int(c.Rank())
	top := st.Unplayed(suit).Highest()
	lh := st.Hand(leader)
	ph := st.Hand(leader.Partner())
	lho := st.Hand(leader.Next())
	rho := st.Hand(leader.Partner().Next())

	trump, trumps := st.Strain().Suit()
	side := trumps && suit != trump
	ruffed := side && (lho[suit].IsEmpty() && !lho[trump].IsEmpty() ||
		rho[suit].IsEmpty() && !rho[trump].IsEmpty())

	switch {
	case c.Rank() == top && !ruffed:
		return cashOffset + lh[suit].Len()
	case ph[suit].Contains(top) && !ruffed:
		return entryOffset - rank
	case side && ph[suit].IsEmpty() && !ph[trump].IsEmpty() &&
		!(rho[suit].IsEmpty() && !rho[trump].IsEmpty()):
		return ruffOffset - rank
	case trumps && suit == trump &&
		lh[trump].Len()+ph[trump].Len() > lho[trump].Len()+rho[trump].Len():
		return drawOffset - rank
	}
	est := followOffset - rank + lh[suit].Len()
	if lho[suit].Contains(top) {
		est -= followOffset / 2
	}
	return est
}
