package negamax

import (
	"github.com/domino14/ddsolver/cards"
	"github.com/domino14/ddsolver/game"
)

// topRun counts the consecutive top cards of the suit held in h, where live
// is every card of the suit still in any hand.
func topRun(h, live cards.Holding) int {
	n := 0
	for live != 0 {
		top := live.Highest()
		if !h.Contains(top) {
			break
		}
		n++
		live = live.Without(top)
	}
	return n
}

// quickTricks is a lower bound on the tricks the side on lead takes from a
// trick start, counting only top cards the leader can cash without losing
// the lead. It must only be called with no card on the table.
func quickTricks(st *game.State) int {
	leader := st.Turn()
	lh := st.Hand(leader)
	lho := st.Hand(leader.Next())
	rho := st.Hand(leader.Partner().Next())

	trump, trumps := st.Strain().Suit()
	oppTrumps := 0
	if trumps {
		oppTrumps = max(lho[trump].Len(), rho[trump].Len())
	}

	qt := 0
	if !trumps || oppTrumps == 0 {
		partner := st.Hand(leader.Partner())
		entry := false
		pt := 0
		for s := cards.Clubs; s <= cards.Spades; s++ {
			live := st.Unplayed(s)
			qt += topRun(lh[s], live)
			pt += topRun(partner[s], live)
			if !lh[s].IsEmpty() && !partner[s].IsEmpty() && partner[s].Highest() == live.Highest() {
				entry = true
			}
		}
		if entry {
			// Lead to partner's master and let partner cash instead.
			qt = max(qt, pt)
		}
		return qt
	}

	kt := topRun(lh[trump], st.Unplayed(trump))
	partner := st.Hand(leader.Partner())
	qt = kt
	for s := cards.Clubs; s <= cards.Spades; s++ {
		if s == trump {
			continue
		}
		k := topRun(lh[s], st.Unplayed(s))
		if kt < oppTrumps {
			// Opponents keep a trump: cash only while both still follow,
			// and while partner cannot be forced to ruff and take the lead.
			k = min(k, lho[s].Len(), rho[s].Len())
			if !partner[trump].IsEmpty() {
				k = min(k, partner[s].Len())
			}
		}
		qt += k
	}
	return qt
}

// lostTricks is a lower bound on the tricks the side not on lead takes from
// a trick start, so that TricksLeft minus it bounds the leader's side from
// above. It must only be called with no card on the table.
//
// An opponent's trump that beats every trump of the leader's side wins
// whatever trick it falls on, and no two of one hand's cards share a trick.
// Failing that, the first trick is lost when every suit the leader can lead
// holds an opposing master that partner cannot ruff.
func lostTricks(st *game.State) int {
	leader := st.Turn()
	lh := st.Hand(leader)
	partner := st.Hand(leader.Partner())
	lho := st.Hand(leader.Next())
	rho := st.Hand(leader.Partner().Next())

	lost := 0
	trump, trumps := st.Strain().Suit()
	if trumps {
		ours := lh[trump] | partner[trump]
		for _, h := range []cards.Holding{lho[trump], rho[trump]} {
			if !ours.IsEmpty() {
				h = h.Above(ours.Highest())
			}
			lost = max(lost, h.Len())
		}
	}
	if lost > 0 {
		return lost
	}
	for s := cards.Clubs; s <= cards.Spades; s++ {
		if lh[s].IsEmpty() {
			continue
		}
		top := st.Unplayed(s).Highest()
		if !lho[s].Contains(top) && !rho[s].Contains(top) {
			return 0
		}
		if trumps && s != trump && partner[s].IsEmpty() && !partner[trump].IsEmpty() {
			return 0
		}
	}
	return 1
}
