// Package game holds the mutable card-play state that the solver walks:
// the four remaining hands, the trick in progress, who is on turn, and the
// tricks won by each side.
package game

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash"

	"github.com/domino14/ddsolver/cards"
	"github.com/domino14/ddsolver/deal"
	"github.com/domino14/ddsolver/zobrist"
)

var (
	ErrIllegalMove     = errors.New("illegal move")
	ErrInvalidPosition = errors.New("invalid position")
	ErrNothingToUnplay = errors.New("no card to unplay")
)

// IllegalMoveError describes a rejected play with enough context to
// reproduce it.
type IllegalMoveError struct {
	Seat        cards.Seat
	Card        cards.Card
	Reason      string
	Fingerprint uint64
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal move: %v cannot play %v (%s); position %016x",
		e.Seat, e.Card, e.Reason, e.Fingerprint)
}

func (e *IllegalMoveError) Is(target error) bool {
	return target == ErrIllegalMove
}

// stateBackup is what Play overwrites; Unplay restores it.
type stateBackup struct {
	seat       cards.Seat
	card       cards.Card
	leader     cards.Seat
	turn       cards.Seat
	trick      [cards.NumSeats]cards.Card
	nplayed    int
	tricks     [2]int
	key        uint64
	trickEnded bool
}

// State is a position during play. It is mutated in place by Play and
// Unplay and must not be shared between goroutines; use Clone.
type State struct {
	hands [cards.NumSeats]cards.Hand
	// unplayed is the union of all four hands, per suit.
	unplayed [cards.NumSuits]cards.Holding
	strain   cards.Strain
	leader   cards.Seat
	turn     cards.Seat
	trick    [cards.NumSeats]cards.Card
	nplayed  int
	tricks   [2]int
	key      uint64

	// trickEnded is set when the last Play completed a trick.
	trickEnded bool

	z          *zobrist.Zobrist
	stateStack []stateBackup
}

// NewState sets up a position in which leader is about to lead to a new
// trick. All hands must hold the same number of cards and no card may
// appear twice. A nil z gets a fresh set of keys.
func NewState(hands [cards.NumSeats]cards.Hand, strain cards.Strain,
	leader cards.Seat, z *zobrist.Zobrist) (*State, error) {

	if strain >= cards.NumStrains {
		return nil, fmt.Errorf("%w: strain %d", ErrInvalidPosition, strain)
	}
	if leader >= cards.NumSeats {
		return nil, fmt.Errorf("%w: seat %d", ErrInvalidPosition, leader)
	}
	n := hands[cards.North].Len()
	var union cards.Hand
	for _, seat := range cards.Seats {
		if hands[seat].Len() != n {
			return nil, fmt.Errorf("%w: %v holds %d cards, North holds %d",
				ErrInvalidPosition, seat, hands[seat].Len(), n)
		}
		if union.Overlaps(hands[seat]) {
			return nil, fmt.Errorf("%w: %v shares a card with another seat", ErrInvalidPosition, seat)
		}
		for s := range union {
			union[s] |= hands[seat][s]
		}
	}
	if z == nil {
		z = zobrist.New()
	}
	st := &State{
		hands:      hands,
		unplayed:   union,
		strain:     strain,
		leader:     leader,
		turn:       leader,
		z:          z,
		stateStack: make([]stateBackup, 0, cards.NumCards),
	}
	for i := range st.trick {
		st.trick[i] = cards.NoCard
	}
	st.key = z.Hash(&st.hands, leader, nil, leader)
	return st, nil
}

// FromDeal returns the opening position of a deal: leader leads to the
// first trick.
func FromDeal(d deal.Deal, strain cards.Strain, leader cards.Seat, z *zobrist.Zobrist) (*State, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return NewState(d, strain, leader, z)
}

func (s *State) illegal(c cards.Card, reason string) error {
	return &IllegalMoveError{Seat: s.turn, Card: c, Reason: reason, Fingerprint: s.Fingerprint()}
}

func (s *State) backupState(seat cards.Seat, c cards.Card) {
	s.stateStack = append(s.stateStack, stateBackup{
		seat:       seat,
		card:       c,
		leader:     s.leader,
		turn:       s.turn,
		trick:      s.trick,
		nplayed:    s.nplayed,
		tricks:     s.tricks,
		key:        s.key,
		trickEnded: s.trickEnded,
	})
}

// Play plays card c for the seat on turn. A fourth card resolves the trick:
// the winner's side is credited and the winner leads next.
func (s *State) Play(c cards.Card) error {
	seat := s.turn
	if c >= cards.NumCards || !s.hands[seat].Contains(c) {
		return s.illegal(c, "card not held")
	}
	if s.nplayed > 0 {
		led := s.trick[0].Suit()
		if c.Suit() != led && !s.hands[seat][led].IsEmpty() {
			return s.illegal(c, "must follow "+led.String())
		}
	}
	s.backupState(seat, c)
	s.hands[seat].Remove(c)
	s.unplayed[c.Suit()] = s.unplayed[c.Suit()].Without(c.Rank())
	s.trick[s.nplayed] = c
	s.nplayed++

	if s.nplayed < cards.NumSeats {
		next := seat.Next()
		s.key = s.z.AddPlay(s.key, seat, c, next)
		s.turn = next
		s.trickEnded = false
		return nil
	}
	winner, _ := s.Winning()
	s.key = s.z.AddPlay(s.key, seat, c, winner)
	s.key = s.z.ClearTrick(s.key, s.leader, s.trick[:])
	s.tricks[winner.Side()]++
	s.leader = winner
	s.turn = winner
	s.nplayed = 0
	for i := range s.trick {
		s.trick[i] = cards.NoCard
	}
	s.trickEnded = true
	return nil
}

// Unplay takes back the most recent Play.
func (s *State) Unplay() error {
	n := len(s.stateStack)
	if n == 0 {
		return ErrNothingToUnplay
	}
	b := &s.stateStack[n-1]
	s.hands[b.seat].Add(b.card)
	s.unplayed[b.card.Suit()] = s.unplayed[b.card.Suit()].With(b.card.Rank())
	s.leader = b.leader
	s.turn = b.turn
	s.trick = b.trick
	s.nplayed = b.nplayed
	s.tricks = b.tricks
	s.key = b.key
	s.trickEnded = b.trickEnded
	s.stateStack = s.stateStack[:n-1]
	return nil
}

// Winning returns the seat and card currently winning the trick in
// progress. With no card played it returns the leader and NoCard.
func (s *State) Winning() (cards.Seat, cards.Card) {
	if s.nplayed == 0 {
		return s.leader, cards.NoCard
	}
	best := 0
	for i := 1; i < s.nplayed; i++ {
		if s.trick[i].Beats(s.trick[best], s.strain) {
			best = i
		}
	}
	return (s.leader + cards.Seat(best)) & 3, s.trick[best]
}

// Clone returns an independent copy, including its undo history.
func (s *State) Clone() *State {
	c := *s
	c.stateStack = make([]stateBackup, len(s.stateStack), cards.NumCards)
	copy(c.stateStack, s.stateStack)
	return &c
}

// IsTerminal reports whether every card has been played.
func (s *State) IsTerminal() bool {
	return s.nplayed == 0 && s.hands[s.turn].IsEmpty()
}

// TricksLeft counts tricks not yet completed, including the one in
// progress.
func (s *State) TricksLeft() int {
	return s.hands[s.turn].Len()
}

func (s *State) TricksWon(side cards.Side) int {
	return s.tricks[side]
}

func (s *State) Turn() cards.Seat {
	return s.turn
}

func (s *State) Leader() cards.Seat {
	return s.leader
}

func (s *State) Strain() cards.Strain {
	return s.strain
}

func (s *State) Hand(seat cards.Seat) cards.Hand {
	return s.hands[seat]
}

// Hands returns a copy of all four remaining hands.
func (s *State) Hands() [cards.NumSeats]cards.Hand {
	return s.hands
}

// Unplayed returns the cards of suit still held by any seat.
func (s *State) Unplayed(suit cards.Suit) cards.Holding {
	return s.unplayed[suit]
}

// NumPlayed is the number of cards in the current trick.
func (s *State) NumPlayed() int {
	return s.nplayed
}

// TrickCard returns the i-th card of the current trick.
func (s *State) TrickCard(i int) cards.Card {
	return s.trick[i]
}

// OnTable returns the cards of suit lying in the current trick.
func (s *State) OnTable(suit cards.Suit) cards.Holding {
	var h cards.Holding
	for i := 0; i < s.nplayed; i++ {
		if s.trick[i].Suit() == suit {
			h = h.With(s.trick[i].Rank())
		}
	}
	return h
}

// LedSuit returns the suit led to the current trick, if any card is down.
func (s *State) LedSuit() (cards.Suit, bool) {
	if s.nplayed == 0 {
		return 0, false
	}
	return s.trick[0].Suit(), true
}

// TrickEnded reports whether the last Play completed a trick; the winner
// is then the new leader.
func (s *State) TrickEnded() bool {
	return s.trickEnded
}

// CardsPlayed returns the number of plays since the state was created.
func (s *State) CardsPlayed() int {
	return len(s.stateStack)
}

// LegalPlays lists every card the seat on turn may play: cards of the led
// suit if it holds any, otherwise its whole hand. Equivalent cards are not
// collapsed here; see package movegen.
func (s *State) LegalPlays() []cards.Card {
	h := s.hands[s.turn]
	if led, ok := s.LedSuit(); ok && !h[led].IsEmpty() {
		var follow cards.Hand
		follow[led] = h[led]
		return follow.Cards()
	}
	return h.Cards()
}

// Playable returns the holding the seat on turn may choose from in suit.
func (s *State) Playable(suit cards.Suit) cards.Holding {
	h := s.hands[s.turn]
	if led, ok := s.LedSuit(); ok && !h[led].IsEmpty() && led != suit {
		return 0
	}
	return h[suit]
}

// Zobrist returns the key set this state hashes with.
func (s *State) Zobrist() *zobrist.Zobrist {
	return s.z
}

// Fingerprint identifies the remaining game: remaining hands, the trick in
// progress, the seat on turn, and the strain. It does not depend on the
// order of earlier plays nor on tricks already won. A suit strain whose
// trumps are all gone plays exactly like no-trump and hashes as such.
func (s *State) Fingerprint() uint64 {
	return s.z.WithStrain(s.key, s.effectiveStrain())
}

func (s *State) effectiveStrain() cards.Strain {
	trump, ok := s.strain.Suit()
	if !ok {
		return cards.NoTrump
	}
	if s.unplayed[trump] != 0 {
		return s.strain
	}
	for i := 0; i < s.nplayed; i++ {
		if s.trick[i].Suit() == trump {
			return s.strain
		}
	}
	return cards.NoTrump
}

// PatternKey identifies the remaining game between tricks by the relative
// order of the cards left in each suit instead of their ranks, with seats
// counted from the seat on lead. Positions that differ only in which low
// cards were already played, or by a rotation of the table, share a key and
// have the same value for the side on lead. It must only be called with no
// card on the table.
func (s *State) PatternKey() uint64 {
	var buf [cards.NumSuits*4 + 1]byte
	for suit := cards.Clubs; suit <= cards.Spades; suit++ {
		binary.LittleEndian.PutUint32(buf[suit*4:], s.suitPattern(suit))
	}
	buf[cards.NumSuits*4] = byte(s.effectiveStrain())
	return xxhash.Sum64(buf[:])
}

// suitPattern lists the owner of each unplayed card of suit, top down, two
// bits per card relative to the seat on turn, followed by the count.
func (s *State) suitPattern(suit cards.Suit) uint32 {
	live := s.unplayed[suit]
	var code uint32
	for h := live; h != 0; {
		r := h.Highest()
		h = h.Without(r)
		for i := cards.Seat(0); i < cards.NumSeats; i++ {
			if s.hands[(s.turn+i)&3][suit].Contains(r) {
				code = code<<2 | uint32(i)
				break
			}
		}
	}
	return code<<4 | uint32(live.Len())
}

// RelativeRank counts the unplayed cards of c's suit ranked above c.
func (s *State) RelativeRank(c cards.Card) int {
	return s.unplayed[c.Suit()].Above(c.Rank()).Len()
}

// AtRelativeRank returns the unplayed card of suit with i unplayed cards of
// the suit above it, or NoCard if fewer than i+1 remain.
func (s *State) AtRelativeRank(suit cards.Suit, i int) cards.Card {
	for h := s.unplayed[suit]; h != 0; i-- {
		r := h.Highest()
		if i == 0 {
			return cards.NewCard(suit, r)
		}
		h = h.Without(r)
	}
	return cards.NoCard
}
