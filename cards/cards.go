// Package cards defines the 52-card deck used by the solver: suits, ranks,
// cards, per-suit holdings and hands, seats around the table, and strains.
package cards

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
	"unicode"
)

const (
	NumSuits = 4
	NumRanks = 13
	NumCards = NumSuits * NumRanks
	NumSeats = 4
	// NumStrains counts the four suits plus no-trump.
	NumStrains = 5
	// HandSize is the number of cards each seat is dealt.
	HandSize = 13
)

var ErrBadCard = errors.New("bad card")

// Suit is one of the four suits, ordered clubs-low.
type Suit uint8

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

var suitLetters = [NumSuits]string{"C", "D", "H", "S"}
var suitSymbols = [NumSuits]string{"♣", "♦", "♥", "♠"}

func (s Suit) String() string {
	return suitLetters[s]
}

// Symbol returns the unicode suit symbol.
func (s Suit) Symbol() string {
	return suitSymbols[s]
}

// PBNOrder is the suit order used by deal notation: spades first.
var PBNOrder = [NumSuits]Suit{Spades, Hearts, Diamonds, Clubs}

func ParseSuit(r rune) (Suit, error) {
	switch r {
	case 'C', 'c', '♣':
		return Clubs, nil
	case 'D', 'd', '♦':
		return Diamonds, nil
	case 'H', 'h', '♥':
		return Hearts, nil
	case 'S', 's', '♠':
		return Spades, nil
	}
	return 0, fmt.Errorf("%w: unknown suit %q", ErrBadCard, r)
}

// Rank orders cards within a suit, Two lowest and Ace highest.
type Rank uint8

const (
	Two Rank = iota
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

const rankLetters = "23456789TJQKA"

func (r Rank) String() string {
	return rankLetters[r : r+1]
}

func ParseRank(r rune) (Rank, error) {
	idx := strings.IndexRune(rankLetters, unicode.ToUpper(r))
	if idx < 0 {
		return 0, fmt.Errorf("%w: unknown rank %q", ErrBadCard, r)
	}
	return Rank(idx), nil
}

// Card is one of the 52 cards, encoded as suit*13 + rank.
type Card uint8

// NoCard marks an empty slot.
const NoCard Card = 0xFF

func NewCard(s Suit, r Rank) Card {
	return Card(uint8(s)*NumRanks + uint8(r))
}

func (c Card) Suit() Suit {
	return Suit(c / NumRanks)
}

func (c Card) Rank() Rank {
	return Rank(c % NumRanks)
}

// String returns the suit letter followed by the rank, e.g. "SA" or "H7".
func (c Card) String() string {
	if c >= NumCards {
		return "--"
	}
	return c.Suit().String() + c.Rank().String()
}

// Beats reports whether c outranks other under the given strain. A trump
// outranks any non-trump; within one suit the higher rank wins. Cards of two
// different non-trump suits are incomparable, so Beats is false both ways;
// the led suit is the trick-resolution logic's concern.
func (c Card) Beats(other Card, strain Strain) bool {
	if c.Suit() == other.Suit() {
		return c.Rank() > other.Rank()
	}
	trump, ok := strain.Suit()
	return ok && c.Suit() == trump
}

// ParseCard reads a card written suit-first ("SA", "♠A", "D10") or
// rank-first ("AS", "TD").
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(strings.Replace(s, "10", "T", 1))
	rs := []rune(s)
	if len(rs) != 2 {
		return NoCard, fmt.Errorf("%w: %q", ErrBadCard, s)
	}
	if suit, err := ParseSuit(rs[0]); err == nil {
		rank, err := ParseRank(rs[1])
		if err != nil {
			return NoCard, err
		}
		return NewCard(suit, rank), nil
	}
	rank, err := ParseRank(rs[0])
	if err != nil {
		return NoCard, err
	}
	suit, err := ParseSuit(rs[1])
	if err != nil {
		return NoCard, err
	}
	return NewCard(suit, rank), nil
}

// Holding is the set of ranks held in one suit; bit r is set when rank r is
// present.
type Holding uint16

func (h Holding) Len() int {
	return bits.OnesCount16(uint16(h))
}

func (h Holding) IsEmpty() bool {
	return h == 0
}

func (h Holding) Contains(r Rank) bool {
	return h&(1<<r) != 0
}

func (h Holding) With(r Rank) Holding {
	return h | 1<<r
}

func (h Holding) Without(r Rank) Holding {
	return h &^ (1 << r)
}

// Highest returns the top rank; the holding must not be empty.
func (h Holding) Highest() Rank {
	return Rank(15 - bits.LeadingZeros16(uint16(h)))
}

// Lowest returns the bottom rank; the holding must not be empty.
func (h Holding) Lowest() Rank {
	return Rank(bits.TrailingZeros16(uint16(h)))
}

// Above returns the ranks of h strictly higher than r.
func (h Holding) Above(r Rank) Holding {
	return h &^ (1<<(r+1) - 1)
}

// Below returns the ranks of h strictly lower than r.
func (h Holding) Below(r Rank) Holding {
	return h & (1<<r - 1)
}

// String writes the ranks high to low ("AKT2"), or "-" when void.
func (h Holding) String() string {
	if h == 0 {
		return "-"
	}
	var sb strings.Builder
	for r := int(Ace); r >= int(Two); r-- {
		if h.Contains(Rank(r)) {
			sb.WriteString(Rank(r).String())
		}
	}
	return sb.String()
}

// ParseHolding reads ranks such as "AKQ2" or "AK1092". "-" and "" are void.
func ParseHolding(s string) (Holding, error) {
	s = strings.ReplaceAll(s, "10", "T")
	var h Holding
	if s == "-" {
		return 0, nil
	}
	for _, ch := range s {
		r, err := ParseRank(ch)
		if err != nil {
			return 0, err
		}
		if h.Contains(r) {
			return 0, fmt.Errorf("%w: rank %v repeated in %q", ErrBadCard, r, s)
		}
		h = h.With(r)
	}
	return h, nil
}

// Hand holds one seat's cards, indexed by suit.
type Hand [NumSuits]Holding

func (h Hand) Len() int {
	return h[Clubs].Len() + h[Diamonds].Len() + h[Hearts].Len() + h[Spades].Len()
}

func (h Hand) IsEmpty() bool {
	return h[0]|h[1]|h[2]|h[3] == 0
}

func (h Hand) Contains(c Card) bool {
	return h[c.Suit()].Contains(c.Rank())
}

func (h *Hand) Add(c Card) {
	h[c.Suit()] = h[c.Suit()].With(c.Rank())
}

func (h *Hand) Remove(c Card) {
	h[c.Suit()] = h[c.Suit()].Without(c.Rank())
}

// Overlaps reports whether the two hands share any card.
func (h Hand) Overlaps(o Hand) bool {
	return h[0]&o[0]|h[1]&o[1]|h[2]&o[2]|h[3]&o[3] != 0
}

// Cards lists the hand, clubs first and low to high within a suit.
func (h Hand) Cards() []Card {
	out := make([]Card, 0, h.Len())
	for s := Clubs; s <= Spades; s++ {
		for hd := h[s]; hd != 0; hd &= hd - 1 {
			out = append(out, NewCard(s, hd.Lowest()))
		}
	}
	return out
}

// String writes the hand in PBN form, spades first: "AKQ.JT9.-.5432".
func (h Hand) String() string {
	parts := make([]string, NumSuits)
	for i, s := range PBNOrder {
		parts[i] = h[s].String()
		if parts[i] == "-" {
			parts[i] = ""
		}
	}
	return strings.Join(parts, ".")
}

// ParseHand reads a PBN hand "S.H.D.C"; empty suits may be "" or "-".
func ParseHand(s string) (Hand, error) {
	var h Hand
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != NumSuits {
		return h, fmt.Errorf("%w: hand %q needs four suits", ErrBadCard, s)
	}
	for i, p := range parts {
		hd, err := ParseHolding(p)
		if err != nil {
			return h, err
		}
		h[PBNOrder[i]] = hd
	}
	return h, nil
}

// Seat is a position at the table. Play proceeds clockwise: N, E, S, W.
type Seat uint8

const (
	North Seat = iota
	East
	South
	West
)

var Seats = [NumSeats]Seat{North, East, South, West}

const seatLetters = "NESW"

func (s Seat) String() string {
	return seatLetters[s : s+1]
}

// Next is the seat to the left, who plays after s.
func (s Seat) Next() Seat {
	return (s + 1) & 3
}

func (s Seat) Partner() Seat {
	return (s + 2) & 3
}

func (s Seat) Side() Side {
	return Side(s & 1)
}

func ParseSeat(r rune) (Seat, error) {
	switch r {
	case 'N', 'n':
		return North, nil
	case 'E', 'e':
		return East, nil
	case 'S', 's':
		return South, nil
	case 'W', 'w':
		return West, nil
	}
	return 0, fmt.Errorf("unknown seat %q", r)
}

// Side is a partnership.
type Side uint8

const (
	NorthSouth Side = iota
	EastWest
)

func (s Side) Other() Side {
	return s ^ 1
}

func (s Side) String() string {
	if s == NorthSouth {
		return "NS"
	}
	return "EW"
}

// Strain is the trump suit of a deal, or no-trump.
type Strain uint8

const (
	StrainClubs Strain = iota
	StrainDiamonds
	StrainHearts
	StrainSpades
	NoTrump
)

var Strains = [NumStrains]Strain{StrainClubs, StrainDiamonds, StrainHearts, StrainSpades, NoTrump}

// Suit returns the trump suit, or false for no-trump.
func (s Strain) Suit() (Suit, bool) {
	if s == NoTrump {
		return 0, false
	}
	return Suit(s), true
}

func (s Strain) String() string {
	if s == NoTrump {
		return "NT"
	}
	return Suit(s).String()
}

func ParseStrain(s string) (Strain, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "C", "CLUBS", "♣":
		return StrainClubs, nil
	case "D", "DIAMONDS", "♦":
		return StrainDiamonds, nil
	case "H", "HEARTS", "♥":
		return StrainHearts, nil
	case "S", "SPADES", "♠":
		return StrainSpades, nil
	case "N", "NT", "NOTRUMP", "NO-TRUMP":
		return NoTrump, nil
	}
	return 0, fmt.Errorf("unknown strain %q", s)
}

// StrainOf returns the strain in which suit s is trumps.
func StrainOf(s Suit) Strain {
	return Strain(s)
}
