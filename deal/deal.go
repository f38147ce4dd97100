// Package deal holds complete 52-card deals: validation, PBN deal notation,
// and random generation.
package deal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/domino14/ddsolver/cards"
)

var ErrInvalidDeal = errors.New("invalid deal")

// Deal assigns every card to one of the four seats.
type Deal [cards.NumSeats]cards.Hand

// Validate checks that the deal partitions the 52 cards into four hands of
// thirteen.
func (d Deal) Validate() error {
	var seen cards.Hand
	for _, seat := range cards.Seats {
		h := d[seat]
		if n := h.Len(); n != cards.HandSize {
			return fmt.Errorf("%w: %v holds %d cards", ErrInvalidDeal, seat, n)
		}
		if seen.Overlaps(h) {
			return fmt.Errorf("%w: %v shares cards with another seat", ErrInvalidDeal, seat)
		}
		for s := range seen {
			seen[s] |= h[s]
		}
	}
	if seen.Len() != cards.NumCards {
		return fmt.Errorf("%w: %d distinct cards", ErrInvalidDeal, seen.Len())
	}
	return nil
}

// FromCards builds a deal from card lists. Unlike filling hands directly, it
// notices a card listed twice.
func FromCards(hands [cards.NumSeats][]cards.Card) (Deal, error) {
	var d Deal
	var seen cards.Hand
	for seat, cs := range hands {
		for _, c := range cs {
			if c >= cards.NumCards {
				return Deal{}, fmt.Errorf("%w: card value %d out of range", ErrInvalidDeal, c)
			}
			if seen.Contains(c) {
				return Deal{}, fmt.Errorf("%w: %v appears twice", ErrInvalidDeal, c)
			}
			seen.Add(c)
			d[seat].Add(c)
		}
	}
	if err := d.Validate(); err != nil {
		return Deal{}, err
	}
	return d, nil
}

// ParseHands reads PBN deal notation, "N:AKQ.x.x.x E-hand S-hand W-hand".
// The first letter names the seat of the first hand; the rest follow
// clockwise. Hands may be partial (endgame positions), but no card may be
// repeated.
func ParseHands(s string) ([cards.NumSeats]cards.Hand, error) {
	var hands [cards.NumSeats]cards.Hand
	s = strings.TrimSpace(s)
	first := cards.North
	if len(s) >= 2 && s[1] == ':' {
		seat, err := cards.ParseSeat(rune(s[0]))
		if err != nil {
			return hands, err
		}
		first = seat
		s = s[2:]
	}
	fields := strings.Fields(s)
	if len(fields) != cards.NumSeats {
		return hands, fmt.Errorf("%w: expected 4 hands, got %d", ErrInvalidDeal, len(fields))
	}
	var seen cards.Hand
	seat := first
	for _, f := range fields {
		h, err := cards.ParseHand(f)
		if err != nil {
			return hands, err
		}
		if seen.Overlaps(h) {
			return hands, fmt.Errorf("%w: %v repeats a card", ErrInvalidDeal, seat)
		}
		for st := range seen {
			seen[st] |= h[st]
		}
		hands[seat] = h
		seat = seat.Next()
	}
	return hands, nil
}

// Parse reads a full deal in PBN notation and validates it.
func Parse(s string) (Deal, error) {
	hands, err := ParseHands(s)
	if err != nil {
		return Deal{}, err
	}
	d := Deal(hands)
	if err := d.Validate(); err != nil {
		return Deal{}, err
	}
	return d, nil
}

// String writes PBN notation starting at North.
func (d Deal) String() string {
	return FormatHands(d)
}

// FormatHands writes any four hands in PBN notation starting at North.
func FormatHands(hands [cards.NumSeats]cards.Hand) string {
	var sb strings.Builder
	sb.WriteString("N:")
	for i, h := range hands {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(h.String())
	}
	return sb.String()
}

// Pair returns the two hands of a partnership.
func (d Deal) Pair(side cards.Side) [2]cards.Hand {
	first := cards.Seat(side)
	return [2]cards.Hand{d[first], d[first.Partner()]}
}
