// Package service answers solve requests encoded as JSON. Requests arrive
// over NATS, or through an AWS Lambda invocation.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/ddsolver/cards"
	"github.com/domino14/ddsolver/deal"
	"github.com/domino14/ddsolver/solver"
)

const QueueGroup = "ddsolver"

// SolveRequest asks for a double-dummy table of a full deal. When Leader is
// set it instead asks for the value of a position: Deal then holds hands of
// equal (possibly short) length, Strain names the trumps and Played lists
// the cards played since Leader led.
type SolveRequest struct {
	ID        string `json:"id,omitempty"`
	Deal      string `json:"deal"`
	Strains   string `json:"strains,omitempty"`
	TimeoutMs int    `json:"timeout_ms,omitempty"`

	Strain string   `json:"strain,omitempty"`
	Leader string   `json:"leader,omitempty"`
	Played []string `json:"played,omitempty"`

	// ReplyChannel, if set, is a NATS subject the Lambda function also
	// publishes its response to.
	ReplyChannel string `json:"reply_channel,omitempty"`
}

type PositionResponse struct {
	Turn string `json:"turn"`
	// Tricks each side ends the deal with.
	NS    int            `json:"ns"`
	EW    int            `json:"ew"`
	Plays map[string]int `json:"plays,omitempty"`
}

type SolveResponse struct {
	ID       string                    `json:"id,omitempty"`
	Table    map[string]map[string]int `json:"table,omitempty"`
	Position *PositionResponse         `json:"position,omitempty"`
	Error    string                    `json:"error,omitempty"`
}

// Solver is the part of *solver.Solver the handler uses.
type Solver interface {
	SolveStrains(ctx context.Context, d deal.Deal, flags solver.StrainFlags) (*solver.Result, error)
	AnalyzePosition(ctx context.Context, hands [cards.NumSeats]cards.Hand, strain cards.Strain,
		leader cards.Seat, played []cards.Card) (*solver.Position, error)
}

type Handler struct {
	solver Solver
}

func NewHandler(s Solver) *Handler {
	return &Handler{solver: s}
}

func errorResponse(id, message string, err error) *SolveResponse {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Error())
	}
	return &SolveResponse{ID: id, Error: msg}
}

// Handle serves one request. Failures are reported in the response.
func (h *Handler) Handle(ctx context.Context, req *SolveRequest) *SolveResponse {
	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}
	if req.Leader != "" {
		return h.position(ctx, req)
	}
	flags, err := solver.ParseStrainFlags(req.Strains)
	if err != nil {
		return errorResponse(req.ID, "bad strains", err)
	}
	d, err := deal.Parse(req.Deal)
	if err != nil {
		return errorResponse(req.ID, "bad deal", err)
	}
	res, err := h.solver.SolveStrains(ctx, d, flags)
	if err != nil {
		return errorResponse(req.ID, "solve failed", err)
	}
	return &SolveResponse{ID: req.ID, Table: res.Table()}
}

func (h *Handler) position(ctx context.Context, req *SolveRequest) *SolveResponse {
	hands, err := deal.ParseHands(req.Deal)
	if err != nil {
		return errorResponse(req.ID, "bad hands", err)
	}
	strain, err := cards.ParseStrain(req.Strain)
	if err != nil {
		return errorResponse(req.ID, "bad strain", err)
	}
	leader, err := parseSeat(req.Leader)
	if err != nil {
		return errorResponse(req.ID, "bad leader", err)
	}
	played := make([]cards.Card, 0, len(req.Played))
	for _, s := range req.Played {
		c, err := cards.ParseCard(s)
		if err != nil {
			return errorResponse(req.ID, "bad played card", err)
		}
		played = append(played, c)
	}
	p, err := h.solver.AnalyzePosition(ctx, hands, strain, leader, played)
	if err != nil {
		return errorResponse(req.ID, "solve failed", err)
	}
	pr := &PositionResponse{
		Turn:  p.Turn.String(),
		NS:    p.Final(cards.NorthSouth),
		EW:    p.Final(cards.EastWest),
		Plays: map[string]int{},
	}
	for _, pl := range p.Plays {
		pr.Plays[pl.Card.String()] = pl.Tricks
	}
	return &SolveResponse{ID: req.ID, Position: pr}
}

func parseSeat(s string) (cards.Seat, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return 0, errors.New("empty seat")
	}
	return cards.ParseSeat(rune(s[0]))
}

// HandleBytes decodes a JSON request and encodes the response.
func (h *Handler) HandleBytes(ctx context.Context, data []byte) []byte {
	var req SolveRequest
	var resp *SolveResponse
	if err := json.Unmarshal(data, &req); err != nil {
		resp = errorResponse("", "bad request", err)
	} else {
		resp = h.Handle(ctx, &req)
	}
	out, err := json.Marshal(resp)
	if err != nil {
		// Should never happen; the response holds only plain types.
		return []byte(`{"error":"` + err.Error() + `"}`)
	}
	return out
}

// Listen answers requests on subject until ctx is done. Several listeners
// on the same subject share the load as a queue group.
func Listen(ctx context.Context, nc *nats.Conn, subject string, h *Handler) error {
	sub, err := nc.QueueSubscribe(subject, QueueGroup, func(m *nats.Msg) {
		log.Debug().Int("bytes", len(m.Data)).Str("subject", m.Subject).Msg("solve-request")
		if err := m.Respond(h.HandleBytes(ctx, m.Data)); err != nil {
			log.Err(err).Msg("respond-failed")
		}
	})
	if err != nil {
		return err
	}
	if err := nc.Flush(); err != nil {
		return err
	}
	if err := nc.LastError(); err != nil {
		return err
	}
	log.Info().Str("subject", subject).Msg("listening")
	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		log.Err(err).Msg("drain-failed")
	}
	return nil
}
