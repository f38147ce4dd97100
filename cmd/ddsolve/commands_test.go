package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/ddsolver/config"
	"github.com/domino14/ddsolver/deal"
)

func TestReadDeals(t *testing.T) {
	is := is.New(t)
	input := `# two deals
N:AKQJ.T98.765.432 T98.765.432.AKQJ 765.432.AKQJ.T98 432.AKQJ.T98.765

N:AKQJT98765432... .AKQJT98765432.. ..AKQJT98765432. ...AKQJT98765432
`
	deals, err := readDeals(strings.NewReader(input))
	is.NoErr(err)
	is.Equal(len(deals), 2)
	is.Equal(deals[1].String(), "N:AKQJT98765432... .AKQJT98765432.. ..AKQJT98765432. ...AKQJT98765432")

	_, err = readDeals(strings.NewReader("N:AKQ... ... ... ...\n"))
	is.True(errors.Is(err, deal.ErrInvalidDeal))
	is.True(strings.HasPrefix(err.Error(), "line 1:"))
}

func TestGlobalsConfig(t *testing.T) {
	is := is.New(t)
	g := &Globals{Set: []string{"threads=3", "null-window=false"}}
	cfg, err := g.config()
	is.NoErr(err)
	is.Equal(cfg.GetInt(config.ConfigThreads), 3)
	is.Equal(cfg.GetBool(config.ConfigNullWindow), false)
	is.Equal(cfg.GetBool(config.ConfigQuickTricks), true)
}
