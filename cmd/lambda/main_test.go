package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/ddsolver/service"
)

func TestHandleRequest(t *testing.T) {
	is := is.New(t)
	is.NoErr(setup([]string{"--tt-size-power=16", "--threads=2"}))
	ret, err := HandleRequest(context.Background(), service.SolveRequest{
		ID:      "foo",
		Deal:    "N:AKQJT98765432... .AKQJT98765432.. ..AKQJT98765432. ...AKQJT98765432",
		Strains: "S",
	})
	is.NoErr(err)
	var resp service.SolveResponse
	is.NoErr(json.Unmarshal([]byte(ret), &resp))
	is.Equal(resp.ID, "foo")
	is.Equal(resp.Table["S"], map[string]int{"N": 13, "E": 0, "S": 13, "W": 0})
}
