package main

import (
	"strconv"
	"strings"

	"github.com/branpk/wafel-sub001/internal/datatype"
	"github.com/branpk/wafel-sub001/sim"
)

// parseScalar parses a command-line argument into a datatype.Value
// shaped to kind. The CLI's own mirror of internal/monitor's parseValue
// and internal/script's luaToValue — every front end that builds a
// Value from a weakly-typed source needs the same conversion, and none
// of them import each other's unexported helper.
func parseScalar(text string, kind datatype.ValueKind) (datatype.Value, error) {
	switch kind {
	case datatype.ValueFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return datatype.Value{}, err
		}
		return datatype.NewFloat(f), nil
	case datatype.ValueAddress:
		n, err := strconv.ParseUint(strings.TrimPrefix(text, "0x"), 16, 64)
		if err != nil {
			return datatype.Value{}, err
		}
		return datatype.NewAddress(sim.Address(n)), nil
	default:
		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return datatype.Value{}, err
		}
		return datatype.NewInt(n), nil
	}
}
