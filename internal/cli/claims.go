package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/dball/topograph/internal/schema"
	. "github.com/dball/topograph/internal/types"
)

// rawClaim is a claim as written in a claims file. Entities are ids, ":idents", "#tx"
// for the transaction, or temp ids. Attributes are ids or idents. Ref values are ids,
// ":idents", or temp ids.
type rawClaim struct {
	E       any  `json:"e"`
	A       any  `json:"a"`
	V       any  `json:"v"`
	Retract bool `json:"retract,omitempty"`
}

// ParseClaims reads a JSONC array of claims, typing their values with the topograph's
// attributes.
func ParseClaims(topo *schema.Topograph, data []byte) (claims []*Claim, err error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		err = fmt.Errorf("invalid JSONC: %w", err)
		return
	}
	var raws []rawClaim
	decoder := json.NewDecoder(bytes.NewReader(standardized))
	decoder.DisallowUnknownFields()
	if err = decoder.Decode(&raws); err != nil {
		err = fmt.Errorf("invalid claims: %w", err)
		return
	}
	claims = make([]*Claim, len(raws))
	for i, raw := range raws {
		claims[i], err = parseClaim(topo, raw)
		if err != nil {
			claims = nil
			err = fmt.Errorf("claim %d: %w", i, err)
			return
		}
	}
	return
}

func parseClaim(topo *schema.Topograph, raw rawClaim) (claim *Claim, err error) {
	claim = &Claim{Retract: raw.Retract}
	switch e := raw.E.(type) {
	case string:
		switch {
		case e == "#tx":
			claim.E = TxnID{}
		case strings.HasPrefix(e, ":"):
			claim.E = Ident(e[1:])
		default:
			claim.E = TempID(e)
		}
	default:
		var id Value
		id, err = topo.ToTypedValue(raw.E, TypeRef)
		if err != nil {
			return
		}
		claim.E = id.(ID)
	}
	var a ID
	switch x := raw.A.(type) {
	case string:
		a, err = topo.RequireEntity(Ident(strings.TrimPrefix(x, ":")))
	default:
		var id Value
		id, err = topo.ToTypedValue(raw.A, TypeRef)
		if err == nil {
			a = id.(ID)
		}
	}
	if err != nil {
		return
	}
	attr, err := topo.RequireAttr(a)
	if err != nil {
		return
	}
	claim.A = a
	if s, ok := raw.V.(string); ok && attr.Type == TypeRef && !strings.HasPrefix(s, ":") {
		claim.V = TempID(s)
		return
	}
	v, err := topo.ToTypedValue(raw.V, attr.Type)
	if err != nil {
		return
	}
	claim.V, _ = ToVRef(v)
	return
}
