package jwtx

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Well-known claim types used by the account service.
const (
	ClaimSubject = "sub"
	ClaimJTI     = "jti"
	ClaimEmail   = "email"
	ClaimUserID  = "uid"
	ClaimRole    = "role"
)

// registered claim names owned by the Issuer. Values for these in a
// ClaimSet are ignored when a token is minted.
var registered = []string{"iss", "aud", "exp", "iat", "nbf"}

// Claim is a single (type, value) assertion about a principal.
type Claim struct {
	Type  string
	Value string
}

// ClaimSet is an ordered list of claims. The same type may appear more than
// once (for example one "role" claim per role), and insertion order is kept.
type ClaimSet []Claim

// Add appends a claim to the set.
func (cs *ClaimSet) Add(typ, value string) {
	*cs = append(*cs, Claim{Type: typ, Value: value})
}

// First returns the value of the first claim with the given type.
func (cs ClaimSet) First(typ string) (string, bool) {
	for _, c := range cs {
		if c.Type == typ {
			return c.Value, true
		}
	}
	return "", false
}

// Values returns every value for the given type in insertion order.
func (cs ClaimSet) Values(typ string) []string {
	var out []string
	for _, c := range cs {
		if c.Type == typ {
			out = append(out, c.Value)
		}
	}
	return out
}

// Has reports whether a claim with exactly this type and value is present.
func (cs ClaimSet) Has(typ, value string) bool {
	return slices.Contains(cs, Claim{Type: typ, Value: value})
}

// Types returns the distinct claim types in order of first appearance.
func (cs ClaimSet) Types() []string {
	seen := make(map[string]struct{}, len(cs))
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		if _, ok := seen[c.Type]; ok {
			continue
		}
		seen[c.Type] = struct{}{}
		out = append(out, c.Type)
	}
	return out
}

// payload groups the set by type: a type with one value becomes a JSON
// string, a type with several values becomes an array in insertion order.
func (cs ClaimSet) payload() jwt.MapClaims {
	out := jwt.MapClaims{}
	for _, typ := range cs.Types() {
		if slices.Contains(registered, typ) {
			continue
		}
		vals := cs.Values(typ)
		if len(vals) == 1 {
			out[typ] = vals[0]
			continue
		}
		out[typ] = vals
	}
	return out
}

// fromMapClaims flattens decoded JWT claims back into a ClaimSet. Keys are
// visited in sorted order so the result is deterministic.
func fromMapClaims(m jwt.MapClaims) ClaimSet {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cs := make(ClaimSet, 0, len(keys))
	for _, k := range keys {
		switch v := m[k].(type) {
		case []any:
			for _, item := range v {
				cs.Add(k, stringify(item))
			}
		case []string:
			for _, item := range v {
				cs.Add(k, item)
			}
		default:
			cs.Add(k, stringify(v))
		}
	}
	return cs
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
