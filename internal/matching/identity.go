// Package matching derives closed round-trip trades from raw execution
// streams under two independent conventions (FIFO and per-position) and
// owns the method-qualified trade identity scheme.
package matching

import (
	"strings"

	"github.com/tiltedtrades/trades-api/internal/models"
)

// Separator joins the method prefix and the local id in a qualified
// trade identity: "{method}#{localId}".
const Separator = "#"

// TradeID is the parsed form of a trade identity. Identities are either
// Qualified (method-prefixed, the only form new records may be written
// under) or Legacy (a bare pre-migration local id, ambiguous across
// methods and accepted as read-only compatibility input).
type TradeID struct {
	Method  models.CalcMethod
	LocalID string
	// Qualified is false for legacy input, in which case Method holds the
	// configured legacy default rather than anything the id itself said.
	Qualified bool
}

// NewTradeID builds a qualified identity for a trade produced by method.
func NewTradeID(method models.CalcMethod, localID string) TradeID {
	return TradeID{Method: method, LocalID: localID, Qualified: true}
}

// String renders the identity as stored: qualified ids carry the method
// prefix, legacy ids render as the bare local id.
func (id TradeID) String() string {
	if id.Qualified {
		return string(id.Method) + Separator + id.LocalID
	}
	return id.LocalID
}

// Parse interprets a raw identity string. A recognized method prefix yields
// a qualified id; anything else is treated as a legacy id whose method
// falls back to legacyDefault.
//
// The legacy default is a migration-era compatibility assumption, not a
// business rule: pre-migration records were only ever written for FIFO
// trades, so unprefixed ids historically meant "fifo". Callers pass the
// configured default explicitly so the assumption stays visible and
// revisable.
func Parse(raw string, legacyDefault models.CalcMethod) TradeID {
	if method, local, ok := splitQualified(raw); ok {
		return TradeID{Method: method, LocalID: local, Qualified: true}
	}
	return TradeID{Method: legacyDefault, LocalID: raw, Qualified: false}
}

// Qualify prefixes raw with method unless raw already carries a recognized
// method prefix, in which case it is returned unchanged. Idempotent:
// Qualify(m, Qualify(m, x)) == Qualify(m, x).
func Qualify(method models.CalcMethod, raw string) string {
	if _, _, ok := splitQualified(raw); ok {
		return raw
	}
	return string(method) + Separator + raw
}

// LocalIDOf strips a recognized method prefix from raw, or returns raw
// unchanged when unprefixed.
func LocalIDOf(raw string) string {
	if _, local, ok := splitQualified(raw); ok {
		return local
	}
	return raw
}

// MethodOf extracts the method prefix from raw, falling back to
// legacyDefault for unprefixed ids.
func MethodOf(raw string, legacyDefault models.CalcMethod) models.CalcMethod {
	if method, _, ok := splitQualified(raw); ok {
		return method
	}
	return legacyDefault
}

// splitQualified splits raw into (method, localId) when raw starts with a
// recognized method prefix. Unrecognized prefixes do not count: a stray
// "#" in a legacy id must not make it parse as qualified.
func splitQualified(raw string) (models.CalcMethod, string, bool) {
	i := strings.Index(raw, Separator)
	if i <= 0 {
		return "", "", false
	}
	method := models.CalcMethod(raw[:i])
	if !method.Valid() {
		return "", "", false
	}
	return method, raw[i+1:], true
}
