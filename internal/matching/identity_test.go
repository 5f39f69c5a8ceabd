package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tiltedtrades/trades-api/internal/models"
)

func TestQualifyAddsPrefix(t *testing.T) {
	assert.Equal(t, "fifo#abc-def-0", Qualify(models.CalcMethodFIFO, "abc-def-0"))
	assert.Equal(t, "perPosition#MES-e1-0", Qualify(models.CalcMethodPerPosition, "MES-e1-0"))
}

func TestQualifyIsIdempotent(t *testing.T) {
	ids := []string{"abc-def-0", "fifo#abc-def-0", "perPosition#MES-e1-0"}
	for _, raw := range ids {
		once := Qualify(models.CalcMethodFIFO, raw)
		assert.Equal(t, once, Qualify(models.CalcMethodFIFO, once), "double qualification of %q", raw)
	}
}

func TestQualifyDoesNotDoublePrefixOtherMethod(t *testing.T) {
	// An id already qualified under one method must not gain a second prefix.
	assert.Equal(t, "perPosition#X", Qualify(models.CalcMethodFIFO, "perPosition#X"))
}

func TestParseQualified(t *testing.T) {
	id := Parse("perPosition#MES-e1-0", models.CalcMethodFIFO)
	assert.True(t, id.Qualified)
	assert.Equal(t, models.CalcMethodPerPosition, id.Method)
	assert.Equal(t, "MES-e1-0", id.LocalID)
	assert.Equal(t, "perPosition#MES-e1-0", id.String())
}

func TestParseLegacyDefaultsToConfiguredMethod(t *testing.T) {
	id := Parse("abc-def-0", models.CalcMethodFIFO)
	assert.False(t, id.Qualified)
	assert.Equal(t, models.CalcMethodFIFO, id.Method)
	assert.Equal(t, "abc-def-0", id.LocalID)
	assert.Equal(t, "abc-def-0", id.String())

	id = Parse("abc-def-0", models.CalcMethodPerPosition)
	assert.Equal(t, models.CalcMethodPerPosition, id.Method)
}

func TestParseUnrecognizedPrefixStaysLegacy(t *testing.T) {
	// A stray separator without a known method is part of the local id.
	id := Parse("lifo#123", models.CalcMethodFIFO)
	assert.False(t, id.Qualified)
	assert.Equal(t, "lifo#123", id.LocalID)
}

func TestLocalIDOf(t *testing.T) {
	assert.Equal(t, "X", LocalIDOf("fifo#X"))
	assert.Equal(t, "X", LocalIDOf("X"))
	assert.Equal(t, "a#b", LocalIDOf("fifo#a#b"))
}

func TestMethodOf(t *testing.T) {
	assert.Equal(t, models.CalcMethodPerPosition, MethodOf("perPosition#X", models.CalcMethodFIFO))
	assert.Equal(t, models.CalcMethodFIFO, MethodOf("X", models.CalcMethodFIFO))
}
