package refdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTables(tier string) *Tables {
	return New(
		map[string]SymbolSpec{"MES": {Multiplier: 5, TickSize: 0.25, ValuePerTick: 1.25}},
		map[string]CommissionSpec{"MES": {Tiers: map[string]float64{"1": 0.52, "3": 0.37}}},
		map[string]string{"MESU5": "MES", "MESZ5": "MES"},
		tier,
	)
}

func TestConvert(t *testing.T) {
	tables := testTables("3")
	assert.Equal(t, "MES", tables.Convert("MESU5"))
	assert.Equal(t, "MES", tables.Convert("MESZ5"))
	// Unknown symbols pass through unchanged.
	assert.Equal(t, "ZB", tables.Convert("ZB"))
}

func TestCommission(t *testing.T) {
	tables := testTables("3")

	// Always zero or negative regardless of quantity sign.
	assert.True(t, decimal.NewFromFloat(-0.74).Equal(tables.Commission("MES", 2)))
	assert.True(t, decimal.NewFromFloat(-0.74).Equal(tables.Commission("MES", -2)))

	// Unknown symbols degrade to zero instead of failing the import.
	assert.True(t, tables.Commission("ZB", 2).IsZero())
}

func TestCommissionTierAliases(t *testing.T) {
	// The historical "fixed" tier and an empty tier both mean tier 3.
	for _, tier := range []string{"", "fixed"} {
		tables := testTables(tier)
		assert.True(t, decimal.NewFromFloat(-0.37).Equal(tables.Commission("MES", 1)), "tier %q", tier)
	}

	tables := testTables("1")
	assert.True(t, decimal.NewFromFloat(-0.52).Equal(tables.Commission("MES", 1)))
}

func TestNotionalValue(t *testing.T) {
	tables := testTables("3")
	price := decimal.NewFromInt(5000)

	// multiplier * price * positionEffect * -1
	assert.True(t, decimal.NewFromInt(-50000).Equal(tables.NotionalValue("MES", price, 2)))
	assert.True(t, decimal.NewFromInt(25000).Equal(tables.NotionalValue("MES", price, -1)))
	assert.True(t, tables.NotionalValue("ZB", price, 1).IsZero())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refdata.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
symbols:
  MES:
    multiplier: 5
    tick_size: 0.25
    value_per_tick: 1.25
commissions:
  MES:
    tiers:
      "3": 0.37
conversions:
  MESU5: MES
`), 0644))

	tables, err := Load(path, "3")
	require.NoError(t, err)
	assert.Equal(t, "MES", tables.Convert("MESU5"))
	assert.True(t, decimal.NewFromFloat(-0.37).Equal(tables.Commission("MES", 1)))
	assert.True(t, decimal.NewFromFloat(0.25).Equal(tables.TickSize("MES")))

	_, err = Load(filepath.Join(dir, "missing.yaml"), "3")
	assert.Error(t, err)
}
