// Package refdata loads the static reference tables the ingestion path
// needs: per-symbol contract specifications, commission rate tiers, and the
// broker-symbol conversion table.
package refdata

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/tiltedtrades/trades-api/internal/middleware"
)

// SymbolSpec describes one futures contract.
type SymbolSpec struct {
	Multiplier   float64 `yaml:"multiplier"`
	TickSize     float64 `yaml:"tick_size"`
	ValuePerTick float64 `yaml:"value_per_tick"`
}

// CommissionSpec holds per-tier round-trip commission rates for a symbol.
type CommissionSpec struct {
	Tiers map[string]float64 `yaml:"tiers"`
}

type tablesFile struct {
	Symbols     map[string]SymbolSpec     `yaml:"symbols"`
	Commissions map[string]CommissionSpec `yaml:"commissions"`
	Conversions map[string]string         `yaml:"conversions"`
}

// Tables bundles the loaded reference data together with the commission
// tier in effect. Missing symbols degrade to zero values with a warning
// rather than failing the import.
type Tables struct {
	symbols     map[string]SymbolSpec
	commissions map[string]CommissionSpec
	conversions map[string]string
	tier        string
}

// Load reads the reference tables from a YAML file.
func Load(path, tier string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read refdata: %w", err)
	}

	var file tablesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse refdata: %w", err)
	}
	return New(file.Symbols, file.Commissions, file.Conversions, tier), nil
}

// New builds Tables from already-parsed maps; tests use it directly.
func New(symbols map[string]SymbolSpec, commissions map[string]CommissionSpec, conversions map[string]string, tier string) *Tables {
	if tier == "" || tier == "fixed" {
		tier = "3"
	}
	if symbols == nil {
		symbols = map[string]SymbolSpec{}
	}
	if commissions == nil {
		commissions = map[string]CommissionSpec{}
	}
	if conversions == nil {
		conversions = map[string]string{}
	}
	return &Tables{symbols: symbols, commissions: commissions, conversions: conversions, tier: tier}
}

// Convert maps a raw broker symbol to its display ticker, passing unknown
// symbols through unchanged.
func (t *Tables) Convert(rawSymbol string) string {
	if ticker, ok := t.conversions[rawSymbol]; ok {
		return ticker
	}
	return rawSymbol
}

// Commission returns the commission for a fill of qty contracts, always
// zero or negative: -rate * |qty|. Unknown symbols or tiers yield zero.
func (t *Tables) Commission(ticker string, qty int64) decimal.Decimal {
	spec, ok := t.commissions[ticker]
	if !ok {
		middleware.LogError("commission rates not found for symbol %s", ticker)
		return decimal.Zero
	}
	rate, ok := spec.Tiers[t.tier]
	if !ok {
		middleware.LogError("commission rate not found for symbol %s tier %s", ticker, t.tier)
		return decimal.Zero
	}
	if qty < 0 {
		qty = -qty
	}
	return decimal.NewFromFloat(rate).Mul(decimal.NewFromInt(qty)).Neg()
}

// NotionalValue computes the signed notional of a fill:
// multiplier * price * positionEffect * -1. Unknown symbols yield zero.
func (t *Tables) NotionalValue(ticker string, price decimal.Decimal, positionEffect int64) decimal.Decimal {
	spec, ok := t.symbols[ticker]
	if !ok {
		middleware.LogError("contract spec not found for symbol %s", ticker)
		return decimal.Zero
	}
	return decimal.NewFromFloat(spec.Multiplier).
		Mul(price).
		Mul(decimal.NewFromInt(positionEffect)).
		Neg()
}

// TickSize returns the symbol's minimum price increment, or zero when the
// symbol is unknown.
func (t *Tables) TickSize(ticker string) decimal.Decimal {
	spec, ok := t.symbols[ticker]
	if !ok {
		return decimal.Zero
	}
	return decimal.NewFromFloat(spec.TickSize)
}
