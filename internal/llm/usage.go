package llm

import (
	"fmt"
	"sync"

	"fjacquet/databonsai/internal/models"

	"github.com/shopspring/decimal"
)

var oneMillion = decimal.NewFromInt(1_000_000)

// Usage counts requests and tokens consumed by a provider.
type Usage struct {
	Requests     int64
	InputTokens  int64
	OutputTokens int64
}

// TotalTokens returns input plus output tokens.
func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

// Cost prices the usage. Pricing is quoted in USD per million tokens.
func (u Usage) Cost(p Pricing) models.Money {
	in := models.NewMoney(p.InputPerMillion, models.CurrencyUSD).Mul(decimal.NewFromInt(u.InputTokens).Div(oneMillion))
	out := models.NewMoney(p.OutputPerMillion, models.CurrencyUSD).Mul(decimal.NewFromInt(u.OutputTokens).Div(oneMillion))
	total, _ := in.Add(out) // same currency
	return total
}

// Pricing is the price of one million tokens.
type Pricing struct {
	InputPerMillion  decimal.Decimal
	OutputPerMillion decimal.Decimal
}

// ParsePricing parses decimal prices as written in the configuration. Empty
// strings count as free.
func ParsePricing(input, output string) (Pricing, error) {
	in, err := parsePrice("input", input)
	if err != nil {
		return Pricing{}, err
	}
	out, err := parsePrice("output", output)
	if err != nil {
		return Pricing{}, err
	}
	return Pricing{InputPerMillion: in, OutputPerMillion: out}, nil
}

func parsePrice(kind, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s price %q: %w", kind, s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid %s price %q: must not be negative", kind, s)
	}
	return d, nil
}

type usageCounter struct {
	mu    sync.Mutex
	usage Usage
}

func (c *usageCounter) add(input, output int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.usage.Requests++
	c.usage.InputTokens += int64(input)
	c.usage.OutputTokens += int64(output)
}

func (c *usageCounter) snapshot() Usage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}
