package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rishav/hft-trade-core/internal/types"
)

func baseConfig() Config {
	return Config{
		MaxPositionValue:   1_000_000,
		MaxLoss:            500_000,
		MaxOrderSize:       100,
		MaxOrderRatePerSec: 5,
		MinPrice:           1,
		MaxPrice:           1_000_000,
	}
}

func TestCheckOrderTickerOutOfRange(t *testing.T) {
	m := New(2, baseConfig())
	result := m.CheckOrder(types.TickerId(7), types.SideBuy, 100, 10, 0)
	assert.Equal(t, TickerOutOfRange, result)
}

func TestCheckOrderOrderSizeBreach(t *testing.T) {
	m := New(1, baseConfig())
	result := m.CheckOrder(0, types.SideBuy, 100, 101, 0)
	assert.Equal(t, OrderSizeBreach, result)
}

func TestCheckOrderInvalidPrice(t *testing.T) {
	m := New(1, baseConfig())
	assert.Equal(t, InvalidPrice, m.CheckOrder(0, types.SideBuy, 0, 10, 0))
	assert.Equal(t, InvalidPrice, m.CheckOrder(0, types.SideBuy, 2_000_000, 10, 0))
}

func TestCheckOrderPositionLimitBreach(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxPositionValue = 5
	m := New(1, cfg)
	// hypothetical position = 0 + 10 = 10 > 5 limit, independent of price
	result := m.CheckOrder(0, types.SideBuy, 100, 10, 0)
	assert.Equal(t, PositionLimitBreach, result)
}

func TestCheckOrderPositionLimitIgnoresSubmittedPrice(t *testing.T) {
	// A fresh ticker with max_position_value=100 must accept a 1-lot order
	// even at a high limit price: the price is not a notional multiplier.
	cfg := baseConfig()
	cfg.MaxPositionValue = 100
	m := New(1, cfg)
	result := m.CheckOrder(0, types.SideBuy, 500, 1, 0)
	assert.Equal(t, Pass, result)
}

func TestCheckOrderLossLimitBreach(t *testing.T) {
	cfg := baseConfig()
	m := New(1, cfg)
	m.UpdatePnlMirror(0, -600_000, 0) // already past -max_loss
	result := m.CheckOrder(0, types.SideBuy, 10, 1, 0)
	assert.Equal(t, LossLimitBreach, result)
}

func TestCheckOrderPassIncrementsRateCounterAndUpdatesTimestamp(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxOrderRatePerSec = 2
	m := New(1, cfg)

	assert.Equal(t, Pass, m.CheckOrder(0, types.SideBuy, 10, 1, 0))
	assert.Equal(t, Pass, m.CheckOrder(0, types.SideBuy, 10, 1, 100))
	// third order within the same second exceeds the limit of 2
	assert.Equal(t, OrderRateBreach, m.CheckOrder(0, types.SideBuy, 10, 1, 200))
}

func TestCheckOrderRateCounterResetsAfterOneSecond(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxOrderRatePerSec = 1
	m := New(1, cfg)

	assert.Equal(t, Pass, m.CheckOrder(0, types.SideBuy, 10, 1, 0))
	assert.Equal(t, OrderRateBreach, m.CheckOrder(0, types.SideBuy, 10, 1, 500_000_000))

	const oneSecondNs = types.Timestamp(1_000_000_000)
	assert.Equal(t, Pass, m.CheckOrder(0, types.SideBuy, 10, 1, oneSecondNs))
}

func TestCheckOrderFailureHasNoRateSideEffect(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxOrderRatePerSec = 1
	m := New(1, cfg)

	// This fails on order size, before the rate counter is touched.
	assert.Equal(t, OrderSizeBreach, m.CheckOrder(0, types.SideBuy, 10, 1000, 0))
	// The rate counter should still be untouched, so a valid order at the
	// same timestamp passes.
	assert.Equal(t, Pass, m.CheckOrder(0, types.SideBuy, 10, 1, 0))
}

func TestConfigureOverridesPerTicker(t *testing.T) {
	m := New(2, baseConfig())
	tight := baseConfig()
	tight.MaxOrderSize = 1
	m.Configure(1, tight)

	assert.Equal(t, Pass, m.CheckOrder(0, types.SideBuy, 10, 50, 0))
	assert.Equal(t, OrderSizeBreach, m.CheckOrder(1, types.SideBuy, 10, 50, 0))
}

func TestFlattenAllZeroesPositionMirrors(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxPositionValue = 100
	m := New(1, cfg)
	m.UpdatePositionMirror(0, 1000, 1000)

	m.FlattenAll()

	// After flattening, a small order's hypothetical value no longer
	// breaches the position limit set from the pre-flatten position.
	assert.Equal(t, Pass, m.CheckOrder(0, types.SideBuy, 1, 1, 0))
}
