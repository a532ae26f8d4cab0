package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRates(t *testing.T) {
	store := Default()

	assert.InDelta(t, 0.08, store.MonthlyRate(SKUEBSPerGB).PerUnit, 0.001)
	assert.InDelta(t, 3.60, store.MonthlyRate(SKUElasticIP).PerUnit, 0.001)
	assert.Equal(t, "USD", store.MonthlyRate(SKUNATGateway).CurrencyCode)

	// Unknown SKUs come back zero rather than guessing a rate.
	assert.Zero(t, store.MonthlyRate("no-such-sku").PerUnit)
}
