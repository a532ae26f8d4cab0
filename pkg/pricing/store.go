// Package pricing holds the monthly rate estimates skills use to attribute
// a dollar impact to findings.
package pricing

// SKUs known to the rate book.
const (
	SKUEBSPerGB   = "ebs.gp.gb-month"
	SKUElasticIP  = "eip.idle-month"
	SKUNATGateway = "natgw.idle-month"
)

type Rate struct {
	PerUnit      float64
	CurrencyCode string
}

type Store interface {
	MonthlyRate(sku string) Rate
}

type staticStore struct {
	rates map[string]Rate
}

// Default returns the built-in rate book. Rates are rough us-east-1
// on-demand figures; they bias findings toward visibility, not billing
// accuracy.
// TODO: back this with the AWS Pricing API once the scan carries a region
// dimension per rate.
func Default() Store {
	return &staticStore{rates: map[string]Rate{
		SKUEBSPerGB:   {PerUnit: 0.08, CurrencyCode: "USD"},
		SKUElasticIP:  {PerUnit: 3.60, CurrencyCode: "USD"},
		SKUNATGateway: {PerUnit: 32.85, CurrencyCode: "USD"},
	}}
}

func (s *staticStore) MonthlyRate(sku string) Rate {
	return s.rates[sku]
}
