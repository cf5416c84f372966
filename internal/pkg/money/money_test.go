package money

import (
	"testing"
)

func TestFormat(t *testing.T) {
	formatRequest := func(amount float64, currency, want string) func(t *testing.T) {
		return func(t *testing.T) {
			got := Format(amount, currency)
			if got != want {
				t.Fatalf("expected %s, got %s", want, got)
			}
		}
	}

	t.Run("small_amount", formatRequest(500, "INR", "₹500"))
	t.Run("thousands", formatRequest(5200, "INR", "₹5,200"))
	t.Run("millions", formatRequest(1250000, "IDR", "Rp1,250,000"))
	t.Run("rounds_fractions", formatRequest(5200.49, "INR", "₹5,200"))
	t.Run("negative", formatRequest(-5200, "INR", "-₹5,200"))
	t.Run("unknown_currency_prefixes_code", formatRequest(900, "AED", "AED 900"))
	t.Run("zero", formatRequest(0, "USD", "$0"))
}
