package payment

import "strings"

// Provider is a mobile-money network.
type Provider string

const (
	ProviderMTN        Provider = "MTN"
	ProviderTelecel    Provider = "TELECEL"
	ProviderAirtelTigo Provider = "AIRTELTIGO"
)

var networkPrefixes = map[string]Provider{
	"24": ProviderMTN,
	"25": ProviderMTN,
	"53": ProviderMTN,
	"54": ProviderMTN,
	"55": ProviderMTN,
	"59": ProviderMTN,
	"20": ProviderTelecel,
	"50": ProviderTelecel,
	"26": ProviderAirtelTigo,
	"27": ProviderAirtelTigo,
	"56": ProviderAirtelTigo,
	"57": ProviderAirtelTigo,
}

// ProviderFor derives the network from an MSISDN in 233XXXXXXXXX form.
func ProviderFor(msisdn string) (Provider, bool) {
	national, ok := strings.CutPrefix(msisdn, "233")
	if !ok || len(national) < 2 {
		return "", false
	}
	p, ok := networkPrefixes[national[:2]]
	return p, ok
}
