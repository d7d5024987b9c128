package currency

type Kind string

const (
	KindCrypto Kind = "crypto"
	KindToken  Kind = "token"
	KindFiat   Kind = "fiat"
)

// Currency is the static description of an asset or fiat currency. Magnitude
// is the number of decimals between the display unit and the smallest unit
// amounts are expressed in (8 for BTC satoshis, 2 for USD cents).
type Currency struct {
	ID                  string `yaml:"id"`
	Ticker              string `yaml:"ticker"`
	Name                string `yaml:"name"`
	Kind                Kind   `yaml:"kind"`
	Magnitude           int    `yaml:"magnitude"`
	DisableCountervalue bool   `yaml:"disableCountervalue"`
}

// MagnitudeShift returns the power of ten that converts an amount of from's
// smallest unit, priced in to's display unit, into to's smallest unit.
func MagnitudeShift(from, to Currency) int32 {
	return int32(to.Magnitude - from.Magnitude)
}
