package currency

import "time"

// Account holds funds in a single currency. Token balances live in
// SubAccounts of their parent chain account.
type Account struct {
	ID           string
	Currency     Currency
	CreationDate time.Time
	SubAccounts  []Account
}

// Flatten expands every account into itself followed by its sub-accounts,
// depth first.
func Flatten(accounts []Account) []Account {
	out := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a)
		if len(a.SubAccounts) > 0 {
			out = append(out, Flatten(a.SubAccounts)...)
		}
	}
	return out
}
