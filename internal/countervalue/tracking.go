package countervalue

import "github.com/ahmethakanbesel/countervalues/internal/currency"

// InferTrackingPairs returns one pair per currency held in accounts (sub-accounts
// included), priced in countervalue and starting at the earliest creation
// date among the accounts of that currency. Currencies with countervalues
// disabled are left out.
func InferTrackingPairs(accounts []currency.Account, countervalue currency.Currency) []TrackingPair {
	if countervalue.DisableCountervalue {
		return nil
	}

	var order []string
	pairs := make(map[string]TrackingPair)
	for _, a := range currency.Flatten(accounts) {
		c := a.Currency
		if c.DisableCountervalue {
			continue
		}
		p, ok := pairs[c.ID]
		if !ok {
			order = append(order, c.ID)
			p = TrackingPair{From: c.Ticker, To: countervalue.Ticker, StartDate: a.CreationDate}
		} else if a.CreationDate.Before(p.StartDate) {
			p.StartDate = a.CreationDate
		}
		pairs[c.ID] = p
	}

	out := make([]TrackingPair, 0, len(order))
	for _, id := range order {
		out = append(out, pairs[id])
	}
	return out
}
