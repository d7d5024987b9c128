package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ahmethakanbesel/countervalues/internal/countervalue"
	"github.com/ahmethakanbesel/countervalues/internal/currency"
)

// SettingsFile is the YAML document describing what to keep synchronized:
//
//	countervalue: USD
//	accounts:
//	  - currency: ethereum
//	    createdAt: 2021-03-01
//	    subAccounts:
//	      - currency: ethereum/erc20/usd__coin
//	        createdAt: 2022-01-10
//	pairs:
//	  - from: BTC
//	    to: EUR
//	    startDate: 2020-01-01T00:00:00Z
type SettingsFile struct {
	Countervalue string                      `yaml:"countervalue"`
	Accounts     []AccountEntry              `yaml:"accounts"`
	Pairs        []countervalue.TrackingPair `yaml:"pairs"`
}

type AccountEntry struct {
	ID          string         `yaml:"id"`
	Currency    string         `yaml:"currency"`
	CreatedAt   time.Time      `yaml:"createdAt"`
	SubAccounts []AccountEntry `yaml:"subAccounts"`
}

func ParseSettingsFile(b []byte) (*SettingsFile, error) {
	var f SettingsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	return &f, nil
}

func LoadSettingsFile(path string) (*SettingsFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	return ParseSettingsFile(b)
}

// TrackingPairs resolves the accounts against reg, derives their tracking
// pairs and appends the explicit pairs that are not already covered.
// fallbackCountervalue is used when the file does not name one.
func (f *SettingsFile) TrackingPairs(reg *currency.Registry, fallbackCountervalue string) ([]countervalue.TrackingPair, error) {
	cvID := f.Countervalue
	if cvID == "" {
		cvID = fallbackCountervalue
	}
	cv, err := reg.Resolve(cvID)
	if err != nil {
		return nil, fmt.Errorf("countervalue: %w", err)
	}

	accounts, err := resolveAccounts(reg, f.Accounts)
	if err != nil {
		return nil, err
	}

	pairs := countervalue.InferTrackingPairs(accounts, cv)
	seen := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		seen[p.ID()] = true
	}
	for _, p := range f.Pairs {
		if p.From == "" || p.To == "" {
			return nil, fmt.Errorf("pair must have from and to")
		}
		if seen[p.ID()] {
			continue
		}
		seen[p.ID()] = true
		pairs = append(pairs, p)
	}
	return pairs, nil
}

func resolveAccounts(reg *currency.Registry, entries []AccountEntry) ([]currency.Account, error) {
	accounts := make([]currency.Account, 0, len(entries))
	for i, e := range entries {
		c, err := reg.Resolve(e.Currency)
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", i, err)
		}
		subs, err := resolveAccounts(reg, e.SubAccounts)
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", i, err)
		}
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("%s-%d", c.ID, i)
		}
		accounts = append(accounts, currency.Account{
			ID:           id,
			Currency:     c,
			CreationDate: e.CreatedAt,
			SubAccounts:  subs,
		})
	}
	return accounts, nil
}
