package chain

import (
	"time"

	"chainsight/internal/domain/options"
)

// Test fixtures shared by the chain package tests.

func call(strike, volume float64) options.Contract {
	return options.Contract{
		Type:       options.Call,
		Strike:     strike,
		Volume:     volume,
		Expiration: time.Now().UTC().AddDate(0, 4, 0),
	}
}

func put(strike, volume float64) options.Contract {
	return options.Contract{
		Type:       options.Put,
		Strike:     strike,
		Volume:     volume,
		Expiration: time.Now().UTC().AddDate(0, 4, 0),
	}
}

func withOI(c options.Contract, oi float64) options.Contract {
	c.OpenInterest = &oi
	return c
}

func shortDated(c options.Contract) options.Contract {
	c.Expiration = time.Now().UTC().AddDate(0, 0, 10)
	return c
}

func newSnapshot(contracts ...options.Contract) *options.Snapshot {
	return options.NewSnapshot("TEST", "2026-10", contracts)
}

// balancedChain builds a two-sided chain with the given number of calls
// and puts spread over a narrow strike ladder
func balancedChain(calls, puts int) *options.Snapshot {
	contracts := make([]options.Contract, 0, calls+puts)
	for i := 0; i < calls; i++ {
		contracts = append(contracts, call(100+float64(i%10), 10))
	}
	for i := 0; i < puts; i++ {
		contracts = append(contracts, put(95+float64(i%10), 10))
	}
	return newSnapshot(contracts...)
}
