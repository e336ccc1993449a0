package chain

import (
	"fmt"

	"chainsight/internal/domain/options"
	"chainsight/pkg/errors"
	"chainsight/pkg/logger"
)

// Check names used in validation findings
const (
	CheckContractCount = "contract_count"
	CheckChainSides    = "chain_sides"
	CheckStrikeSpread  = "strike_spread"
)

// Validator runs structural checks on a snapshot before analysis.
// It never mutates its input. Downstream stages may run on warnings but
// must not run when Errors is non-empty.
type Validator struct {
	cfg Config
	log *logger.Logger
}

// NewValidator creates a new validator
func NewValidator(cfg Config) *Validator {
	return &Validator{
		cfg: cfg,
		log: logger.Get().With("component", "validator"),
	}
}

// Validate checks a snapshot and reports warnings and errors
func (v *Validator) Validate(snapshot *options.Snapshot) *ValidationReport {
	report := &ValidationReport{}

	calls, puts := 0, 0
	for _, c := range snapshot.Contracts {
		switch c.Type {
		case options.Call:
			calls++
		case options.Put:
			puts++
		}
	}
	total := calls + puts

	if calls == 0 || puts == 0 {
		report.Errors = append(report.Errors, errors.NewValidationError(
			errors.ErrDataIncomplete,
			CheckChainSides,
			"chain is missing an entire side",
			fmt.Sprintf("calls=%d puts=%d", calls, puts),
			"fetch a wider expiration window or verify the ticker",
		))
	}

	if total < v.cfg.MinContracts {
		report.Warnings = append(report.Warnings, errors.NewValidationError(
			errors.ErrDataInsufficient,
			CheckContractCount,
			"too few contracts for a reliable read",
			total,
			fmt.Sprintf("increase limit to >= %d", v.cfg.MinContracts),
		))
	}

	strikes := snapshot.DistinctStrikes()
	if len(strikes) > 1 {
		low, high := strikes[0], strikes[len(strikes)-1]
		if low > 0 && (high-low)/low > v.cfg.MaxStrikeSpreadRatio {
			report.Warnings = append(report.Warnings, errors.NewValidationError(
				errors.ErrDataAnomalous,
				CheckStrikeSpread,
				"strike range implausibly wide",
				fmt.Sprintf("%.2f-%.2f", low, high),
				"check the provider data for stale or mispriced listings",
			))
		}
	}

	report.OK = len(report.Errors) == 0

	if !report.OK {
		v.log.Warn("Snapshot failed validation",
			"ticker", snapshot.Ticker,
			"calls", calls,
			"puts", puts,
		)
	} else if len(report.Warnings) > 0 {
		v.log.Debug("Snapshot validated with warnings",
			"ticker", snapshot.Ticker,
			"warnings", len(report.Warnings),
		)
	}

	return report
}
