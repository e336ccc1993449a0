package chain

// Config holds every rule threshold used by the analysis pipeline.
// It is built once at startup and injected into each component; components
// never mutate it.
type Config struct {
	// Validator
	MinContracts         int     // soft minimum, below it confidence is capped Low
	MaxStrikeSpreadRatio float64 // (max-min)/min above this flags DataAnomalous

	// Clustering
	GapThreshold   float64 // relative gap joining a strike to the current cluster
	MinClusterSize int     // clusters smaller than this become isolated points

	// Sentiment corrective weights; heuristic, tunable
	SkewWeight          float64
	ConcentrationWeight float64

	// Confidence breakpoints on contract count
	ConfidenceLowBreak    int
	ConfidenceMediumBreak int
	ConfidenceHighBreak   int

	// Concentration considered "strong" for score adjustment
	StrongConcentration float64

	// Risk assessor
	ElevatedPutConcentration float64 // putConcentration above this is Elevated
	ModeratePutConcentration float64 // putConcentration above this is Moderate
	ExtremeImbalanceRatio    float64 // call/put ratio below this is extreme put imbalance

	// Hedging pattern detection
	HedgeBandPct     float64 // near-the-money band around the spot proxy
	HedgeBalanceLow  float64 // balanced call/put volume ratio lower bound
	HedgeBalanceHigh float64 // balanced call/put volume ratio upper bound
	HedgeMinDays     int     // minimum median days-to-expiration
}

// DefaultConfig returns the default analysis thresholds
func DefaultConfig() Config {
	return Config{
		MinContracts:         300,
		MaxStrikeSpreadRatio: 20.0,

		GapThreshold:   0.05,
		MinClusterSize: 3,

		SkewWeight:          0.1,
		ConcentrationWeight: 0.05,

		ConfidenceLowBreak:    300,
		ConfidenceMediumBreak: 500,
		ConfidenceHighBreak:   800,

		StrongConcentration: 0.4,

		ElevatedPutConcentration: 0.6,
		ModeratePutConcentration: 0.45,
		ExtremeImbalanceRatio:    0.4,

		HedgeBandPct:     0.05,
		HedgeBalanceLow:  0.8,
		HedgeBalanceHigh: 1.25,
		HedgeMinDays:     60,
	}
}
