package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"chainsight/internal/domain/options"
	"chainsight/pkg/errors"
)

// contractRow is the flat CSV projection of a contract. Open interest is
// blank when the feed omitted it, so the volume proxy fallback stays
// visible in exports.
type contractRow struct {
	Ticker        string `csv:"ticker"`
	Underlying    string `csv:"underlying"`
	Type          string `csv:"type"`
	Strike        string `csv:"strike"`
	Expiration    string `csv:"expiration"`
	Volume        string `csv:"volume"`
	OpenInterest  string `csv:"open_interest"`
	Exchange      string `csv:"exchange"`
	ExerciseStyle string `csv:"exercise_style"`
}

// WriteContractsCSV writes a snapshot's contracts as CSV
func WriteContractsCSV(w io.Writer, snapshot *options.Snapshot) error {
	if snapshot == nil {
		return errors.Wrap(errors.ErrInvalidInput, "nil snapshot")
	}

	rows := make([]*contractRow, 0, len(snapshot.Contracts))
	for _, c := range snapshot.Contracts {
		row := &contractRow{
			Ticker:        c.Ticker,
			Underlying:    c.Underlying,
			Type:          c.Type.String(),
			Strike:        fmt.Sprintf("%g", c.Strike),
			Expiration:    c.Expiration.Format("2006-01-02"),
			Volume:        fmt.Sprintf("%g", c.Volume),
			Exchange:      c.Exchange,
			ExerciseStyle: c.ExerciseStyle,
		}
		if c.OpenInterest != nil {
			row.OpenInterest = fmt.Sprintf("%g", *c.OpenInterest)
		}
		rows = append(rows, row)
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return errors.Wrapf(err, "export contracts for %s", snapshot.Key())
	}

	return nil
}
