package report

import (
	"errors"
	"fmt"
)

// ErrNoData means the reporting window contained no completed analyses.
// Expected in normal operation (new SDRs, slow weeks); batch callers skip
// the SDR and continue.
var ErrNoData = errors.New("no completed call analyses in window")

// MissingDimensionError reports an analysis lacking one of the six rubric
// dimensions. That is upstream data corruption: aggregation fails loudly
// rather than defaulting the score to zero and poisoning the average.
type MissingDimensionError struct {
	CallID    string
	Dimension string
}

func (e *MissingDimensionError) Error() string {
	return fmt.Sprintf("analysis for call %s is missing dimension %q", e.CallID, e.Dimension)
}
