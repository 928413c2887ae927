package sim

import "errors"

var (
	// ErrConfig marks a configuration error detected before the loop starts.
	ErrConfig = errors.New("invalid mission configuration")

	// ErrDataUnavailable is returned by trajectory or environment sources that
	// cannot produce a value for a timestep. The step becomes an outage.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrEvaluationBudget aborts a run whose link evaluations fail too often.
	ErrEvaluationBudget = errors.New("link evaluation failure budget exceeded")
)
