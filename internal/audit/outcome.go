package audit

import "fmt"

// Outcome is the closed set of decision results an audit record can carry.
// Keeping it an enumerated kind (not free-form strings) means a switch over
// outcomes fails to compile rather than silently skipping a new case.
type Outcome int

const (
	OutcomeGranted Outcome = iota
	OutcomeDenied
	OutcomeConfigError
	OutcomeExecFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGranted:
		return "granted"
	case OutcomeDenied:
		return "denied"
	case OutcomeConfigError:
		return "config_error"
	case OutcomeExecFailure:
		return "exec_failure"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// ParseOutcome maps a record tag back to its Outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "granted":
		return OutcomeGranted, nil
	case "denied":
		return OutcomeDenied, nil
	case "config_error":
		return OutcomeConfigError, nil
	case "exec_failure":
		return OutcomeExecFailure, nil
	}
	return 0, fmt.Errorf("unknown outcome tag %q", s)
}
