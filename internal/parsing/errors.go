package parsing

import "errors"

// Outcomes of a parse attempt. Everything except ErrContractViolation is an
// expected per-file condition and surfaces from TryParse only as false;
// Explain returns them wrapped with detail.
var (
	// ErrExcluded indicates the file matched an exclusion pattern.
	ErrExcluded = errors.New("excluded")

	// ErrUnsupportedType indicates no analyzer resolves for the file.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrUnreadable indicates the storage layer could not produce the content.
	ErrUnreadable = errors.New("unreadable file")

	// ErrAnalysisFailed indicates the analyzer rejected the content.
	ErrAnalysisFailed = errors.New("analysis failed")

	// ErrContractViolation indicates caller error, such as an absent file
	// reference. It is raised as a panic, never returned as a parse outcome.
	ErrContractViolation = errors.New("contract violation")
)

// Reason returns a short label for an outcome error, suitable for log
// attributes and metric labels.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrExcluded):
		return "excluded"
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported"
	case errors.Is(err, ErrUnreadable):
		return "unreadable"
	case errors.Is(err, ErrAnalysisFailed):
		return "analysis_failed"
	default:
		return "unknown"
	}
}
