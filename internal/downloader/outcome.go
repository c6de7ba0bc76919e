package downloader

// Status tags the terminal result for one symbol.
type Status string

const (
	// StatusSuccess means the history was fetched and written this run.
	StatusSuccess Status = "success"
	// StatusExists means a fresh artifact was already on disk; no network
	// call was made.
	StatusExists Status = "exists"
	// StatusEmpty means the provider returned no rows on every attempt.
	StatusEmpty Status = "empty"
	// StatusError means the attempts were exhausted by failures, or the
	// identifier was unusable.
	StatusError Status = "error"
)

// Outcome is the terminal per-symbol result. Exactly one Outcome is
// produced per input identifier, whatever path it took.
type Outcome struct {
	Status Status
	Code   string
	Err    error
}
