package symbol

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedIdentifier indicates a raw identifier that cannot be split
// into a code and a display name.
var ErrMalformedIdentifier = errors.New("symbol: malformed identifier")

// Symbol identifies one tradable instrument: an exchange code plus the
// human-readable display name carried along from the listing source.
type Symbol struct {
	Code string
	Name string
}

// Parse splits a raw identifier of the form "<code>&<display-name>".
// Only the first '&' separates, so display names containing '&' survive
// intact.
func Parse(raw string) (Symbol, error) {
	code, name, ok := strings.Cut(raw, "&")
	if !ok || code == "" {
		return Symbol{}, fmt.Errorf("%w: %q", ErrMalformedIdentifier, raw)
	}
	return Symbol{Code: code, Name: name}, nil
}

// QueryKey returns the provider ticker for this symbol. Codes starting
// with "6" are Shanghai-listed and take the .SS suffix; everything else
// trades in Shenzhen and takes .SZ.
func (s Symbol) QueryKey() string {
	if strings.HasPrefix(s.Code, "6") {
		return s.Code + ".SS"
	}
	return s.Code + ".SZ"
}

// ArtifactName returns the file name under which this symbol's history is
// stored: "{code}_{name}.csv".
func (s Symbol) ArtifactName() string {
	return fmt.Sprintf("%s_%s.csv", s.Code, s.Name)
}
