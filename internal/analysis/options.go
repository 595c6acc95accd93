package analysis

import (
	"log/slog"
	"slices"

	"github.com/Someblueman/codeanalysis/internal/pyast"
)

// Rating thresholds: scores up to DefaultLowThreshold are low, up to
// DefaultMediumThreshold medium, anything above high.
const (
	DefaultLowThreshold    = 5
	DefaultMediumThreshold = 10
	DefaultDocstringLimit  = 200
)

// DefaultAbstractMarkers are the base names that mark an abstract class.
var DefaultAbstractMarkers = []string{"Protocol", "ABC", "ABCMeta"}

// Options tunes the engine. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	LowThreshold    int
	MediumThreshold int
	DocstringLimit  int
	AbstractMarkers []string
	// MaxDepth bounds tree walks; zero disables the bound.
	MaxDepth int
	Logger   *slog.Logger
	// Actions overrides the built-in action registry.
	Actions *ActionRegistry
}

// DefaultOptions returns the stock engine configuration.
func DefaultOptions() Options {
	return Options{
		LowThreshold:    DefaultLowThreshold,
		MediumThreshold: DefaultMediumThreshold,
		DocstringLimit:  DefaultDocstringLimit,
		AbstractMarkers: append([]string(nil), DefaultAbstractMarkers...),
		MaxDepth:        pyast.DefaultMaxDepth,
	}
}

func (o Options) normalized() Options {
	defaults := DefaultOptions()
	if o.LowThreshold <= 0 {
		o.LowThreshold = defaults.LowThreshold
	}
	if o.MediumThreshold < o.LowThreshold {
		o.MediumThreshold = max(defaults.MediumThreshold, o.LowThreshold)
	}
	if o.DocstringLimit <= 0 {
		o.DocstringLimit = defaults.DocstringLimit
	}
	if o.AbstractMarkers == nil {
		o.AbstractMarkers = defaults.AbstractMarkers
	}
	if o.MaxDepth < 0 {
		o.MaxDepth = defaults.MaxDepth
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Actions == nil {
		o.Actions = DefaultActionRegistry()
	}
	return o
}

// Rate buckets a complexity score using the option thresholds.
func (o Options) Rate(complexity int) Rating {
	switch {
	case complexity <= o.LowThreshold:
		return RatingLow
	case complexity <= o.MediumThreshold:
		return RatingMedium
	default:
		return RatingHigh
	}
}

func (o Options) isAbstractMarker(name string) bool {
	return slices.Contains(o.AbstractMarkers, name)
}
