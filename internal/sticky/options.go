package sticky

import (
	"StickyBus/internal/core/ports"
	"fmt"
)

// DuplicatePolicy decides what happens when a second provider registers for
// an event type that is already bound.
type DuplicatePolicy string

const (
	// PolicyReplace lets the last registration win, with a warning.
	PolicyReplace DuplicatePolicy = "replace"
	// PolicyReject keeps the existing provider and ignores the newcomer's provision.
	PolicyReject DuplicatePolicy = "reject"
)

// ParseDuplicatePolicy validates a policy name. Empty means PolicyReplace.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(s) {
	case "", PolicyReplace:
		return PolicyReplace, nil
	case PolicyReject:
		return PolicyReject, nil
	default:
		return "", fmt.Errorf("unknown duplicate provider policy %q (want replace or reject)", s)
	}
}

// Options configures a Dispatcher.
type Options struct {
	Duplicates DuplicatePolicy
	Metrics    ports.Metrics
}

func (o Options) withDefaults() Options {
	if o.Duplicates == "" {
		o.Duplicates = PolicyReplace
	}
	if o.Metrics == nil {
		o.Metrics = ports.NopMetrics{}
	}
	return o
}
