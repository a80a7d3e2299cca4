// Package execution defines the execution policy passed to operations that
// offer both a single-goroutine and a fan-out implementation.
package execution

import (
	"fmt"
	"strings"
)

type Policy int

const (
	Sequential Policy = iota
	Parallel
)

func (p Policy) String() string {
	switch p {
	case Sequential:
		return "sequential"
	case Parallel:
		return "parallel"
	default:
		return "unknown"
	}
}

// ParsePolicy accepts "seq"/"sequential" and "par"/"parallel".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "seq", "sequential":
		return Sequential, nil
	case "par", "parallel":
		return Parallel, nil
	}
	return Sequential, fmt.Errorf("unknown execution policy %q", s)
}

// FromBool maps a "parallel" flag to a Policy.
func FromBool(parallel bool) Policy {
	if parallel {
		return Parallel
	}
	return Sequential
}
