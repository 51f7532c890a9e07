package entity

import (
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
)

// transitionTable lists the statuses each status may move to
type transitionTable[S ~string] map[S][]S

func (t transitionTable[S]) allows(from, to S) bool {
	for _, candidate := range t[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func (t transitionTable[S]) allowed(from S) []string {
	out := make([]string, 0, len(t[from]))
	for _, s := range t[from] {
		out = append(out, string(s))
	}
	return out
}

func (t transitionTable[S]) check(entityName string, from, to S) error {
	if t.allows(from, to) {
		return nil
	}
	return errs.NewInvalidTransitionError(entityName, string(from), string(to), t.allowed(from))
}

func (t transitionTable[S]) isTerminal(s S) bool {
	return len(t[s]) == 0
}
