package utils

import "fmt"

// Must unwraps a constructor result during startup wiring.
func Must[T any](in T, err error) T {
	if err != nil {
		panic(fmt.Errorf("must: %w", err))
	}
	return in
}
