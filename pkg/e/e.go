// Package e holds small error helpers shared by infrastructure clients.
package e

import "fmt"

// Wrap prefixes err with msg, keeping it matchable with errors.Is.
func Wrap(msg string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
