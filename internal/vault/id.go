package vault

import (
	"fmt"
	"strings"
)

// validateID rejects ids that would escape the bundle directory or prefix.
func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("invalid bundle id: %q", id)
	}
	return nil
}
