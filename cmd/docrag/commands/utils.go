package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// truncate shortens a string to maxLen runes, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// preview collapses whitespace so multi-line chunk text fits a table cell.
func preview(s string, maxLen int) string {
	return truncate(strings.Join(strings.Fields(s), " "), maxLen)
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
