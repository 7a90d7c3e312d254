package diag

import (
	"fmt"
	"strings"
)

// Severity orders diagnostics; higher is worse.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// ParseSeverity accepts the lowercase or uppercase names, plus "warn".
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SevInfo, nil
	case "warning", "warn":
		return SevWarning, nil
	case "error":
		return SevError, nil
	}
	return SevInfo, fmt.Errorf("unknown severity %q (expected info|warning|error)", s)
}

// Filter returns a bag holding the items of b at or above floor.
func (b *Bag) Filter(floor Severity) *Bag {
	out := NewBag(b.Len())
	for _, d := range b.Items() {
		if d.Severity >= floor {
			out.Add(d)
		}
	}
	return out
}
