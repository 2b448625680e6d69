package protocol

// Severity grades an arbitrage opportunity by spread size.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ClassifySeverity maps a spread percentage to a severity band. Bounds are
// strict: a spread of exactly 8 is high, not critical.
func ClassifySeverity(spreadPercentage float64) Severity {
	switch {
	case spreadPercentage > 8:
		return SeverityCritical
	case spreadPercentage > 5:
		return SeverityHigh
	case spreadPercentage > 2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Urgent reports whether a severity triggers region-wide fan-out.
func (s Severity) Urgent() bool {
	return s == SeverityHigh || s == SeverityCritical
}
