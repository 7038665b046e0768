package update

import "fmt"

type Decision string

const (
	DecisionOverwrite Decision = "overwrite" // Replace the pinned default with latest
	DecisionNoOp      Decision = "noop"      // Leave the pinned default untouched
)

// Reason explains a Decision.
type Reason string

const (
	ReasonUnavailable Reason = "unavailable" // no candidate was fetched
	ReasonUpToDate    Reason = "up-to-date"  // latest is the same string as current
	ReasonLatestTag   Reason = "latest-tag"  // candidate is the literal floating tag
	ReasonFloatingPin Reason = "floating-pin"
	ReasonChanged     Reason = "changed"
)

// FloatingTag is the literal token that is never pinned and never overwritten.
const FloatingTag = "latest"

// Decide applies the pin policy. found is false when no candidate could be
// fetched. Equality is by string, not by parsed version, and no ordering check
// is made against current: a differing candidate is written even if older.
func Decide(current, latest string, found bool) (Decision, Reason) {
	switch {
	case !found:
		return DecisionNoOp, ReasonUnavailable
	case latest == current:
		return DecisionNoOp, ReasonUpToDate
	case latest == FloatingTag:
		return DecisionNoOp, ReasonLatestTag
	case current == FloatingTag:
		return DecisionNoOp, ReasonFloatingPin
	default:
		return DecisionOverwrite, ReasonChanged
	}
}

// DescribeDecision returns a human-readable status for a feature.
func DescribeDecision(id, current, latest string, d Decision, r Reason) string {
	if d == DecisionOverwrite {
		return fmt.Sprintf("Update available for %s: %s -> %s", id, current, latest)
	}
	switch r {
	case ReasonUnavailable:
		return fmt.Sprintf("No version available for %s (Current: %s)", id, current)
	case ReasonLatestTag:
		return fmt.Sprintf("Not pinning %s to the floating tag %q (Current: %s)", id, FloatingTag, current)
	case ReasonFloatingPin:
		return fmt.Sprintf("Leaving floating pin for %s (Current: %s, Latest: %s)", id, current, latest)
	default:
		return fmt.Sprintf("No update needed for %s (Current: %s, Latest: %s)", id, current, latest)
	}
}
