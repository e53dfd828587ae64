package gallery

import "fmt"

// Limit is the capacity policy shared by every mutating operation.
// A Max of zero or less means unlimited.
type Limit struct {
	Max int
}

// Unlimited is the remaining-capacity value used when no maximum is configured.
const Unlimited = -1

// Limited reports whether a maximum is configured.
func (l Limit) Limited() bool {
	return l.Max > 0
}

// Allows reports whether one more item may be added to a gallery holding count items.
func (l Limit) Allows(count int) bool {
	return !l.Limited() || count < l.Max
}

// Reached reports whether count has reached the configured maximum.
func (l Limit) Reached(count int) bool {
	return l.Limited() && count >= l.Max
}

// Remaining returns how many more items fit, or Unlimited.
func (l Limit) Remaining(count int) int {
	if !l.Limited() {
		return Unlimited
	}
	if count >= l.Max {
		return 0
	}
	return l.Max - count
}

// Counter renders the textual counter shown next to the add control.
func (l Limit) Counter(count int) string {
	if !l.Limited() {
		return ""
	}
	return fmt.Sprintf("%d / %d", count, l.Max)
}

// CounterVisible reports whether the counter should be shown at all.
func (l Limit) CounterVisible(count int) bool {
	return l.Limited() && count > 0
}
