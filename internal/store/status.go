package store

var statusRank = map[string]int{
	StatusPending:        0,
	StatusPendingPayment: 1,
	StatusPaid:           2,
}

// Advance returns the status a record ends up in when asked to move to next.
// Statuses only move forward: pending, pending-payment, paid.
func Advance(current, next string) string {
	if statusRank[next] > statusRank[current] {
		return next
	}
	return current
}

// ValidStatus reports whether s is a known record status.
func ValidStatus(s string) bool {
	_, ok := statusRank[s]
	return ok
}

// Visible reports whether a clinical record is released to the lab or the
// pharmacy: paid, or an emergency record which skips the payment gate.
func Visible(status string, emergency bool) bool {
	return emergency || status == StatusPaid
}
