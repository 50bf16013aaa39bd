package domain

// QuotationStatus is the lifecycle state of a quotation
type QuotationStatus string

const (
	QuotationStatusPending  QuotationStatus = "pending"
	QuotationStatusAccepted QuotationStatus = "accepted"
	QuotationStatusRejected QuotationStatus = "rejected"
	QuotationStatusExpired  QuotationStatus = "expired"
)

// quotationTransitions lists the allowed target states for each state.
// States missing from the map are terminal.
var quotationTransitions = map[QuotationStatus][]QuotationStatus{
	QuotationStatusPending: {
		QuotationStatusAccepted,
		QuotationStatusRejected,
		QuotationStatusExpired,
	},
}

// IsValid checks if the QuotationStatus is a valid enum value
func (s QuotationStatus) IsValid() bool {
	switch s {
	case QuotationStatusPending, QuotationStatusAccepted, QuotationStatusRejected, QuotationStatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s QuotationStatus) IsTerminal() bool {
	return len(quotationTransitions[s]) == 0
}

// CanTransitionTo reports whether the move from s to target is allowed.
// Staying in the same state is not a transition.
func (s QuotationStatus) CanTransitionTo(target QuotationStatus) bool {
	for _, next := range quotationTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// AllQuotationStatuses returns every status in display order
func AllQuotationStatuses() []QuotationStatus {
	return []QuotationStatus{
		QuotationStatusPending,
		QuotationStatusAccepted,
		QuotationStatusRejected,
		QuotationStatusExpired,
	}
}
