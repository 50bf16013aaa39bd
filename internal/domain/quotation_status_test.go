package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuotationStatus_Transitions(t *testing.T) {
	tests := []struct {
		from     QuotationStatus
		to       QuotationStatus
		allowed  bool
		terminal bool
	}{
		{QuotationStatusPending, QuotationStatusAccepted, true, false},
		{QuotationStatusPending, QuotationStatusRejected, true, false},
		{QuotationStatusPending, QuotationStatusExpired, true, false},
		{QuotationStatusPending, QuotationStatusPending, false, false},
		{QuotationStatusAccepted, QuotationStatusRejected, false, true},
		{QuotationStatusRejected, QuotationStatusPending, false, true},
		{QuotationStatusExpired, QuotationStatusAccepted, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
			assert.Equal(t, tt.terminal, tt.from.IsTerminal())
		})
	}
}

func TestAllQuotationStatuses(t *testing.T) {
	statuses := AllQuotationStatuses()

	assert.Len(t, statuses, 4)
	assert.Equal(t, QuotationStatusPending, statuses[0])
	for _, s := range statuses {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, QuotationStatus("draft").IsValid())
}

func TestQuotation_IsOverdue(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	q := &Quotation{Status: QuotationStatusPending, ValidUntil: now.Add(-time.Minute)}
	assert.True(t, q.IsOverdue(now))

	q.ValidUntil = now.Add(time.Minute)
	assert.False(t, q.IsOverdue(now))

	q.ValidUntil = now.Add(-time.Hour)
	q.Status = QuotationStatusAccepted
	assert.False(t, q.IsOverdue(now), "answered quotations never become overdue")
}
