package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"PENDINGからAWAITING_PAYMENT", OrderStatusPending, OrderStatusAwaitingPayment, true},
		{"PENDINGからCANCELED", OrderStatusPending, OrderStatusCanceled, true},
		{"PENDINGからPAIDは直接行けない", OrderStatusPending, OrderStatusPaid, false},
		{"PENDINGからFAILEDは行けない", OrderStatusPending, OrderStatusFailed, false},
		{"AWAITING_PAYMENTからPAID", OrderStatusAwaitingPayment, OrderStatusPaid, true},
		{"AWAITING_PAYMENTからFAILED", OrderStatusAwaitingPayment, OrderStatusFailed, true},
		{"AWAITING_PAYMENTからCANCELED", OrderStatusAwaitingPayment, OrderStatusCanceled, true},
		{"AWAITING_PAYMENTからPENDINGへは戻れない", OrderStatusAwaitingPayment, OrderStatusPending, false},
		{"PAIDは終端", OrderStatusPaid, OrderStatusCanceled, false},
		{"FAILEDは終端", OrderStatusFailed, OrderStatusAwaitingPayment, false},
		{"CANCELEDは終端", OrderStatusCanceled, OrderStatusPaid, false},
		{"同じステータスへの遷移は表に無い", OrderStatusPending, OrderStatusPending, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusAwaitingPayment.IsTerminal())
	assert.True(t, OrderStatusPaid.IsTerminal())
	assert.True(t, OrderStatusFailed.IsTerminal())
	assert.True(t, OrderStatusCanceled.IsTerminal())
}

func TestParseOrderStatus(t *testing.T) {
	s, ok := ParseOrderStatus("paid")
	assert.True(t, ok)
	assert.Equal(t, OrderStatusPaid, s)

	s, ok = ParseOrderStatus("  AWAITING_PAYMENT ")
	assert.True(t, ok)
	assert.Equal(t, OrderStatusAwaitingPayment, s)

	_, ok = ParseOrderStatus("SHIPPED")
	assert.False(t, ok)

	_, ok = ParseOrderStatus("")
	assert.False(t, ok)
}

func TestInvalidTransitionMessage(t *testing.T) {
	msg := InvalidTransitionMessage(OrderStatusPending, OrderStatusPaid)
	assert.Equal(t, "Invalid transition from PENDING to PAID; allowed: [AWAITING_PAYMENT, CANCELED]", msg)

	msg = InvalidTransitionMessage(OrderStatusPaid, OrderStatusCanceled)
	assert.Equal(t, "Invalid transition from PAID to CANCELED; allowed: []", msg)
}
