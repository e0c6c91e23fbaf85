package enums

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusPending, OrderStatusCanceled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPaid, OrderStatusShipped, true},
		{OrderStatusPaid, OrderStatusCanceled, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCanceled, false},
		{OrderStatusDelivered, OrderStatusPending, false},
		{OrderStatusCanceled, OrderStatusPaid, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.ok {
			t.Fatalf("%s -> %s expected %v got %v", tt.from, tt.to, tt.ok, got)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	if _, err := ParseOrderStatus("shipped"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseOrderStatus("lost"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestParseOutboxEventType(t *testing.T) {
	got, err := ParseOutboxEventType("order.created")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != EventOrderCreated {
		t.Fatalf("expected order.created, got %s", got)
	}
	if _, err := ParseOutboxEventType("order_created"); err == nil {
		t.Fatal("expected error for unknown event type")
	}
}

func TestPromotionStatusUsable(t *testing.T) {
	for status, usable := range map[PromotionStatus]bool{
		PromotionStatusActive:    true,
		PromotionStatusLastDay:   true,
		PromotionStatusScheduled: false,
		PromotionStatusExpired:   false,
		PromotionStatusInactive:  false,
		PromotionStatusDeleted:   false,
	} {
		if status.IsUsable() != usable {
			t.Fatalf("%s expected usable=%v", status, usable)
		}
	}
}

func TestOutboxEventAggregate(t *testing.T) {
	cases := map[OutboxEventType]OutboxAggregateType{
		EventOrderCreated:       AggregateOrder,
		EventOrderStatusChanged: AggregateOrder,
		EventPromotionExpired:   AggregatePromotion,
		"cart.abandoned":        "",
	}
	for event, want := range cases {
		if got := event.Aggregate(); got != want {
			t.Fatalf("%s: expected aggregate %q, got %q", event, want, got)
		}
	}
}
