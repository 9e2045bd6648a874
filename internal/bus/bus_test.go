package bus

import "testing"

func TestSubscribeFiltersByKind(t *testing.T) {
	b := New()

	var cart, all int
	b.Subscribe(func(Event) { cart++ }, CartChanged)
	b.Subscribe(func(Event) { all++ })

	b.Publish(CartChanged, "order-cart:5")
	b.Publish(CashRequestChanged, "cash_payment_requests")
	b.Publish(StickyTableChanged, "last-table")

	if cart != 1 {
		t.Fatalf("expected 1 cart event, got %d", cart)
	}
	if all != 3 {
		t.Fatalf("expected 3 events total, got %d", all)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()

	var n int
	unsubscribe := b.Subscribe(func(Event) { n++ })
	b.Publish(CartChanged, "order-cart:1")
	unsubscribe()
	b.Publish(CartChanged, "order-cart:1")

	if n != 1 {
		t.Fatalf("expected 1 event after unsubscribe, got %d", n)
	}
}

func TestInjectDropsOwnOrigin(t *testing.T) {
	b := New()

	var got []Event
	b.Subscribe(func(e Event) { got = append(got, e) })

	b.Inject(Event{Kind: CartChanged, Key: "order-cart:2", Origin: b.Origin()})
	b.Inject(Event{Kind: CartChanged, Key: "order-cart:2", Origin: "sibling"})

	if len(got) != 1 {
		t.Fatalf("expected only the sibling event, got %d", len(got))
	}
	if got[0].Origin != "sibling" {
		t.Fatalf("unexpected origin %q", got[0].Origin)
	}
}

type captureRelay struct{ events []Event }

func (c *captureRelay) Forward(evt Event) error {
	c.events = append(c.events, evt)
	return nil
}

func TestPublishForwardsToRelay(t *testing.T) {
	b := New()
	relay := &captureRelay{}
	b.AttachRelay(relay)

	b.Publish(CashRequestChanged, "cash_payment_requests")

	if len(relay.events) != 1 {
		t.Fatalf("expected 1 forwarded event, got %d", len(relay.events))
	}
	evt := relay.events[0]
	if evt.Kind != CashRequestChanged || evt.Key != "cash_payment_requests" || evt.Origin != b.Origin() {
		t.Fatalf("unexpected forwarded event %+v", evt)
	}
}
