package ws

import (
	"encoding/json"
	"testing"
)

func TestPublishQueuesEncodedEvent(t *testing.T) {
	h := NewHub()
	h.Publish(Event{Type: EventStockUpdate, Action: "reserved", Data: map[string]string{"sku": "A1"}})

	select {
	case msg := <-h.Broadcast:
		var got Event
		if err := json.Unmarshal(msg, &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Type != EventStockUpdate || got.Action != "reserved" || got.At.IsZero() {
			t.Fatalf("unexpected event %+v", got)
		}
	default:
		t.Fatalf("expected a queued message")
	}
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	h := NewHub()
	for i := 0; i < cap(h.Broadcast)+10; i++ {
		h.Publish(Event{Type: EventStockAlert})
	}
	if len(h.Broadcast) != cap(h.Broadcast) {
		t.Fatalf("expected a full queue, got %d", len(h.Broadcast))
	}
}
