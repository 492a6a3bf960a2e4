package events

import (
	"testing"
	"time"
)

func TestEmitDeliversToSubscriber(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()

	broker.Emit(EventFaultRecorded, "fault captured", map[string]string{"record": "r1"})

	select {
	case event := <-sub:
		if event.Type != EventFaultRecorded {
			t.Errorf("expected type %s, got %s", EventFaultRecorded, event.Type)
		}
		if event.ID == "" {
			t.Error("event ID should be assigned")
		}
		if event.Timestamp.IsZero() {
			t.Error("event timestamp should be assigned")
		}
		if event.Metadata["record"] != "r1" {
			t.Errorf("unexpected metadata: %v", event.Metadata)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestUnsubscribe(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	if broker.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", broker.SubscriberCount())
	}

	broker.Unsubscribe(sub)
	if broker.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", broker.SubscriberCount())
	}

	// Channel is closed after unsubscribe
	if _, ok := <-sub; ok {
		t.Error("subscriber channel should be closed")
	}
}
