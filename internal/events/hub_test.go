package events

import (
	"encoding/json"
	"testing"
)

func TestHubDeliversToTopicSubscribers(t *testing.T) {
	hub := NewHub()

	ch1, cancel1 := hub.Subscribe(AreaTopic("a1"))
	defer cancel1()
	ch2, cancel2 := hub.Subscribe(AreaTopic("a1"))
	defer cancel2()
	other, cancelOther := hub.Subscribe(AreaTopic("a2"))
	defer cancelOther()

	payload, _ := json.Marshal(AvailabilityChanged{AreaID: "a1", Occupied: 3, Capacity: 10})
	hub.Publish(AreaTopic("a1"), Event{Type: TypeAvailabilityChanged, Payload: payload})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Type != TypeAvailabilityChanged {
				t.Errorf("subscriber %d got type %q, want %q", i, ev.Type, TypeAvailabilityChanged)
			}
		default:
			t.Errorf("subscriber %d received nothing", i)
		}
	}

	select {
	case <-other:
		t.Error("subscriber on a different area received the event")
	default:
	}
}

func TestHubCancelRemovesSubscriber(t *testing.T) {
	hub := NewHub()

	_, cancel := hub.Subscribe(UserTopic("u1"))
	if got := hub.Subscribers(UserTopic("u1")); got != 1 {
		t.Fatalf("subscribers = %d, want 1", got)
	}

	cancel()
	if got := hub.Subscribers(UserTopic("u1")); got != 0 {
		t.Errorf("subscribers after cancel = %d, want 0", got)
	}
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe(AreaTopic("a1"))
	defer cancel()

	// Overfill the buffer; Publish must never block.
	for i := 0; i < 64; i++ {
		hub.Publish(AreaTopic("a1"), Event{Type: TypeAvailabilityChanged})
	}

	if len(ch) == 0 {
		t.Error("expected buffered events for the slow subscriber")
	}
}
