package events

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/call-copilot/internal/usecase/pipeline"
)

func TestPublishFansOutToSubscribers(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	sub1 := bus.Subscribe(4)
	sub2 := bus.Subscribe(4)

	event := pipeline.Event{Type: pipeline.EventNudgeRaised, CallID: uuid.New(), At: time.Now()}
	bus.Publish(event)

	for i, sub := range []<-chan pipeline.Event{sub1, sub2} {
		select {
		case got := <-sub:
			if got.Type != pipeline.EventNudgeRaised {
				t.Errorf("subscriber %d: unexpected event %s", i, got.Type)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d never received the event", i)
		}
	}
}

func TestPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	bus.Subscribe(1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.Publish(pipeline.Event{Type: pipeline.EventMetricsUpdated, CallID: uuid.New()})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestCloseClosesSubscriberChannels(t *testing.T) {
	bus := NewBus(nil, nil)
	sub := bus.Subscribe(1)
	bus.Close()

	if _, open := <-sub; open {
		t.Fatal("expected subscriber channel closed")
	}
}
