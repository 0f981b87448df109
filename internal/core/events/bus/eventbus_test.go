package bus

import (
	"errors"
	"testing"
	"time"
)

const topic = "room-1"

type testObserver struct {
	publishCount   int
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnPublish(_, _ string, _ Event) {
	o.publishCount++
}

func (o *testObserver) OnDelivered(_, _ string, handlers int, err error, _ time.Duration) {
	o.deliveredCount += handlers
	o.lastErr = err
}

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got any
	_, err := b.SubscribeTopic(topic, "assembly.changed", func(e Event) error {
		got = e.Data()
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err = b.PublishToTopic(topic, NewEvent("assembly.changed", "tester", 123, nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got != 123 {
		t.Fatalf("handler not called, got %v", got)
	}
	if _, err = b.SubscribeTopic(topic, "x", nil); err == nil {
		t.Fatal("nil handler accepted")
	}
}

func TestDeliveryOrderFollowsSubscriptionOrder(t *testing.T) {
	b := New()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		_, _ = b.SubscribeTopic(topic, "e", func(Event) error { order = append(order, i); return nil })
	}
	_ = b.PublishToTopic(topic, NewEvent("e", "s", nil, nil))
	if len(order) != 5 {
		t.Fatalf("expected 5 deliveries, got %v", order)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("unexpected order: %v", order)
		}
	}
}

func TestHandlerErrorsAreJoined(t *testing.T) {
	b := New()
	e1 := errors.New("first")
	e2 := errors.New("second")
	_, _ = b.SubscribeTopic(topic, "x", func(Event) error { return e1 })
	_, _ = b.SubscribeTopic(topic, "x", func(Event) error { return e2 })

	err := b.PublishToTopic(topic, NewEvent("x", "src", nil, nil))
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Fatalf("expected joined error, got %v", err)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	count := 0
	sub, _ := b.SubscribeTopic(topic, "e", func(Event) error { count++; return nil })
	_ = b.PublishToTopic(topic, NewEvent("e", "s", nil, nil))
	if err := b.Unsubscribe(sub); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	_ = sub.Cancel()
	_ = b.PublishToTopic(topic, NewEvent("e", "s", nil, nil))
	if count != 1 {
		t.Fatalf("expected one delivery, got %d", count)
	}
	if sub.IsActive() {
		t.Fatal("subscription still active")
	}
	if err := b.Unsubscribe(nil); err != nil {
		t.Fatalf("nil unsubscribe: %v", err)
	}
}

func TestTopicsIsolation(t *testing.T) {
	b := New()
	count1 := 0
	count2 := 0
	_, _ = b.SubscribeTopic("room-a", "ev", func(e Event) error { count1++; return nil })
	_, _ = b.SubscribeTopic("room-b", "ev", func(e Event) error { count2++; return nil })
	_ = b.PublishToTopic("room-a", NewEvent("ev", "src", nil, nil))
	if count1 != 1 || count2 != 0 {
		t.Fatalf("topic isolation failed: %d %d", count1, count2)
	}

	names := map[string]int{}
	for _, ti := range b.GetTopics() {
		names[ti.Name] = ti.Subs
	}
	if names["room-a"] != 1 || names["room-b"] != 1 {
		t.Fatalf("unexpected topics: %#v", names)
	}
}

func TestObserverMetricsOptional(t *testing.T) {
	b := New()
	_, _ = b.SubscribeTopic(topic, "e", func(e Event) error { return nil })
	_ = b.PublishToTopic(topic, NewEvent("e", "s", nil, nil))
	m := b.GetMetrics()
	if m.Published != 0 || m.DeliveredHandlers != 0 {
		t.Fatalf("metrics should be zero without observers: %+v", m)
	}

	obs := &testObserver{}
	b.AddObserver(obs)
	_ = b.PublishToTopic(topic, NewEvent("e", "s", nil, nil))
	m2 := b.GetMetrics()
	if m2.Published != 1 || m2.DeliveredHandlers != 1 || m2.Topics != 1 || m2.SubscribersActive != 1 {
		t.Fatalf("metrics should update with observer: %+v", m2)
	}
	if obs.publishCount != 1 || obs.deliveredCount != 1 {
		t.Fatalf("observer not called: %+v", obs)
	}

	b.RemoveObserver(obs)
	_ = b.PublishToTopic(topic, NewEvent("e", "s", nil, nil))
	if obs.publishCount != 1 {
		t.Fatalf("removed observer still called: %+v", obs)
	}
}

func TestObserverSeesHandlerErrors(t *testing.T) {
	b := New()
	obs := &testObserver{}
	b.AddObserver(obs)
	boom := errors.New("boom")
	_, _ = b.SubscribeTopic(topic, "e", func(Event) error { return boom })

	_ = b.PublishToTopic(topic, NewEvent("e", "s", nil, nil))
	if !errors.Is(obs.lastErr, boom) {
		t.Fatalf("observer missed error: %v", obs.lastErr)
	}
	if b.GetMetrics().Errors != 1 {
		t.Fatalf("error not counted: %+v", b.GetMetrics())
	}
}
