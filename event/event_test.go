// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rangkai-protocol/rangkai-gov/event"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEventBusSingleSubscriber(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(event.ProposalCreatedEventType)
	eb.Publish(
		event.ProposalCreatedEventType,
		event.NewEvent(
			event.ProposalCreatedEventType,
			event.ProposalCreatedEvent{ProposalID: "p1", Number: "GOV-001"},
		),
	)
	select {
	case evt, ok := <-subCh:
		require.True(t, ok, "event channel closed unexpectedly")
		data, ok := evt.Data.(event.ProposalCreatedEvent)
		require.True(t, ok, "unexpected event data type %T", evt.Data)
		assert.Equal(t, "GOV-001", data.Number)
		assert.Equal(t, event.ProposalCreatedEventType, evt.Type)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, sub1 := eb.Subscribe(event.VoteSubmittedEventType)
	_, sub2 := eb.Subscribe(event.VoteSubmittedEventType)
	_, other := eb.Subscribe(event.ProposalExpiredEventType)
	eb.Publish(
		event.VoteSubmittedEventType,
		event.NewEvent(event.VoteSubmittedEventType, event.VoteSubmittedEvent{
			ProposalID: "p1",
			SignerID:   "s1",
			Approved:   true,
		}),
	)
	for _, ch := range []<-chan event.Event{sub1, sub2} {
		select {
		case evt := <-ch:
			data := evt.Data.(event.VoteSubmittedEvent)
			assert.Equal(t, "s1", data.SignerID)
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for event")
		}
	}
	select {
	case evt := <-other:
		t.Fatalf("unexpected event delivered to other type: %v", evt)
	default:
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	subId, subCh := eb.Subscribe(event.SignerChangedEventType)
	eb.Unsubscribe(event.SignerChangedEventType, subId)
	eb.Publish(
		event.SignerChangedEventType,
		event.NewEvent(event.SignerChangedEventType, nil),
	)
	_, ok := <-subCh
	assert.False(t, ok, "expected channel to be closed")
	// Unsubscribing twice is harmless
	eb.Unsubscribe(event.SignerChangedEventType, subId)
}

func TestPublishDropsWhenSubscriberFull(t *testing.T) {
	registry := prometheus.NewRegistry()
	eb := event.NewEventBus(registry, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(event.ProposalApprovedEventType)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range event.EventQueueSize + 5 {
			eb.Publish(
				event.ProposalApprovedEventType,
				event.NewEvent(event.ProposalApprovedEventType, i),
			)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	assert.Len(t, subCh, event.EventQueueSize)
	assert.InDelta(
		t,
		5,
		counterTotal(t, registry, "rangkai_event_dropped_total"),
		0,
	)
}

func counterTotal(
	t *testing.T,
	registry *prometheus.Registry,
	name string,
) float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestSubscribeFuncAndPublishAsync(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	var received atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)
	eb.SubscribeFunc(event.ProposalExecutedEventType, func(evt event.Event) {
		received.Add(1)
		wg.Done()
	})
	for range 3 {
		require.True(
			t,
			eb.PublishAsync(
				event.ProposalExecutedEventType,
				event.NewEvent(event.ProposalExecutedEventType, nil),
			),
		)
	}
	waitCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitCh)
	}()
	select {
	case <-waitCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for async delivery")
	}
	eb.Stop()
	assert.Equal(t, int32(3), received.Load())
	assert.False(
		t,
		eb.PublishAsync(
			event.ProposalExecutedEventType,
			event.NewEvent(event.ProposalExecutedEventType, nil),
		),
	)
}

func TestSubscribeFuncPanicRecovery(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	var calls atomic.Int32
	done := make(chan struct{})
	eb.SubscribeFunc(event.ExecutionFailedEventType, func(evt event.Event) {
		if calls.Add(1) == 1 {
			panic("handler failure")
		}
		close(done)
	})
	for range 2 {
		eb.Publish(
			event.ExecutionFailedEventType,
			event.NewEvent(event.ExecutionFailedEventType, nil),
		)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not survive a panic")
	}
}

func TestStopClosesSubscribers(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	_, subCh := eb.Subscribe(event.ProposalExpiredEventType)
	eb.Stop()
	_, ok := <-subCh
	assert.False(t, ok)
	// Subscribing after stop hands back a closed channel
	subId, lateCh := eb.Subscribe(event.ProposalExpiredEventType)
	assert.Zero(t, subId)
	_, ok = <-lateCh
	assert.False(t, ok)
	assert.Zero(t, eb.SubscribeFunc(event.ProposalExpiredEventType, func(event.Event) {}))
	// Stop is idempotent
	eb.Stop()
}

func TestSubscribeFuncStopRace(t *testing.T) {
	for range 200 {
		eb := event.NewEventBus(nil, nil)
		var wg sync.WaitGroup
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				eb.SubscribeFunc(event.VoteSubmittedEventType, func(event.Event) {})
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			eb.Stop()
		}()
		wg.Wait()
		eb.Stop()
	}
}
