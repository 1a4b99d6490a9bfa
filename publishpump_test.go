// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package opcua

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/segotech/opcua/ua"
)

func newTestClientForPump() *Client {
	return &Client{subs: make(map[uint32]*Subscription)}
}

func TestPublishPumpRecalculateSizesPoolToMin(t *testing.T) {
	c := newTestClientForPump()
	c.subs[1] = &Subscription{SubscriptionID: 1, RevisedPublishingInterval: 100 * time.Millisecond}
	c.subs[2] = &Subscription{SubscriptionID: 2, RevisedPublishingInterval: 50 * time.Millisecond}
	p := newPublishPump(c)

	p.recalculate()

	want := ua.NewPublishLimits(2, 50, float64(minMessageRoundtrip/time.Millisecond))
	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Equal(t, want.Min, p.min)
	assert.Equal(t, want.Max, p.max)
	assert.Equal(t, want.Min, p.running, "with no ctx set, recalculate still tracks the deficit against running")
}

func TestPublishPumpRetireIfOverMinShrinksPool(t *testing.T) {
	c := newTestClientForPump()
	p := newPublishPump(c)
	p.min, p.max, p.running = 1, 5, 3

	assert.True(t, p.retireIfOverMin())
	assert.Equal(t, uint32(2), p.running)

	p.running = 1
	assert.False(t, p.retireIfOverMin(), "must not shrink below min")
	assert.Equal(t, uint32(1), p.running)
}

func TestPublishPumpGoIdleWaitsForWake(t *testing.T) {
	c := newTestClientForPump()
	p := newPublishPump(c)
	p.running = 1

	done := make(chan struct{})
	go func() {
		p.goIdle()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("goIdle returned before broadcastWake")
	case <-time.After(20 * time.Millisecond):
	}

	p.mu.Lock()
	assert.Equal(t, uint32(0), p.running)
	p.mu.Unlock()

	p.broadcastWake()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goIdle did not return after broadcastWake")
	}
}

func TestPublishPumpAckQueueDrainAndRequeue(t *testing.T) {
	c := newTestClientForPump()
	p := newPublishPump(c)

	p.queueAck(ua.SubscriptionAcknowledgement{SubscriptionID: 1, SequenceNumber: 4})
	p.queueAck(ua.SubscriptionAcknowledgement{SubscriptionID: 1, SequenceNumber: 5})

	drained := p.drainAcks()
	assert.Len(t, drained, 2)
	assert.Empty(t, p.drainAcks())

	p.requeueAcks(drained)
	p.queueAck(ua.SubscriptionAcknowledgement{SubscriptionID: 1, SequenceNumber: 6})
	all := p.drainAcks()
	assert.Equal(t, []ua.SubscriptionAcknowledgement{
		{SubscriptionID: 1, SequenceNumber: 4},
		{SubscriptionID: 1, SequenceNumber: 5},
		{SubscriptionID: 1, SequenceNumber: 6},
	}, all, "requeued acks must be resent ahead of newer ones")
}

func TestPublishPumpTimeoutFollowsSlowestSubscription(t *testing.T) {
	c := newTestClientForPump()
	c.subs[1] = &Subscription{RevisedPublishingInterval: 100 * time.Millisecond, RevisedMaxKeepAliveCount: 3}
	c.subs[2] = &Subscription{RevisedPublishingInterval: 2 * time.Second, RevisedMaxKeepAliveCount: 20}
	p := newPublishPump(c)

	got := p.timeout()
	want := 2*time.Second*20 + publishTimeoutSlack
	assert.Equal(t, want, got)
}

func TestPublishPumpTimeoutHasAFloor(t *testing.T) {
	c := newTestClientForPump()
	p := newPublishPump(c)
	assert.Equal(t, publishMinTimeout, p.timeout())
}
