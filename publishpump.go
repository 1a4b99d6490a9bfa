// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package opcua

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segotech/opcua/debug"
	"github.com/segotech/opcua/ua"
)

const (
	// minMessageRoundtrip floors the round trip estimate fed into
	// ua.NewPublishLimits, matching the original implementation's
	// update_message_roundtrip clamp.
	minMessageRoundtrip = 10 * time.Millisecond

	// publishRetryBackoff is how long a worker waits before re-issuing a
	// Publish after a recoverable error (anything but BadNoSubscription).
	publishRetryBackoff = 500 * time.Millisecond

	// publishTimeoutSlack and publishMinTimeout bound the per-Publish
	// timeout computed from the slowest subscription's keep-alive period.
	publishTimeoutSlack = 5 * time.Second
	publishMinTimeout   = 30 * time.Second

	// publishStopGrace bounds how long stop() waits for in-flight workers
	// before returning; a long-polling Publish may still be outstanding
	// when Close tears down the secure channel right after.
	publishStopGrace = 2 * time.Second
)

// publishPump keeps a pool of PublishRequests outstanding against the
// server, sized by ua.PublishLimits, and routes every PublishResponse to
// the subscription it belongs to (spec.md §4.7). There is one pump per
// Client, started by Connect and stopped by Close.
type publishPump struct {
	c *Client

	ctx      context.Context
	cancel   context.CancelFunc
	stopch   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.Mutex
	min     uint32
	max     uint32
	running uint32

	rttMu sync.Mutex
	rtt   time.Duration

	acksMu sync.Mutex
	acks   []ua.SubscriptionAcknowledgement

	wakeMu sync.Mutex
	wake   chan struct{}
}

func newPublishPump(c *Client) *publishPump {
	return &publishPump{
		c:      c,
		stopch: make(chan struct{}),
		rtt:    minMessageRoundtrip,
		wake:   make(chan struct{}),
	}
}

// start lets the pump begin spawning workers; the pool itself stays empty
// until the first subscription is created and recalculate sizes it.
func (p *publishPump) start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.recalculate()
}

// stop signals every worker to exit and waits up to publishStopGrace for
// them to do so. Workers blocked inside a long-polling Publish unblock as
// soon as the secure channel that sent it is torn down, which happens
// just after stop returns in Client.Close.
func (p *publishPump) stop() {
	p.stopOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
		close(p.stopch)
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(publishStopGrace):
	}
}

// recalculate recomputes PublishLimits from the client's current
// subscriptions and round trip estimate, then tops the pool up toward Min
// if it has fallen short. Called on startup and whenever a subscription is
// added or removed (spec.md §4.7 step 1).
func (p *publishPump) recalculate() {
	p.c.subMux.RLock()
	n := len(p.c.subs)
	var fastestMs float64
	for _, sub := range p.c.subs {
		ms := float64(sub.RevisedPublishingInterval / time.Millisecond)
		if fastestMs == 0 || (ms > 0 && ms < fastestMs) {
			fastestMs = ms
		}
	}
	p.c.subMux.RUnlock()

	p.rttMu.Lock()
	rtt := p.rtt
	p.rttMu.Unlock()

	limits := ua.NewPublishLimits(n, fastestMs, float64(rtt/time.Millisecond))

	p.mu.Lock()
	p.min, p.max = limits.Min, limits.Max
	var deficit uint32
	if p.min > p.running {
		deficit = p.min - p.running
		p.running += deficit
	}
	p.mu.Unlock()

	p.broadcastWake()

	if p.ctx == nil || deficit == 0 {
		return
	}
	for i := uint32(0); i < deficit; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// broadcastWake releases every worker currently idling in goIdle, e.g.
// because the pump just gained its first subscription.
func (p *publishPump) broadcastWake() {
	p.wakeMu.Lock()
	close(p.wake)
	p.wake = make(chan struct{})
	p.wakeMu.Unlock()
}

// retireIfOverMin decrements the running count and reports true when the
// pool has grown past Min and this worker should exit, shrinking it back
// down. This is how the pool follows Min down after a subscription is
// removed, since workers are never killed directly.
func (p *publishPump) retireIfOverMin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running > p.min {
		p.running--
		return true
	}
	return false
}

// goIdle parks a worker that got BadNoSubscription until recalculate next
// runs, implementing "pump idles until subscriptions are added"
// (spec.md §4.7 step 5) without busy-polling the server.
func (p *publishPump) goIdle() {
	p.mu.Lock()
	if p.running > 0 {
		p.running--
	}
	p.mu.Unlock()

	p.wakeMu.Lock()
	wake := p.wake
	p.wakeMu.Unlock()

	select {
	case <-p.stopch:
	case <-wake:
	}
}

func (p *publishPump) queueAck(ack ua.SubscriptionAcknowledgement) {
	p.acksMu.Lock()
	p.acks = append(p.acks, ack)
	p.acksMu.Unlock()
}

func (p *publishPump) drainAcks() []ua.SubscriptionAcknowledgement {
	p.acksMu.Lock()
	defer p.acksMu.Unlock()
	if len(p.acks) == 0 {
		return nil
	}
	acks := p.acks
	p.acks = nil
	return acks
}

func (p *publishPump) requeueAcks(acks []ua.SubscriptionAcknowledgement) {
	if len(acks) == 0 {
		return
	}
	p.acksMu.Lock()
	p.acks = append(acks, p.acks...)
	p.acksMu.Unlock()
}

// timeout computes how long a single Publish may run before it is
// considered overdue: long enough for the slowest subscription to reach a
// keep-alive, plus slack for network latency.
func (p *publishPump) timeout() time.Duration {
	p.c.subMux.RLock()
	var longest time.Duration
	for _, sub := range p.c.subs {
		d := sub.RevisedPublishingInterval * time.Duration(sub.RevisedMaxKeepAliveCount)
		if d > longest {
			longest = d
		}
	}
	p.c.subMux.RUnlock()

	longest += publishTimeoutSlack
	if longest < publishMinTimeout {
		longest = publishMinTimeout
	}
	return longest
}

// worker runs one outstanding Publish at a time until the pump is
// stopped, shrinking itself once the pool no longer needs it.
func (p *publishPump) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopch:
			return
		default:
		}

		acks := p.drainAcks()
		req := &ua.PublishRequest{SubscriptionAcknowledgements: acks}

		start := time.Now()
		var res *ua.PublishResponse
		err := p.c.sendWithTimeout(req, p.timeout(), func(v interface{}) error {
			return safeAssign(v, &res)
		})
		rtt := time.Since(start)

		if err != nil {
			if status, ok := err.(ua.StatusCode); ok && status == ua.StatusBadNoSubscription {
				p.requeueAcks(acks)
				p.goIdle()
				continue
			}

			p.requeueAcks(acks)
			p.c.notifySubscriptionsOfError(context.Background(), res, err)

			select {
			case <-p.stopch:
				return
			case <-time.After(publishRetryBackoff):
			}
			if p.retireIfOverMin() {
				return
			}
			continue
		}

		p.recordRoundtrip(rtt)
		p.handleResponse(res)

		if p.retireIfOverMin() {
			return
		}
	}
}

func (p *publishPump) recordRoundtrip(d time.Duration) {
	if d < minMessageRoundtrip {
		d = minMessageRoundtrip
	}
	p.rttMu.Lock()
	p.rtt = d
	p.rttMu.Unlock()
	p.recalculate()
}

// handleResponse acks the delivered sequence number on the next outbound
// Publish, detects any sequence-number gap and republishes the missing
// messages, and finally dispatches the notification to its subscription.
func (p *publishPump) handleResponse(res *ua.PublishResponse) {
	p.detectGaps(res)

	if nm := res.NotificationMessage; nm != nil && len(nm.NotificationData) > 0 {
		p.queueAck(ua.SubscriptionAcknowledgement{
			SubscriptionID: res.SubscriptionID,
			SequenceNumber: nm.SequenceNumber,
		})
	}

	p.c.notifySubscription(context.Background(), res)
}

// detectGaps compares the delivered NotificationMessage's sequence number
// against the subscription's last seen one and issues Republish for every
// number missing in between (spec.md §4.7 step 3). Keep-alive messages
// (no NotificationData) still advance the sequence number but are never
// acked.
func (p *publishPump) detectGaps(res *ua.PublishResponse) {
	nm := res.NotificationMessage
	if nm == nil {
		return
	}

	p.c.subMux.RLock()
	sub, ok := p.c.subs[res.SubscriptionID]
	p.c.subMux.RUnlock()
	if !ok {
		return
	}

	last := atomic.LoadUint32(&sub.lastSequenceNumber)
	seq := nm.SequenceNumber
	if last != 0 && seq > last+1 {
		for missing := last + 1; missing < seq; missing++ {
			req := &ua.RepublishRequest{
				SubscriptionID:           res.SubscriptionID,
				RetransmitSequenceNumber: missing,
			}
			if _, err := sub.republish(req); err != nil {
				debug.Printf("publishPump: republish of subscription %d sequence %d failed: %v", res.SubscriptionID, missing, err)
			}
		}
	}
	atomic.StoreUint32(&sub.lastSequenceNumber, seq)
}
