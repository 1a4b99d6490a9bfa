package uaserver

import (
	"sync"

	"github.com/segotech/opcua/ua"
)

// RepublishCache retains recently sent NotificationMessages per
// subscription, keyed by sequence number, so a client that detects a gap
// can recover them through Republish instead of losing data. Capacity is
// max_notifications_per_publish × retransmit_queue_size, the bound named
// by the server-side republish cache.
type RepublishCache struct {
	mu       sync.Mutex
	capacity int
	subs     map[uint32]*subCache
}

type subCache struct {
	order []uint32
	byseq map[uint32]*ua.NotificationMessage
}

// NewRepublishCache returns a cache that retains up to capacity messages
// per subscription. capacity must be at least 1.
func NewRepublishCache(capacity int) *RepublishCache {
	if capacity < 1 {
		capacity = 1
	}
	return &RepublishCache{capacity: capacity, subs: map[uint32]*subCache{}}
}

// Store records msg as having been sent to subscriptionID, evicting the
// oldest retained message once the cache exceeds its capacity.
func (c *RepublishCache) Store(subscriptionID uint32, msg *ua.NotificationMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sc, ok := c.subs[subscriptionID]
	if !ok {
		sc = &subCache{byseq: map[uint32]*ua.NotificationMessage{}}
		c.subs[subscriptionID] = sc
	}
	sc.order = append(sc.order, msg.SequenceNumber)
	sc.byseq[msg.SequenceNumber] = msg
	for len(sc.order) > c.capacity {
		evict := sc.order[0]
		sc.order = sc.order[1:]
		delete(sc.byseq, evict)
	}
}

// Lookup returns the retained message for subscriptionID/seq, or
// StatusBadMessageNotAvailable if it has already been acknowledged or
// evicted (Part 4, 5.14.3).
func (c *RepublishCache) Lookup(subscriptionID, seq uint32) (*ua.NotificationMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sc, ok := c.subs[subscriptionID]
	if !ok {
		return nil, ua.StatusBadSubscriptionIDInvalid
	}
	msg, ok := sc.byseq[seq]
	if !ok {
		return nil, ua.StatusBadMessageNotAvailable
	}
	return msg, nil
}

// Ack releases every message up to and including seq from
// subscriptionID's cache, mirroring a PublishRequest's
// SubscriptionAcknowledgements: the server may discard anything the
// client has confirmed receiving.
func (c *RepublishCache) Ack(subscriptionID, seq uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sc, ok := c.subs[subscriptionID]
	if !ok {
		return
	}
	kept := sc.order[:0]
	for _, n := range sc.order {
		if n <= seq {
			delete(sc.byseq, n)
			continue
		}
		kept = append(kept, n)
	}
	sc.order = kept
}

// Forget drops every retained message for subscriptionID, e.g. once it
// is deleted or transferred away.
func (c *RepublishCache) Forget(subscriptionID uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, subscriptionID)
}

// Republish implements the Republish service against the cache: returns
// the retained NotificationMessage for retransmitSequenceNumber, or
// StatusBadMessageNotAvailable if it isn't held.
func (c *RepublishCache) Republish(req *ua.RepublishRequest) *ua.RepublishResponse {
	msg, err := c.Lookup(req.SubscriptionID, req.RetransmitSequenceNumber)
	if err != nil {
		status, _ := err.(ua.StatusCode)
		return &ua.RepublishResponse{
			ResponseHeader: ua.ResponseHeader{ServiceResult: status},
		}
	}
	return &ua.RepublishResponse{
		ResponseHeader:      ua.ResponseHeader{ServiceResult: ua.StatusOK},
		NotificationMessage: msg,
	}
}
