package uaserver

import (
	"sort"
	"sync"

	"github.com/segotech/opcua/ua"
)

// serverSubscription is the server-side bookkeeping for one
// subscription: which session currently owns it and the last known
// value of every monitored item, so TransferSubscriptions can resend
// initial values after rebinding ownership.
type serverSubscription struct {
	sessionID        string
	monitoredItems   map[uint32]ua.DataValue
	itemClientHandle map[uint32]uint32
}

// Subscriptions is a minimal, in-memory stand-in for a server's
// subscription manager: just enough bookkeeping to let Republish and
// TransferSubscriptions be exercised end-to-end without a full OPC UA
// server. It is not a server implementation; there is no transport,
// session manager or address space behind it.
type Subscriptions struct {
	Cache *RepublishCache

	mu   sync.Mutex
	subs map[uint32]*serverSubscription
}

// NewSubscriptions returns an empty subscription registry backed by a
// republish cache of the given capacity.
func NewSubscriptions(cacheCapacity int) *Subscriptions {
	return &Subscriptions{
		Cache: NewRepublishCache(cacheCapacity),
		subs:  map[uint32]*serverSubscription{},
	}
}

// Create registers subscriptionID as owned by sessionID.
func (s *Subscriptions) Create(sessionID string, subscriptionID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[subscriptionID] = &serverSubscription{
		sessionID:        sessionID,
		monitoredItems:   map[uint32]ua.DataValue{},
		itemClientHandle: map[uint32]uint32{},
	}
}

// Delete drops subscriptionID and forgets its republish cache entries.
func (s *Subscriptions) Delete(subscriptionID uint32) {
	s.mu.Lock()
	delete(s.subs, subscriptionID)
	s.mu.Unlock()
	s.Cache.Forget(subscriptionID)
}

// RecordValue updates the last known value reported for a monitored
// item, so a subsequent transfer with SendInitialValues can resend it.
func (s *Subscriptions) RecordValue(subscriptionID, monitoredItemID, clientHandle uint32, v ua.DataValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[subscriptionID]
	if !ok {
		return
	}
	sub.monitoredItems[monitoredItemID] = v
	sub.itemClientHandle[monitoredItemID] = clientHandle
}

// Transfer implements the TransferSubscriptions service (Part 4,
// 5.13.7): for each requested id owned by some other session, rebinds it
// to newSessionID and, when sendInitialValues is set, returns a
// DataChangeNotification replaying the last known value of every
// monitored item. Unknown subscription ids fail with
// StatusBadSubscriptionIDInvalid, matching client.go's own handling of
// that status in its reconnection path.
func (s *Subscriptions) Transfer(req *ua.TransferSubscriptionsRequest, newSessionID string) (*ua.TransferSubscriptionsResponse, []*ua.NotificationMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]*ua.TransferResult, len(req.SubscriptionIDs))
	var replays []*ua.NotificationMessage

	for i, id := range req.SubscriptionIDs {
		sub, ok := s.subs[id]
		if !ok {
			results[i] = &ua.TransferResult{StatusCode: ua.StatusBadSubscriptionIDInvalid}
			continue
		}
		sub.sessionID = newSessionID
		results[i] = &ua.TransferResult{StatusCode: ua.StatusOK}

		if !req.SendInitialValues || len(sub.monitoredItems) == 0 {
			continue
		}
		ids := make([]uint32, 0, len(sub.monitoredItems))
		for itemID := range sub.monitoredItems {
			ids = append(ids, itemID)
		}
		sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })

		items := make([]ua.MonitoredItemNotification, 0, len(ids))
		for _, itemID := range ids {
			items = append(items, ua.MonitoredItemNotification{
				ClientHandle: sub.itemClientHandle[itemID],
				Value:        sub.monitoredItems[itemID],
			})
		}
		dcn := &ua.DataChangeNotification{MonitoredItems: items}
		msg := &ua.NotificationMessage{
			NotificationData: []*ua.ExtensionObject{ua.NewExtensionObject(dcn)},
		}
		replays = append(replays, msg)
	}

	return &ua.TransferSubscriptionsResponse{
		ResponseHeader: ua.ResponseHeader{ServiceResult: ua.StatusOK},
		Results:        results,
	}, replays
}
