// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package opcua

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segotech/opcua/debug"
	"github.com/segotech/opcua/errors"
	"github.com/segotech/opcua/ua"
)

// Default parameters used by Subscribe when a field of
// SubscriptionParameters is left at its zero value.
const (
	DefaultSubscriptionInterval          = 100 * time.Millisecond
	DefaultSubscriptionLifetimeCount     = 10000
	DefaultSubscriptionMaxKeepAliveCount = 20
	DefaultSubscriptionPriority          = 0
)

// SubscriptionParameters holds the parameters of a Subscribe call. See
// Part 4, 5.13.2 CreateSubscription Service Parameters.
type SubscriptionParameters struct {
	Interval                   time.Duration
	LifetimeCount              uint32
	MaxKeepAliveCount          uint32
	MaxNotificationsPerPublish uint32
	Priority                   byte
}

func (p *SubscriptionParameters) setDefaults() {
	if p.Interval <= 0 {
		p.Interval = DefaultSubscriptionInterval
	}
	if p.LifetimeCount == 0 {
		p.LifetimeCount = DefaultSubscriptionLifetimeCount
	}
	if p.MaxKeepAliveCount == 0 {
		p.MaxKeepAliveCount = DefaultSubscriptionMaxKeepAliveCount
	}
}

// PublishNotificationData is the value delivered on a Subscription's
// notification channel. Exactly one of Value or Error is set. Item is the
// monitored item the notification was resolved against and is nil for
// subscription-level notifications (*ua.StatusChangeNotification) and for
// Error values. Value holds a ua.DataValue for a data change, a
// ua.EventFieldList for an event, or a *ua.StatusChangeNotification, and
// Error reports a channel-level or per-subscription delivery failure
// (spec.md §4.6).
type PublishNotificationData struct {
	SubscriptionID uint32
	Item           *MonitoredItem
	Value          interface{}
	Error          error
}

// MonitoredItem is the client-side record of a monitored item created on
// a Subscription (Part 4, 7.23/7.26).
type MonitoredItem struct {
	ID               uint32
	ClientHandle     uint32
	ItemToMonitor    ua.ReadValueID
	MonitoringMode   ua.MonitoringMode
	SamplingInterval float64
	QueueSize        uint32
	DiscardOldest    bool
	Filter           *ua.ExtensionObject
}

// publishReq is the unit of work handed from the client's publish pump to
// a subscription's forwarding goroutine.
type publishReq struct {
	notif *PublishNotificationData
}

// Subscription is the client-side representation of a subscription
// created on the server (spec.md §4.6 SubscriptionState). Notifications
// are delivered asynchronously on Notifs by a forwarding goroutine started
// in Client.Subscribe; call Cancel to stop it and delete the
// subscription.
type Subscription struct {
	SubscriptionID            uint32
	RevisedPublishingInterval time.Duration
	RevisedLifetimeCount      uint32
	RevisedMaxKeepAliveCount  uint32
	Notifs                    chan *PublishNotificationData

	// lastSequenceNumber is the sequence number of the most recently
	// delivered NotificationMessage, accessed atomically since it is read
	// by the publish pump's gap detection and written both there and by
	// sendRepublishRequests during reconnection.
	lastSequenceNumber uint32

	params *SubscriptionParameters
	c      *Client

	itemsMu        sync.RWMutex
	monitoredItems map[uint32]*MonitoredItem // by server-assigned monitored item id
	byHandle       map[uint32]*MonitoredItem // by ClientHandle, for dispatch
	nextHandle     uint32

	publishch chan publishReq
	pausech   chan struct{}
	resumech  chan struct{}
	stopch    chan struct{}
}

// run is the subscription's notification-forwarding goroutine, started
// once by Client.Subscribe. While paused (see pause/resume) incoming
// notifications are buffered rather than dropped, so a reconnect never
// loses a notification that was already decoded off the wire.
func (s *Subscription) run(ctx context.Context) {
	var backlog []*PublishNotificationData
	paused := false
	for {
		if paused {
			select {
			case <-s.stopch:
				return
			case <-s.resumech:
				paused = false
				for _, n := range backlog {
					s.deliver(ctx, n)
				}
				backlog = nil
			case req := <-s.publishch:
				backlog = append(backlog, req.notif)
			}
			continue
		}

		select {
		case <-s.stopch:
			return
		case <-s.pausech:
			paused = true
		case req := <-s.publishch:
			s.deliver(ctx, req.notif)
		}
	}
}

func (s *Subscription) deliver(ctx context.Context, n *PublishNotificationData) {
	if s.Notifs == nil {
		return
	}
	select {
	case s.Notifs <- n:
	case <-ctx.Done():
	case <-s.stopch:
	}
}

// notify hands a notification to the subscription's forwarding goroutine.
func (s *Subscription) notify(ctx context.Context, n *PublishNotificationData) {
	select {
	case s.publishch <- publishReq{notif: n}:
	case <-s.stopch:
	case <-ctx.Done():
	}
}

// pause stops the forwarding goroutine from delivering to Notifs until
// resume is called; notifications keep accumulating in an internal
// backlog. Used while the client is reconnecting (spec.md §4.3).
func (s *Subscription) pause(ctx context.Context) {
	select {
	case s.pausech <- struct{}{}:
	case <-s.stopch:
	case <-ctx.Done():
	}
}

// resume reverses pause, flushing any backlog in sequence-number order of
// arrival.
func (s *Subscription) resume(ctx context.Context) {
	select {
	case s.resumech <- struct{}{}:
	case <-s.stopch:
	case <-ctx.Done():
	}
}

// dispatch routes one NotificationMessage's payloads to Notifs, resolving
// each MonitoredItemNotification/EventFieldList against the owning
// MonitoredItem by ClientHandle before delivery, and dropping (with a
// debug warning) any notification whose handle names no monitored item
// this subscription currently knows about — spec.md §4.6.
func (s *Subscription) dispatch(ctx context.Context, nm *ua.NotificationMessage) {
	if nm == nil {
		return
	}
	for _, data := range nm.NotificationData {
		if data == nil || data.Value == nil {
			s.notify(ctx, &PublishNotificationData{
				SubscriptionID: s.SubscriptionID,
				Error:          errors.Errorf("missing NotificationData parameter"),
			})
			continue
		}
		switch v := data.Value.(type) {
		case *ua.DataChangeNotification:
			s.dispatchDataChange(ctx, v)
		case *ua.EventNotificationList:
			s.dispatchEvents(ctx, v)
		case *ua.StatusChangeNotification:
			s.notify(ctx, &PublishNotificationData{
				SubscriptionID: s.SubscriptionID,
				Value:          v,
			})
		default:
			s.notify(ctx, &PublishNotificationData{
				SubscriptionID: s.SubscriptionID,
				Error:          errors.Errorf("unknown NotificationData parameter: %T", data.Value),
			})
		}
	}
}

// resolve looks up the MonitoredItem owning clientHandle. Callers hold no
// lock; itemsMu is acquired for the duration of the lookup.
func (s *Subscription) resolve(clientHandle uint32) (*MonitoredItem, bool) {
	s.itemsMu.RLock()
	defer s.itemsMu.RUnlock()
	mi, ok := s.byHandle[clientHandle]
	return mi, ok
}

// dispatchDataChange resolves and forwards each MonitoredItemNotification
// in a DataChangeNotification individually, per spec.md §4.6.
func (s *Subscription) dispatchDataChange(ctx context.Context, n *ua.DataChangeNotification) {
	for _, item := range n.MonitoredItems {
		mi, ok := s.resolve(item.ClientHandle)
		if !ok {
			debug.Printf("dispatch: data change for unknown client handle %d, dropping", item.ClientHandle)
			continue
		}
		s.notify(ctx, &PublishNotificationData{
			SubscriptionID: s.SubscriptionID,
			Item:           mi,
			Value:          item.Value,
		})
	}
}

// dispatchEvents resolves and forwards each EventFieldList in an
// EventNotificationList individually, per spec.md §4.6.
func (s *Subscription) dispatchEvents(ctx context.Context, n *ua.EventNotificationList) {
	for _, evt := range n.Events {
		mi, ok := s.resolve(evt.ClientHandle)
		if !ok {
			debug.Printf("dispatch: event for unknown client handle %d, dropping", evt.ClientHandle)
			continue
		}
		s.notify(ctx, &PublishNotificationData{
			SubscriptionID: s.SubscriptionID,
			Item:           mi,
			Value:          evt,
		})
	}
}

// Monitor adds monitored items to the subscription (Part 4, 5.12.2).
// Client handles are assigned automatically.
func (s *Subscription) Monitor(ts ua.TimestampsToReturn, items ...*ua.MonitoredItemCreateRequest) (*ua.CreateMonitoredItemsResponse, error) {
	for _, item := range items {
		item.RequestedParameters.ClientHandle = atomic.AddUint32(&s.nextHandle, 1)
	}
	req := &ua.CreateMonitoredItemsRequest{
		SubscriptionID:     s.SubscriptionID,
		TimestampsToReturn: ts,
		ItemsToCreate:       items,
	}
	var res *ua.CreateMonitoredItemsResponse
	err := s.c.Send(req, func(v interface{}) error {
		return safeAssign(v, &res)
	})
	if err != nil {
		return nil, err
	}

	s.itemsMu.Lock()
	defer s.itemsMu.Unlock()
	for i, r := range res.Results {
		if i >= len(items) || r.StatusCode != ua.StatusOK {
			continue
		}
		req := items[i]
		mi := &MonitoredItem{
			ID:               r.MonitoredItemID,
			ClientHandle:     req.RequestedParameters.ClientHandle,
			ItemToMonitor:    req.ItemToMonitor,
			MonitoringMode:   req.MonitoringMode,
			SamplingInterval: r.RevisedSamplingInterval,
			QueueSize:        r.RevisedQueueSize,
			DiscardOldest:    req.RequestedParameters.DiscardOldest,
			Filter:           req.RequestedParameters.Filter,
		}
		s.monitoredItems[r.MonitoredItemID] = mi
		s.byHandle[mi.ClientHandle] = mi
	}
	return res, nil
}

// Unmonitor removes monitored items from the subscription (Part 4, 5.12.5).
func (s *Subscription) Unmonitor(ids ...uint32) (*ua.DeleteMonitoredItemsResponse, error) {
	req := &ua.DeleteMonitoredItemsRequest{
		SubscriptionID:   s.SubscriptionID,
		MonitoredItemIDs: ids,
	}
	var res *ua.DeleteMonitoredItemsResponse
	err := s.c.Send(req, func(v interface{}) error {
		return safeAssign(v, &res)
	})
	if err != nil {
		return nil, err
	}
	s.itemsMu.Lock()
	defer s.itemsMu.Unlock()
	for i, id := range ids {
		if i < len(res.Results) && res.Results[i] == ua.StatusOK {
			if mi, ok := s.monitoredItems[id]; ok {
				delete(s.byHandle, mi.ClientHandle)
			}
			delete(s.monitoredItems, id)
		}
	}
	return res, nil
}

// ModifyMonitoredItems changes the sampling, queueing or filter parameters
// of existing monitored items (Part 4, 5.12.3).
func (s *Subscription) ModifyMonitoredItems(ts ua.TimestampsToReturn, items ...*ua.MonitoredItemModifyRequest) (*ua.ModifyMonitoredItemsResponse, error) {
	req := &ua.ModifyMonitoredItemsRequest{
		SubscriptionID:     s.SubscriptionID,
		TimestampsToReturn: ts,
		ItemsToModify:      items,
	}
	var res *ua.ModifyMonitoredItemsResponse
	err := s.c.Send(req, func(v interface{}) error {
		return safeAssign(v, &res)
	})
	if err != nil {
		return nil, err
	}

	s.itemsMu.Lock()
	defer s.itemsMu.Unlock()
	for i, r := range res.Results {
		if i >= len(items) || r.StatusCode != ua.StatusOK {
			continue
		}
		req := items[i]
		if mi, ok := s.monitoredItems[req.MonitoredItemID]; ok {
			mi.SamplingInterval = r.RevisedSamplingInterval
			mi.QueueSize = r.RevisedQueueSize
			mi.Filter = req.RequestedParameters.Filter
			mi.DiscardOldest = req.RequestedParameters.DiscardOldest
		}
	}
	return res, nil
}

// SetMonitoringMode changes the monitoring mode of a set of monitored
// items (Part 4, 5.12.4).
func (s *Subscription) SetMonitoringMode(mode ua.MonitoringMode, ids ...uint32) (*ua.SetMonitoringModeResponse, error) {
	req := &ua.SetMonitoringModeRequest{
		SubscriptionID:   s.SubscriptionID,
		MonitoringMode:   mode,
		MonitoredItemIDs: ids,
	}
	var res *ua.SetMonitoringModeResponse
	err := s.c.Send(req, func(v interface{}) error {
		return safeAssign(v, &res)
	})
	if err != nil {
		return nil, err
	}
	s.itemsMu.Lock()
	defer s.itemsMu.Unlock()
	for i, id := range ids {
		if i < len(res.Results) && res.Results[i] == ua.StatusOK {
			if mi, ok := s.monitoredItems[id]; ok {
				mi.MonitoringMode = mode
			}
		}
	}
	return res, nil
}

// Cancel deletes the subscription on the server and stops its forwarding
// goroutine. The Notifs channel is not closed since the caller owns it.
func (s *Subscription) Cancel(ctx context.Context) error {
	req := &ua.DeleteSubscriptionsRequest{SubscriptionIDs: []uint32{s.SubscriptionID}}
	var res *ua.DeleteSubscriptionsResponse
	err := s.c.Send(req, func(v interface{}) error {
		return safeAssign(v, &res)
	})
	s.c.forgetSubscription(s.SubscriptionID)
	select {
	case <-s.stopch:
	default:
		close(s.stopch)
	}
	return err
}

// republish asks the server to resend a previously sent NotificationMessage
// (Part 4, 5.14.3). On success the recovered message is dispatched exactly
// as a live Publish response would be.
func (s *Subscription) republish(req *ua.RepublishRequest) (*ua.RepublishResponse, error) {
	var res *ua.RepublishResponse
	err := s.c.Send(req, func(v interface{}) error {
		return safeAssign(v, &res)
	})
	if err != nil {
		return res, err
	}
	if res.NotificationMessage != nil {
		atomic.StoreUint32(&s.lastSequenceNumber, res.NotificationMessage.SequenceNumber)
		s.dispatch(context.Background(), res.NotificationMessage)
	}
	return res, nil
}

// restore recreates the subscription (and its monitored items) on the
// server under the client's current session, replacing a subscription
// that could not be transferred or reactivated after a reconnect
// (spec.md §4.8).
func (s *Subscription) restore() error {
	req := &ua.CreateSubscriptionRequest{
		RequestedPublishingInterval: float64(s.RevisedPublishingInterval / time.Millisecond),
		RequestedLifetimeCount:      s.RevisedLifetimeCount,
		RequestedMaxKeepAliveCount:  s.RevisedMaxKeepAliveCount,
		PublishingEnabled:           true,
		MaxNotificationsPerPublish:  s.params.MaxNotificationsPerPublish,
		Priority:                    s.params.Priority,
	}
	var res *ua.CreateSubscriptionResponse
	if err := s.c.Send(req, func(v interface{}) error {
		return safeAssign(v, &res)
	}); err != nil {
		return err
	}
	if res.ResponseHeader.ServiceResult != ua.StatusOK {
		return res.ResponseHeader.ServiceResult
	}

	oldID := s.SubscriptionID
	s.c.forgetSubscription(oldID)

	s.SubscriptionID = res.SubscriptionID
	s.RevisedPublishingInterval = time.Duration(res.RevisedPublishingInterval) * time.Millisecond
	s.RevisedLifetimeCount = res.RevisedLifetimeCount
	s.RevisedMaxKeepAliveCount = res.RevisedMaxKeepAliveCount
	atomic.StoreUint32(&s.lastSequenceNumber, 0)

	if err := s.c.registerSubscription(s); err != nil {
		return err
	}

	return s.recreateMonitoredItems()
}

// recreateMonitoredItems reissues CreateMonitoredItems for every item this
// subscription had on its old server-side id, in a stable order so the
// i-th request lines up with the i-th result.
func (s *Subscription) recreateMonitoredItems() error {
	s.itemsMu.Lock()
	defer s.itemsMu.Unlock()

	ids := make([]uint32, 0, len(s.monitoredItems))
	for id := range s.monitoredItems {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) == 0 {
		return nil
	}

	items := make([]*ua.MonitoredItemCreateRequest, len(ids))
	for i, id := range ids {
		mi := s.monitoredItems[id]
		items[i] = &ua.MonitoredItemCreateRequest{
			ItemToMonitor:  mi.ItemToMonitor,
			MonitoringMode: mi.MonitoringMode,
			RequestedParameters: ua.MonitoringParameters{
				ClientHandle:     mi.ClientHandle,
				SamplingInterval: mi.SamplingInterval,
				Filter:            mi.Filter,
				QueueSize:         mi.QueueSize,
				DiscardOldest:     mi.DiscardOldest,
			},
		}
	}

	req := &ua.CreateMonitoredItemsRequest{
		SubscriptionID:     s.SubscriptionID,
		TimestampsToReturn: ua.TimestampsToReturnBoth,
		ItemsToCreate:       items,
	}
	var res *ua.CreateMonitoredItemsResponse
	if err := s.c.Send(req, func(v interface{}) error {
		return safeAssign(v, &res)
	}); err != nil {
		return err
	}

	s.monitoredItems = make(map[uint32]*MonitoredItem, len(ids))
	s.byHandle = make(map[uint32]*MonitoredItem, len(ids))
	for i, id := range ids {
		if i >= len(res.Results) || res.Results[i].StatusCode != ua.StatusOK {
			debug.Printf("restore: failed to recreate monitored item %d", id)
			continue
		}
		mi := items[i]
		r := res.Results[i]
		rec := &MonitoredItem{
			ID:               r.MonitoredItemID,
			ClientHandle:     mi.RequestedParameters.ClientHandle,
			ItemToMonitor:    mi.ItemToMonitor,
			MonitoringMode:   mi.MonitoringMode,
			SamplingInterval: r.RevisedSamplingInterval,
			QueueSize:        r.RevisedQueueSize,
			DiscardOldest:    mi.RequestedParameters.DiscardOldest,
			Filter:           mi.RequestedParameters.Filter,
		}
		s.monitoredItems[r.MonitoredItemID] = rec
		s.byHandle[rec.ClientHandle] = rec
	}
	return nil
}
