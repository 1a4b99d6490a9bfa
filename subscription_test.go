// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package opcua

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segotech/opcua/ua"
)

func newTestSubscription(t *testing.T) *Subscription {
	t.Helper()
	s := &Subscription{
		SubscriptionID: 1,
		Notifs:         make(chan *PublishNotificationData, 8),
		monitoredItems: make(map[uint32]*MonitoredItem),
		byHandle:       make(map[uint32]*MonitoredItem),
		publishch:      make(chan publishReq),
		pausech:        make(chan struct{}),
		resumech:       make(chan struct{}),
		stopch:         make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	go s.run(ctx)
	t.Cleanup(func() {
		cancel()
		select {
		case <-s.stopch:
		default:
			close(s.stopch)
		}
	})
	return s
}

func mustRecv(t *testing.T, ch chan *PublishNotificationData) *PublishNotificationData {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
		return nil
	}
}

func TestDispatchDataChangeResolvesByClientHandle(t *testing.T) {
	s := newTestSubscription(t)
	mi := &MonitoredItem{ID: 10, ClientHandle: 77}
	s.monitoredItems[mi.ID] = mi
	s.byHandle[mi.ClientHandle] = mi

	nm := &ua.NotificationMessage{
		NotificationData: []*ua.ExtensionObject{
			ua.NewExtensionObject(&ua.DataChangeNotification{
				MonitoredItems: []ua.MonitoredItemNotification{
					{ClientHandle: 77, Value: ua.DataValue{Value: ua.MustVariant(int32(42))}},
				},
			}),
		},
	}

	s.dispatch(context.Background(), nm)

	n := mustRecv(t, s.Notifs)
	require.NoError(t, n.Error)
	require.NotNil(t, n.Item)
	assert.Same(t, mi, n.Item)
	dv, ok := n.Value.(ua.DataValue)
	require.True(t, ok)
	assert.Equal(t, int32(42), dv.Value.Value())
}

func TestDispatchDataChangeDropsUnknownClientHandle(t *testing.T) {
	s := newTestSubscription(t)
	mi := &MonitoredItem{ID: 10, ClientHandle: 77}
	s.monitoredItems[mi.ID] = mi
	s.byHandle[mi.ClientHandle] = mi

	nm := &ua.NotificationMessage{
		NotificationData: []*ua.ExtensionObject{
			ua.NewExtensionObject(&ua.DataChangeNotification{
				MonitoredItems: []ua.MonitoredItemNotification{
					{ClientHandle: 999, Value: ua.DataValue{Value: ua.MustVariant(int32(1))}},
				},
			}),
		},
	}

	s.dispatch(context.Background(), nm)

	select {
	case n := <-s.Notifs:
		t.Fatalf("expected no delivery for an unknown client handle, got %+v", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDispatchEventsResolvesByClientHandle(t *testing.T) {
	s := newTestSubscription(t)
	mi := &MonitoredItem{ID: 20, ClientHandle: 5}
	s.monitoredItems[mi.ID] = mi
	s.byHandle[mi.ClientHandle] = mi

	nm := &ua.NotificationMessage{
		NotificationData: []*ua.ExtensionObject{
			ua.NewExtensionObject(&ua.EventNotificationList{
				Events: []ua.EventFieldList{
					{ClientHandle: 5, EventFields: []*ua.Variant{ua.MustVariant("fired")}},
				},
			}),
		},
	}

	s.dispatch(context.Background(), nm)

	n := mustRecv(t, s.Notifs)
	require.NotNil(t, n.Item)
	assert.Same(t, mi, n.Item)
	evt, ok := n.Value.(ua.EventFieldList)
	require.True(t, ok)
	assert.Equal(t, uint32(5), evt.ClientHandle)
}

func TestDispatchStatusChangeHasNoItem(t *testing.T) {
	s := newTestSubscription(t)

	nm := &ua.NotificationMessage{
		NotificationData: []*ua.ExtensionObject{
			ua.NewExtensionObject(&ua.StatusChangeNotification{Status: ua.StatusBadTimeout}),
		},
	}

	s.dispatch(context.Background(), nm)

	n := mustRecv(t, s.Notifs)
	assert.Nil(t, n.Item)
	sc, ok := n.Value.(*ua.StatusChangeNotification)
	require.True(t, ok)
	assert.Equal(t, ua.StatusBadTimeout, sc.Status)
}

func TestResolveLooksUpByClientHandle(t *testing.T) {
	s := newTestSubscription(t)
	s.itemsMu.Lock()
	s.monitoredItems[11] = &MonitoredItem{ID: 11, ClientHandle: 3}
	s.byHandle[3] = s.monitoredItems[11]
	s.itemsMu.Unlock()

	mi, ok := s.resolve(3)
	require.True(t, ok)
	assert.Equal(t, uint32(11), mi.ID)

	_, ok = s.resolve(4)
	assert.False(t, ok)
}
