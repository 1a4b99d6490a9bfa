package uaserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segotech/opcua/ua"
)

func TestTransferSubscriptionsRebindsOwnership(t *testing.T) {
	s := NewSubscriptions(16)
	s.Create("session-a", 1)
	s.RecordValue(1, 100, 7, ua.DataValue{Value: ua.MustVariant(int32(42))})

	resp, replays := s.Transfer(&ua.TransferSubscriptionsRequest{
		SubscriptionIDs:   []uint32{1},
		SendInitialValues: true,
	}, "session-b")

	require.Len(t, resp.Results, 1)
	assert.Equal(t, ua.StatusOK, resp.Results[0].StatusCode)
	require.Len(t, replays, 1)

	dcn, ok := replays[0].NotificationData[0].Value.(*ua.DataChangeNotification)
	require.True(t, ok)
	require.Len(t, dcn.MonitoredItems, 1)
	assert.Equal(t, uint32(7), dcn.MonitoredItems[0].ClientHandle)
}

func TestTransferSubscriptionsUnknownID(t *testing.T) {
	s := NewSubscriptions(16)

	resp, replays := s.Transfer(&ua.TransferSubscriptionsRequest{
		SubscriptionIDs: []uint32{999},
	}, "session-b")

	require.Len(t, resp.Results, 1)
	assert.Equal(t, ua.StatusBadSubscriptionIDInvalid, resp.Results[0].StatusCode)
	assert.Empty(t, replays)
}

func TestTransferSubscriptionsWithoutInitialValues(t *testing.T) {
	s := NewSubscriptions(16)
	s.Create("session-a", 1)
	s.RecordValue(1, 100, 7, ua.DataValue{Value: ua.MustVariant(int32(42))})

	resp, replays := s.Transfer(&ua.TransferSubscriptionsRequest{
		SubscriptionIDs:   []uint32{1},
		SendInitialValues: false,
	}, "session-b")

	assert.Equal(t, ua.StatusOK, resp.Results[0].StatusCode)
	assert.Empty(t, replays)
}

func TestDeleteForgetsRepublishCache(t *testing.T) {
	s := NewSubscriptions(16)
	s.Create("session-a", 1)
	s.Cache.Store(1, &ua.NotificationMessage{SequenceNumber: 1})

	s.Delete(1)

	_, err := s.Cache.Lookup(1, 1)
	assert.Equal(t, ua.StatusBadSubscriptionIDInvalid, err)
}
