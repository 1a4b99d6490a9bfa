package uaserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segotech/opcua/ua"
)

func TestRepublishCacheRoundTrip(t *testing.T) {
	c := NewRepublishCache(4)

	for i := uint32(1); i <= 3; i++ {
		c.Store(7, &ua.NotificationMessage{SequenceNumber: i, PublishTime: time.Unix(0, 0)})
	}

	msg, err := c.Lookup(7, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), msg.SequenceNumber)

	_, err = c.Lookup(7, 99)
	assert.Equal(t, ua.StatusBadMessageNotAvailable, err)

	_, err = c.Lookup(42, 1)
	assert.Equal(t, ua.StatusBadSubscriptionIDInvalid, err)
}

func TestRepublishCacheEvictsOverCapacity(t *testing.T) {
	c := NewRepublishCache(2)

	c.Store(1, &ua.NotificationMessage{SequenceNumber: 1})
	c.Store(1, &ua.NotificationMessage{SequenceNumber: 2})
	c.Store(1, &ua.NotificationMessage{SequenceNumber: 3})

	_, err := c.Lookup(1, 1)
	assert.Equal(t, ua.StatusBadMessageNotAvailable, err, "oldest entry should have been evicted")

	msg, err := c.Lookup(1, 3)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), msg.SequenceNumber)
}

func TestRepublishCacheAckReleasesUpTo(t *testing.T) {
	c := NewRepublishCache(10)
	for i := uint32(1); i <= 5; i++ {
		c.Store(1, &ua.NotificationMessage{SequenceNumber: i})
	}

	c.Ack(1, 3)

	_, err := c.Lookup(1, 3)
	assert.Equal(t, ua.StatusBadMessageNotAvailable, err)

	msg, err := c.Lookup(1, 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), msg.SequenceNumber)
}

// TestRepublishServiceScenario covers spec scenario 7: a client that
// detects a gap issues a manual Republish and gets back the retained
// message for the missing sequence number.
func TestRepublishServiceScenario(t *testing.T) {
	c := NewRepublishCache(16)
	c.Store(9, &ua.NotificationMessage{SequenceNumber: 5})

	resp := c.Republish(&ua.RepublishRequest{SubscriptionID: 9, RetransmitSequenceNumber: 5})
	require.Equal(t, ua.StatusOK, resp.ResponseHeader.ServiceResult)
	require.NotNil(t, resp.NotificationMessage)
	assert.Equal(t, uint32(5), resp.NotificationMessage.SequenceNumber)

	resp = c.Republish(&ua.RepublishRequest{SubscriptionID: 9, RetransmitSequenceNumber: 6})
	assert.Equal(t, ua.StatusBadMessageNotAvailable, resp.ResponseHeader.ServiceResult)
	assert.Nil(t, resp.NotificationMessage)
}
