// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package uasc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segotech/opcua/ua"
	"github.com/segotech/opcua/uacp"
)

func newTestChannel(maxChunkCount, maxMessageSize uint32) *SecureChannel {
	return &SecureChannel{
		conn:     &uacp.Conn{MaxChunkCount: maxChunkCount, MaxMessageSize: maxMessageSize},
		cfg:      &Config{},
		codec:    newChunkCodec(&Config{}, &uacp.Conn{MaxChunkCount: maxChunkCount, MaxMessageSize: maxMessageSize}),
		msgBuf:   make(map[uint32][]byte),
		msgCount: make(map[uint32]uint32),
	}
}

func TestTokenForIDReturnsCurrentToken(t *testing.T) {
	c := newTestChannel(0, 0)
	c.token = &SecurityToken{TokenID: 7}
	assert.Same(t, c.token, c.tokenForID(7))
}

func TestTokenForIDReturnsPreviousToken(t *testing.T) {
	c := newTestChannel(0, 0)
	c.token = &SecurityToken{TokenID: 7}
	c.prevToken = &SecurityToken{TokenID: 6}
	assert.Same(t, c.prevToken, c.tokenForID(6))
}

func TestTokenForIDReturnsNilForUnknownToken(t *testing.T) {
	c := newTestChannel(0, 0)
	c.token = &SecurityToken{TokenID: 7}
	c.prevToken = &SecurityToken{TokenID: 6}
	assert.Nil(t, c.tokenForID(99))
}

func encodeNoneSymmetricChunk(t *testing.T, c *SecureChannel, chunkType byte, tok *SecurityToken, requestID uint32, body []byte) []byte {
	t.Helper()
	seq := NewSequenceHandle(false)
	chunks, err := c.codec.encodeSymmetric(uacp.MessageTypeMessage, tok, seq, requestID, body)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	chunk := chunks[0]
	chunk[3] = chunkType // override chunk type for intermediate-chunk tests
	return chunk[8:]      // strip the uacp header; handleSymmetricChunk takes the body only
}

func TestHandleSymmetricChunkReassemblesIntermediateChunks(t *testing.T) {
	c := newTestChannel(10, 1<<20)
	tok := &SecurityToken{TokenID: 1}
	c.token = tok

	requestID := uint32(42)
	part1 := encodeNoneSymmetricChunk(t, c, uacp.ChunkTypeIntermediate, tok, requestID, []byte("hello "))
	part2 := encodeNoneSymmetricChunk(t, c, uacp.ChunkTypeFinal, tok, requestID, []byte("world"))

	require.NoError(t, c.handleSymmetricChunk(uacp.ChunkTypeIntermediate, part1))
	c.msgMu.Lock()
	assert.Equal(t, []byte("hello "), c.msgBuf[requestID])
	assert.Equal(t, uint32(1), c.msgCount[requestID])
	c.msgMu.Unlock()

	require.NoError(t, c.handleSymmetricChunk(uacp.ChunkTypeFinal, part2))
	c.msgMu.Lock()
	_, stillBuffered := c.msgBuf[requestID]
	c.msgMu.Unlock()
	assert.False(t, stillBuffered)
}

func TestHandleSymmetricChunkRejectsUnknownToken(t *testing.T) {
	c := newTestChannel(10, 1<<20)
	c.token = &SecurityToken{TokenID: 1}

	body := make([]byte, 16)
	body[4] = 99 // tokenID (body[4:8], little-endian) the channel doesn't recognize
	err := c.handleSymmetricChunk(uacp.ChunkTypeFinal, body)
	assert.Equal(t, ua.StatusBadSecureChannelTokenUnknown, err)
}

func TestHandleSymmetricChunkEnforcesMaxChunkCount(t *testing.T) {
	c := newTestChannel(2, 1<<20)
	tok := &SecurityToken{TokenID: 1}
	c.token = tok

	requestID := uint32(7)
	chunk1 := encodeNoneSymmetricChunk(t, c, uacp.ChunkTypeIntermediate, tok, requestID, []byte("a"))
	chunk2 := encodeNoneSymmetricChunk(t, c, uacp.ChunkTypeIntermediate, tok, requestID, []byte("b"))
	chunk3 := encodeNoneSymmetricChunk(t, c, uacp.ChunkTypeIntermediate, tok, requestID, []byte("c"))

	require.NoError(t, c.handleSymmetricChunk(uacp.ChunkTypeIntermediate, chunk1))
	require.NoError(t, c.handleSymmetricChunk(uacp.ChunkTypeIntermediate, chunk2))
	err := c.handleSymmetricChunk(uacp.ChunkTypeIntermediate, chunk3)
	assert.Equal(t, ua.StatusBadTCPMessageTooLarge, err)

	c.msgMu.Lock()
	_, stillBuffered := c.msgBuf[requestID]
	c.msgMu.Unlock()
	assert.False(t, stillBuffered, "assembly state must be discarded once the cap is exceeded")
}

func TestHandleSymmetricChunkEnforcesMaxMessageSize(t *testing.T) {
	c := newTestChannel(100, 10)
	tok := &SecurityToken{TokenID: 1}
	c.token = tok

	requestID := uint32(7)
	chunk := encodeNoneSymmetricChunk(t, c, uacp.ChunkTypeIntermediate, tok, requestID, []byte("this body is longer than ten bytes"))
	err := c.handleSymmetricChunk(uacp.ChunkTypeIntermediate, chunk)
	assert.Equal(t, ua.StatusBadTCPMessageTooLarge, err)
}
