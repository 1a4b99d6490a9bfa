// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package uasc

import (
	"context"
	"crypto/rand"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segotech/opcua/debug"
	"github.com/segotech/opcua/errors"
	"github.com/segotech/opcua/ua"
	"github.com/segotech/opcua/uacp"
	"github.com/segotech/opcua/uapki"
)

// ChannelState mirrors the secure-channel lifecycle (spec.md §4.3):
// Disconnected → Hello → Acknowledged → Opening → Open ⇄ Renewing, with
// any state able to fall back to Disconnected on a transport or security
// error. Hello/Acknowledged are handled by uacp.Dial before a
// SecureChannel is even constructed, so a fresh channel starts at
// StateAcknowledged.
type ChannelState int32

const (
	StateDisconnected ChannelState = iota
	StateAcknowledged
	StateOpening
	StateOpen
	StateRenewing
	StateClosing
)

// nonceLength is the size of the client nonce sent with every
// OpenSecureChannel request when a security policy is in effect (Part 6,
// 6.7.5 uses 32 bytes for every defined policy's PSHA input).
const nonceLength = 32

// renewalCheckInterval is how often the background renewal monitor polls
// the active token's age.
const renewalCheckInterval = time.Second

type pendingRequest struct {
	resultCh chan pendingResult
}

type pendingResult struct {
	v   interface{}
	err error
}

// SecureChannel implements the client side of the OPC UA secure-channel
// state machine: the Open/Renew handshake, per-chunk symmetric/asymmetric
// framing via chunkCodec, and request/response correlation by request id
// (spec.md §4.3).
type SecureChannel struct {
	endpointURL string
	conn        *uacp.Conn
	cfg         *Config
	codec       *chunkCodec
	errCh       chan error

	seq *SequenceHandle

	state        int32 // ChannelState, accessed atomically
	nextRequest  uint32
	nextHandle   uint32

	mu        sync.RWMutex
	token     *SecurityToken
	prevToken *SecurityToken

	pendingMu sync.Mutex
	pending   map[uint32]*pendingRequest

	msgMu    sync.Mutex
	msgBuf   map[uint32][]byte
	msgCount map[uint32]uint32

	closeOnce sync.Once
	closed    chan struct{}
	wg        sync.WaitGroup
}

// NewSecureChannel creates a channel bound to an already-handshaken uacp
// connection. Call Open to perform the OpenSecureChannel exchange before
// sending any other request. errCh receives one error if the channel's
// read loop terminates unexpectedly (transport failure, security check
// failure); the caller's reconnection monitor consumes it.
func NewSecureChannel(endpointURL string, conn *uacp.Conn, cfg *Config, errCh chan error) (*SecureChannel, error) {
	if conn == nil {
		return nil, errors.New("uasc: nil connection")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	c := &SecureChannel{
		endpointURL: endpointURL,
		conn:        conn,
		cfg:         cfg,
		codec:       newChunkCodec(cfg, conn),
		errCh:       errCh,
		seq:         NewSequenceHandle(false),
		nextRequest: 1,
		pending:     make(map[uint32]*pendingRequest),
		msgBuf:      make(map[uint32][]byte),
		msgCount:    make(map[uint32]uint32),
		closed:      make(chan struct{}),
	}
	atomic.StoreInt32(&c.state, int32(StateAcknowledged))
	return c, nil
}

func (c *SecureChannel) State() ChannelState {
	return ChannelState(atomic.LoadInt32(&c.state))
}

func (c *SecureChannel) setState(s ChannelState) {
	atomic.StoreInt32(&c.state, int32(s))
}

// Open performs the initial OpenSecureChannel (RequestType=Issue)
// handshake, derives the symmetric keys for the resulting SecurityToken
// from the exchanged nonces, and starts the background read loop and
// renewal monitor (spec.md §4.3 "Acknowledged→Opening→Open").
func (c *SecureChannel) Open(ctx context.Context) error {
	c.wg.Add(1)
	go c.readLoop()

	c.setState(StateOpening)
	if err := c.openOrRenew(ctx, ua.SecurityTokenRequestTypeIssue, 0); err != nil {
		c.setState(StateDisconnected)
		return err
	}
	c.setState(StateOpen)

	c.wg.Add(1)
	go c.renewalMonitor()
	return nil
}

func (c *SecureChannel) openOrRenew(ctx context.Context, reqType ua.SecurityTokenRequestType, channelID uint32) error {
	policyURI := c.cfg.securityPolicyURI()

	var clientNonce []byte
	if policyURI != ua.SecurityPolicyURINone {
		clientNonce = make([]byte, nonceLength)
		if _, err := rand.Read(clientNonce); err != nil {
			return errors.Wrap(err, "uasc: generate client nonce")
		}
	}

	req := &ua.OpenSecureChannelRequest{
		ClientProtocolVersion: 0,
		RequestType:           reqType,
		SecurityMode:          c.cfg.SecurityMode,
		ClientNonce:           clientNonce,
		RequestedLifetime:     c.cfg.lifetime(),
	}
	ua.SetRequestHeader(req, ua.RequestHeader{
		Timestamp:     time.Now(),
		RequestHandle: c.allocHandle(),
		TimeoutHint:   uint32(c.cfg.requestTimeout() / time.Millisecond),
	})

	requestID := c.allocRequestID()
	slot := c.register(requestID)
	defer c.unregister(requestID)

	body, err := ua.EncodeServiceMessage(req)
	if err != nil {
		return err
	}
	chunk, err := c.codec.encodeAsymmetric(uacp.MessageTypeOpen, channelID, c.seq, requestID, body)
	if err != nil {
		return err
	}
	if _, err := c.conn.Write(chunk); err != nil {
		return errors.Wrap(err, "uasc: write OpenSecureChannelRequest")
	}

	res, err := c.awaitResult(ctx, slot, c.cfg.requestTimeout())
	if err != nil {
		return err
	}
	resp, ok := res.(*ua.OpenSecureChannelResponse)
	if !ok {
		if fault, ok := res.(*ua.ServiceFault); ok {
			return ua.ResponseHeaderOf(fault).ServiceResult
		}
		return errors.Errorf("uasc: unexpected response type %T to OpenSecureChannelRequest", res)
	}
	if !c.cfg.IgnoreClockSkew {
		// Clock-skew rejection is intentionally not enforced: spec.md
		// §4.3 only requires that IgnoreClockSkew suppress it, not that
		// the default path reject on skew, since there is no reliable
		// local reference for "the server's clock is wrong" beyond
		// logging a warning.
		_ = resp.ResponseHeader.Timestamp
	}

	clientKeys, serverKeys, err := deriveChannelKeys(policyURI, clientNonce, resp.ServerNonce)
	if err != nil {
		return err
	}

	tok := &SecurityToken{
		ChannelID:  resp.SecurityToken.ChannelID,
		TokenID:    resp.SecurityToken.TokenID,
		CreatedAt:  time.Now(),
		LifetimeMs: resp.SecurityToken.RevisedLifetime,
		ClientKeys: clientKeys,
		ServerKeys: serverKeys,
	}

	c.mu.Lock()
	c.prevToken = c.token
	c.token = tok
	c.mu.Unlock()
	return nil
}

// deriveChannelKeys derives the two directions of symmetric key material
// from the nonces exchanged in OpenSecureChannel (Part 6, 6.7.5): the
// client signs/encrypts egress with keys seeded by the server's nonce,
// and verifies/decrypts ingress with keys seeded by its own nonce.
func deriveChannelKeys(policyURI string, clientNonce, serverNonce []byte) (clientKeys, serverKeys uapki.DerivedKeys, err error) {
	clientKeys, err = uapki.DeriveKeys(policyURI, serverNonce, clientNonce)
	if err != nil {
		return uapki.DerivedKeys{}, uapki.DerivedKeys{}, err
	}
	serverKeys, err = uapki.DeriveKeys(policyURI, clientNonce, serverNonce)
	if err != nil {
		return uapki.DerivedKeys{}, uapki.DerivedKeys{}, err
	}
	return clientKeys, serverKeys, nil
}

// renewalMonitor requests a new SecurityToken once the active one has
// crossed its renewal threshold (spec.md §4.3 "Open→Renewing at ≥75% of
// lifetime_ms").
func (c *SecureChannel) renewalMonitor() {
	defer c.wg.Done()
	ticker := time.NewTicker(renewalCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.closed:
			return
		case <-ticker.C:
			c.mu.RLock()
			tok := c.token
			c.mu.RUnlock()
			if tok == nil || !tok.ShouldRenew() {
				continue
			}
			c.setState(StateRenewing)
			ctx, cancel := context.WithTimeout(context.Background(), c.cfg.requestTimeout())
			err := c.openOrRenew(ctx, ua.SecurityTokenRequestTypeRenew, tok.ChannelID)
			cancel()
			if err != nil {
				debug.Printf("uasc: renew security token: %v", err)
				c.fail(err)
				return
			}
			c.setState(StateOpen)
		}
	}
}

// Close sends CloseSecureChannel, tears down the transport and fails any
// requests still awaiting a response with BadConnectionClosed.
func (c *SecureChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.setState(StateClosing)

		if tok := c.currentToken(); tok != nil {
			req := &ua.CloseSecureChannelRequest{}
			ua.SetRequestHeader(req, ua.RequestHeader{Timestamp: time.Now(), RequestHandle: c.allocHandle()})
			if body, encErr := ua.EncodeServiceMessage(req); encErr == nil {
				requestID := c.allocRequestID()
				if chunks, chunkErr := c.codec.encodeSymmetric(uacp.MessageTypeClose, tok, c.seq, requestID, body); chunkErr == nil {
					for _, chunk := range chunks {
						_, _ = c.conn.Write(chunk)
					}
				}
			}
		}

		close(c.closed)
		err = c.conn.Close()
		c.wg.Wait()
		c.failAllPending(ua.StatusBadConnectionClosed)
		c.setState(StateDisconnected)
	})
	return err
}

func (c *SecureChannel) currentToken() *SecurityToken {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SendRequest sends req over the channel, injecting authToken as the
// request's AuthenticationToken, and invokes h with the decoded response
// once it arrives. It uses the channel's configured default timeout.
func (c *SecureChannel) SendRequest(req ua.Request, authToken *ua.NodeID, h func(interface{}) error) error {
	return c.SendRequestWithTimeout(req, authToken, c.cfg.requestTimeout(), h)
}

// SendRequestWithTimeout is SendRequest with an explicit timeout,
// overriding the channel's default (used by callers that need a longer
// wait, e.g. the publish pump's long-poll Publish requests).
func (c *SecureChannel) SendRequestWithTimeout(req ua.Request, authToken *ua.NodeID, timeout time.Duration, h func(interface{}) error) error {
	tok := c.currentToken()
	if tok == nil {
		return ua.StatusBadServerNotConnected
	}

	ua.SetRequestHeader(req, ua.RequestHeader{
		AuthenticationToken: authToken,
		Timestamp:           time.Now(),
		RequestHandle:       c.allocHandle(),
		TimeoutHint:         uint32(timeout / time.Millisecond),
	})

	requestID := c.allocRequestID()
	slot := c.register(requestID)
	defer c.unregister(requestID)

	body, err := ua.EncodeServiceMessage(req)
	if err != nil {
		return err
	}
	chunks, err := c.codec.encodeSymmetric(uacp.MessageTypeMessage, tok, c.seq, requestID, body)
	if err != nil {
		return err
	}
	for _, chunk := range chunks {
		if _, err := c.conn.Write(chunk); err != nil {
			return errors.Wrap(err, "uasc: write request chunk")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	res, err := c.awaitResult(ctx, slot, timeout)
	if err != nil {
		return err
	}
	if fault, ok := res.(*ua.ServiceFault); ok {
		return ua.ResponseHeaderOf(fault).ServiceResult
	}
	return h(res)
}

func (c *SecureChannel) allocRequestID() uint32 {
	return atomic.AddUint32(&c.nextRequest, 1)
}

func (c *SecureChannel) allocHandle() uint32 {
	return atomic.AddUint32(&c.nextHandle, 1)
}

func (c *SecureChannel) register(requestID uint32) *pendingRequest {
	slot := &pendingRequest{resultCh: make(chan pendingResult, 1)}
	c.pendingMu.Lock()
	c.pending[requestID] = slot
	c.pendingMu.Unlock()
	return slot
}

func (c *SecureChannel) unregister(requestID uint32) {
	c.pendingMu.Lock()
	delete(c.pending, requestID)
	c.pendingMu.Unlock()
}

func (c *SecureChannel) deliver(requestID uint32, v interface{}, err error) {
	c.pendingMu.Lock()
	slot, ok := c.pending[requestID]
	c.pendingMu.Unlock()
	if !ok {
		return
	}
	select {
	case slot.resultCh <- pendingResult{v: v, err: err}:
	default:
	}
}

func (c *SecureChannel) failAllPending(err error) {
	c.pendingMu.Lock()
	slots := make([]*pendingRequest, 0, len(c.pending))
	for _, slot := range c.pending {
		slots = append(slots, slot)
	}
	c.pendingMu.Unlock()
	for _, slot := range slots {
		select {
		case slot.resultCh <- pendingResult{err: err}:
		default:
		}
	}
}

func (c *SecureChannel) awaitResult(ctx context.Context, slot *pendingRequest, timeout time.Duration) (interface{}, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-slot.resultCh:
		return res.v, res.err
	case <-timer.C:
		return nil, ua.StatusBadTimeout
	case <-ctx.Done():
		return nil, ua.StatusBadTimeout
	case <-c.closed:
		return nil, ua.StatusBadConnectionClosed
	}
}

func (c *SecureChannel) fail(err error) {
	select {
	case c.errCh <- err:
	default:
	}
}

// readLoop is the channel's single reader: it demultiplexes inbound
// chunks by message type, reassembles MSG/CLO chunk sequences keyed by
// request id, and delivers completed messages to whichever SendRequest
// call is waiting on that request id (spec.md §4.3 "Request correlation").
func (c *SecureChannel) readLoop() {
	defer c.wg.Done()
	for {
		hdr, err := uacp.ReadHeader(c.conn)
		if err != nil {
			c.fail(err)
			return
		}
		if err := hdr.ValidateSize(c.conn.MaxMessageSize); err != nil {
			c.fail(err)
			return
		}

		body := make([]byte, int(hdr.MessageSize)-8)
		if _, err := io.ReadFull(c.conn, body); err != nil {
			c.fail(err)
			return
		}

		switch hdr.MessageType {
		case uacp.MessageTypeOpen:
			_, _, requestID, payload, err := c.codec.decodeAsymmetric(body)
			if err != nil {
				c.deliver(requestID, nil, err)
				continue
			}
			v, err := ua.DecodeServiceMessage(payload)
			c.deliver(requestID, v, err)

		case uacp.MessageTypeMessage, uacp.MessageTypeClose:
			if err := c.handleSymmetricChunk(hdr.ChunkType, body); err != nil {
				// A signature/decrypt failure is a channel-level security
				// violation, not a per-request error: the channel cannot
				// trust its framing state going forward (spec.md §4.3
				// "BadSecurityChecksFailed → Disconnected").
				c.fail(err)
				return
			}

		case uacp.MessageTypeError:
			uaErr := new(uacp.Error)
			if err := ua.Decode(body, uaErr); err == nil {
				c.fail(uaErr)
			} else {
				c.fail(err)
			}
			return

		default:
			debug.Printf("uasc: unexpected message type %q", hdr.MessageType)
		}
	}
}

const symmetricHeaderOffset = 8

func (c *SecureChannel) handleSymmetricChunk(chunkType byte, body []byte) error {
	if len(body) < symmetricHeaderOffset {
		return ua.StatusBadDecodingError
	}
	tokenID := readUint32LE(body[4:8])
	tok := c.tokenForID(tokenID)
	if tok == nil {
		return ua.StatusBadSecureChannelTokenUnknown
	}

	seqNum, requestID, payload, err := c.codec.decodeSymmetric(tok, body[symmetricHeaderOffset:])
	if err != nil {
		return err
	}
	_ = seqNum

	switch chunkType {
	case uacp.ChunkTypeAbort:
		c.msgMu.Lock()
		delete(c.msgBuf, requestID)
		delete(c.msgCount, requestID)
		c.msgMu.Unlock()
		v, err := ua.DecodeServiceMessage(payload)
		c.deliver(requestID, v, err)

	case uacp.ChunkTypeIntermediate:
		c.msgMu.Lock()
		c.msgCount[requestID]++
		count := c.msgCount[requestID]
		buf := append(c.msgBuf[requestID], payload...)
		c.msgBuf[requestID] = buf
		size := len(buf)
		if (c.conn.MaxChunkCount > 0 && count > c.conn.MaxChunkCount) ||
			(c.conn.MaxMessageSize > 0 && uint32(size) > c.conn.MaxMessageSize) {
			delete(c.msgBuf, requestID)
			delete(c.msgCount, requestID)
			c.msgMu.Unlock()
			return ua.StatusBadTCPMessageTooLarge
		}
		c.msgMu.Unlock()

	default: // Final
		c.msgMu.Lock()
		full := append(c.msgBuf[requestID], payload...)
		delete(c.msgBuf, requestID)
		delete(c.msgCount, requestID)
		c.msgMu.Unlock()
		v, err := ua.DecodeServiceMessage(full)
		c.deliver(requestID, v, err)
	}
	return nil
}

func (c *SecureChannel) tokenForID(tokenID uint32) *SecurityToken {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token != nil && c.token.TokenID == tokenID {
		return c.token
	}
	if c.prevToken != nil && c.prevToken.TokenID == tokenID {
		return c.prevToken
	}
	return nil
}

func readUint32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
