// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package uacp

import (
	"context"
	"net"
	"net/url"
	"strings"

	"github.com/segotech/opcua/debug"
	"github.com/segotech/opcua/errors"
	"github.com/segotech/opcua/ua"
)

// Default uacp transport limits proposed in the client Hello, chosen to
// match common server defaults (Part 6, 6.7.2.2 leaves the exact values
// to the implementation).
const (
	DefaultReceiveBufSize = 64 * 1024
	DefaultSendBufSize    = 64 * 1024
	DefaultMaxMessageSize = 16 * 1024 * 1024
	DefaultMaxChunkCount  = 512
	protocolVersion       = 0

	// DefaultPort is the IANA-registered default port for opc.tcp.
	DefaultPort = "4840"
)

// Conn is a dialed and handshaken uacp connection: a raw net.Conn plus
// the buffer limits negotiated with the server during Hello/Acknowledge.
// SecureChannel reads and writes chunks through it without knowing
// anything about sockets.
type Conn struct {
	net.Conn

	endpointURL string

	// ReceiveBufSize/SendBufSize/MaxMessageSize/MaxChunkCount are the
	// negotiated (min of local and remote) transport limits.
	ReceiveBufSize uint32
	SendBufSize    uint32
	MaxMessageSize uint32
	MaxChunkCount  uint32
}

// EndpointURL returns the endpoint this connection was dialed to.
func (c *Conn) EndpointURL() string {
	return c.endpointURL
}

// Dial establishes a TCP connection to the host:port encoded in endpoint
// and performs the Hello/Acknowledge handshake (Part 6, 6.7.2).
func Dial(ctx context.Context, endpoint string) (*Conn, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	addr, err := resolveAddr(endpoint)
	if err != nil {
		return nil, err
	}

	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	c := &Conn{
		Conn:        nc,
		endpointURL: endpoint,
	}
	if err := c.handshake(endpoint); err != nil {
		_ = nc.Close()
		return nil, err
	}
	return c, nil
}

// resolveAddr extracts the host:port to dial from an opc.tcp:// endpoint
// URL, applying DefaultPort when none is given.
func resolveAddr(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", ua.StatusBadTCPEndpointURLInvalid
	}
	if !strings.EqualFold(u.Scheme, "opc.tcp") {
		return "", ua.StatusBadTCPEndpointURLInvalid
	}
	host := u.Hostname()
	if host == "" {
		return "", ua.StatusBadTCPEndpointURLInvalid
	}
	port := u.Port()
	if port == "" {
		port = DefaultPort
	}
	return net.JoinHostPort(host, port), nil
}

func (c *Conn) handshake(endpoint string) error {
	hel := &Hello{
		Version:        protocolVersion,
		ReceiveBufSize: DefaultReceiveBufSize,
		SendBufSize:    DefaultSendBufSize,
		MaxMessageSize: DefaultMaxMessageSize,
		MaxChunkCount:  DefaultMaxChunkCount,
		EndpointURL:    endpoint,
	}
	if err := c.writeMessage(MessageTypeHello, hel); err != nil {
		return errors.Wrap(err, "uacp: hello")
	}

	hdr, err := ReadHeader(c.Conn)
	if err != nil {
		return errors.Wrap(err, "uacp: read handshake header")
	}

	body := make([]byte, int(hdr.MessageSize)-headerLen)
	if _, err := readFull(c.Conn, body); err != nil {
		return errors.Wrap(err, "uacp: read handshake body")
	}

	switch hdr.MessageType {
	case MessageTypeAcknowledge:
		ack := new(Acknowledge)
		d := ua.NewDecoder(body)
		ack.DecodeBinary(d)
		if err := d.Err(); err != nil {
			return errors.Wrap(err, "uacp: decode acknowledge")
		}
		c.ReceiveBufSize = minU32(hel.ReceiveBufSize, ack.ReceiveBufSize)
		c.SendBufSize = minU32(hel.SendBufSize, ack.SendBufSize)
		c.MaxMessageSize = minNonZeroU32(hel.MaxMessageSize, ack.MaxMessageSize)
		c.MaxChunkCount = minNonZeroU32(hel.MaxChunkCount, ack.MaxChunkCount)
		return nil

	case MessageTypeError:
		uaErr := new(Error)
		d := ua.NewDecoder(body)
		uaErr.DecodeBinary(d)
		debug.Printf("uacp: server returned error during handshake: %v", uaErr)
		return uaErr

	default:
		return errors.Errorf("uacp: unexpected handshake message type %q", hdr.MessageType)
	}
}

// writeMessage frames v as a single final chunk of the given message type
// and writes it to the connection.
func (c *Conn) writeMessage(msgType string, v ua.BinaryEncoder) error {
	e := ua.NewEncoder()
	v.EncodeBinary(e)
	body, err := e.Bytes()
	if err != nil {
		return err
	}

	hdr := &Header{
		MessageType: msgType,
		ChunkType:   ChunkTypeFinal,
		MessageSize: uint32(headerLen + len(body)),
	}

	if _, err := c.Conn.Write(hdr.Encode()); err != nil {
		return err
	}
	_, err = c.Conn.Write(body)
	return err
}

func readFull(r interface{ Read([]byte) (int, error) }, b []byte) (int, error) {
	n := 0
	for n < len(b) {
		m, err := r.Read(b[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

// minNonZeroU32 treats 0 as "unbounded" per Part 6, 6.7.2.3, so the
// smaller of two nonzero limits wins, but a 0 from either side means no
// limit from that side.
func minNonZeroU32(a, b uint32) uint32 {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}
	return minU32(a, b)
}
