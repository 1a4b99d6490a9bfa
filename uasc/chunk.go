// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package uasc

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/binary"
	"hash"

	"github.com/segotech/opcua/errors"
	"github.com/segotech/opcua/ua"
	"github.com/segotech/opcua/uacp"
	"github.com/segotech/opcua/uapki"
)

// chunkCodec frames an encoded service-call body into one or more uacp
// chunks and applies the per-chunk crypto the active SecurityToken calls
// for (spec.md §4.2). OPN chunks go through asymmetric crypto against the
// channel's own key and the remote certificate; MSG/CLO chunks use the
// symmetric keys derived for the current SecurityToken.
type chunkCodec struct {
	cfg  *Config
	conn *uacp.Conn
}

const symmetricHeaderLen = 8 // channel id + token id
const sequenceHeaderLen = 8  // sequence number + request id

func newChunkCodec(cfg *Config, conn *uacp.Conn) *chunkCodec {
	return &chunkCodec{cfg: cfg, conn: conn}
}

// encodeSymmetric frames body as one or more MSG/CLO chunks signed and
// optionally encrypted under tok, splitting at the negotiated
// SendBufSize (spec.md §4.2 "split an encoded message body into chunks
// of at most send_buffer_size").
func (c *chunkCodec) encodeSymmetric(msgType string, tok *SecurityToken, seq *SequenceHandle, requestID uint32, body []byte) ([][]byte, error) {
	digestSize, blockSize := symmetricSizes(c.cfg.securityPolicyURI(), c.cfg.SecurityMode)

	maxBodyPerChunk := c.maxBodyPerChunk(digestSize, blockSize)
	var chunks [][]byte
	for offset := 0; offset < len(body) || (len(body) == 0 && len(chunks) == 0); {
		end := offset + maxBodyPerChunk
		last := true
		if end < len(body) {
			last = false
		} else {
			end = len(body)
		}

		chunkType := byte(uacp.ChunkTypeIntermediate)
		if last {
			chunkType = uacp.ChunkTypeFinal
		}

		seq.Increment(1)
		chunk, err := c.encodeOneSymmetric(msgType, chunkType, tok, seq.Current(), requestID, body[offset:end], digestSize, blockSize)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
		offset = end
		if last {
			break
		}
	}
	return chunks, nil
}

func (c *chunkCodec) maxBodyPerChunk(digestSize, blockSize int) int {
	overhead := symmetricHeaderLen + sequenceHeaderLen + digestSize + 1 // +1 min padding byte
	sendBuf := int(c.conn.SendBufSize)
	if sendBuf == 0 {
		sendBuf = uacp.DefaultSendBufSize
	}
	max := sendBuf - uacpHeaderLen - overhead
	if max < 1 {
		max = 1
	}
	return max
}

const uacpHeaderLen = 8

func (c *chunkCodec) encodeOneSymmetric(msgType string, chunkType byte, tok *SecurityToken, seqNum, requestID uint32, bodyPart []byte, digestSize, blockSize int) ([]byte, error) {
	seqHeader := make([]byte, sequenceHeaderLen)
	binary.LittleEndian.PutUint32(seqHeader[0:4], seqNum)
	binary.LittleEndian.PutUint32(seqHeader[4:8], requestID)

	plain := append(append([]byte{}, seqHeader...), bodyPart...)
	plain = padToBlockSize(plain, blockSize)

	symHeader := make([]byte, symmetricHeaderLen)
	binary.LittleEndian.PutUint32(symHeader[0:4], tok.ChannelID)
	binary.LittleEndian.PutUint32(symHeader[4:8], tok.TokenID)

	var sig []byte
	if digestSize > 0 {
		sig = hmacSum(c.cfg.securityPolicyURI(), tok.ClientKeys.SigningKey, append(append([]byte{}, symHeader...), plain...))
	}
	toEncrypt := append(plain, sig...)

	if blockSize > 0 {
		encrypted, err := aesCBCEncrypt(tok.ClientKeys.EncryptKey, tok.ClientKeys.IV, toEncrypt)
		if err != nil {
			return nil, err
		}
		toEncrypt = encrypted
	}

	hdr := &uacp.Header{
		MessageType: msgType,
		ChunkType:   chunkType,
		MessageSize: uint32(uacpHeaderLen + symmetricHeaderLen + len(toEncrypt)),
	}
	out := append(hdr.Encode(), symHeader...)
	out = append(out, toEncrypt...)
	return out, nil
}

// decodeSymmetric reverses encodeOneSymmetric: verifies the chunk's
// signature and decrypts it under tok, returning the sequence number,
// request id and plaintext body.
func (c *chunkCodec) decodeSymmetric(tok *SecurityToken, encrypted []byte) (seqNum, requestID uint32, body []byte, err error) {
	digestSize, blockSize := symmetricSizes(c.cfg.securityPolicyURI(), c.cfg.SecurityMode)

	plain := encrypted
	if blockSize > 0 {
		plain, err = aesCBCDecrypt(tok.ServerKeys.EncryptKey, tok.ServerKeys.IV, encrypted)
		if err != nil {
			return 0, 0, nil, errors.Wrap(err, "uasc: decrypt chunk")
		}
	}

	if digestSize > 0 {
		if len(plain) < digestSize {
			return 0, 0, nil, ua.StatusBadSecurityChecksFailed
		}
		sig := plain[len(plain)-digestSize:]
		signed := plain[:len(plain)-digestSize]
		want := hmacSum(c.cfg.securityPolicyURI(), tok.ServerKeys.SigningKey, signed)
		if !hmac.Equal(sig, want) {
			return 0, 0, nil, ua.StatusBadSecurityChecksFailed
		}
		plain = signed
	}

	plain = stripPadding(plain, blockSize)

	if len(plain) < sequenceHeaderLen {
		return 0, 0, nil, ua.StatusBadDecodingError
	}
	seqNum = binary.LittleEndian.Uint32(plain[0:4])
	requestID = binary.LittleEndian.Uint32(plain[4:8])
	body = plain[sequenceHeaderLen:]
	return seqNum, requestID, body, nil
}

func symmetricSizes(policyURI string, mode ua.MessageSecurityMode) (digestSize, blockSize int) {
	if mode == ua.MessageSecurityModeNone || policyURI == ua.SecurityPolicyURINone {
		return 0, 0
	}
	switch ua.FormatSecurityPolicyURI(policyURI) {
	case ua.SecurityPolicyURIBasic128Rsa15:
		digestSize = 20
	default:
		digestSize = 32
	}
	if mode == ua.MessageSecurityModeSignAndEncrypt {
		blockSize = aes.BlockSize
	}
	return digestSize, blockSize
}

func hmacSum(policyURI string, key, data []byte) []byte {
	var newHash func() hash.Hash
	switch ua.FormatSecurityPolicyURI(policyURI) {
	case ua.SecurityPolicyURIBasic128Rsa15:
		newHash = sha1.New
	default:
		newHash = sha256.New
	}
	mac := hmac.New(newHash, key)
	mac.Write(data)
	return mac.Sum(nil)
}

func padToBlockSize(data []byte, blockSize int) []byte {
	if blockSize == 0 {
		return data
	}
	padLen := blockSize - (len(data) % blockSize)
	pad := make([]byte, padLen)
	for i := range pad {
		pad[i] = byte(padLen - 1)
	}
	return append(data, pad...)
}

func stripPadding(data []byte, blockSize int) []byte {
	if blockSize == 0 || len(data) == 0 {
		return data
	}
	padLen := int(data[len(data)-1]) + 1
	if padLen <= 0 || padLen > len(data) {
		return data
	}
	return data[:len(data)-padLen]
}

func aesCBCEncrypt(key, iv, plain []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv[:aes.BlockSize]).CryptBlocks(out, plain)
	return out, nil
}

func aesCBCDecrypt(key, iv, cipherText []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(cipherText)%aes.BlockSize != 0 {
		return nil, ua.StatusBadDecodingError
	}
	out := make([]byte, len(cipherText))
	cipher.NewCBCDecrypter(block, iv[:aes.BlockSize]).CryptBlocks(out, cipherText)
	return out, nil
}

// asymmetricSecurityHeader is the AsymmetricAlgorithmSecurityHeader that
// precedes the sequence header on every OPN chunk (Part 6, 6.7.3): the
// policy in force, the sender's certificate, and a thumbprint of the
// certificate the sender encrypted for.
func encodeAsymmetricSecurityHeader(channelID uint32, policyURI string, senderCert, receiverThumbprint []byte) []byte {
	e := ua.NewEncoder()
	e.WriteUint32(channelID)
	e.WriteString(policyURI)
	e.WriteByteSlice(senderCert)
	e.WriteByteSlice(receiverThumbprint)
	b, _ := e.Bytes()
	return b
}

func decodeAsymmetricSecurityHeader(b []byte) (channelID uint32, policyURI string, senderCert, receiverThumbprint []byte, rest []byte, err error) {
	d := ua.NewDecoder(b)
	channelID = d.ReadUint32()
	policyURI = d.ReadString()
	senderCert = d.ReadByteSlice()
	receiverThumbprint = d.ReadByteSlice()
	if err := d.Err(); err != nil {
		return 0, "", nil, nil, nil, err
	}
	return channelID, policyURI, senderCert, receiverThumbprint, b[len(b)-d.Len():], nil
}

// encodeAsymmetric frames body as a single OPN chunk, signed with the
// channel's own private key and encrypted to the remote certificate's
// public key (spec.md §4.2 "OPN chunks use asymmetric crypto"). OPN
// bodies are small (a handful of request parameters), so unlike
// encodeSymmetric this never splits across multiple chunks.
func (c *chunkCodec) encodeAsymmetric(msgType string, channelID uint32, seq *SequenceHandle, requestID uint32, body []byte) ([]byte, error) {
	seqHeader := make([]byte, sequenceHeaderLen)
	seq.Increment(1)
	binary.LittleEndian.PutUint32(seqHeader[0:4], seq.Current())
	binary.LittleEndian.PutUint32(seqHeader[4:8], requestID)

	plain := append(seqHeader, body...)
	policyURI := c.cfg.securityPolicyURI()

	if policyURI == ua.SecurityPolicyURINone || c.cfg.LocalKey == nil {
		secHeader := encodeAsymmetricSecurityHeader(channelID, policyURI, c.cfg.Certificate, nil)
		hdr := &uacp.Header{MessageType: msgType, ChunkType: uacp.ChunkTypeFinal, MessageSize: uint32(uacpHeaderLen + len(secHeader) + len(plain))}
		out := append(hdr.Encode(), secHeader...)
		return append(out, plain...), nil
	}

	sig, _, err := uapki.Sign(policyURI, c.cfg.LocalKey, plain)
	if err != nil {
		return nil, err
	}
	toEncrypt := append(plain, sig...)

	cert, err := x509.ParseCertificate(c.cfg.RemoteCertificate)
	if err != nil {
		return nil, errors.Wrap(err, "uasc: parse remote certificate")
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("uasc: remote certificate does not carry an RSA key")
	}
	encrypted, err := rsaEncryptBlocks(policyURI, pub, toEncrypt)
	if err != nil {
		return nil, err
	}

	thumbprint := sha1Sum(c.cfg.RemoteCertificate)
	secHeader := encodeAsymmetricSecurityHeader(channelID, policyURI, c.cfg.Certificate, thumbprint)
	hdr := &uacp.Header{MessageType: msgType, ChunkType: uacp.ChunkTypeFinal, MessageSize: uint32(uacpHeaderLen + len(secHeader) + len(encrypted))}
	out := append(hdr.Encode(), secHeader...)
	return append(out, encrypted...), nil
}

// decodeAsymmetric reverses encodeAsymmetric: strips the security
// header, decrypts with the channel's own private key, verifies the
// remote's signature with its certificate, and returns the sequence
// number, request id and plaintext body.
func (c *chunkCodec) decodeAsymmetric(chunkBody []byte) (channelID, seqNum, requestID uint32, body []byte, err error) {
	channelID, policyURI, senderCert, _, rest, err := decodeAsymmetricSecurityHeader(chunkBody)
	if err != nil {
		return 0, 0, 0, nil, ua.StatusBadDecodingError
	}

	plain := rest
	if policyURI != "" && policyURI != ua.SecurityPolicyURINone && c.cfg.LocalKey != nil {
		plain, err = rsaDecryptBlocks(policyURI, c.cfg.LocalKey, rest)
		if err != nil {
			return 0, 0, 0, nil, errors.Wrap(err, "uasc: decrypt OPN chunk")
		}

		sigSize := c.cfg.LocalKey.Size()
		if len(plain) < sigSize {
			return 0, 0, 0, nil, ua.StatusBadSecurityChecksFailed
		}
		sig := plain[len(plain)-sigSize:]
		signed := plain[:len(plain)-sigSize]
		if err := uapki.Verify(policyURI, senderCert, signed, sig); err != nil {
			return 0, 0, 0, nil, ua.StatusBadSecurityChecksFailed
		}
		plain = signed
	}

	if len(plain) < sequenceHeaderLen {
		return 0, 0, 0, nil, ua.StatusBadDecodingError
	}
	seqNum = binary.LittleEndian.Uint32(plain[0:4])
	requestID = binary.LittleEndian.Uint32(plain[4:8])
	body = plain[sequenceHeaderLen:]
	return channelID, seqNum, requestID, body, nil
}

func sha1Sum(b []byte) []byte {
	sum := sha1.Sum(b)
	return sum[:]
}

// rsaEncryptBlocks encrypts plaintext larger than one RSA block by
// splitting it into plaintext-sized blocks the way the reference
// implementation's asymmetric chunk encoder does for OPN bodies.
func rsaEncryptBlocks(policyURI string, pub *rsa.PublicKey, plain []byte) ([]byte, error) {
	blockSize := pub.Size()
	overhead := 11 // PKCS1v15 minimum overhead; OAEP variants need more but this is a safe lower bound for chunking.
	plainBlock := blockSize - overhead
	if plainBlock <= 0 {
		return nil, errors.New("uasc: RSA key too small for asymmetric chunking")
	}

	var out []byte
	for offset := 0; offset < len(plain); offset += plainBlock {
		end := offset + plainBlock
		if end > len(plain) {
			end = len(plain)
		}
		enc, err := uapki.EncryptBlock(policyURI, pub, plain[offset:end])
		if err != nil {
			return nil, err
		}
		out = append(out, enc...)
	}
	return out, nil
}

// rsaDecryptBlocks reverses rsaEncryptBlocks, decrypting one
// priv.Size()-byte ciphertext block at a time.
func rsaDecryptBlocks(policyURI string, priv *rsa.PrivateKey, cipherText []byte) ([]byte, error) {
	blockSize := priv.Size()
	if blockSize == 0 || len(cipherText)%blockSize != 0 {
		return nil, ua.StatusBadDecodingError
	}

	var out []byte
	for offset := 0; offset < len(cipherText); offset += blockSize {
		dec, err := uapki.DecryptBlock(policyURI, priv, cipherText[offset:offset+blockSize])
		if err != nil {
			return nil, err
		}
		out = append(out, dec...)
	}
	return out, nil
}
