package protocol

import (
	"bytes"
	"encoding/binary"
	"net"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/skyezerfox/mcstatus/constants"
	"github.com/skyezerfox/mcstatus/models"
)

// maxDatagram is large enough for any UDP payload.
const maxDatagram = 1 << 16

// BedrockClient queries a Bedrock Edition server with a RakNet unconnected ping.
type BedrockClient struct {
	addr    models.ServerAddress
	timeout time.Duration
	guid    uint64 // client guid sent in the ping, no session is ever opened
	dial    dialFunc
}

// NewBedrockClient returns a client for addr. A non-positive timeout means constants.DefaultTimeout.
func NewBedrockClient(addr models.ServerAddress, timeout time.Duration) *BedrockClient {
	if timeout <= 0 {
		timeout = constants.DefaultTimeout
	}
	return &BedrockClient{
		addr:    addr,
		timeout: timeout,
		dial:    net.DialTimeout,
	}
}

// Address returns the queried server.
func (c *BedrockClient) Address() models.ServerAddress { return c.addr }

// QueryBedrock runs a single unconnected ping against addr.
func QueryBedrock(addr models.ServerAddress, timeout time.Duration) (*models.BedrockStatus, error) {
	return NewBedrockClient(addr, timeout).Query()
}

// Query sends one ping datagram and decodes the pong. The latency is the
// datagram round trip itself.
func (c *BedrockClient) Query() (*models.BedrockStatus, error) {
	target := c.addr.String()
	deadline := time.Now().Add(c.timeout)

	conn, err := c.dial("udp", target, c.timeout)
	if err != nil {
		return nil, classify("dial", target, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return nil, classify("dial", target, err)
	}

	start := time.Now()
	if _, err := conn.Write(buildUnconnectedPing(start, c.guid)); err != nil {
		return nil, classify("write", target, err)
	}

	buf := make([]byte, maxDatagram)
	n, err := conn.Read(buf)
	latency := time.Since(start)
	if err != nil {
		log.Debug().Str("addr", target).Err(err).Msg("No pong received")
		return nil, classify("read", target, err)
	}

	status, err := parseUnconnectedPong(buf[:n])
	if err != nil {
		return nil, classify("decode", target, err)
	}
	status.Address = c.addr
	status.Latency = latency

	log.Debug().Str("addr", target).Int("bytes", n).Dur("latency", latency).Msg("Pong received")
	return status, nil
}

// buildUnconnectedPing returns: id 0x01 | ping time (int64 ms) | magic | client guid.
func buildUnconnectedPing(now time.Time, guid uint64) []byte {
	buf := make([]byte, 1+8+16+8)
	buf[0] = constants.UnconnectedPing
	binary.BigEndian.PutUint64(buf[1:9], uint64(now.UnixNano()/int64(time.Millisecond)))
	copy(buf[9:25], constants.RaknetMagic[:])
	binary.BigEndian.PutUint64(buf[25:33], guid)
	return buf
}

// parseUnconnectedPong decodes: id 0x1c | server guid | magic | uint16 length | server id.
// Servers that echo the ping time before the guid are recognised by the magic position.
func parseUnconnectedPong(data []byte) (*models.BedrockStatus, error) {
	if len(data) == 0 {
		return nil, protocolErrorf("decode", "empty datagram")
	}
	if data[0] != constants.UnconnectedPong {
		return nil, protocolErrorf("decode", "unexpected packet id 0x%02x", data[0])
	}

	off := 1
	if len(data) >= 1+8+8+16+2 && bytes.Equal(data[17:33], constants.RaknetMagic[:]) {
		off += 8 // echoed ping time
	}
	if len(data) < off+8+16+2 {
		return nil, protocolErrorf("decode", "datagram too short (%d bytes)", len(data))
	}

	guid := binary.BigEndian.Uint64(data[off:])
	off += 8 + 16
	n := int(binary.BigEndian.Uint16(data[off:]))
	off += 2
	if len(data)-off < n {
		return nil, protocolErrorf("decode", "server id truncated: want %d bytes, have %d", n, len(data)-off)
	}
	serverID := data[off : off+n]
	if !utf8.Valid(serverID) {
		return nil, protocolErrorf("decode", "server id is not valid utf-8")
	}

	status, err := decodeAdvertisement(string(serverID))
	if err != nil {
		return nil, err
	}
	status.ServerGUID = guid
	return status, nil
}
