package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	mcnet "github.com/Tnze/go-mc/net"
	"github.com/rs/zerolog/log"
	"github.com/skyezerfox/mcstatus/constants"
	"github.com/skyezerfox/mcstatus/models"
)

type dialFunc func(network, address string, timeout time.Duration) (net.Conn, error)

// JavaClient queries a Java Edition server with the handshake/status protocol.
// A client holds no connection state and is safe for concurrent use.
type JavaClient struct {
	addr            models.ServerAddress
	timeout         time.Duration
	protocolVersion int32
	dial            dialFunc
}

// NewJavaClient returns a client for addr. A non-positive timeout means constants.DefaultTimeout.
func NewJavaClient(addr models.ServerAddress, timeout time.Duration) *JavaClient {
	if timeout <= 0 {
		timeout = constants.DefaultTimeout
	}
	return &JavaClient{
		addr:            addr,
		timeout:         timeout,
		protocolVersion: constants.JavaProtocol,
		dial:            net.DialTimeout,
	}
}

// WithProtocolVersion returns a copy of the client announcing v in the handshake.
func (c *JavaClient) WithProtocolVersion(v int32) *JavaClient {
	cc := *c
	cc.protocolVersion = v
	return &cc
}

// Address returns the queried server.
func (c *JavaClient) Address() models.ServerAddress { return c.addr }

// QueryJava runs a single status query against addr.
func QueryJava(addr models.ServerAddress, timeout time.Duration) (*models.ServerStatus, error) {
	return NewJavaClient(addr, timeout).Query()
}

// Query performs the status exchange on a fresh connection and then times a
// separate connect probe for the latency. The returned record is always online;
// every failure is an *Error.
func (c *JavaClient) Query() (*models.ServerStatus, error) {
	target := c.addr.String()

	payload, err := c.exchange(target)
	if err != nil {
		log.Debug().Str("addr", target).Err(err).Msg("Status query failed")
		return nil, err
	}

	status, err := decodeStatus(payload)
	if err != nil {
		return nil, classify("decode", target, err)
	}

	latency, err := c.probe(target)
	if err != nil {
		return nil, err
	}
	status.Address = c.addr
	status.Latency = latency

	log.Debug().Str("addr", target).Int("bytes", len(payload)).Dur("latency", latency).Msg("Status received")
	return status, nil
}

// exchange sends handshake and status request and returns the raw JSON payload.
func (c *JavaClient) exchange(target string) ([]byte, error) {
	deadline := time.Now().Add(c.timeout)

	conn, err := c.dial("tcp", target, c.timeout)
	if err != nil {
		return nil, classify("dial", target, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return nil, classify("dial", target, err)
	}

	mc := mcnet.WrapConn(conn)
	if err := mc.WritePacket(handshakePacket(c.addr.Host, c.addr.Port, c.protocolVersion)); err != nil {
		return nil, classify("handshake", target, err)
	}
	if err := mc.WritePacket(statusRequest); err != nil {
		return nil, classify("status request", target, err)
	}

	payload, err := readStatusResponse(bufio.NewReader(conn))
	if err != nil {
		return nil, classify("read", target, err)
	}
	return payload, nil
}

// probe times a connect-and-close round trip.
func (c *JavaClient) probe(target string) (time.Duration, error) {
	start := time.Now()
	conn, err := c.dial("tcp", target, c.timeout)
	if err != nil {
		return 0, classify("latency", target, err)
	}
	latency := time.Since(start)
	conn.Close()
	return latency, nil
}

// readStatusResponse reads one status response frame and returns its JSON string.
func readStatusResponse(r *bufio.Reader) ([]byte, error) {
	if _, err := r.Peek(1); err != nil {
		if err == io.EOF {
			return nil, &Error{Kind: KindOffline, Err: errors.New("connection closed before response")}
		}
		return nil, err
	}

	length, err := DecodeVarint(r)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, protocolErrorf("read", "empty response frame")
	}
	frame := &frameReader{r: r, remaining: length}

	id, err := DecodeVarint(frame)
	if err != nil {
		return nil, err
	}
	if id != 0x00 {
		return nil, protocolErrorf("read", "unexpected packet id 0x%02x", id)
	}

	n, err := DecodeVarint(frame)
	if err != nil {
		return nil, err
	}
	if n > frame.remaining {
		return nil, protocolErrorf("read", "string length %d exceeds frame (%d bytes left)", n, frame.remaining)
	}

	// the buffer grows with what actually arrives, not with the announced length
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, frame, int64(n)); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &Error{
				Kind: KindOffline,
				Err:  fmt.Errorf("connection closed after %d of %d payload bytes: %w", buf.Len(), n, io.ErrUnexpectedEOF),
			}
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

var errFrameExhausted = errors.New("read past the end of the frame")

// frameReader limits reads to the declared frame length.
type frameReader struct {
	r         *bufio.Reader
	remaining uint32
}

func (f *frameReader) ReadByte() (byte, error) {
	if f.remaining == 0 {
		return 0, &Error{Kind: KindProtocol, Op: "read", Err: errFrameExhausted}
	}
	b, err := f.r.ReadByte()
	if err == nil {
		f.remaining--
	}
	return b, err
}

func (f *frameReader) Read(p []byte) (int, error) {
	if f.remaining == 0 {
		return 0, io.EOF
	}
	if uint32(len(p)) > f.remaining {
		p = p[:f.remaining]
	}
	n, err := f.r.Read(p)
	f.remaining -= uint32(n)
	return n, err
}
