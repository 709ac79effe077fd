package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	mcnet "github.com/Tnze/go-mc/net"
	pk "github.com/Tnze/go-mc/net/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyezerfox/mcstatus/models"
)

const statusJSON = `{"version":{"name":"1.19.4","protocol":762},` +
	`"players":{"max":20,"online":1,"sample":[{"name":"Alice","id":"069a79f4-44e9-4726-a5be-fca90e38aaf5"}]},` +
	`"description":{"text":"Hello ","extra":[{"text":"world"}]}}`

type handshake struct {
	version int32
	host    string
	port    uint16
	state   int32
}

// startMCServer runs a go-mc based server on addr. Every connection that sends
// a handshake and a status request is passed to respond; connections that
// close right away (latency probes) are dropped.
func startMCServer(t *testing.T, addr string, handshakes chan<- handshake, respond func(conn *mcnet.Conn)) models.ServerAddress {
	t.Helper()

	l, err := mcnet.ListenMC(addr)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func(conn mcnet.Conn) {
				defer conn.Close()

				p, err := conn.ReadPacket()
				if err != nil {
					return
				}
				var (
					version pk.VarInt
					host    pk.String
					port    pk.UnsignedShort
					state   pk.VarInt
				)
				if err := p.Scan(&version, &host, &port, &state); err != nil {
					return
				}
				if handshakes != nil {
					select {
					case handshakes <- handshake{int32(version), string(host), uint16(port), int32(state)}:
					default:
					}
				}

				if _, err := conn.ReadPacket(); err != nil {
					return
				}
				respond(&conn)
			}(conn)
		}
	}()

	return mustAddress(t, addr)
}

func mustAddress(t *testing.T, addr string) models.ServerAddress {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return models.ServerAddress{Host: host, Port: uint16(p)}
}

// startRawServer runs handle for every accepted connection on a loopback port.
func startRawServer(t *testing.T, handle func(conn net.Conn)) models.ServerAddress {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				handle(conn)
			}()
		}
	}()

	return mustAddress(t, l.Addr().String())
}

// readRequest consumes the handshake and status request frames.
func readRequest(r *bufio.Reader) error {
	for i := 0; i < 2; i++ {
		n, err := DecodeVarint(r)
		if err != nil {
			return err
		}
		if _, err := io.CopyN(io.Discard, r, int64(n)); err != nil {
			return err
		}
	}
	return nil
}

func statusFrame(id int32, payload string) []byte {
	p := pk.Marshal(id, pk.String(payload))
	return p.Pack(uncompressed)
}

// rawFrame prefixes body with its length, for frames go-mc would not build.
func rawFrame(body []byte) []byte {
	return append(EncodeVarint(uint32(len(body))), body...)
}

func TestQueryJava(t *testing.T) {
	handshakes := make(chan handshake, 1)
	addr := startMCServer(t, "127.0.0.1:25581", handshakes, func(conn *mcnet.Conn) {
		conn.WritePacket(pk.Marshal(0x00, pk.String(statusJSON)))
	})

	status, err := QueryJava(addr, 2*time.Second)
	require.NoError(t, err)

	assert.True(t, status.Online)
	assert.Equal(t, addr, status.Address)
	assert.Equal(t, "1.19.4", status.VersionName)
	assert.Equal(t, int32(762), status.ProtocolVersion)
	assert.Equal(t, int32(1), status.PlayersOnline)
	assert.Equal(t, int32(20), status.PlayersMax)
	assert.Equal(t, []string{"Alice"}, status.PlayerNames())
	assert.Equal(t, "Hello world", status.MOTD)
	assert.Greater(t, int64(status.Latency), int64(0))
	assert.JSONEq(t, statusJSON, string(status.Raw))

	select {
	case hs := <-handshakes:
		assert.Equal(t, handshake{762, "127.0.0.1", 25581, 1}, hs)
	case <-time.After(time.Second):
		t.Fatal("server did not decode a handshake")
	}
}

func TestMCServerReleasesPort(t *testing.T) {
	for i := 0; i < 2; i++ {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			addr := startMCServer(t, "127.0.0.1:25584", nil, func(conn *mcnet.Conn) {
				conn.WritePacket(pk.Marshal(0x00, pk.String(statusJSON)))
			})
			_, err := QueryJava(addr, 2*time.Second)
			require.NoError(t, err)
		})
	}
}

func TestQueryJavaProtocolVersion(t *testing.T) {
	handshakes := make(chan handshake, 1)
	addr := startMCServer(t, "127.0.0.1:25582", handshakes, func(conn *mcnet.Conn) {
		conn.WritePacket(pk.Marshal(0x00, pk.String(`{}`)))
	})

	status, err := NewJavaClient(addr, 2*time.Second).WithProtocolVersion(47).Query()
	require.NoError(t, err)
	assert.Equal(t, "Unknown", status.VersionName)
	assert.Equal(t, int32(-1), status.ProtocolVersion)

	hs := <-handshakes
	assert.Equal(t, int32(47), hs.version)
}

func TestQueryJavaPacketIDMismatch(t *testing.T) {
	addr := startMCServer(t, "127.0.0.1:25583", nil, func(conn *mcnet.Conn) {
		conn.WritePacket(pk.Marshal(0x01, pk.Long(42)))
	})

	_, err := QueryJava(addr, 2*time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProtocol), "got %v", err)
	assert.False(t, errors.Is(err, ErrOffline))
	assert.Equal(t, KindProtocol, KindOf(err))
}

func TestQueryJavaInvalidJSON(t *testing.T) {
	addr := startRawServer(t, func(conn net.Conn) {
		if readRequest(bufio.NewReader(conn)) != nil {
			return
		}
		conn.Write(statusFrame(0x00, `{"version": oops}`))
	})

	_, err := QueryJava(addr, 2*time.Second)
	assert.True(t, errors.Is(err, ErrProtocol), "got %v", err)
}

func TestQueryJavaShortReads(t *testing.T) {
	frame := statusFrame(0x00, statusJSON)
	addr := startRawServer(t, func(conn net.Conn) {
		if readRequest(bufio.NewReader(conn)) != nil {
			return
		}
		for i := 0; i < len(frame); i += 7 {
			end := i + 7
			if end > len(frame) {
				end = len(frame)
			}
			if _, err := conn.Write(frame[i:end]); err != nil {
				return
			}
			time.Sleep(2 * time.Millisecond)
		}
	})

	status, err := QueryJava(addr, 3*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", status.MOTD)
	assert.Equal(t, []string{"Alice"}, status.PlayerNames())
}

func TestQueryJavaLargePayload(t *testing.T) {
	// a favicon pushes the string length varint past one byte
	favicon := "data:image/png;base64," + strings.Repeat("A", 20000)
	payload := fmt.Sprintf(`{"description":"big","favicon":%q}`, favicon)

	addr := startRawServer(t, func(conn net.Conn) {
		if readRequest(bufio.NewReader(conn)) != nil {
			return
		}
		conn.Write(statusFrame(0x00, payload))
	})

	status, err := QueryJava(addr, 3*time.Second)
	require.NoError(t, err)
	assert.Equal(t, favicon, status.Favicon)
	assert.Equal(t, "big", status.MOTD)
}

func TestQueryJavaClosedMidPayload(t *testing.T) {
	addr := startRawServer(t, func(conn net.Conn) {
		if readRequest(bufio.NewReader(conn)) != nil {
			return
		}
		body := AppendVarint(nil, 0x00)
		body = AppendVarint(body, 100)
		body = append(body, `{"descr`...)
		// frame announces the full string, only part of it is sent
		frame := AppendVarint(nil, uint32(1+1+100))
		conn.Write(append(frame, body...))
	})

	_, err := QueryJava(addr, 2*time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOffline), "got %v", err)
}

func TestQueryJavaStringExceedsFrame(t *testing.T) {
	addr := startRawServer(t, func(conn net.Conn) {
		if readRequest(bufio.NewReader(conn)) != nil {
			return
		}
		body := AppendVarint(nil, 0x00)
		body = AppendVarint(body, 500)
		body = append(body, `{}`...)
		conn.Write(rawFrame(body))
	})

	_, err := QueryJava(addr, 2*time.Second)
	assert.True(t, errors.Is(err, ErrProtocol), "got %v", err)
}

func TestQueryJavaClosedWithoutResponse(t *testing.T) {
	addr := startRawServer(t, func(conn net.Conn) {
		readRequest(bufio.NewReader(conn))
	})

	_, err := QueryJava(addr, 2*time.Second)
	assert.True(t, errors.Is(err, ErrOffline), "got %v", err)
}

func TestQueryJavaTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	addr := startRawServer(t, func(conn net.Conn) {
		<-release
	})

	timeout := 300 * time.Millisecond
	start := time.Now()
	_, err := QueryJava(addr, timeout)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOffline), "got %v", err)
	assert.GreaterOrEqual(t, int64(elapsed), int64(timeout-50*time.Millisecond))
	assert.Less(t, int64(elapsed), int64(timeout+time.Second))
}

func TestQueryJavaRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := mustAddress(t, l.Addr().String())
	l.Close()

	_, err = QueryJava(addr, time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOffline), "got %v", err)

	var qerr *Error
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, "dial", qerr.Op)
	assert.Equal(t, addr.String(), qerr.Addr)
}

// pipeDialer serves every dial from an in-memory pipe.
func pipeDialer(serve func(conn net.Conn)) dialFunc {
	return func(network, address string, timeout time.Duration) (net.Conn, error) {
		client, server := net.Pipe()
		go func() {
			defer server.Close()
			serve(server)
		}()
		return client, nil
	}
}

func TestJavaClientMockedTransport(t *testing.T) {
	c := NewJavaClient(models.ServerAddress{Host: "play.example.net", Port: 25565}, time.Second)
	c.dial = pipeDialer(func(conn net.Conn) {
		r := bufio.NewReader(conn)
		if readRequest(r) != nil {
			return // latency probe
		}
		conn.Write(statusFrame(0x00, statusJSON))
	})

	names, err := c.PlayerNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, names)

	count, err := c.PlayerCount()
	require.NoError(t, err)
	assert.Equal(t, int32(1), count)

	motd, err := c.MOTD()
	require.NoError(t, err)
	assert.Equal(t, "Hello world", motd)

	version, err := c.Version()
	require.NoError(t, err)
	assert.Equal(t, "1.19.4", version)

	online, err := c.IsOnline()
	require.NoError(t, err)
	assert.True(t, online)
}

func TestJavaProjectionsOffline(t *testing.T) {
	c := NewJavaClient(models.ServerAddress{Host: "offline.example.net", Port: 25565}, time.Second)
	c.dial = func(network, address string, timeout time.Duration) (net.Conn, error) {
		return nil, &net.OpError{Op: "dial", Net: network, Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
	}

	online, err := c.IsOnline()
	assert.NoError(t, err)
	assert.False(t, online)

	count, err := c.PlayerCount()
	assert.NoError(t, err)
	assert.Zero(t, count)

	names, err := c.PlayerNames()
	assert.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)

	motd, err := c.MOTD()
	assert.NoError(t, err)
	assert.Empty(t, motd)

	version, err := c.Version()
	assert.NoError(t, err)
	assert.Empty(t, version)
}

func TestJavaProjectionsKeepProtocolErrors(t *testing.T) {
	c := NewJavaClient(models.ServerAddress{Host: "broken.example.net", Port: 25565}, time.Second)
	c.dial = pipeDialer(func(conn net.Conn) {
		if readRequest(bufio.NewReader(conn)) != nil {
			return
		}
		conn.Write(statusFrame(0x05, "{}"))
	})

	online, err := c.IsOnline()
	assert.False(t, online)
	assert.True(t, errors.Is(err, ErrProtocol), "got %v", err)

	_, err = c.PlayerNames()
	assert.True(t, errors.Is(err, ErrProtocol), "got %v", err)
}
