package protocol

import (
	pk "github.com/Tnze/go-mc/net/packet"
	"github.com/skyezerfox/mcstatus/constants"
)

// uncompressed disables the compression header when packing frames.
const uncompressed = 0

// statusRequest is the empty status request packet (id 0x00).
var statusRequest = pk.Marshal(0x00)

// handshakePacket announces the status state for host:port.
func handshakePacket(host string, port uint16, protocolVersion int32) pk.Packet {
	return pk.Marshal(
		0x00,
		pk.VarInt(protocolVersion),
		pk.String(host),
		pk.UnsignedShort(port),
		pk.VarInt(constants.Status),
	)
}

// BuildHandshake returns the framed handshake packet announcing the status
// state for host:port. The leading varint is the length of the rest of the frame.
func BuildHandshake(host string, port uint16, protocolVersion int32) []byte {
	p := handshakePacket(host, port, protocolVersion)
	return p.Pack(uncompressed)
}
