package constants

import "time"

const (
	JavaVersion  = "1.19.4"
	JavaProtocol = 762 // protocol number sent in the handshake

	DefaultJavaPort    = 25565
	DefaultBedrockPort = 19132
	DefaultTimeout     = 5 * time.Second
)

// Handshake next-state values.
const (
	Handshaking = 0
	Status      = 1
	Login       = 2
)

// RakNet offline message identifiers.
const (
	UnconnectedPing = 0x01
	UnconnectedPong = 0x1c
)

// RaknetMagic marks RakNet offline (unconnected) messages.
var RaknetMagic = [16]byte{
	0x00, 0xff, 0xff, 0x00, 0xfe, 0xfe, 0xfe, 0xfe,
	0xfd, 0xfd, 0xfd, 0xfd, 0x12, 0x34, 0x56, 0x78,
}
