package models

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

type (
	// ServerAddress identifies a server to query.
	ServerAddress struct {
		Host string `json:"host" yaml:"host"`
		Port uint16 `json:"port" yaml:"port"`
	}

	// ServerConfig is one monitored server as read from the configuration file.
	ServerConfig struct {
		Name        string `mapstructure:"-" json:"name" yaml:"name"`
		Host        string `mapstructure:"host" json:"host" yaml:"host"`
		Port        uint16 `mapstructure:"port" json:"port" yaml:"port"`
		Edition     string `mapstructure:"edition" json:"edition" yaml:"edition"`
		WatchPlayer string `mapstructure:"watch_player" json:"watch_player,omitempty" yaml:"watch_player,omitempty"`
	}
)

// Editions accepted in ServerConfig.Edition.
const (
	EditionJava    = "java"
	EditionBedrock = "bedrock"
)

func (a ServerAddress) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(int(a.Port)))
}

// ParseAddress splits "host[:port]", using defaultPort when the port is omitted.
func ParseAddress(s string, defaultPort uint16) (ServerAddress, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		// no port, or a bare IPv6 literal
		if s == "" {
			return ServerAddress{}, fmt.Errorf("empty server address")
		}
		if ip := net.ParseIP(s); ip != nil || !strings.Contains(s, ":") {
			return ServerAddress{Host: s, Port: defaultPort}, nil
		}
		return ServerAddress{}, fmt.Errorf("parse address %q: %w", s, err)
	}
	if host == "" {
		return ServerAddress{}, fmt.Errorf("parse address %q: missing host", s)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return ServerAddress{}, fmt.Errorf("parse address %q: invalid port: %w", s, err)
	}
	return ServerAddress{Host: host, Port: uint16(port)}, nil
}

// Address returns the address of the configured server.
func (c *ServerConfig) Address() ServerAddress {
	return ServerAddress{Host: c.Host, Port: c.Port}
}
