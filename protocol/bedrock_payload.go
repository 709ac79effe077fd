package protocol

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/skyezerfox/mcstatus/models"
)

type bedrockPayload struct {
	Edition    *string         `json:"edition"`
	MOTD       *string         `json:"motd"`
	Protocol   *int32          `json:"protocol"`
	Version    *string         `json:"version"`
	MaxPlayers *int32          `json:"maxPlayers"`
	Players    *int32          `json:"players"`
	ServerID   json.RawMessage `json:"serverId"`
	Gamemode   *string         `json:"gamemode"`
	PortIPv4   *uint16         `json:"portIPv4"`
	PortIPv6   *uint16         `json:"portIPv6"`
}

const unknown = "Unknown"

// decodeAdvertisement interprets the server id string of a pong.
func decodeAdvertisement(s string) (*models.BedrockStatus, error) {
	first := s
	if i := strings.IndexByte(s, ';'); i >= 0 {
		first = s[:i]
	}

	switch strings.TrimSpace(first) {
	case "MCPE", "MCEE":
		return decodePositional(s)
	}
	return decodeJSONAdvertisement(first)
}

func decodeJSONAdvertisement(segment string) (*models.BedrockStatus, error) {
	trimmed := strings.TrimSpace(segment)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, protocolErrorf("decode", "server id segment is not a json object: %.32q", trimmed)
	}

	var p bedrockPayload
	if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
		return nil, &Error{Kind: KindProtocol, Op: "decode", Err: err}
	}

	status := &models.BedrockStatus{
		Online:   true,
		Edition:  unknown,
		Gamemode: unknown,
	}
	if p.Edition != nil {
		status.Edition = *p.Edition
	}
	if p.MOTD != nil {
		status.MOTD = *p.MOTD
	}
	if p.Protocol != nil {
		status.ProtocolVersion = *p.Protocol
	}
	if p.Version != nil {
		status.VersionName = *p.Version
	}
	if p.MaxPlayers != nil {
		status.PlayersMax = *p.MaxPlayers
	}
	if p.Players != nil {
		status.PlayersOnline = *p.Players
	}
	if p.Gamemode != nil {
		status.Gamemode = *p.Gamemode
	}
	if p.PortIPv4 != nil {
		status.PortIPv4 = *p.PortIPv4
	}
	if p.PortIPv6 != nil {
		status.PortIPv6 = *p.PortIPv6
	}
	status.ServerID = rawText(p.ServerID)
	return status, nil
}

// rawText renders a json string unquoted and anything else as written.
func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}

// Positional advertisement fields.
const (
	fieldEdition = iota
	fieldMOTD
	fieldProtocol
	fieldVersion
	fieldPlayers
	fieldMaxPlayers
	fieldServerID
	fieldLevelName
	fieldGamemode
	fieldGamemodeID
	fieldPortIPv4
	fieldPortIPv6
)

// decodePositional parses "MCPE;motd;protocol;version;players;max;id;level;mode;modeId;port4;port6;".
func decodePositional(s string) (*models.BedrockStatus, error) {
	fields := splitAdvertisement(s)
	get := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	status := &models.BedrockStatus{
		Online:      true,
		Edition:     get(fieldEdition),
		MOTD:        get(fieldMOTD),
		VersionName: get(fieldVersion),
		ServerID:    get(fieldServerID),
		LevelName:   get(fieldLevelName),
		Gamemode:    get(fieldGamemode),
	}
	if status.Gamemode == "" {
		status.Gamemode = unknown
	}

	var err error
	if status.ProtocolVersion, err = parseInt32(get(fieldProtocol), "protocol"); err != nil {
		return nil, err
	}
	if status.PlayersOnline, err = parseInt32(get(fieldPlayers), "players"); err != nil {
		return nil, err
	}
	if status.PlayersMax, err = parseInt32(get(fieldMaxPlayers), "max players"); err != nil {
		return nil, err
	}
	if status.PortIPv4, err = parsePort(get(fieldPortIPv4), "ipv4 port"); err != nil {
		return nil, err
	}
	if status.PortIPv6, err = parsePort(get(fieldPortIPv6), "ipv6 port"); err != nil {
		return nil, err
	}
	return status, nil
}

// splitAdvertisement splits on ';' honouring backslash escapes.
func splitAdvertisement(s string) []string {
	var (
		tokens   []string
		cur      strings.Builder
		inEscape bool
	)
	for _, r := range s {
		switch {
		case inEscape:
			inEscape = false
			cur.WriteRune(r)
		case r == '\\':
			inEscape = true
		case r == ';':
			tokens = append(tokens, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(tokens, cur.String())
}

func parseInt32(s, name string) (int32, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, protocolErrorf("decode", "invalid %s %q", name, s)
	}
	return int32(v), nil
}

func parsePort(s, name string) (uint16, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, protocolErrorf("decode", "invalid %s %q", name, s)
	}
	return uint16(v), nil
}
