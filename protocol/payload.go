package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/skyezerfox/mcstatus/models"
)

// statusPayload is the JSON document of a status response. Every field is
// optional: a missing value falls back to the defaults in toStatus.
type (
	statusPayload struct {
		Version     *payloadVersion `json:"version"`
		Players     *payloadPlayers `json:"players"`
		Description json.RawMessage `json:"description"`
		Favicon     *string         `json:"favicon"`
	}

	payloadVersion struct {
		Name     *string `json:"name"`
		Protocol *int32  `json:"protocol"`
	}

	payloadPlayers struct {
		Max    *int32          `json:"max"`
		Online *int32          `json:"online"`
		Sample []models.Sample `json:"sample"`
	}

	// chatComponent is the subset of a chat component needed to extract plain text.
	chatComponent struct {
		Text  string            `json:"text"`
		Extra []json.RawMessage `json:"extra"`
	}
)

const (
	defaultVersionName = "Unknown"
	defaultProtocol    = -1
)

// decodeStatus parses the status JSON into a fresh online record.
func decodeStatus(data []byte) (*models.ServerStatus, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, protocolErrorf("decode", "status payload is not a json object")
	}

	var p statusPayload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, &Error{Kind: KindProtocol, Op: "decode", Err: err}
	}

	motd, err := flattenDescription(p.Description)
	if err != nil {
		return nil, &Error{Kind: KindProtocol, Op: "decode", Err: fmt.Errorf("description: %w", err)}
	}

	status := &models.ServerStatus{
		Online:          true,
		VersionName:     defaultVersionName,
		ProtocolVersion: defaultProtocol,
		PlayerSample:    []models.Sample{},
		MOTD:            motd,
		Raw:             json.RawMessage(append([]byte(nil), trimmed...)),
	}
	if v := p.Version; v != nil {
		if v.Name != nil {
			status.VersionName = *v.Name
		}
		if v.Protocol != nil {
			status.ProtocolVersion = *v.Protocol
		}
	}
	if pl := p.Players; pl != nil {
		if pl.Online != nil {
			status.PlayersOnline = *pl.Online
		}
		if pl.Max != nil {
			status.PlayersMax = *pl.Max
		}
		if pl.Sample != nil {
			status.PlayerSample = pl.Sample
		}
	}
	if p.Favicon != nil {
		status.Favicon = *p.Favicon
	}
	return status, nil
}

// flattenDescription turns the description field into the MOTD string.
// Plain strings are kept verbatim, chat components are flattened and trimmed.
func flattenDescription(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		var b strings.Builder
		if err := appendComponent(&b, raw); err != nil {
			return "", err
		}
		return strings.TrimSpace(b.String()), nil
	default:
		return string(raw), nil
	}
}

// appendComponent writes the text of a component and its extra list, depth first.
func appendComponent(b *strings.Builder, raw json.RawMessage) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		b.WriteString(s)
	case '[':
		var parts []json.RawMessage
		if err := json.Unmarshal(raw, &parts); err != nil {
			return err
		}
		for _, part := range parts {
			if err := appendComponent(b, part); err != nil {
				return err
			}
		}
	case '{':
		var c chatComponent
		if err := json.Unmarshal(raw, &c); err != nil {
			return err
		}
		b.WriteString(c.Text)
		for _, extra := range c.Extra {
			if err := appendComponent(b, extra); err != nil {
				return err
			}
		}
	case 'n': // null
	default:
		b.Write(raw)
	}
	return nil
}
