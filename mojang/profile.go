package mojang

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

type (
	// Profile is a session server profile.
	Profile struct {
		ID         string     `json:"id" yaml:"id"`
		Name       string     `json:"name" yaml:"name"`
		Properties []Property `json:"properties" yaml:"properties"`

		// Textures is decoded from the "textures" property.
		Textures *Textures `json:"textures,omitempty" yaml:"textures,omitempty"`
	}

	Property struct {
		Name      string `json:"name" yaml:"name"`
		Value     string `json:"value" yaml:"value"`
		Signature string `json:"signature,omitempty" yaml:"signature,omitempty"`
	}

	Textures struct {
		Timestamp   int64                  `json:"timestamp" yaml:"timestamp"`
		ProfileID   string                 `json:"profileId" yaml:"profile_id"`
		ProfileName string                 `json:"profileName" yaml:"profile_name"`
		Textures    map[string]TextureInfo `json:"textures" yaml:"textures"`
	}

	TextureInfo struct {
		URL      string            `json:"url" yaml:"url"`
		Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	}

	// NameChange is one entry of a name history.
	NameChange struct {
		Name        string `json:"name" yaml:"name"`
		ChangedToAt int64  `json:"changedToAt,omitempty" yaml:"changed_to_at,omitempty"`
	}
)

type uuidResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ResolveUUID returns the account id of username.
func (c *Client) ResolveUUID(username string) (uuid.UUID, error) {
	var r uuidResponse
	if err := c.getJSON(join(c.APIURL, "users/profiles/minecraft", url.PathEscape(username)), &r); err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("bad uuid %q: %w", r.ID, err)
	}
	return id, nil
}

// FetchProfile returns the session profile of id with its textures decoded.
func (c *Client) FetchProfile(id uuid.UUID) (*Profile, error) {
	var p Profile
	if err := c.getJSON(join(c.SessionURL, "session/minecraft/profile", undashed(id)), &p); err != nil {
		return nil, err
	}
	for _, prop := range p.Properties {
		if prop.Name != "textures" {
			continue
		}
		t, err := decodeTextures(prop.Value)
		if err != nil {
			return nil, err
		}
		p.Textures = t
		break
	}
	return &p, nil
}

// Username returns the current name of the account id.
func (c *Client) Username(id uuid.UUID) (string, error) {
	p, err := c.FetchProfile(id)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

// FetchNameHistory returns the names used by id, oldest first.
func (c *Client) FetchNameHistory(id uuid.UUID) ([]NameChange, error) {
	var names []NameChange
	if err := c.getJSON(join(c.APIURL, "user/profiles", undashed(id), "names"), &names); err != nil {
		return nil, err
	}
	if names == nil {
		names = []NameChange{}
	}
	return names, nil
}

// DecodeSkinURL returns the skin texture url of p.
func DecodeSkinURL(p *Profile) (string, bool) {
	if p == nil || p.Textures == nil {
		return "", false
	}
	skin, ok := p.Textures.Textures["SKIN"]
	if !ok || skin.URL == "" {
		return "", false
	}
	return skin.URL, true
}

func decodeTextures(value string) (*Textures, error) {
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode textures: %w", err)
	}
	var t Textures
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode textures: %w", err)
	}
	return &t, nil
}

func undashed(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")
}
