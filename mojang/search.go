package mojang

import (
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Lookup is the subset of Client used by SearchPlayer.
type Lookup interface {
	ResolveUUID(username string) (uuid.UUID, error)
	FetchProfile(id uuid.UUID) (*Profile, error)
	FetchNameHistory(id uuid.UUID) ([]NameChange, error)
}

// SearchResult gathers everything known about a username.
type SearchResult struct {
	Username    string       `json:"username" yaml:"username"`
	Found       bool         `json:"found" yaml:"found"`
	UUID        uuid.UUID    `json:"uuid" yaml:"uuid"`
	Profile     *Profile     `json:"profile,omitempty" yaml:"profile,omitempty"`
	NameHistory []NameChange `json:"name_history" yaml:"name_history"`
	SkinURL     string       `json:"skin_url,omitempty" yaml:"skin_url,omitempty"`
}

// SearchPlayer resolves username and collects its profile, skin and name history.
// An unknown username is not an error: the result has Found set to false.
// The name history endpoint has been retired upstream, so an API error there
// leaves NameHistory empty instead of failing the search.
func SearchPlayer(l Lookup, username string) (*SearchResult, error) {
	result := &SearchResult{
		Username:    username,
		NameHistory: []NameChange{},
	}

	id, err := l.ResolveUUID(username)
	if errors.Is(err, ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return result, err
	}
	result.Found = true
	result.UUID = id

	profile, err := l.FetchProfile(id)
	if err != nil {
		return result, err
	}
	result.Profile = profile
	if profile.Name != "" {
		result.Username = profile.Name
	}
	result.SkinURL, _ = DecodeSkinURL(profile)

	history, err := l.FetchNameHistory(id)
	var apiErr *APIError
	switch {
	case err == nil:
		result.NameHistory = history
	case errors.Is(err, ErrNotFound), errors.As(err, &apiErr):
		log.Debug().Err(err).Str("username", username).Msg("No name history")
	default:
		return result, err
	}
	return result, nil
}
