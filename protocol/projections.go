package protocol

import "errors"

// The accessors below re-query the server on every call. An offline server
// yields the zero value and a nil error; protocol and transport errors are returned.

// ignoreOffline drops ErrOffline.
func ignoreOffline(err error) error {
	if errors.Is(err, ErrOffline) {
		return nil
	}
	return err
}

func (c *JavaClient) IsOnline() (bool, error) {
	_, err := c.Query()
	if err != nil {
		return false, ignoreOffline(err)
	}
	return true, nil
}

func (c *JavaClient) PlayerCount() (int32, error) {
	status, err := c.Query()
	if err != nil {
		return 0, ignoreOffline(err)
	}
	return status.PlayersOnline, nil
}

// PlayerNames returns the names of the player sample in server order.
func (c *JavaClient) PlayerNames() ([]string, error) {
	status, err := c.Query()
	if err != nil {
		return []string{}, ignoreOffline(err)
	}
	return status.PlayerNames(), nil
}

func (c *JavaClient) MOTD() (string, error) {
	status, err := c.Query()
	if err != nil {
		return "", ignoreOffline(err)
	}
	return status.MOTD, nil
}

func (c *JavaClient) Version() (string, error) {
	status, err := c.Query()
	if err != nil {
		return "", ignoreOffline(err)
	}
	return status.VersionName, nil
}

func (c *BedrockClient) IsOnline() (bool, error) {
	_, err := c.Query()
	if err != nil {
		return false, ignoreOffline(err)
	}
	return true, nil
}

func (c *BedrockClient) PlayerCount() (int32, error) {
	status, err := c.Query()
	if err != nil {
		return 0, ignoreOffline(err)
	}
	return status.PlayersOnline, nil
}

func (c *BedrockClient) MOTD() (string, error) {
	status, err := c.Query()
	if err != nil {
		return "", ignoreOffline(err)
	}
	return status.MOTD, nil
}

func (c *BedrockClient) Version() (string, error) {
	status, err := c.Query()
	if err != nil {
		return "", ignoreOffline(err)
	}
	return status.VersionName, nil
}
