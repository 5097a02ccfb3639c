package client

import (
	"fmt"
)

// New builds a download client of the configured type. The qbittorrent
// client takes its connection details from the runtime settings, deluge
// reads its own section from the config file.
func New(clientType string, host string, user string, password string) (Interface, error) {
	switch clientType {
	case "qbittorrent", "":
		return NewQBittorrent(host, user, password), nil
	case "deluge":
		return NewDeluge("deluge")
	default:
		return nil, fmt.Errorf("unsupported client type: %q", clientType)
	}
}
