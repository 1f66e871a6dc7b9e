package gitsource

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/docsite/internal/playbook"
)

// AuthMethod returns the go-git transport auth for cfg, or nil when the
// source is anonymous.
func AuthMethod(cfg *playbook.AuthConfig) (transport.AuthMethod, error) {
	if cfg == nil {
		return nil, nil
	}
	switch cfg.Type {
	case "", playbook.AuthTypeNone:
		return nil, nil
	case playbook.AuthTypeToken:
		if cfg.Token == "" {
			return nil, fmt.Errorf("token authentication requires a token")
		}
		username := cfg.Username
		if username == "" {
			username = "token"
		}
		return &http.BasicAuth{Username: username, Password: cfg.Token}, nil
	case playbook.AuthTypeBasic:
		if cfg.Username == "" || cfg.Password == "" {
			return nil, fmt.Errorf("basic authentication requires username and password")
		}
		return &http.BasicAuth{Username: cfg.Username, Password: cfg.Password}, nil
	case playbook.AuthTypeSSH:
		if cfg.KeyPath == "" {
			return nil, fmt.Errorf("ssh authentication requires key_path")
		}
		keys, err := ssh.NewPublicKeysFromFile("git", cfg.KeyPath, cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("load ssh key: %w", err)
		}
		return keys, nil
	default:
		return nil, fmt.Errorf("unsupported auth type: %s", cfg.Type)
	}
}
