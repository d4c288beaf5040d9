// Package source opens the document store named by the configuration.
package source

import (
	"fmt"
	"log/slog"

	"github.com/dgallion1/contextcat/internal/config"
	"github.com/dgallion1/contextcat/internal/hostapi"
	"github.com/dgallion1/contextcat/internal/vault"
)

// Source is an opened document store.
type Source struct {
	Vault  vault.Vault
	Writer vault.Writer
	// Dir is the local vault root, empty for a remote host.
	Dir   string
	close func()
}

// Open connects to the local vault directory or the host API, whichever
// cfg names.
func Open(cfg config.Config, log *slog.Logger) (*Source, error) {
	switch {
	case cfg.VaultDir != "":
		v, err := vault.Open(cfg.VaultDir)
		if err != nil {
			return nil, err
		}
		log.Info("using local vault", "dir", v.Root())
		return &Source{Vault: v, Writer: v, Dir: v.Root()}, nil
	case cfg.HostAPIURL != "":
		c := hostapi.NewClient(cfg.HostAPIURL, cfg.HostAPIKey, cfg.HostAPITimeout, log)
		log.Info("using host api", "url", cfg.HostAPIURL)
		return &Source{Vault: c, Writer: c, close: c.Close}, nil
	default:
		return nil, fmt.Errorf("no document source configured")
	}
}

// Close releases the connection to the store.
func (s *Source) Close() {
	if s.close != nil {
		s.close()
	}
}
