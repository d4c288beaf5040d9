package source

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dgallion1/contextcat/internal/config"
	"github.com/dgallion1/contextcat/internal/hostapi"
	"github.com/dgallion1/contextcat/internal/vault"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpen_LocalVault(t *testing.T) {
	dir := t.TempDir()
	src, err := Open(config.Config{VaultDir: dir}, discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()
	if _, ok := src.Vault.(*vault.FS); !ok {
		t.Errorf("expected local vault, got %T", src.Vault)
	}
	if src.Dir == "" {
		t.Error("expected local directory to be reported")
	}
}

func TestOpen_HostAPI(t *testing.T) {
	src, err := Open(config.Config{HostAPIURL: "http://localhost:27123", HostAPITimeout: time.Second}, discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()
	if _, ok := src.Vault.(*hostapi.Client); !ok {
		t.Errorf("expected host client, got %T", src.Vault)
	}
	if _, ok := src.Vault.(vault.ActiveLocator); !ok {
		t.Error("expected host client to locate the active document")
	}
	if src.Dir != "" {
		t.Errorf("expected no local directory, got %q", src.Dir)
	}
}

func TestOpen_Errors(t *testing.T) {
	if _, err := Open(config.Config{}, discard()); err == nil {
		t.Error("expected error without a source")
	}
	if _, err := Open(config.Config{VaultDir: "/definitely/not/here"}, discard()); err == nil {
		t.Error("expected error for missing directory")
	}
}
