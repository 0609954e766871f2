// Package config loads the engine settings from a TOML file and exposes
// them through the domain.Settings interface.
package config

import (
	"errors"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"notewire/internal/domain"
)

const (
	// DefaultAutoLockMinutes is the inactivity window before auto-lock.
	DefaultAutoLockMinutes = 30
	// DefaultSubscriptionTimeoutMs bounds the end-of-stored-messages wait.
	DefaultSubscriptionTimeoutMs = 8000
)

// File is the on-disk settings format.
//
//	relays = ["wss://relay.example.com", "wss://other.example.net"]
//	auto_lock_minutes = 30
//	subscription_timeout_ms = 8000
type File struct {
	RelayURLs             []string `toml:"relays"`
	AutoLock              *uint    `toml:"auto_lock_minutes"`
	SubscriptionTimeoutMs *uint    `toml:"subscription_timeout_ms"`
}

// Settings is a loaded, default-filled configuration.
type Settings struct {
	relays     []string
	autoLock   uint
	subTimeout time.Duration
}

// Load reads path, filling defaults for anything unset. A missing file
// yields pure defaults.
func Load(path string) (*Settings, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return fromFile(f), nil
}

// Default returns the built-in settings with the given relay endpoints.
func Default(relays []string) *Settings {
	return fromFile(File{RelayURLs: relays})
}

func fromFile(f File) *Settings {
	s := &Settings{
		relays:     f.RelayURLs,
		autoLock:   DefaultAutoLockMinutes,
		subTimeout: DefaultSubscriptionTimeoutMs * time.Millisecond,
	}
	if f.AutoLock != nil {
		s.autoLock = *f.AutoLock
	}
	if f.SubscriptionTimeoutMs != nil {
		s.subTimeout = time.Duration(*f.SubscriptionTimeoutMs) * time.Millisecond
	}
	return s
}

func (s *Settings) Relays() []string { return s.relays }

func (s *Settings) AutoLockMinutes() uint { return s.autoLock }

func (s *Settings) SubscriptionTimeout() time.Duration { return s.subTimeout }

// Compile-time assertion that Settings implements domain.Settings.
var _ domain.Settings = (*Settings)(nil)
