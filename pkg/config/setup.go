package config

import (
	"os"
	"sync"

	"github.com/serum-errors/go-serum"

	"github.com/warptools/ledgerview/lvapi"
)

/*
	State is a snapshot of the process-wide values configuration depends on:
	env vars and directories.  These can change during runtime,
	so they are read once, and code that needs them takes a State instead of asking the os.
*/

type State struct {
	Env              map[string]string
	HomeDirectory    string
	WorkingDirectory string
}

var (
	globalm sync.RWMutex
	global  State
)

// ReloadGlobalState will fetch all values for internal state
// ReloadGlobalState will halt on the first error.
//
// Errors:
//
//   - ledgerview-error-initialization -- loading the value failed
func ReloadGlobalState() error {
	globalm.Lock()
	defer globalm.Unlock()
	global.Env = make(map[string]string, len(envKeys))
	for _, key := range envKeys {
		if v, ok := os.LookupEnv(key); ok {
			global.Env[key] = v
		}
	}
	for _, loadFunc := range []func() error{loadWd, loadUserHome} {
		if err := loadFunc(); err != nil {
			return err
		}
	}
	return nil
}

// NewState returns a copy of the global state.
// The returned state can be modified without affecting anything else.
func NewState() State {
	globalm.RLock()
	defer globalm.RUnlock()
	result := global
	result.Env = make(map[string]string, len(global.Env))
	for k, v := range global.Env {
		result.Env[k] = v
	}
	return result
}

// init will load all guarded values and will terminate execution if an error occurs.
func init() {
	if err := ReloadGlobalState(); err != nil {
		serr, ok := err.(serum.ErrorInterface)
		if !ok {
			serr = lvapi.ErrorUnknown("config initialization failed", err).(serum.ErrorInterface)
		}
		lvapi.TerminalError(serr, 10)
	}
}

// Errors:
//
//   - ledgerview-error-initialization -- when the working directory path cannot be found
func loadWd() error {
	cwd, err := os.Getwd()
	if err != nil {
		return serum.Error(lvapi.ECodeInitialization,
			serum.WithMessageLiteral("unable to get working directory"),
			serum.WithCause(err),
		)
	}
	global.WorkingDirectory = cwd
	return nil
}

// loadUserHome tolerates a missing home directory; nothing depends on it being set.
func loadUserHome() error {
	dir, err := os.UserHomeDir()
	if err == nil {
		global.HomeDirectory = dir
	}
	return nil
}
