package buildconfig

import "errors"

var (
	// ErrInvalidPort indicates server.port is outside [0,65535]
	ErrInvalidPort = errors.New("invalid server port")
	// ErrEmptyEntryMap indicates build.rollupOptions.input has no entries
	ErrEmptyEntryMap = errors.New("empty entry map")
	// ErrUnresolvablePath indicates an entry path does not exist under the project root
	ErrUnresolvablePath = errors.New("unresolvable entry path")
	// ErrUnknownPlugin indicates a config file names a plugin that is not registered
	ErrUnknownPlugin = errors.New("unknown plugin")
	// ErrConfigNotFound indicates no config file exists in the project root
	ErrConfigNotFound = errors.New("config file not found")
)
