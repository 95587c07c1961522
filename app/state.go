package app

import (
	"os"
	"path"

	toml "github.com/pelletier/go-toml/v2"
)

// StateFileName is the durable per-application record inside the
// application directory.
const StateFileName = "state.toml"

// application statuses
const (
	StatusRunning = "running"
	StatusStopped = "stopped"
	StatusFailed  = "failed"
)

// AppState is the durable record of one deployed application. Created or
// overwritten at the end of every successful deploy and by lifecycle
// commands.
type AppState struct {
	Name      string `toml:"name"`
	Version   string `toml:"version"`
	Status    string `toml:"status"`
	PID       int    `toml:"pid,omitempty"`
	Port      int    `toml:"port,omitempty"`
	HealthURL string `toml:"health_url,omitempty"`
	Isolation string `toml:"isolation,omitempty"`
}

// SaveAppState writes the state record into appDir.
func SaveAppState(appDir string, state *AppState) error {
	data, err := toml.Marshal(state)
	if err != nil {
		return err
	}
	return os.WriteFile(path.Join(appDir, StateFileName), data, 0644)
}

// LoadAppState reads the state record from appDir. A missing record yields
// (nil, nil) so callers can distinguish an unknown application.
func LoadAppState(appDir string) (*AppState, error) {
	data, err := os.ReadFile(path.Join(appDir, StateFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var state AppState
	if err := toml.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}
