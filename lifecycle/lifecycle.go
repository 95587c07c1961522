// Package lifecycle implements the out-of-band operations on a deployed
// application's durable state: start, stop, restart and rollback.
package lifecycle

import (
	"errors"
	"os"
	"path"
	"sort"
	"syscall"

	"github.com/sparkdeploy/spark/app"
	"github.com/sparkdeploy/spark/log"
)

// errors surfaced to the caller
var (
	ErrUnknownApp = errors.New("app not found")
	ErrNoVersions = errors.New("no versions to roll back to")
)

// Start marks a stopped application running. No process is spawned; the
// record tracks operator intent between deploys.
func Start(name string) error {
	appDir := app.DirFor(name)
	state, err := loadState(appDir)
	if err != nil {
		return err
	}

	if state.Status == app.StatusRunning {
		log.LogAccess.Infof("%s already running", name)
		return nil
	}
	state.Status = app.StatusRunning
	if err := app.SaveAppState(appDir, state); err != nil {
		return err
	}
	log.LogAccess.Infof("started %s", name)
	return nil
}

// Stop signals the recorded process and marks the application stopped.
func Stop(name string) error {
	return signalAndPersist(name, app.StatusStopped)
}

// Restart signals the recorded process and marks the application running.
func Restart(name string) error {
	return signalAndPersist(name, app.StatusRunning)
}

func signalAndPersist(name, status string) error {
	appDir := app.DirFor(name)
	state, err := loadState(appDir)
	if err != nil {
		return err
	}

	if state.PID != 0 {
		if proc, err := os.FindProcess(state.PID); err == nil {
			if err := proc.Signal(syscall.SIGTERM); err != nil {
				log.LogError.Errorf("signal pid %d: %v", state.PID, err)
			}
		}
	}
	state.Status = status
	if err := app.SaveAppState(appDir, state); err != nil {
		return err
	}
	log.LogAccess.Infof("%s is now %s", name, status)
	return nil
}

// Rollback re-points the current symlink at the newest archived version.
// Version directories are named by unix timestamp, so lexicographic order
// is chronological.
func Rollback(name string) error {
	appDir := app.DirFor(name)
	if _, err := os.Stat(appDir); err != nil {
		return ErrUnknownApp
	}

	entries, err := os.ReadDir(app.VersionsDir(appDir))
	if err != nil {
		return ErrNoVersions
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	if len(versions) == 0 {
		return ErrNoVersions
	}
	sort.Strings(versions)
	latest := path.Join(app.VersionsDir(appDir), versions[len(versions)-1])

	if err := app.ReplaceLink(latest, app.CurrentLink(appDir)); err != nil {
		return err
	}
	log.LogAccess.Infof("rolled back %s to %s", name, versions[len(versions)-1])
	return nil
}

func loadState(appDir string) (*app.AppState, error) {
	state, err := app.LoadAppState(appDir)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrUnknownApp
	}
	return state, nil
}
