package deploy

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sparkdeploy/spark/app"
	"github.com/sparkdeploy/spark/log"
)

// health probe scheduling
const (
	healthProbeDelay     = 5 * time.Second
	defaultHealthTimeout = 10 * time.Second
)

// CheckHealth issues one GET against the health URL with a bounded timeout.
func CheckHealth(url string, timeout time.Duration) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

// StartHealthMonitor schedules a single delayed probe of the manifest
// health URL. One-shot: a failing app after this probe goes unnoticed until
// the next deploy.
func StartHealthMonitor(m *app.Manifest, appName string) {
	if m.Health == nil {
		return
	}
	url := m.Health.URL
	timeout := defaultHealthTimeout
	if m.Health.Timeout > 0 {
		timeout = time.Duration(m.Health.Timeout) * time.Second
	}
	go func() {
		time.Sleep(healthProbeDelay)
		if err := CheckHealth(url, timeout); err != nil {
			log.LogError.Errorf("health check failed for %s: %v", appName, err)
		} else {
			log.LogAccess.Infof("health check passed for %s", appName)
		}
	}()
}
