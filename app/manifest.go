package app

import (
	"fmt"
	"os"
	"path"

	toml "github.com/pelletier/go-toml/v2"
)

// ManifestFileName is the configuration document at the root of every
// deployed tree.
const ManifestFileName = "spark.toml"

// Manifest describes how to build, run, publish and provision a deployed
// application. Only the app section is mandatory.
type Manifest struct {
	App            AppSection            `toml:"app"`
	Build          *BuildSection         `toml:"build"`
	Run            *RunSection           `toml:"run"`
	Env            map[string]string     `toml:"env"`
	Web            *WebSection           `toml:"web"`
	Health         *HealthSection        `toml:"health"`
	Isolation      *IsolationSection     `toml:"isolation"`
	Storage        *StorageSection       `toml:"storage"`
	Database       *DatabaseSection      `toml:"database"`
	Notify         *NotifySection        `toml:"notify"`
	Secrets        map[string]string     `toml:"secrets"`
	ResourceLimits *ResourceLimitsSection `toml:"resource_limits"`
	Hooks          *HooksSection         `toml:"hooks"`
	Metrics        *MetricsSection       `toml:"metrics"`
	Strategy       *StrategySection      `toml:"strategy"`
	AutoHealth     bool                  `toml:"auto_health"`
}

// AppSection is the mandatory identity section.
type AppSection struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// BuildSection declares the build command run before launch.
type BuildSection struct {
	Command string `toml:"command"`
}

// RunSection declares the background run command.
type RunSection struct {
	Command string `toml:"command"`
	Port    int    `toml:"port"`
}

// WebSection publishes a static tree through the gateway.
type WebSection struct {
	Domain string `toml:"domain"`
	Root   string `toml:"root"`
}

// HealthSection declares the post-deploy health probe.
type HealthSection struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"`
}

// IsolationSection selects the process confinement strategy.
type IsolationSection struct {
	Type string `toml:"type"`
}

// StorageSection declares external object storage. Passive; carried in the
// manifest for operators but not provisioned by the daemon.
type StorageSection struct {
	Type      string `toml:"type"`
	Bucket    string `toml:"bucket"`
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Size      string `toml:"size"`
	Mount     string `toml:"mount"`
	Public    bool   `toml:"public"`
}

// DatabaseSection declares a database dependency to provision.
type DatabaseSection struct {
	Type     string `toml:"type"`
	Name     string `toml:"name"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Port     int    `toml:"port"`
	Preseed  string `toml:"preseed"`
}

// NotifySection lists commands run after the pipeline finishes.
type NotifySection struct {
	OnSuccess []string `toml:"on_success"`
	OnFail    []string `toml:"on_fail"`
}

// ResourceLimitsSection declares resource limits. Passive.
type ResourceLimitsSection struct {
	Memory  string `toml:"memory"`
	CPU     string `toml:"cpu"`
	Timeout string `toml:"timeout"`
}

// HooksSection declares best-effort shell hooks around the deploy.
type HooksSection struct {
	PreDeploy  string `toml:"pre_deploy"`
	PostDeploy string `toml:"post_deploy"`
}

// MetricsSection declares a metrics sink. Passive.
type MetricsSection struct {
	Pushgateway string   `toml:"pushgateway"`
	Collect     []string `toml:"collect"`
}

// StrategySection declares a rollout strategy. Passive.
type StrategySection struct {
	Type     string `toml:"type"`
	Percent  int    `toml:"percent"`
	WaitTime string `toml:"wait_time"`
}

// LoadManifest reads and parses the manifest at the root of appDir.
func LoadManifest(appDir string) (*Manifest, error) {
	data, err := os.ReadFile(path.Join(appDir, ManifestFileName))
	if err != nil {
		return nil, fmt.Errorf("%s missing", ManifestFileName)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ManifestFileName, err)
	}
	return &m, nil
}

// AutoHealthURL synthesizes a health section when requested and the manifest
// declares none. Only possible with a declared run port; returns whether a
// section was added.
func (m *Manifest) AutoHealthURL(requested bool) bool {
	if m.Health != nil || !(requested || m.AutoHealth) {
		return false
	}
	if m.Run == nil || m.Run.Port == 0 {
		return false
	}
	m.Health = &HealthSection{
		URL:     fmt.Sprintf("http://localhost:%d", m.Run.Port),
		Timeout: 30,
	}
	return true
}
