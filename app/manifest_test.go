package app

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	err := os.WriteFile(path.Join(dir, ManifestFileName), []byte(content), 0644)
	require.NoError(t, err)
}

func TestLoadManifest(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	dir := t.TempDir()
	writeManifest(t, dir, `
[app]
name = "site"
version = "1.2.0"

[build]
command = "make dist"

[web]
domain = "mysite.local"
root = "dist"

[hooks]
pre_deploy = "echo pre"
post_deploy = "echo post"

[database]
type = "postgres"
name = "sitedb"
user = "site"
password = "secret"
port = 5433
preseed = "seed.sql"

[env]
NODE_ENV = "production"
`)

	m, err := LoadManifest(dir)
	require.NoError(err)
	assert.Equal("site", m.App.Name)
	assert.Equal("1.2.0", m.App.Version)
	assert.Equal("make dist", m.Build.Command)
	assert.Equal("mysite.local", m.Web.Domain)
	assert.Equal("dist", m.Web.Root)
	assert.Equal("echo pre", m.Hooks.PreDeploy)
	assert.Equal(DatabasePostgres, m.Database.Kind())
	assert.Equal("production", m.Env["NODE_ENV"])
	assert.Nil(m.Run)
	assert.Nil(m.Health)
}

func TestLoadManifestMissing(t *testing.T) {
	_, err := LoadManifest(t.TempDir())
	assert.Error(t, err)
}

func TestLoadManifestMalformed(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[app\nname =")
	_, err := LoadManifest(dir)
	assert.Error(t, err)
}

func TestLaunchPlan(t *testing.T) {
	assert := assert.New(t)

	m := &Manifest{Web: &WebSection{Domain: "a.local"}}
	assert.Equal(LaunchWeb, m.LaunchPlan())

	m = &Manifest{Run: &RunSection{Command: "./serve"}}
	assert.Equal(LaunchRun, m.LaunchPlan())

	// web wins when both are declared
	m = &Manifest{Web: &WebSection{Domain: "a.local"}, Run: &RunSection{Command: "./serve"}}
	assert.Equal(LaunchWeb, m.LaunchPlan())

	assert.Equal(LaunchNone, (&Manifest{}).LaunchPlan())
}

func TestIsolationPlan(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(IsolationNoneMode, (&Manifest{}).IsolationPlan())
	assert.Equal(IsolationSystemd, (&Manifest{Isolation: &IsolationSection{Type: "systemd"}}).IsolationPlan())
	assert.Equal(IsolationChroot, (&Manifest{Isolation: &IsolationSection{Type: "chroot"}}).IsolationPlan())
	assert.Equal(IsolationNoneMode, (&Manifest{Isolation: &IsolationSection{Type: "jail"}}).IsolationPlan())
}

func TestAutoHealthURL(t *testing.T) {
	assert := assert.New(t)

	m := &Manifest{Run: &RunSection{Command: "./serve", Port: 8080}}
	assert.True(m.AutoHealthURL(true))
	assert.Equal("http://localhost:8080", m.Health.URL)
	assert.Equal(30, m.Health.Timeout)

	// manifest-side flag works without the request flag
	m = &Manifest{Run: &RunSection{Command: "./serve", Port: 3000}, AutoHealth: true}
	assert.True(m.AutoHealthURL(false))
	assert.Equal("http://localhost:3000", m.Health.URL)

	// existing section is never replaced
	m = &Manifest{
		Run:    &RunSection{Command: "./serve", Port: 8080},
		Health: &HealthSection{URL: "http://localhost:9000/healthz"},
	}
	assert.False(m.AutoHealthURL(true))
	assert.Equal("http://localhost:9000/healthz", m.Health.URL)

	// no run port, nothing to point at
	m = &Manifest{Run: &RunSection{Command: "./serve"}}
	assert.False(m.AutoHealthURL(true))
	assert.Nil(m.Health)

	m = &Manifest{}
	assert.False(m.AutoHealthURL(true))
}

func TestAppStateRoundTrip(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	dir := t.TempDir()
	state := &AppState{
		Name:      "site",
		Version:   "1.2.0",
		Status:    StatusRunning,
		PID:       4242,
		Port:      8080,
		HealthURL: "http://localhost:8080",
		Isolation: "systemd",
	}
	require.NoError(SaveAppState(dir, state))

	got, err := LoadAppState(dir)
	require.NoError(err)
	assert.Equal(state, got)
}

func TestLoadAppStateUnknown(t *testing.T) {
	got, err := LoadAppState(t.TempDir())
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestDirName(t *testing.T) {
	assert.Equal(t, "acme_site", DirName("acme/site"))
}
