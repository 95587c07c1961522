// Package deploy implements the daemon's per-connection deploy pipeline:
// fetch, version, extract, configure, build, launch, provision, persist,
// monitor. Failures up to launch abort the session with a framed error
// response; everything after launch degrades gracefully.
package deploy

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/sparkdeploy/spark/app"
	"github.com/sparkdeploy/spark/gateway"
	"github.com/sparkdeploy/spark/log"
	"github.com/sparkdeploy/spark/protocol"
	"github.com/sparkdeploy/spark/provision"
)

// error responses sent to the client when a fatal pipeline stage fails
const (
	respDownloadFailed = "Download failed"
	respSaveFailed     = "Save failed"
	respConfigFailed   = "Config load failed"
	respBuildFailed    = "Build failed"
	respStartFailed    = "Start failed"
)

// appLocks serializes deploy sessions per application so two concurrent
// deploys of the same repository cannot race on the current symlink swap.
var appLocks sync.Map

func lockApp(name string) func() {
	v, _ := appLocks.LoadOrStore(name, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Session is one deploy request handled end to end over one connection.
type Session struct {
	id     string
	routes *gateway.Routes
}

// NewSession creates a session bound to the shared gateway routing table.
func NewSession(routes *gateway.Routes) *Session {
	return &Session{
		id:     uuid.NewString(),
		routes: routes,
	}
}

// Handle consumes one framed deploy request from conn, runs the pipeline
// and writes one framed response. It never panics the daemon; every failure
// either answers the client or, for protocol errors, closes silently.
func (s *Session) Handle(conn io.ReadWriter) {
	access := log.LogAccess.WithField("session", s.id)
	errlog := log.LogError.WithField("session", s.id)

	msg, err := protocol.ReadDeployRequest(conn)
	if err != nil {
		errlog.Errorf("failed to read message: %v", err)
		return
	}

	access.Infof("deploying %s", msg.Repo)

	unlock := lockApp(app.DirName(msg.Repo))
	defer unlock()

	data, err := DownloadArchive(msg)
	if err != nil {
		errlog.Errorf("download failed: %v", err)
		s.fail(conn, respDownloadFailed)
		return
	}

	appDir, err := SaveAndExtract(msg.Repo, data)
	if err != nil {
		errlog.Errorf("save failed: %v", err)
		s.fail(conn, respSaveFailed)
		return
	}
	treeDir := app.CurrentLink(appDir)

	m, err := app.LoadManifest(treeDir)
	if err != nil {
		errlog.Errorf("config load failed: %v", err)
		s.fail(conn, respConfigFailed)
		return
	}

	if m.AutoHealthURL(msg.AutoHealth) {
		access.Infof("auto-added health check for port %d", m.Run.Port)
	}

	RunPreDeployHooks(m, treeDir)

	if err := RunBuild(m, treeDir); err != nil {
		errlog.Errorf("build failed: %v", err)
		Notify(m, treeDir, false)
		s.fail(conn, respBuildFailed)
		return
	}

	pid, err := StartApplication(m, treeDir, s.routes)
	if err != nil {
		errlog.Errorf("start failed: %v", err)
		Notify(m, treeDir, false)
		s.fail(conn, respStartFailed)
		return
	}

	if m.Database != nil {
		if err := provision.Setup(context.Background(), m.Database, treeDir); err != nil {
			errlog.Errorf("database setup failed: %v", err)
		}
	}

	state := &app.AppState{
		Name:    m.App.Name,
		Version: m.App.Version,
		Status:  app.StatusRunning,
		PID:     pid,
	}
	if m.Run != nil {
		state.Port = m.Run.Port
	}
	if m.Health != nil {
		state.HealthURL = m.Health.URL
	}
	if m.Isolation != nil {
		state.Isolation = m.Isolation.Type
	}
	if err := app.SaveAppState(appDir, state); err != nil {
		errlog.Errorf("failed to save state: %v", err)
	}

	StartHealthMonitor(m, m.App.Name)

	RunPostDeployHooks(m, treeDir)
	Notify(m, treeDir, true)

	response := "Deployed to " + appDir
	access.Info(response)
	if err := protocol.SendResult(conn, protocol.Result{OK: true, Message: response}); err != nil {
		errlog.Errorf("failed to send response: %v", err)
	}
}

func (s *Session) fail(conn io.Writer, message string) {
	if err := protocol.SendResult(conn, protocol.Result{OK: false, Message: message}); err != nil {
		log.LogError.Errorf("failed to send error response: %v", err)
	}
}
