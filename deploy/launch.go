package deploy

import (
	"os"
	"os/exec"
	"path"

	"github.com/sparkdeploy/spark/app"
	"github.com/sparkdeploy/spark/gateway"
	"github.com/sparkdeploy/spark/log"
)

// StartApplication launches the application per its manifest launch plan.
// Web publishing registers a gateway route and spawns nothing; run mode
// spawns the run command in the background and returns its pid; a manifest
// with neither is provisioned without a process.
func StartApplication(m *app.Manifest, treeDir string, routes *gateway.Routes) (int, error) {
	log.LogAccess.Infof("starting %s...", m.App.Name)

	switch m.LaunchPlan() {
	case app.LaunchWeb:
		root := m.Web.Root
		if root == "" {
			root = "."
		}
		rootPath := path.Join(treeDir, root)
		routes.RegisterStatic(m.Web.Domain, rootPath)
		log.LogAccess.Infof("registered static site %s -> %s", m.Web.Domain, rootPath)
		return 0, nil

	case app.LaunchRun:
		return spawnRun(m, treeDir)

	case app.LaunchNone:
		log.LogAccess.Warnf("no [web] or [run] section for %s", m.App.Name)
		return 0, nil
	}
	return 0, nil
}

func spawnRun(m *app.Manifest, treeDir string) (int, error) {
	log.LogAccess.Infof("executing: %s", m.Run.Command)

	var cmd *exec.Cmd
	switch m.IsolationPlan() {
	case app.IsolationSystemd:
		cmd = exec.Command("systemd-run", "--user", "--scope", "sh", "-c", m.Run.Command)
		cmd.Dir = treeDir
	case app.IsolationChroot:
		cmd = exec.Command("chroot", treeDir, "sh", "-c", m.Run.Command)
	case app.IsolationNoneMode:
		cmd = exec.Command("sh", "-c", m.Run.Command)
		cmd.Dir = treeDir
	}

	cmd.Env = os.Environ()
	for k, v := range m.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	// reap on exit so finished apps don't linger as zombies
	go func() {
		if err := cmd.Wait(); err != nil {
			log.LogError.Errorf("%s exited: %v", m.App.Name, err)
		}
	}()

	log.LogAccess.Infof("process started with PID %d", pid)
	return pid, nil
}

// RunBuild executes the manifest build command synchronously in the tree.
// A non-zero exit is fatal to the deploy session.
func RunBuild(m *app.Manifest, treeDir string) error {
	if m.Build == nil || m.Build.Command == "" {
		return nil
	}
	log.LogAccess.Infof("building: %s", m.Build.Command)

	cmd := exec.Command("sh", "-c", m.Build.Command)
	cmd.Dir = treeDir
	out, err := cmd.CombinedOutput()
	if len(out) > 0 {
		log.LogAccess.Debugf("build output:\n%s", out)
	}
	return err
}
