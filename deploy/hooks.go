package deploy

import (
	"os/exec"

	"github.com/sparkdeploy/spark/app"
	"github.com/sparkdeploy/spark/log"
)

// RunPreDeployHooks executes the manifest pre-deploy hook. Best-effort:
// failures are logged and never abort the pipeline.
func RunPreDeployHooks(m *app.Manifest, treeDir string) {
	if m.Hooks == nil || m.Hooks.PreDeploy == "" {
		return
	}
	runHook("pre-deploy", m.Hooks.PreDeploy, treeDir)
}

// RunPostDeployHooks executes the manifest post-deploy hook, same
// semantics as the pre-deploy hook.
func RunPostDeployHooks(m *app.Manifest, treeDir string) {
	if m.Hooks == nil || m.Hooks.PostDeploy == "" {
		return
	}
	runHook("post-deploy", m.Hooks.PostDeploy, treeDir)
}

// Notify runs the manifest notify commands matching the deploy outcome,
// best-effort.
func Notify(m *app.Manifest, treeDir string, success bool) {
	if m.Notify == nil {
		return
	}
	cmds := m.Notify.OnSuccess
	if !success {
		cmds = m.Notify.OnFail
	}
	for _, c := range cmds {
		runHook("notify", c, treeDir)
	}
}

func runHook(kind, command, treeDir string) {
	log.LogAccess.Infof("running %s hook: %s", kind, command)
	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = treeDir
	if err := cmd.Run(); err != nil {
		log.LogError.Errorf("%s hook failed: %v", kind, err)
	}
}
