package app

import (
	"os"
	"path"
	"strings"
)

// EnvAppsDir overrides the application root directory.
const EnvAppsDir = "SPARK_APPS_DIR"

// AppsDir resolves the application root: $SPARK_APPS_DIR, else
// $HOME/.spark/apps, else /tmp/.spark/apps.
func AppsDir() string {
	if dir := os.Getenv(EnvAppsDir); dir != "" {
		return dir
	}
	home := os.Getenv("HOME")
	if home == "" {
		home = "/tmp"
	}
	return path.Join(home, ".spark", "apps")
}

// DirName converts a repository identifier into an application directory
// name: "owner/name" becomes "owner_name".
func DirName(repo string) string {
	return strings.ReplaceAll(repo, "/", "_")
}

// Dir returns the application directory for a repository identifier.
func Dir(repo string) string {
	return path.Join(AppsDir(), DirName(repo))
}

// DirFor returns the application directory for an already-resolved
// application name.
func DirFor(name string) string {
	return path.Join(AppsDir(), name)
}

// CurrentLink returns the path of the active-version symlink inside appDir.
func CurrentLink(appDir string) string {
	return path.Join(appDir, "current")
}

// VersionsDir returns the directory holding superseded deployments.
func VersionsDir(appDir string) string {
	return path.Join(appDir, "versions")
}

// ReplaceLink atomically re-points link at target, removing any previous
// link first.
func ReplaceLink(target, link string) error {
	if _, err := os.Lstat(link); err == nil {
		if err := os.Remove(link); err != nil {
			return err
		}
	}
	return os.Symlink(target, link)
}
