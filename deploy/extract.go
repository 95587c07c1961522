package deploy

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/sparkdeploy/spark/app"
	"github.com/sparkdeploy/spark/log"
)

// SaveAndExtract writes the downloaded archive into the application
// directory, archives the previously active tree for rollback, unpacks the
// new tree and re-points the current symlink at it. Returns the application
// directory.
func SaveAndExtract(repo string, data []byte) (string, error) {
	appDir := app.Dir(repo)
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", err
	}

	// previous deployment becomes a rollback candidate
	currentLink := app.CurrentLink(appDir)
	if target, err := os.Readlink(currentLink); err == nil {
		if err := os.MkdirAll(app.VersionsDir(appDir), 0755); err != nil {
			return "", err
		}
		// timestamp names keep versions/ in chronological order; bump on
		// collision so two deploys within a second both keep their trees
		ts := time.Now().Unix()
		backupDir := path.Join(app.VersionsDir(appDir), fmt.Sprintf("%d", ts))
		for {
			if _, err := os.Lstat(backupDir); os.IsNotExist(err) {
				break
			}
			ts++
			backupDir = path.Join(app.VersionsDir(appDir), fmt.Sprintf("%d", ts))
		}
		if err := os.Rename(target, backupDir); err != nil {
			return "", err
		}
	}

	archivePath := path.Join(appDir, app.DirName(repo)+".tar.gz")
	if err := os.WriteFile(archivePath, data, 0644); err != nil {
		return "", err
	}

	treeDir, err := extractArchive(archivePath, appDir)
	if err != nil {
		return "", err
	}
	if err := os.Remove(archivePath); err != nil {
		return "", err
	}

	if err := app.ReplaceLink(treeDir, currentLink); err != nil {
		return "", err
	}

	log.LogAccess.Infof("saved to %s", appDir)
	return appDir, nil
}

// extractArchive unpacks a gzipped tarball into a fresh tree directory under
// appDir. Archives that wrap everything in a single top-level directory
// (GitHub tarballs do) are flattened so the manifest sits at the tree root.
func extractArchive(archivePath, appDir string) (string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", err
	}
	defer gz.Close()

	staging := path.Join(appDir, fmt.Sprintf(".extract-%d", time.Now().UnixNano()))
	if err := os.MkdirAll(staging, 0755); err != nil {
		return "", err
	}

	if err := unpackTar(tar.NewReader(gz), staging); err != nil {
		os.RemoveAll(staging)
		return "", err
	}

	root, err := treeRoot(staging)
	if err != nil {
		os.RemoveAll(staging)
		return "", err
	}

	treeDir := path.Join(appDir, fmt.Sprintf("tree-%d", time.Now().UnixNano()))
	if err := os.Rename(root, treeDir); err != nil {
		os.RemoveAll(staging)
		return "", err
	}
	if root != staging {
		os.RemoveAll(staging)
	}

	log.LogAccess.Infof("extracted to %s", treeDir)
	return treeDir, nil
}

func unpackTar(tr *tar.Reader, dest string) error {
	destReal, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return err
	}

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		name := filepath.Clean(hdr.Name)
		if name == "." || strings.HasPrefix(name, "..") {
			continue
		}
		target := filepath.Join(destReal, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			if _, err := resolveWithin(destReal, target); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			// re-resolve through any symlinks extracted so far; a link
			// inside the archive must not redirect this write outside it
			resolved, err := resolveWithin(destReal, target)
			if err != nil {
				return err
			}
			out, err := os.OpenFile(resolved, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(hdr.Mode)&0777)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		case tar.TypeSymlink:
			link := hdr.Linkname
			if !filepath.IsAbs(link) {
				link = filepath.Join(filepath.Dir(target), link)
			}
			if !within(destReal, filepath.Clean(link)) {
				return fmt.Errorf("symlink %s points outside the archive: %s", hdr.Name, hdr.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			resolved, err := resolveWithin(destReal, target)
			if err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, resolved); err != nil && !os.IsExist(err) {
				return err
			}
		}
	}
}

// resolveWithin resolves target's parent directory through any symlinks and
// verifies the result is still under root. Returns the resolved path.
func resolveWithin(root, target string) (string, error) {
	parent, err := filepath.EvalSymlinks(filepath.Dir(target))
	if err != nil {
		return "", err
	}
	resolved := filepath.Join(parent, filepath.Base(target))
	if !within(root, resolved) {
		return "", fmt.Errorf("entry %s escapes the archive root", filepath.Base(target))
	}
	return resolved, nil
}

func within(root, p string) bool {
	return p == root || strings.HasPrefix(p, root+string(os.PathSeparator))
}

// treeRoot flattens a single-directory wrapper when the manifest is not at
// the staging root.
func treeRoot(staging string) (string, error) {
	if _, err := os.Stat(path.Join(staging, app.ManifestFileName)); err == nil {
		return staging, nil
	}
	entries, err := os.ReadDir(staging)
	if err != nil {
		return "", err
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return path.Join(staging, entries[0].Name()), nil
	}
	return staging, nil
}
