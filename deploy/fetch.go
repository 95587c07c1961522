package deploy

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sparkdeploy/spark/log"
	"github.com/sparkdeploy/spark/protocol"
)

// GithubForge is the sentinel forge value selecting GitHub's tarball API.
const GithubForge = "github"

const userAgent = "Spark-Deploy-Agent"

// downloadTimeout bounds the whole archive fetch.
const downloadTimeout = 5 * time.Minute

// ArchiveURL builds the download URL for a deploy request.
func ArchiveURL(msg *protocol.DeployRequest) string {
	if msg.Forge == GithubForge {
		return fmt.Sprintf("https://api.github.com/repos/%s/tarball/main", msg.Repo)
	}
	return fmt.Sprintf("%s/%s/archive", msg.Forge, msg.Repo)
}

// DownloadArchive fetches the repository archive, attaching bearer auth for
// GitHub personal tokens and basic auth for custom forges.
func DownloadArchive(msg *protocol.DeployRequest) ([]byte, error) {
	url := ArchiveURL(msg)
	log.LogAccess.Infof("downloading %s...", url)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	if msg.AuthUser != "" && msg.AuthPassword != "" {
		if msg.Forge == GithubForge {
			req.Header.Set("Authorization", "Bearer "+msg.AuthPassword)
		} else {
			req.SetBasicAuth(msg.AuthUser, msg.AuthPassword)
		}
	}

	client := &http.Client{Timeout: downloadTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	log.LogAccess.Infof("downloaded %d bytes", len(data))
	return data, nil
}
