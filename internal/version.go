package internal

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var (
	CurrentVersion = "v0.1.0" // overwritten by ldflags during build
	GitHubAPI      = "https://api.github.com/repos/chukul/eventsctl/releases/latest"
	CheckInterval  = 24 * time.Hour

	versionCheckPath = filepath.Join(configDir, "version_check.json")
)

type GitHubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

type VersionCheck struct {
	LastChecked   time.Time `json:"last_checked"`
	LatestVersion string    `json:"latest_version"`
}

// CommitHash returns the VCS revision recorded at build time.
func CommitHash() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 7 {
				return s.Value[:7]
			}
			return s.Value
		}
	}
	return "unknown"
}

// CheckForUpdates reports a newer release on stderr at most once per
// CheckInterval. It never blocks the caller.
func CheckForUpdates() {
	if !shouldCheck() {
		return
	}

	go func() {
		latest, url, err := FetchLatestVersion(GitHubAPI)
		if err != nil {
			return
		}
		if IsNewer(latest, CurrentVersion) {
			fmt.Fprintf(os.Stderr, "\nUpdate available: %s -> %s\n", CurrentVersion, latest)
			fmt.Fprintf(os.Stderr, "   Download: %s\n\n", url)
		}
		saveLastCheck(latest)
	}()
}

func shouldCheck() bool {
	data, err := os.ReadFile(versionCheckPath)
	if err != nil {
		return true
	}
	var check VersionCheck
	if err := json.Unmarshal(data, &check); err != nil {
		return true
	}
	return time.Since(check.LastChecked) > CheckInterval
}

func FetchLatestVersion(endpoint string) (string, string, error) {
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(endpoint)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	var release GitHubRelease
	if err := json.Unmarshal(body, &release); err != nil {
		return "", "", err
	}
	return release.TagName, release.HTMLURL, nil
}

// IsNewer compares dotted numeric versions, ignoring a leading "v" and any
// pre-release suffix.
func IsNewer(latest, current string) bool {
	l, c := versionParts(latest), versionParts(current)
	for i := 0; i < len(l) || i < len(c); i++ {
		var a, b int
		if i < len(l) {
			a = l[i]
		}
		if i < len(c) {
			b = c[i]
		}
		if a != b {
			return a > b
		}
	}
	return false
}

func versionParts(v string) []int {
	v = strings.TrimPrefix(v, "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	var parts []int
	for _, p := range strings.Split(v, ".") {
		n, err := strconv.Atoi(p)
		if err != nil {
			break
		}
		parts = append(parts, n)
	}
	return parts
}

func saveLastCheck(version string) {
	check := VersionCheck{
		LastChecked:   time.Now(),
		LatestVersion: version,
	}
	data, err := json.Marshal(check)
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(versionCheckPath), 0700)
	_ = os.WriteFile(versionCheckPath, data, 0600)
}
