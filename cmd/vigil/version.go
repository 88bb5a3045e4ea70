package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const releasesURL = "https://api.github.com/repos/vigilclub/vigil/releases/latest"

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the vigil version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Println("vigil " + version)
		if !versionCheck {
			return nil
		}
		if version == "dev" {
			fmt.Println("dev build, skipping update check")
			return nil
		}
		latest, err := latestRelease(cmd.Context(), &http.Client{Timeout: 15 * time.Second}, releasesURL)
		if err != nil {
			return fmt.Errorf("check for updates: %w", err)
		}
		if isNewerVersion(latest, version) {
			fmt.Printf("%s is available: https://github.com/vigilclub/vigil/releases/latest\n", latest)
		} else {
			fmt.Println("up to date")
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "check GitHub for a newer release")
	rootCmd.AddCommand(versionCmd)
}

// latestRelease returns the tag of the newest published release.
func latestRelease(ctx context.Context, hc *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GitHub API returned %s", resp.Status)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("parse release: %w", err)
	}
	if release.TagName == "" {
		return "", fmt.Errorf("release has no tag")
	}
	return release.TagName, nil
}

// isNewerVersion returns true if latest is a newer semver than current.
func isNewerVersion(latest, current string) bool {
	parse := func(v string) [3]int {
		v = strings.TrimPrefix(v, "v")
		// Pre-release and build suffixes do not take part in the comparison.
		if i := strings.IndexAny(v, "-+"); i >= 0 {
			v = v[:i]
		}
		var out [3]int
		for i, p := range strings.SplitN(v, ".", 3) {
			n, _ := strconv.Atoi(p) //nolint:errcheck // zero-value on parse failure is desired
			out[i] = n
		}
		return out
	}
	l, c := parse(latest), parse(current)
	for i := range l {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return false
}
