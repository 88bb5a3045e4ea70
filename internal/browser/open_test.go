package browser

import (
	"path/filepath"
	"testing"
)

func TestCommand(t *testing.T) {
	const url = "https://vigil.example/auth/cli/login?state=abc"
	tests := []struct {
		goos     string
		wantBin  string
		wantLast string
	}{
		{"darwin", "open", url},
		{"linux", "xdg-open", url},
		{"freebsd", "xdg-open", url},
		{"windows", "rundll32", url},
	}
	for _, tc := range tests {
		t.Run(tc.goos, func(t *testing.T) {
			cmd, err := command(tc.goos, url)
			if err != nil {
				t.Fatalf("command(%q): %v", tc.goos, err)
			}
			if got := filepath.Base(cmd.Args[0]); got != tc.wantBin {
				t.Errorf("binary = %q, want %q", got, tc.wantBin)
			}
			if got := cmd.Args[len(cmd.Args)-1]; got != tc.wantLast {
				t.Errorf("last arg = %q, want the URL", got)
			}
		})
	}
}

func TestCommandUnsupported(t *testing.T) {
	if _, err := command("plan9", "https://vigil.example"); err == nil {
		t.Error("expected an error for an unsupported OS")
	}
}
