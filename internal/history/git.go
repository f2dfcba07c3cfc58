package history

import (
	"bytes"
	"os/exec"
	"strings"
)

// CommitHash returns the short hash of HEAD for the checkout containing
// root, or "" when root is not inside a git repository.
func CommitHash(root string) string {
	cmd := exec.Command("git", "-C", root, "rev-parse", "--short=12", "HEAD")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return ""
	}
	return strings.TrimSpace(stdout.String())
}
