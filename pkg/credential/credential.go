// Package credential discovers a GitHub API token from an ordered list
// of sources: an explicitly supplied token, well-known environment
// variables, the gh CLI, and finally the git credential store. The first
// non-empty token wins; helper failures are swallowed so that a missing
// gh binary never breaks resolution.
package credential

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/apex/log"
	"github.com/pkg/errors"
)

// EnvVars are the environment variables consulted, in priority order.
var EnvVars = []string{
	"HOMEBREW_GITHUB_API_TOKEN",
	"GITHUB_TOKEN",
	"GH_TOKEN",
}

// ErrNotFound indicates every credential source came up empty.
var ErrNotFound = errors.New("no GitHub credential found")

// Remediation is the guidance printed when resolution fails. It names
// concrete commands so the user can fix the situation directly.
const Remediation = "set HOMEBREW_GITHUB_API_TOKEN (or GITHUB_TOKEN), or run: gh auth login"

// Resolver resolves a credential from its configured sources. The zero
// value consults the process environment and the real gh/git binaries.
type Resolver struct {
	// Token is an explicitly supplied credential. When non-empty it
	// short-circuits every other source.
	Token string

	// LookupEnv overrides environment access. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// RunHelper overrides external helper invocation. It receives the
	// helper argv and returns trimmed stdout. Defaults to running the
	// command and swallowing lookup/exit failures.
	RunHelper func(name string, args ...string) (string, error)
}

// Resolve returns the first non-empty credential, or ErrNotFound.
func (r *Resolver) Resolve() (string, error) {
	if r.Token != "" {
		log.Debug("using explicitly supplied token")
		return r.Token, nil
	}

	lookup := r.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, name := range EnvVars {
		if v, ok := lookup(name); ok && v != "" {
			log.Debugf("using token from %s", name)
			return v, nil
		}
	}

	run := r.RunHelper
	if run == nil {
		run = runCommand
	}

	if token, err := run("gh", "auth", "token"); err == nil && token != "" {
		log.Debug("using token from gh auth token")
		return token, nil
	} else if err != nil {
		log.Debugf("gh auth token unavailable: %v", err)
	}

	if token, err := gitCredentialToken(run); err == nil && token != "" {
		log.Debug("using token from git credential store")
		return token, nil
	} else if err != nil {
		log.Debugf("git credential lookup unavailable: %v", err)
	}

	return "", ErrNotFound
}

// gitCredentialToken asks the git credential machinery for a stored
// github.com password. Best effort: any failure is reported back to the
// caller, who ignores it.
func gitCredentialToken(run func(string, ...string) (string, error)) (string, error) {
	out, err := run("git", "credential", "fill")
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(out, "\n") {
		if v, ok := strings.CutPrefix(line, "password="); ok {
			return strings.TrimSpace(v), nil
		}
	}
	return "", nil
}

func runCommand(name string, args ...string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", errors.Wrapf(err, "%s not found in PATH", name)
	}
	cmd := exec.Command(path, args...)
	if name == "git" && len(args) > 0 && args[0] == "credential" {
		cmd.Stdin = strings.NewReader("protocol=https\nhost=github.com\n\n")
		// Never fall through to an interactive prompt.
		cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_ASKPASS=true")
	}
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s exited with error: %w", name, err)
	}
	return strings.TrimSpace(string(out)), nil
}
