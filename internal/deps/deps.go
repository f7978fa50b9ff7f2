// Package deps reports whether the external tools a render needs are present.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Requirement defines an external binary reelforge invokes.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements. Command holds the
// resolved path for available binaries.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch resolved, err := exec.LookPath(cmd); {
		case cmd == "":
			status.Detail = "command not configured"
		case err != nil:
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
		default:
			status.Command = resolved
			status.Available = true
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}

// MissingError summarizes Missing as an error, or nil when nothing is missing.
func MissingError(statuses []Status) error {
	missing := Missing(statuses)
	if len(missing) == 0 {
		return nil
	}
	parts := make([]string, len(missing))
	for i, s := range missing {
		parts[i] = fmt.Sprintf("%s (%s)", s.Name, s.Detail)
	}
	return fmt.Errorf("missing dependencies: %s", strings.Join(parts, ", "))
}

// ResolveEdgeTTS returns command when it resolves on PATH or as a file.
// Otherwise it searches the per-user script directories pip and pipx install
// into, and falls back to command unchanged.
func ResolveEdgeTTS(command string) string {
	command = strings.TrimSpace(command)
	if command == "" {
		command = "edge-tts"
	}
	if _, err := exec.LookPath(command); err == nil {
		return command
	}
	if strings.ContainsRune(command, os.PathSeparator) {
		return command
	}
	for _, dir := range userScriptDirs() {
		candidate := filepath.Join(dir, executableName(command))
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			return candidate
		}
	}
	return command
}

func userScriptDirs() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	dirs := []string{filepath.Join(home, ".local", "bin")}
	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			matches, _ := filepath.Glob(filepath.Join(local, "Programs", "Python", "*", "Scripts"))
			dirs = append(dirs, matches...)
		}
	}
	if runtime.GOOS == "darwin" {
		matches, _ := filepath.Glob(filepath.Join(home, "Library", "Python", "*", "bin"))
		dirs = append(dirs, matches...)
	}
	return dirs
}

func executableName(name string) string {
	if runtime.GOOS == "windows" && filepath.Ext(name) == "" {
		return name + ".exe"
	}
	return name
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
