//go:build integration

package itest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

const cliTimeout = 60 * time.Second

type robustCase struct {
	name            string
	args            func(t *testing.T, repoRoot string) []string
	env             map[string]string
	wantContains    []string
	wantNotContains []string
}

type cliRunResult struct {
	exitCode int
	output   string
}

// isolatedEnv keeps CLI runs away from the user's config and state. HOME is
// left alone so go run keeps its build cache.
func isolatedEnv(t *testing.T) map[string]string {
	t.Helper()
	root := t.TempDir()
	return map[string]string{
		"XDG_CONFIG_HOME":      filepath.Join(root, "cfg"),
		"REELFORGE_WORK_DIR":   filepath.Join(root, "work"),
		"REELFORGE_OUTPUT_DIR": filepath.Join(root, "videos"),
		"REELFORGE_STATE_DIR":  filepath.Join(root, "state"),
	}
}

func writeProject(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write project fixture: %v", err)
	}
	return path
}

func TestRobustness_ArgsValidation(t *testing.T) {
	repoRoot := mustRepoRoot(t)
	env := isolatedEnv(t)

	cases := []robustCase{
		{
			name:         "render without project",
			args:         staticArgs("render"),
			env:          env,
			wantContains: []string{"accepts 1 arg(s), received 0"},
		},
		{
			name:         "render too many args",
			args:         staticArgs("render", "a.yaml", "b.yaml"),
			env:          env,
			wantContains: []string{"accepts 1 arg(s), received 2"},
		},
		{
			name:         "unknown flag",
			args:         staticArgs("render", "a.yaml", "--wat"),
			env:          env,
			wantContains: []string{"unknown flag: --wat"},
		},
		{
			name:         "parallel non int",
			args:         staticArgs("render", "a.yaml", "--parallel", "nope"),
			env:          env,
			wantContains: []string{`invalid argument "nope" for "--parallel"`},
		},
		{
			name:         "captions without duration",
			args:         staticArgs("captions", "script.txt"),
			env:          env,
			wantContains: []string{`required flag(s) "duration" not set`},
		},
		{
			name:         "unknown command",
			args:         staticArgs("publish"),
			env:          env,
			wantContains: []string{`unknown command "publish"`},
		},
	}

	runRobustCases(t, repoRoot, cases)
}

func TestRobustness_InvalidProjects(t *testing.T) {
	requireTools(t, "ffmpeg", "ffprobe")
	repoRoot := mustRepoRoot(t)
	env := isolatedEnv(t)

	cases := []robustCase{
		{
			name:         "missing project file",
			args:         staticArgs("render", filepath.Join(repoRoot, "does-not-exist.yaml")),
			env:          env,
			wantContains: []string{"read project:"},
		},
		{
			name: "unknown project field",
			args: func(t *testing.T, _ string) []string {
				return []string{"render", writeProject(t, "clipz: [a.mp4]\n")}
			},
			env:          env,
			wantContains: []string{"field clipz not found"},
		},
		{
			name: "project without clips",
			args: func(t *testing.T, _ string) []string {
				return []string{"render", writeProject(t, "script: nothing to show\n")}
			},
			env:          env,
			wantContains: []string{"no input media"},
		},
		{
			name: "clip is not media",
			args: func(t *testing.T, _ string) []string {
				t.Helper()
				dir := t.TempDir()
				clip := filepath.Join(dir, "not-media.mp4")
				if err := os.WriteFile(clip, []byte("plain text"), 0o644); err != nil {
					t.Fatalf("write clip fixture: %v", err)
				}
				return []string{"render", writeProject(t, "clips: ["+clip+"]\n"), "--skip-check", "--out", filepath.Join(dir, "out.mp4")}
			},
			env:          env,
			wantContains: []string{"scale clip_00: transcode failure", "intermediate files kept in"},
		},
		{
			name: "out points into a file",
			args: func(t *testing.T, _ string) []string {
				t.Helper()
				dir := t.TempDir()
				outFile := filepath.Join(dir, "out-file")
				if err := os.WriteFile(outFile, []byte("x"), 0o644); err != nil {
					t.Fatalf("write out file fixture: %v", err)
				}
				return []string{"render", writeProject(t, "clips: [a.mp4]\n"), "--skip-check", "--out", filepath.Join(outFile, "final.mp4")}
			},
			env:          env,
			wantContains: []string{"not a directory"},
		},
	}

	runRobustCases(t, repoRoot, cases)
}

func TestRobustness_ConfigHardening(t *testing.T) {
	repoRoot := mustRepoRoot(t)

	cases := []robustCase{
		{
			name:         "explicit config missing",
			args:         staticArgs("check", "--config", "/nonexistent/reelforge.toml"),
			env:          isolatedEnv(t),
			wantContains: []string{"no such file or directory"},
		},
		{
			name: "unknown config key",
			args: func(t *testing.T, _ string) []string {
				t.Helper()
				path := filepath.Join(t.TempDir(), "reelforge.toml")
				if err := os.WriteFile(path, []byte("[video]\nwidht = 720\n"), 0o644); err != nil {
					t.Fatalf("write config fixture: %v", err)
				}
				return []string{"check", "--config", path}
			},
			env:          isolatedEnv(t),
			wantContains: []string{"parse config"},
		},
		{
			name: "bad log format from env",
			args: staticArgs("check"),
			env: mergeMaps(isolatedEnv(t), map[string]string{
				"REELFORGE_LOG_FORMAT": "xml",
			}),
			wantContains: []string{`logging.format: unsupported value "xml"`},
		},
		{
			name: "missing ffmpeg binary",
			args: staticArgs("check"),
			env: mergeMaps(isolatedEnv(t), map[string]string{
				"REELFORGE_FFMPEG": "ffmpeg-that-does-not-exist",
			}),
			wantContains: []string{"missing dependencies", `binary "ffmpeg-that-does-not-exist" not found`},
		},
	}

	runRobustCases(t, repoRoot, cases)
}

func mergeMaps(a, b map[string]string) map[string]string {
	out := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func runRobustCases(t *testing.T, repoRoot string, cases []robustCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := runCLI(t, repoRoot, tc.args(t, repoRoot), tc.env)
			if res.exitCode == 0 {
				t.Fatalf("expected non-zero exit code, got 0\noutput:\n%s", res.output)
			}
			for _, want := range tc.wantContains {
				if !strings.Contains(res.output, want) {
					t.Fatalf("expected output to contain %q\noutput:\n%s", want, res.output)
				}
			}
			for _, notWant := range tc.wantNotContains {
				if strings.Contains(res.output, notWant) {
					t.Fatalf("expected output to not contain %q\noutput:\n%s", notWant, res.output)
				}
			}
		})
	}
}

func runCLI(t *testing.T, repoRoot string, args []string, env map[string]string) cliRunResult {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	defer cancel()

	cmdArgs := append([]string{"run", "./cmd/reelforge"}, args...)
	cmd := exec.CommandContext(ctx, "go", cmdArgs...)
	cmd.Dir = repoRoot
	cmd.Env = mergeEnv(
		os.Environ(),
		map[string]string{
			"NO_COLOR": "1",
			"TERM":     "dumb",
		},
		env,
	)

	out, err := cmd.CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		t.Fatalf("command timed out after %s: go %s", cliTimeout, strings.Join(cmdArgs, " "))
	}

	res := cliRunResult{output: string(out)}
	if err == nil {
		res.exitCode = 0
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.exitCode = exitErr.ExitCode()
		return res
	}

	t.Fatalf("run command: %v\noutput:\n%s", err, string(out))
	return cliRunResult{}
}

func mergeEnv(base []string, overrides ...map[string]string) []string {
	env := make(map[string]string, len(base))
	for _, kv := range base {
		i := strings.IndexByte(kv, '=')
		if i <= 0 {
			continue
		}
		env[kv[:i]] = kv[i+1:]
	}

	for _, set := range overrides {
		for k, v := range set {
			env[k] = v
		}
	}

	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(out)
	return out
}

func mustRepoRoot(t *testing.T) string {
	t.Helper()

	repoRoot, err := findRepoRoot()
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}
	return repoRoot
}

func staticArgs(args ...string) func(t *testing.T, _ string) []string {
	clone := append([]string(nil), args...)
	return func(t *testing.T, _ string) []string {
		t.Helper()
		return append([]string(nil), clone...)
	}
}
