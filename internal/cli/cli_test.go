package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
)

// execute runs the root command with an isolated config directory and
// returns what it wrote to stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestSearchCommandFormats(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "lines",
			args: []string{"search", "path:3", "--max", "4", "--format", "lines", "--no-progress"},
			want: "(1,1,1)\n(1,2,1)\n",
		},
		{
			name: "count",
			args: []string{"search", "path:3", "--max", "4", "--format", "count", "--no-progress"},
			want: "2\n",
		},
		{
			name: "sequential",
			args: []string{"search", "path:3", "--max", "4", "-f", "lines", "--sequential", "--no-progress"},
			want: "(1,1,1)\n(1,2,1)\n",
		},
		{
			name: "inline executor",
			args: []string{"search", "path:3", "--max", "4", "-f", "lines", "-e", "inline", "--no-progress"},
			want: "(1,1,1)\n(1,2,1)\n",
		},
		{
			name: "retries",
			args: []string{"search", "path:3", "--max", "4", "-f", "count", "--retries", "2", "--no-progress"},
			want: "2\n",
		},
		{
			name: "empty graph",
			args: []string{"search", "empty:0", "-f", "lines", "--no-progress"},
			want: "()\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("search error = %v", err)
			}
			if stdout != tt.want {
				t.Errorf("stdout = %q, want %q", stdout, tt.want)
			}
		})
	}
}

func TestSearchCommandJSON(t *testing.T) {
	stdout, _, err := execute(t, "search", "path:3", "--min", "1", "--max", "4", "-f", "json", "--no-progress")
	if err != nil {
		t.Fatalf("search error = %v", err)
	}

	var got struct {
		Range struct {
			Min uint64 `json:"min"`
			Max uint64 `json:"max"`
		} `json:"range"`
		Solutions [][]uint64 `json:"solutions"`
		Stats     struct {
			Vertices   int    `json:"vertices"`
			Candidates uint64 `json:"candidates"`
		} `json:"stats"`
	}
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", stdout, err)
	}
	if got.Range.Min != 1 || got.Range.Max != 4 {
		t.Errorf("range = %+v, want 1..4", got.Range)
	}
	if len(got.Solutions) != 2 || got.Stats.Vertices != 3 {
		t.Errorf("solutions = %v, vertices = %d", got.Solutions, got.Stats.Vertices)
	}
}

func TestSearchCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code apperrors.Code
	}{
		{"inverted range", []string{"search", "path:3", "--min", "5", "--max", "2", "--no-progress"}, apperrors.ErrCodeInvalidRange},
		{"zero min", []string{"search", "path:3", "--min", "0", "--no-progress"}, apperrors.ErrCodeInvalidRange},
		{"bad format", []string{"search", "path:3", "-f", "xml"}, apperrors.ErrCodeInvalidInput},
		{"unknown executor", []string{"search", "path:3", "-e", "carrier-pigeon", "--no-progress"}, apperrors.ErrCodeInvalidInput},
		{"http without workers", []string{"search", "path:3", "-e", "http", "--no-progress"}, apperrors.ErrCodeInvalidConfig},
		{"missing graph", []string{"search", "no-such-file.json"}, apperrors.ErrCodeFileNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if !apperrors.Has(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestSearchCommandUsesConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[search]\nmax_weight = 4\nexecutor = \"inline\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := execute(t, "--config", path, "search", "path:3", "-f", "count", "--no-progress")
	if err != nil {
		t.Fatalf("search error = %v", err)
	}
	if stdout != "2\n" {
		t.Errorf("stdout = %q, want %q", stdout, "2\n")
	}
}

func TestCheckCommand(t *testing.T) {
	stdout, _, err := execute(t, "check", "path:3", "1,2,1")
	if err != nil {
		t.Fatalf("check error = %v", err)
	}
	if !strings.Contains(stdout, "arithmetic structure") {
		t.Errorf("stdout %q should report an arithmetic structure", stdout)
	}

	_, _, err = execute(t, "check", "path:3", "2,2,2")
	if !apperrors.Is(err, apperrors.ErrCodeInvalidWeights) {
		t.Errorf("check of non-coprime weights error = %v, want INVALID_WEIGHTS", err)
	}

	_, _, err = execute(t, "check", "path:3", "1,2")
	if err == nil {
		t.Error("check with too few weights should fail")
	}
	stdout, _, err = execute(t, "check", "empty:0", "()")
	if err != nil {
		t.Fatalf("check of the empty weighting error = %v", err)
	}
	if !strings.Contains(stdout, "smooth") {
		t.Errorf("stdout %q should report a smooth structure", stdout)
	}
}

func TestCheckCommandJSON(t *testing.T) {
	stdout, _, err := execute(t, "check", "path:3", "(1,2,1)", "--json")
	if err != nil {
		t.Fatalf("check error = %v", err)
	}
	var got checkReport
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", stdout, err)
	}
	if !got.Accepted || got.GCD != 1 {
		t.Errorf("report = %+v, want accepted with gcd 1", got)
	}
	if got.Smooth || len(got.Removable) != 1 || got.Removable[0] != "1" {
		t.Errorf("removable = %v, want [1]", got.Removable)
	}
}

func TestGraphCommand(t *testing.T) {
	stdout, _, err := execute(t, "graph", "path:3", "--format", "matrix")
	if err != nil {
		t.Fatalf("graph error = %v", err)
	}
	want := "0 1 0\n1 0 1\n0 1 0\n"
	if stdout != want {
		t.Errorf("matrix = %q, want %q", stdout, want)
	}

	out := filepath.Join(t.TempDir(), "cycle.yaml")
	if _, _, err := execute(t, "graph", "cycle:4", "-o", out); err != nil {
		t.Fatalf("graph -o error = %v", err)
	}
	stdout, _, err = execute(t, "search", out, "--max", "3", "-f", "lines", "--no-progress")
	if err != nil {
		t.Fatalf("search of written graph error = %v", err)
	}
	if !strings.HasPrefix(stdout, "(1,1,1,1)\n") {
		t.Errorf("stdout = %q, want it to start with (1,1,1,1)", stdout)
	}
}

func TestRenderCommandDOT(t *testing.T) {
	out := filepath.Join(t.TempDir(), "path.dot")
	_, stderr, err := execute(t, "render", "path:3", "--weights", "1,2,1", "-o", out)
	if err != nil {
		t.Fatalf("render error = %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "graph G {") {
		t.Errorf("output is not DOT: %q", data)
	}
	if !strings.Contains(stderr, out) {
		t.Errorf("stderr %q should name the output file", stderr)
	}
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	stdout, _, err := execute(t, "--config", path, "config", "path")
	if err != nil || stdout != path+"\n" {
		t.Fatalf("config path = %q, %v", stdout, err)
	}

	if _, _, err := execute(t, "--config", path, "config", "init"); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if _, _, err := execute(t, "--config", path, "config", "init"); err == nil {
		t.Error("second config init without --force should fail")
	}

	stdout, _, err = execute(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{"[search]", "max_weight = 10", "[redis]"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("config show output missing %q:\n%s", want, stdout)
		}
	}
}

func TestCompletionCommand(t *testing.T) {
	stdout, _, err := execute(t, "completion", "bash")
	if err != nil {
		t.Fatalf("completion error = %v", err)
	}
	if !strings.Contains(stdout, appName) {
		t.Error("bash completion should mention the program name")
	}
}
