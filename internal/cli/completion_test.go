package cli

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

// run executes the root command with args and returns what it printed.
func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute(%v) = %v", args, err)
	}
	return out.String()
}

func TestCompletionScripts(t *testing.T) {
	for shell := range completionShells {
		t.Run(shell, func(t *testing.T) {
			if got := run(t, "completion", shell); !strings.Contains(got, appName) {
				t.Errorf("completion %s does not mention %s", shell, appName)
			}
		})
	}
	if err := execute(t, "completion", "tcsh"); err == nil {
		t.Error("completion tcsh = nil, want error")
	}
}

func TestAlgorithmFlagCompletion(t *testing.T) {
	got := run(t, "__complete", "layout", "--algorithm", "")
	for _, want := range []string{"forceatlas2", "circular", "noise", "none"} {
		if !strings.Contains(got, want+"\n") {
			t.Errorf("--algorithm completions = %q, missing %s", got, want)
		}
	}
}
