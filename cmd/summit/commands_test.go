package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "migrate", "respond"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Fatalf("subcommand %q not registered: %v", name, err)
		}
	}
}

func TestRespondRejectsBadThreadID(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"respond", "--thread", "not-a-uuid"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "invalid --thread") {
		t.Fatalf("expected invalid thread error, got %v", err)
	}
}

func TestRespondRequiresThreadFlag(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"respond"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected missing --thread to fail")
	}
}
