package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestAuthTokenCmd_Flags(t *testing.T) {
	cmd := newAuthTokenCmd()
	if cmd.Use != "token" {
		t.Errorf("Use = %q, want %q", cmd.Use, "token")
	}
	if cmd.Flags().Lookup("config") == nil {
		t.Error("expected --config flag")
	}
}

func TestPromptMaskedSecret_FallsBackToPlainReadWhenNotATerminal(t *testing.T) {
	cmd := newAuthTokenCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetIn(strings.NewReader("super-secret\n"))

	got, err := promptMaskedSecret(cmd, "CLIENT_SECRET")
	if err != nil {
		t.Fatalf("promptMaskedSecret: %v", err)
	}
	if got != "super-secret" {
		t.Errorf("got %q, want %q", got, "super-secret")
	}
	if !strings.Contains(out.String(), "CLIENT_SECRET:") {
		t.Errorf("expected prompt in output, got: %s", out.String())
	}
}

func TestRootCmd_HasAuthSubcommand(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("root --help failed: %v", err)
	}
	if !strings.Contains(buf.String(), "auth") {
		t.Error("root help should list 'auth' subcommand")
	}
}
