package app

import (
	"bytes"
	"testing"
)

func TestNewRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand(&bytes.Buffer{})

	for _, name := range []string{"serve", "migrate", "prune", "healthcheck"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil {
			t.Fatalf("Find(%q): %v", name, err)
		}
		if cmd.Name() != name {
			t.Errorf("Find(%q) = %q", name, cmd.Name())
		}
	}
}

// サブコマンドなしの場合はルートコマンド自身がserveとして動作する
func TestNewRootCommand_DefaultsToServe(t *testing.T) {
	root := NewRootCommand(&bytes.Buffer{})

	cmd, _, err := root.Find([]string{})
	if err != nil {
		t.Fatalf("Find([]): %v", err)
	}
	if cmd != root || cmd.RunE == nil {
		t.Error("root command should run serve when no subcommand is given")
	}
}

func TestNewRootCommand_EnvFileFlag(t *testing.T) {
	root := NewRootCommand(&bytes.Buffer{})

	flag := root.PersistentFlags().Lookup("env-file")
	if flag == nil {
		t.Fatal("env-file flag is not defined")
	}
	if flag.DefValue != ".env" {
		t.Errorf("env-file default = %q, want .env", flag.DefValue)
	}
}

func TestHealthcheckPortDefault(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	root := NewRootCommand(&bytes.Buffer{})

	cmd, _, err := root.Find([]string{"healthcheck"})
	if err != nil {
		t.Fatal(err)
	}
	if got := cmd.Flags().Lookup("port").DefValue; got != "9090" {
		t.Errorf("port default = %q, want 9090", got)
	}
}
