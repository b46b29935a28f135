package main

import (
	"testing"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := rootCmd()
	for _, name := range []string{"up", "down", "status"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Fatalf("expected %q subcommand, got %v (err %v)", name, sub, err)
		}
	}
	if cmd.PersistentFlags().Lookup("database-url") == nil {
		t.Fatalf("expected --database-url flag")
	}
}

func TestUnreachableDatabaseFails(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	cmd := rootCmd()
	cmd.SetArgs([]string{"status"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error without a database URL")
	}
}
