package main

import (
	"bytes"
	"testing"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"serve", "lookup", "field", "migrate"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("expected subcommand %q, got %v (err %v)", name, cmd, err)
		}
	}
}

func TestRootCmd_ArgumentValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "lookup without number", args: []string{"lookup"}},
		{name: "lookup with extra args", args: []string{"lookup", "1", "2"}},
		{name: "field without field name", args: []string{"field", "79991234567"}},
		{name: "serve with args", args: []string{"serve", "now"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRootCmd()
			root.SetArgs(tt.args)
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})

			if err := root.Execute(); err == nil {
				t.Error("expected argument validation error")
			}
		})
	}
}

func TestFieldCmd_TranslitFlag(t *testing.T) {
	cmd := newFieldCmd()
	if flag := cmd.Flags().Lookup("translit"); flag == nil || flag.DefValue != "false" {
		t.Errorf("expected translit flag defaulting to false, got %+v", flag)
	}
}
