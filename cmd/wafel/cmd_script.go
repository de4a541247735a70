package main

import (
	"github.com/spf13/cobra"

	"github.com/branpk/wafel-sub001/internal/script"
)

// newScriptCmd runs a Lua script against the wired-up Pipeline, the
// same wafel table internal/script registers for an embedded caller.
func newScriptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "script <file.lua>",
		Args:  cobra.ExactArgs(1),
		Short: "Run a Lua script against the editor core",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			e := script.New(a.pl)
			defer e.Close()
			return e.DoFile(args[0])
		},
	}
}
