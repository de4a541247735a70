package main

import (
	"github.com/spf13/cobra"

	"github.com/branpk/wafel-sub001/internal/monitor"
)

func newPlayCmd() *cobra.Command {
	var useClipboard bool

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Start the interactive frame-scrubbing monitor REPL",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}

			var clip monitor.Clipboard
			if useClipboard {
				clip, err = newSystemClipboard()
				if err != nil {
					return err
				}
			}

			m := monitor.New(a.pl, clip)
			return monitor.RunInteractive(m)
		},
	}

	cmd.Flags().BoolVar(&useClipboard, "clipboard", false, "wire the monitor's yank command to the system clipboard")
	return cmd
}
