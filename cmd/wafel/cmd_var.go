package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newVarCmd exposes the Pipeline's variable-level surface: the same
// catalog-backed operations the monitor's read/write/range commands and
// the script console's wafel.read/write wrap.
func newVarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "var",
		Short: "Read or write a catalog variable",
	}

	var frame uint32

	list := &cobra.Command{
		Use:   "list",
		Short: "List every variable the active catalog defines",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			for _, def := range a.pl.Variables() {
				fmt.Printf("%-20s %s\n", def.Name, def.Path)
			}
			return nil
		},
	}

	read := &cobra.Command{
		Use:   "read <name> --frame N",
		Args:  cobra.ExactArgs(1),
		Short: "Read a variable at a frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			v, err := a.pl.Read(frame, args[0])
			if err != nil {
				return err
			}
			fmt.Println(v.String())
			return nil
		},
	}
	read.Flags().Uint32Var(&frame, "frame", 0, "frame to read at")

	write := &cobra.Command{
		Use:   "write <name> <value> --frame N",
		Args:  cobra.ExactArgs(2),
		Short: "Write a variable at a frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			kind, err := a.pl.Kind(args[0])
			if err != nil {
				return err
			}
			v, err := parseScalar(args[1], kind)
			if err != nil {
				return fmt.Errorf("parsing value %q: %w", args[1], err)
			}
			return a.pl.Write(frame, args[0], v)
		},
	}
	write.Flags().Uint32Var(&frame, "frame", 0, "frame to write at")

	var lo, hi uint32
	setRange := &cobra.Command{
		Use:   "set-range <name> <value> --lo L --hi H",
		Args:  cobra.ExactArgs(2),
		Short: "Assign a value to every frame in [lo, hi) of a variable's column",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			kind, err := a.pl.Kind(args[0])
			if err != nil {
				return err
			}
			v, err := parseScalar(args[1], kind)
			if err != nil {
				return fmt.Errorf("parsing value %q: %w", args[1], err)
			}
			return a.pl.SetRange(args[0], lo, hi, v)
		},
	}
	setRange.Flags().Uint32Var(&lo, "lo", 0, "range start frame (inclusive)")
	setRange.Flags().Uint32Var(&hi, "hi", 0, "range end frame (exclusive)")

	cmd.AddCommand(list, read, write, setRange)
	return cmd
}
