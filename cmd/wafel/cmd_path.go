package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/branpk/wafel-sub001/internal/datapath"
	"github.com/branpk/wafel-sub001/internal/datatype"
)

// newPathCmd exposes raw data-path evaluation directly against the
// Timeline, bypassing the Pipeline's variable catalog — the "eval a
// gMario->area?->camera.pos[1] & FLAG expression" entry point the
// monitor and script console build their own variable-level operations
// on top of.
func newPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Evaluate a raw data-path expression against a frame",
	}

	var frame uint32

	read := &cobra.Command{
		Use:   "read <path> --frame N",
		Short: "Read the value a data path resolves to at a frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			p, err := datapath.Compile(args[0], a.layout)
			if err != nil {
				return err
			}
			v, err := a.tl.Read(frame, p)
			if err != nil {
				return err
			}
			fmt.Println(v.String())
			return nil
		},
	}
	read.Flags().Uint32Var(&frame, "frame", 0, "frame to read at")

	write := &cobra.Command{
		Use:   "write <path> <value> --frame N",
		Short: "Write a value through a data path at a frame",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			p, err := datapath.Compile(args[0], a.layout)
			if err != nil {
				return err
			}
			v, err := parseScalar(args[1], valueKindOf(p.ConcreteType))
			if err != nil {
				return fmt.Errorf("parsing value %q: %w", args[1], err)
			}
			a.tl.Write(frame, p, v)
			return nil
		},
	}
	write.Flags().Uint32Var(&frame, "frame", 0, "frame to write at")

	cmd.AddCommand(read, write)
	return cmd
}

// valueKindOf reports the datatype.ValueKind a caller must build to
// write through a path whose concrete type is t, mirroring
// pipeline.Pipeline.Kind's switch for the non-catalog case.
func valueKindOf(t *datatype.Type) datatype.ValueKind {
	switch t.Kind {
	case datatype.KindFloat:
		return datatype.ValueFloat
	case datatype.KindPointer:
		return datatype.ValueAddress
	case datatype.KindStruct, datatype.KindUnion:
		return datatype.ValueStruct
	case datatype.KindArray:
		return datatype.ValueArray
	default:
		return datatype.ValueInt
	}
}
