package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/branpk/wafel-sub001/moviecodec"
)

// newMovieCmd wraps moviecodec's pure Read/Write against real files, for
// inspecting or authoring a movie outside of an interactive session.
func newMovieCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "movie",
		Short: "Inspect or create a movie file",
	}

	inspect := &cobra.Command{
		Use:   "inspect <file>",
		Args:  cobra.ExactArgs(1),
		Short: "Print a movie file's header fields and input count",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			mv, err := moviecodec.Read(f)
			if err != nil {
				return err
			}
			fmt.Printf("rerecords:   %d\n", mv.RerecordCount)
			fmt.Printf("rom:         %s\n", mv.ROMName)
			fmt.Printf("crc:         0x%08x\n", mv.CRC)
			fmt.Printf("country:     0x%02x\n", mv.CountryCode)
			fmt.Printf("author:      %s\n", mv.Author)
			fmt.Printf("description: %s\n", mv.Description)
			fmt.Printf("inputs:      %d\n", len(mv.Inputs))
			return nil
		},
	}

	var author, description, rom, inputsSpec string
	var rerecords uint32
	var crc uint32

	create := &cobra.Command{
		Use:   "create <file>",
		Args:  cobra.ExactArgs(1),
		Short: "Write a new movie file",
		Long: "Write a new movie file. --inputs takes a comma-separated list of\n" +
			"mask:stickX:stickY triples, e.g. --inputs '1:10:-5,0:0:0,2:-128:127'.",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := parseInputsSpec(inputsSpec)
			if err != nil {
				return err
			}
			mv := &moviecodec.Movie{
				RerecordCount: rerecords,
				ROMName:       rom,
				CRC:           crc,
				Author:        author,
				Description:   description,
				Inputs:        inputs,
			}
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return moviecodec.Write(f, mv)
		},
	}
	create.Flags().StringVar(&author, "author", "", "movie author")
	create.Flags().StringVar(&description, "description", "", "movie description")
	create.Flags().StringVar(&rom, "rom", "", "internal ROM name")
	create.Flags().Uint32Var(&rerecords, "rerecords", 0, "rerecord count")
	create.Flags().Uint32Var(&crc, "crc", 0, "ROM CRC32")
	create.Flags().StringVar(&inputsSpec, "inputs", "", "comma-separated mask:stickX:stickY triples")

	cmd.AddCommand(inspect, create)
	return cmd
}

func parseInputsSpec(spec string) ([]moviecodec.Input, error) {
	if spec == "" {
		return nil, nil
	}
	parts := strings.Split(spec, ",")
	inputs := make([]moviecodec.Input, 0, len(parts))
	for _, part := range parts {
		fields := strings.Split(part, ":")
		if len(fields) != 3 {
			return nil, fmt.Errorf("malformed input sample %q, want mask:stickX:stickY", part)
		}
		mask, err := strconv.ParseUint(fields[0], 0, 16)
		if err != nil {
			return nil, fmt.Errorf("parsing button mask in %q: %w", part, err)
		}
		x, err := strconv.ParseInt(fields[1], 0, 8)
		if err != nil {
			return nil, fmt.Errorf("parsing stick x in %q: %w", part, err)
		}
		y, err := strconv.ParseInt(fields[2], 0, 8)
		if err != nil {
			return nil, fmt.Errorf("parsing stick y in %q: %w", part, err)
		}
		inputs = append(inputs, moviecodec.Input{Buttons: uint16(mask), StickX: int8(x), StickY: int8(y)})
	}
	return inputs, nil
}
