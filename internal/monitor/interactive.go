package monitor

import (
	"io"
	"os"

	"golang.org/x/term"
)

// RunInteractive drives m from the real stdin/stdout: raw-mode line
// editing when stdin is a TTY (golang.org/x/term), falling back to a
// plain line-at-a-time Run otherwise — e.g. when stdin is a pipe or a
// file. Only ever called from cmd/wafel, never from a test.
func RunInteractive(m *Monitor) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return m.Run(os.Stdin, os.Stdout)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return m.Run(os.Stdin, os.Stdout)
	}
	defer term.Restore(fd, oldState)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, "wafel> ")
	m.out = t

	for {
		line, err := t.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		cmd := ParseCommand(line)
		if cmd.Name == "" {
			continue
		}
		if cmd.Name == "quit" || cmd.Name == "exit" {
			return nil
		}
		if dispatchErr := m.dispatch(cmd); dispatchErr != nil {
			io.WriteString(t, "error: "+dispatchErr.Error()+"\r\n")
		}
	}
}
