package monitor

import "strings"

// Command is a parsed REPL line: a lowercased verb and its raw
// arguments.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits a raw input line into a verb and its arguments.
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	if input == "" {
		return Command{}
	}
	parts := strings.Fields(input)
	return Command{Name: strings.ToLower(parts[0]), Args: parts[1:]}
}
