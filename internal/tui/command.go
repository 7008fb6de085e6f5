package tui

import (
	"strconv"
	"strings"
)

// Command is a composer line starting with ':'.
type Command struct {
	Name string
	Args string
}

// ParseCommand splits a composer line into a command. ok is false for
// plain text; "::text" sends ":text" literally.
func ParseCommand(input string) (cmd Command, ok bool) {
	if !strings.HasPrefix(input, ":") || strings.HasPrefix(input, "::") {
		return Command{}, false
	}
	input = strings.TrimSpace(input[1:])
	parts := strings.SplitN(input, " ", 2)
	cmd = Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd, cmd.Name != ""
}

// Literal returns the text to send for a non-command line.
func Literal(input string) string {
	return strings.TrimPrefix(input, ":")
}

// Index parses Args as a 1-based position, defaulting to 1.
func (c Command) Index() (int, bool) {
	if c.Args == "" {
		return 1, true
	}
	n, err := strconv.Atoi(c.Args)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
