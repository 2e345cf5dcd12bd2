package domain

import "strings"

// Built-in command names
const (
	CommandStart = "start"
	CommandAdd   = "add"
	CommandID    = "id"
)

// IsBuiltinCommand reports whether name is handled by a built-in command.
// Built-ins take precedence over channel names.
func IsBuiltinCommand(name string) bool {
	switch strings.ToLower(name) {
	case CommandStart, CommandAdd, CommandID:
		return true
	}
	return false
}

// Command is a parsed bot command
type Command struct {
	Name string   // lowercased, without "/" and "@botname"
	Bot  string   // addressed bot username, empty if not addressed
	Args []string // whitespace separated arguments
}

// ParseCommand parses text of the form "/name[@bot] args...". Command names
// are case-insensitive and returned lowercased.
// Returns false when text is not a command.
func ParseCommand(text string) (Command, bool) {
	if !strings.HasPrefix(text, "/") {
		return Command{}, false
	}

	fields := strings.Fields(text)
	head := strings.TrimPrefix(fields[0], "/")
	if head == "" {
		return Command{}, false
	}

	cmd := Command{Args: fields[1:]}
	if name, bot, ok := strings.Cut(head, "@"); ok {
		cmd.Name = strings.ToLower(name)
		cmd.Bot = bot
	} else {
		cmd.Name = strings.ToLower(head)
	}
	if cmd.Name == "" {
		return Command{}, false
	}
	return cmd, true
}

// ArgText joins the command arguments with single spaces
func (c Command) ArgText() string {
	return strings.Join(c.Args, " ")
}

// ChannelNameFromCommand extracts the channel name from a channel-select
// command: the second "/"-separated token, cut at whitespace and "@".
func ChannelNameFromCommand(text string) string {
	parts := strings.Split(text, "/")
	if len(parts) < 2 {
		return ""
	}
	name := parts[1]
	if i := strings.IndexAny(name, " \t\n"); i >= 0 {
		name = name[:i]
	}
	name, _, _ = strings.Cut(name, "@")
	return name
}
