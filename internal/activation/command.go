package activation

import (
	"strconv"
	"strings"
)

// Opcode identifies one activation command. The set is closed and decided
// once at parse time, so executing a sequence never compares strings and
// an unrecognized name is a parse-time classification, not a per-call
// lookup failure.
type Opcode int

const (
	OpUnknown Opcode = iota
	OpResonate
	OpAmplify
	OpPhaseShift
	OpDecay
	OpStabilize
	OpEntangle
)

var opcodeNames = map[string]Opcode{
	"resonate":    OpResonate,
	"amplify":     OpAmplify,
	"phase_shift": OpPhaseShift,
	"decay":       OpDecay,
	"stabilize":   OpStabilize,
	"entangle":    OpEntangle,
}

// Command is one parsed activation command. A command carries at most one
// argument: numeric (first character is a digit, sign or dot) or a glyph
// id reference.
type Command struct {
	Op        Opcode
	Name      string // raw command name, kept for unknown_command traces
	Arg       float64
	HasArg    bool
	Target    string
	HasTarget bool
}

// ParseSequence splits a pipe-separated activation string into commands.
// Empty segments are skipped; unknown names map to OpUnknown.
func ParseSequence(sequence string) []Command {
	var commands []Command
	for _, segment := range strings.Split(sequence, "|") {
		if cmd, ok := parseCommand(segment); ok {
			commands = append(commands, cmd)
		}
	}
	return commands
}

func parseCommand(segment string) (Command, bool) {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return Command{}, false
	}

	name := segment
	var rawArg string
	if open := strings.IndexByte(segment, '('); open >= 0 {
		name = strings.TrimSpace(segment[:open])
		if end := strings.IndexByte(segment[open:], ')'); end >= 0 {
			rawArg = strings.TrimSpace(segment[open+1 : open+end])
		}
	}
	if name == "" {
		return Command{}, false
	}

	cmd := Command{Name: name}
	if op, ok := opcodeNames[name]; ok {
		cmd.Op = op
	}

	if rawArg != "" {
		if isNumericStart(rawArg[0]) {
			if f, err := strconv.ParseFloat(rawArg, 64); err == nil {
				cmd.Arg = f
				cmd.HasArg = true
			}
		} else {
			cmd.Target = rawArg
			cmd.HasTarget = true
		}
	}
	return cmd, true
}

func isNumericStart(c byte) bool {
	return c >= '0' && c <= '9' || c == '-' || c == '+' || c == '.'
}
