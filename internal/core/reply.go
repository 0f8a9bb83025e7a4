package core

import (
	"regexp"
	"strconv"
	"strings"
)

// Command is a parsed triage reply. It is one of MoveAll, MoveSome, Not,
// Always or Unknown.
type Command interface {
	isCommand()
}

// MoveAll moves every item at or above the default move threshold
type MoveAll struct{}

// MoveSome moves the items at the given 1-based positions
type MoveSome struct {
	Positions []int
}

// Not blocklists the sender of one item
type Not struct {
	Position int
}

// Always allowlists the sender of one item
type Always struct {
	Position int
}

// Unknown is any reply that matched no command
type Unknown struct {
	Text string
}

func (MoveAll) isCommand()  {}
func (MoveSome) isCommand() {}
func (Not) isCommand()      {}
func (Always) isCommand()   {}
func (Unknown) isCommand()  {}

var (
	moveAllPattern  = regexp.MustCompile(`^move all$`)
	moveSomePattern = regexp.MustCompile(`^move ([0-9 ]+)$`)
	notPattern      = regexp.MustCompile(`^not ([0-9]+)$`)
	alwaysPattern   = regexp.MustCompile(`^always ([0-9]+)$`)
)

// ParseReply interprets free reply text. Matching is case-insensitive and
// ignores extra whitespace.
func ParseReply(text string) Command {
	t := strings.ToLower(strings.Join(strings.Fields(text), " "))

	if moveAllPattern.MatchString(t) {
		return MoveAll{}
	}
	if m := moveSomePattern.FindStringSubmatch(t); m != nil {
		positions := []int{}
		for _, field := range strings.Fields(m[1]) {
			n, err := strconv.Atoi(field)
			if err != nil || n <= 0 {
				continue
			}
			positions = append(positions, n)
		}
		return MoveSome{Positions: positions}
	}
	if m := notPattern.FindStringSubmatch(t); m != nil {
		return Not{Position: atoiOrZero(m[1])}
	}
	if m := alwaysPattern.FindStringSubmatch(t); m != nil {
		return Always{Position: atoiOrZero(m[1])}
	}
	return Unknown{Text: text}
}

// atoiOrZero maps overflowing numbers to 0, which is never a valid position
func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
