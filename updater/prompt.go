package updater

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter blocks for a yes/no answer from the user.
type Prompter interface {
	Confirm(question string) (bool, error)
}

// IOPrompter asks on Out and reads one line from In. Only "y" and
// "yes" (case-insensitive) count as consent.
type IOPrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p *IOPrompter) Confirm(question string) (bool, error) {
	fmt.Fprintf(p.Out, "%s [y/N]: ", question)

	reader := bufio.NewReader(p.In)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("could not read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
