// Package prompt implements the blocking terminal dialogs the pipeline uses
// in place of the mobile app's modal alerts.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Terminal reads user answers line by line from In and writes questions to Out.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Ask prints the question and returns the trimmed answer line. An empty
// answer is returned as an empty string, not an error.
func (t *Terminal) Ask(question string) (string, error) {
	fmt.Fprintf(t.out, "%s ", question)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// YesNo asks a question and interprets the answer as a boolean. Anything
// other than y/yes counts as no.
func (t *Terminal) YesNo(question string) (bool, error) {
	answer, err := t.Ask(question + " [y/N]")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Say prints a message on its own line.
func (t *Terminal) Say(format string, args ...interface{}) {
	fmt.Fprintf(t.out, format+"\n", args...)
}
