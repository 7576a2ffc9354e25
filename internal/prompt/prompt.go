// Package prompt collects interactive input for import sessions.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Prompter collects interactive input. Implementations keep asking
// until the answer is usable; an error means input is exhausted.
type Prompter interface {
	// Number asks for an integer between min and max inclusive.
	Number(label string, min, max int) (int, error)
	// Text asks for a free-form line.
	Text(label string) (string, error)
}

// Terminal is a line-based Prompter over a reader/writer pair,
// normally stdin and stdout.
type Terminal struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewTerminal returns a Terminal reading answers from in and printing
// prompts to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{reader: bufio.NewReader(in), out: out}
}

// NewStdTerminal returns a Terminal over stdin and stdout.
func NewStdTerminal() *Terminal {
	return NewTerminal(os.Stdin, os.Stdout)
}

// Number asks until the answer is an integer within [min, max].
func (t *Terminal) Number(label string, min, max int) (int, error) {
	for {
		fmt.Fprintf(t.out, "%s [%d-%d]: ", label, min, max)
		line, err := t.readLine()
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < min || n > max {
			fmt.Fprintf(t.out, "Invalid choice. Please enter a number between %d and %d.\n", min, max)
			continue
		}
		return n, nil
	}
}

// Text asks once and returns the trimmed answer.
func (t *Terminal) Text(label string) (string, error) {
	fmt.Fprintf(t.out, "%s: ", label)
	return t.readLine()
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.reader.ReadString('\n')
	if err != nil {
		// A final line without a trailing newline still counts.
		if err == io.EOF && strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
