package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// prompter reads answers from a command's input. One prompter is shared by
// every prompt of a single invocation so piped lines are not lost to a
// discarded buffer.
type prompter struct {
	in  io.Reader
	out io.Writer
	r   *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	in := cmd.InOrStdin()
	return &prompter{in: in, out: cmd.ErrOrStderr(), r: bufio.NewReader(in)}
}

// Line prints prompt and returns the next input line without its newline.
func (p *prompter) Line(prompt string) string {
	fmt.Fprint(p.out, prompt)
	line, _ := p.r.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

// Secret is Line with echo disabled when the input is a terminal.
func (p *prompter) Secret(prompt string) (string, error) {
	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.Line(prompt), nil
	}
	fmt.Fprint(p.out, prompt)
	pass, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("while reading password: %w", err)
	}
	return string(pass), nil
}

// Confirm asks a yes/no question; anything but y or yes is no.
func (p *prompter) Confirm(prompt string) bool {
	answer := strings.ToLower(strings.TrimSpace(p.Line(prompt + " [y/N] ")))
	return answer == "y" || answer == "yes"
}
