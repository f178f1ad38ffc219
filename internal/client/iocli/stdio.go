package iocli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Stdio реализует IO поверх stdin/stdout процесса.
// Подсказки пишутся в stderr, чтобы не смешиваться с JSON выводом.
type Stdio struct {
	in     *os.File
	reader *bufio.Reader
	out    io.Writer
	prompt io.Writer
}

func NewStdio() IO {
	return &Stdio{
		in:     os.Stdin,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		prompt: os.Stderr,
	}
}

func (s *Stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func (s *Stdio) ReadInput(prompt string) (string, error) {
	_, _ = fmt.Fprint(s.prompt, prompt)
	input, err := s.reader.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

func (s *Stdio) ReadPassword(prompt string) (string, error) {
	_, _ = fmt.Fprint(s.prompt, prompt)
	pwBytes, err := term.ReadPassword(int(s.in.Fd()))
	_, _ = fmt.Fprintln(s.prompt)
	if err != nil {
		return "", err
	}
	return string(pwBytes), nil
}

// IsTerminal reports whether stdin is an interactive terminal.
func (s *Stdio) IsTerminal() bool {
	return term.IsTerminal(int(s.in.Fd()))
}
