package onboard

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/kartallu/connector/internal/errors"
)

// Prompter reads interactive answers from the operator. Input and output are
// injectable so tests can script whole sessions.
type Prompter struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewPrompter creates a prompter reading from in and writing prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{reader: bufio.NewReader(in), out: out}
}

// Ask prompts for a value and returns the trimmed answer. Empty answers are
// returned as-is; callers decide whether empty is acceptable.
func (p *Prompter) Ask(label string) (string, error) {
	_, _ = fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", apperrors.ErrInvalidInput("no input available", err)
	}
	return strings.TrimSpace(line), nil
}

// AskDefault prompts for a value, falling back to def on an empty answer.
func (p *Prompter) AskDefault(label, def string) (string, error) {
	answer, err := p.Ask(fmt.Sprintf("%s [%s]", label, def))
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// AskRequired prompts for a value and rejects empty answers.
func (p *Prompter) AskRequired(label string) (string, error) {
	answer, err := p.Ask(label)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return "", apperrors.ErrInvalidInput(fmt.Sprintf("%s is required", strings.ToLower(label)), nil)
	}
	return answer, nil
}

// Confirm prompts for a yes/no answer. Empty input takes def.
func (p *Prompter) Confirm(label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	answer, err := p.Ask(fmt.Sprintf("%s (%s)", label, hint))
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, apperrors.ErrInvalidInput(fmt.Sprintf("unrecognized answer %q", answer), nil)
	}
}
