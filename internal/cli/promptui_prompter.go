package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/manifoldco/promptui"
)

// defaultMenuSize is the number of accounts visible in the picker at once.
const defaultMenuSize = 10

var selectTemplates = &promptui.SelectTemplates{
	Label:    "{{ . }}:",
	Active:   "▸ {{ . | cyan }}",
	Inactive: "  {{ . }}",
	Selected: "✓ {{ . | green }}",
}

// PromptUI implements Prompter with promptui.
type PromptUI struct {
	stdin  io.ReadCloser
	stdout io.WriteCloser
	// validate, when set, is run on every keystroke of Prompt.
	validate promptui.ValidateFunc
}

// NewPromptUI returns a PromptUI on the process stdin and stdout.
func NewPromptUI() *PromptUI {
	return &PromptUI{stdin: os.Stdin, stdout: os.Stdout}
}

// NewPromptUIWithIO returns a PromptUI on the given streams. Nil streams fall
// back to the process ones.
func NewPromptUIWithIO(stdin io.Reader, stdout io.Writer) *PromptUI {
	pu := &PromptUI{stdin: os.Stdin, stdout: os.Stdout}
	if stdin != nil {
		pu.stdin = toReadCloser(stdin)
	}
	if stdout != nil {
		pu.stdout = toWriteCloser(stdout)
	}
	return pu
}

// WithValidation returns a copy of p whose Prompt rejects input failing fn.
func (p *PromptUI) WithValidation(fn func(string) error) *PromptUI {
	cp := *p
	cp.validate = fn
	return &cp
}

// Select shows items with the cursor on defaultValue, if present.
func (p *PromptUI) Select(label string, items []string, defaultValue string) (int, string, error) {
	cursor := 0
	if defaultValue != "" {
		for i, item := range items {
			if item == defaultValue {
				cursor = i
				break
			}
		}
	}

	selectPrompt := promptui.Select{
		Label:     label,
		Items:     items,
		Size:      defaultMenuSize,
		Templates: selectTemplates,
		HideHelp:  true,
		CursorPos: cursor,
		Stdin:     p.stdin,
		Stdout:    p.stdout,
	}

	idx, value, err := selectPrompt.Run()
	if err != nil {
		return idx, value, fmt.Errorf("%w: %v", ErrPromptCancelled, err)
	}
	return idx, value, nil
}

func (p *PromptUI) Prompt(label string) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Validate: p.validate,
		Stdin:    p.stdin,
		Stdout:   p.stdout,
	}
	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPromptCancelled, err)
	}
	return value, nil
}

func toReadCloser(r io.Reader) io.ReadCloser {
	if rc, ok := r.(io.ReadCloser); ok {
		return rc
	}
	return io.NopCloser(r)
}

func toWriteCloser(w io.Writer) io.WriteCloser {
	if wc, ok := w.(io.WriteCloser); ok {
		return wc
	}
	return nopWriteCloser{Writer: w}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}
