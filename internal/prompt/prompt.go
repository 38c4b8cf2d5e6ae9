// Package prompt asks the user to confirm destructive operations.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/shadowblip/handycon-setup/internal/messages"
	"github.com/shadowblip/handycon-setup/internal/terminal"
)

// ErrCancelled is returned when the user aborts a prompt.
var ErrCancelled = errors.New(messages.PromptCancelled)

// Confirmer asks a yes/no question.
type Confirmer interface {
	Confirm(title string, defaultYes bool) (bool, error)
}

// New returns a huh-based confirmer on an interactive terminal and a line-based one otherwise.
func New(in io.Reader, out io.Writer) Confirmer {
	if terminal.IsInteractive() {
		return NewHuhConfirmer()
	}
	return LineConfirmer{In: in, Out: out}
}

// HuhConfirmer renders a confirmation form with charmbracelet/huh.
type HuhConfirmer struct {
	isTerminal func() bool
}

var runFormFunc = func(form *huh.Form) error { return form.Run() }

// NewHuhConfirmer creates a confirmer that requires an interactive terminal.
func NewHuhConfirmer() *HuhConfirmer {
	return &HuhConfirmer{isTerminal: terminal.IsInteractive}
}

func (c *HuhConfirmer) ensureInteractive() error {
	checker := c.isTerminal
	if checker == nil {
		checker = terminal.IsInteractive
	}
	if checker() {
		return nil
	}
	return errors.New(messages.PromptRequiresTerminal)
}

// confirmKeyMap makes both Esc and Ctrl+C abort the form.
func confirmKeyMap() *huh.KeyMap {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "cancel"))
	return km
}

// formFilter turns interrupts into a quit so the renderer clears the form before exiting.
func formFilter(_ tea.Model, msg tea.Msg) tea.Msg {
	if _, ok := msg.(tea.InterruptMsg); ok {
		return tea.QuitMsg{}
	}
	return msg
}

// Confirm asks title and returns the answer. Aborting returns ErrCancelled.
func (c *HuhConfirmer) Confirm(title string, defaultYes bool) (bool, error) {
	if err := c.ensureInteractive(); err != nil {
		return false, err
	}
	value := defaultYes
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative(messages.PromptAffirmative).
			Negative(messages.PromptNegative).
			Value(&value),
	))
	form.WithKeyMap(confirmKeyMap())
	form.WithProgramOptions(
		tea.WithOutput(os.Stderr),
		tea.WithFilter(formFilter),
	)
	if err := runFormFunc(form); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, ErrCancelled
		}
		return false, err
	}
	return value, nil
}

// LineConfirmer reads y/n answers line by line.
type LineConfirmer struct {
	In  io.Reader
	Out io.Writer
}

// Confirm asks title on Out and reads the answer from In.
func (c LineConfirmer) Confirm(title string, defaultYes bool) (bool, error) {
	return YesNo(c.In, c.Out, title, defaultYes)
}

// YesNo prompts until it reads y/yes or n/no. An empty answer picks the default;
// end of input without an answer declines.
func YesNo(in io.Reader, out io.Writer, prompt string, defaultYes bool) (bool, error) {
	reader := bufio.NewReader(in)
	for {
		format := messages.PromptNoDefaultFmt
		if defaultYes {
			format = messages.PromptYesDefaultFmt
		}
		if _, err := fmt.Fprintf(out, format, prompt); err != nil {
			return false, err
		}
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		response := strings.TrimSpace(line)
		if response == "" {
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			return defaultYes, nil
		}
		switch strings.ToLower(response) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if errors.Is(err, io.EOF) {
			return false, fmt.Errorf(messages.PromptInvalidResponseFmt, response)
		}
		if _, err := fmt.Fprintln(out, messages.PromptRetryYesNo); err != nil {
			return false, err
		}
	}
}
