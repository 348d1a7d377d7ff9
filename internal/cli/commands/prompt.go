package commands

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// Prompter asks the user for input
type Prompter interface {
	Password(label string) (string, error)
	Select(label string, items []string, current string) (string, error)
	Input(label, def string) (string, error)
}

// terminalPrompter prompts on the controlling terminal
type terminalPrompter struct{}

func (terminalPrompter) Password(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or SENSORWATCH_PASSWORD env var)")
	}

	fmt.Fprintf(os.Stderr, "%s: ", label)
	bytePassword, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

func (terminalPrompter) Select(label string, items []string, current string) (string, error) {
	cursor := 0
	for i, item := range items {
		if item == current {
			cursor = i
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ . | cyan }}",
		Inactive: "  {{ . }}",
		Selected: "{{ . | green }}",
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     items,
		Templates: templates,
		Size:      10,
		CursorPos: cursor,
	}

	_, value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("selection cancelled: %w", err)
	}
	return value, nil
}

func (terminalPrompter) Input(label, def string) (string, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: def,
	}
	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("input cancelled: %w", err)
	}
	return value, nil
}
