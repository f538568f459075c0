package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
)

// Prompter asks the user for values not given as flags.
type Prompter interface {
	Input(title, placeholder string, secret bool) (string, error)
	Confirm(title string, defaultValue bool) (bool, error)
	Select(title string, options []string) (string, error)
}

// huhPrompter renders prompts with charmbracelet/huh forms.
type huhPrompter struct{}

func (huhPrompter) Input(title, placeholder string, secret bool) (string, error) {
	var value string

	input := huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(&value)
	if secret {
		input = input.EchoMode(huh.EchoModePassword)
	}

	if err := huh.NewForm(huh.NewGroup(input)).Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return value, nil
}

func (huhPrompter) Confirm(title string, defaultValue bool) (bool, error) {
	confirmed := defaultValue

	confirm := huh.NewConfirm().
		Title(title).
		Value(&confirmed)

	if err := huh.NewForm(huh.NewGroup(confirm)).Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return confirmed, nil
}

func (huhPrompter) Select(title string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options provided")
	}

	huhOptions := make([]huh.Option[string], len(options))
	for i, opt := range options {
		huhOptions[i] = huh.NewOption(opt, opt)
	}

	var selected string
	field := huh.NewSelect[string]().
		Title(title).
		Options(huhOptions...).
		Value(&selected)

	if err := huh.NewForm(huh.NewGroup(field)).Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return selected, nil
}

// isInteractive reports whether stdin is a terminal.
func isInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// valueOrPrompt returns the flag value, prompting for it when empty and a prompter is available.
func (r *Runner) valueOrPrompt(value, title, placeholder string, secret bool) (string, error) {
	if value != "" || !r.interactive() {
		return value, nil
	}
	return r.prompter.Input(title, placeholder, secret)
}

// interactive reports whether prompts may be shown.
func (r *Runner) interactive() bool {
	if _, ok := r.prompter.(huhPrompter); ok {
		return isInteractive()
	}
	return r.prompter != nil
}
