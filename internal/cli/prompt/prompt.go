// Package prompt provides the interactive terminal prompts used by the
// fshare CLI.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

// MinPasswordLength is enforced when choosing a new server password.
const MinPasswordLength = 6

var (
	// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
	ErrAborted = errors.New("aborted")

	// ErrPasswordMismatch indicates the confirmation did not match.
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// IsAborted reports whether err means the user gave up on a prompt.
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, ErrAborted)
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsAborted(err) {
		return ErrAborted
	}
	return err
}

// Password prompts for a masked password.
func Password(label string) (string, error) {
	p := promptui.Prompt{Label: label, Mask: '*'}
	result, err := p.Run()
	return result, wrapError(err)
}

// NewPassword prompts twice for a password of at least MinPasswordLength
// characters and fails if the two entries differ.
func NewPassword() (string, error) {
	p := promptui.Prompt{
		Label: "Server password",
		Mask:  '*',
		Validate: func(input string) error {
			if len(input) < MinPasswordLength {
				return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
			}
			return nil
		},
	}
	password, err := p.Run()
	if err != nil {
		return "", wrapError(err)
	}

	confirm, err := Password("Confirm password")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", ErrPasswordMismatch
	}
	return password, nil
}

// Confirm asks a yes/no question. An empty answer picks defaultYes.
func Confirm(label string, defaultYes bool) (bool, error) {
	hint := "y/N"
	if defaultYes {
		hint = "Y/n"
	}

	p := promptui.Prompt{Label: fmt.Sprintf("%s [%s]", label, hint)}
	result, err := p.Run()
	if err != nil {
		return false, wrapError(err)
	}
	return parseAnswer(result, defaultYes), nil
}

// ConfirmWithForce skips the prompt when force is set.
func ConfirmWithForce(label string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	return Confirm(label, false)
}

func parseAnswer(s string, defaultYes bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return defaultYes
	case "y", "yes":
		return true
	default:
		return false
	}
}
