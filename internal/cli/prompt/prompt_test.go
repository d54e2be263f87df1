package prompt

import (
	"errors"
	"fmt"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
)

func TestParseAnswer(t *testing.T) {
	assert.True(t, parseAnswer("y", false))
	assert.True(t, parseAnswer(" YES ", false))
	assert.False(t, parseAnswer("n", true))
	assert.False(t, parseAnswer("maybe", true))
	assert.True(t, parseAnswer("", true))
	assert.False(t, parseAnswer("", false))
}

func TestIsAborted(t *testing.T) {
	assert.True(t, IsAborted(promptui.ErrInterrupt))
	assert.True(t, IsAborted(promptui.ErrEOF))
	assert.True(t, IsAborted(fmt.Errorf("wrapped: %w", ErrAborted)))
	assert.False(t, IsAborted(errors.New("other")))

	assert.Nil(t, wrapError(nil))
	assert.Equal(t, ErrAborted, wrapError(promptui.ErrInterrupt))
}

func TestConfirmWithForceSkipsPrompt(t *testing.T) {
	ok, err := ConfirmWithForce("Delete?", true)
	assert.NoError(t, err)
	assert.True(t, ok)
}
