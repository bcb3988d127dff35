package core

import (
	"testing"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestCheckArguments(t *testing.T) {
	assert.NoError(t, CheckArguments(vala.StringNotEmpty("go-101", "courseID")))

	err := CheckArguments(vala.StringNotEmpty("", "courseID"))
	assert.True(t, IsArgumentError(err), "got %v", err)
	assert.Contains(t, err.Error(), "courseID")
}

func TestIsShutdown(t *testing.T) {
	err := NewShutdownError("closing")
	assert.True(t, IsShutdown(err))
	assert.True(t, IsShutdown(errors.Wrap(err, "getting session")))
	assert.False(t, IsShutdown(errors.New("closing")))
}
