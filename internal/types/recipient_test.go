package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcome_Delivered(t *testing.T) {
	assert.True(t, Outcome{Status: StatusSent}.Delivered())
	assert.False(t, Outcome{Status: StatusNoFile}.Delivered())
	assert.False(t, Outcome{Status: StatusSendError}.Delivered())
}

func TestOutcome_StatusTag(t *testing.T) {
	assert.Equal(t, "SENT", Outcome{Status: StatusSent}.StatusTag())
	assert.Equal(t, "NO_FILE", Outcome{Status: StatusNoFile}.StatusTag())
	assert.Equal(t, "SEND_ERROR: chat open timed out",
		Outcome{Status: StatusSendError, Detail: "chat open timed out"}.StatusTag())
}

func TestOutcome_StatusTagTruncatesDetail(t *testing.T) {
	long := strings.Repeat("x", 120)
	tag := Outcome{Status: StatusSendError, Detail: long}.StatusTag()
	assert.Equal(t, "SEND_ERROR: "+strings.Repeat("x", 50), tag)
}
