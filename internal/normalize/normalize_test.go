package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey_Diacritics(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"José  PÉREZ", "JOSE PEREZ"},
		{"JOSE PEREZ", "JOSE PEREZ"},
		{"  ana  lópez ", "ANA LOPEZ"},
		{"Núñez-García", "NUNEZ GARCIA"},
		{"O'Brien", "O BRIEN"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Key(tt.input))
		})
	}
}

func TestKey_Idempotent(t *testing.T) {
	inputs := []string{"José  PÉREZ", "maría-del-carmen", "12 de Octubre", "", "   "}
	for _, in := range inputs {
		once := Key(in)
		assert.Equal(t, once, Key(once), "normalize must be idempotent for %q", in)
	}
}

func TestKey_Empty(t *testing.T) {
	assert.Equal(t, "", Key(""))
	assert.Equal(t, "", Key("   "))
	assert.Equal(t, "", Key("¡¿!?"))
}

func TestKey_DigitsPreserved(t *testing.T) {
	assert.Equal(t, "SALA 3B", Key("sala #3-b"))
}

func TestJoinKey(t *testing.T) {
	assert.Equal(t, "ANA LOPEZ", JoinKey("Ana", "López"))
	assert.Equal(t, "ANA", JoinKey("Ana", ""))
	assert.Equal(t, "LOPEZ", JoinKey("", "López"))
	assert.Equal(t, "", JoinKey("", ""))
}
