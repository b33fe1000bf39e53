package game

import (
	"testing"

	"github.com/annel0/blockpush/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntent(t *testing.T) {
	cases := []struct {
		line string
		want Intent
	}{
		{"alice move +x", Move("alice", vec.Right)},
		{"alice MOVE -z", Move("alice", vec.Back)},
		{"  bob push ", Push("bob")},
		{"bob pull", Pull("bob")},
	}
	for _, tc := range cases {
		got, err := ParseIntent(tc.line)
		require.NoError(t, err, tc.line)
		assert.Equal(t, tc.want, got, tc.line)
	}
}

func TestParseIntent_Errors(t *testing.T) {
	for _, line := range []string{"", "alice", "alice move", "alice move up", "alice push now", "alice jump"} {
		_, err := ParseIntent(line)
		assert.Error(t, err, line)
	}
}
