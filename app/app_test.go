package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpGroupsCommandsByCategory(t *testing.T) {
	disableStyling()

	var buf bytes.Buffer

	velaApp := Get()
	velaApp.Writer = &buf

	require.NoError(t, velaApp.Run([]string{"vela", "--help"}))

	out := buf.String()

	for _, want := range []string{
		"Daemon commands",
		"Session commands",
		"Reports commands",
		"serve",
		"watch",
		"GLOBAL OPTIONS",
		"--addr",
		"VELA_ADDR",
		"EXAMPLES",
	} {
		assert.Contains(t, out, want)
	}

	assert.Less(t,
		bytes.Index(buf.Bytes(), []byte("Session commands")),
		bytes.Index(buf.Bytes(), []byte("start")),
		"start is listed under the session commands",
	)
}
