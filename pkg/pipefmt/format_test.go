package pipefmt_test

import (
	"testing"

	"github.com/edirooss/pipexec/pkg/pipefmt"
	"github.com/stretchr/testify/require"
)

func TestFormatCommands_Command(t *testing.T) {
	got := pipefmt.FormatCommands([]string{"echo", "t"})
	require.Equal(t, "echo t", got)
}

// Seed scenario 9.
func TestFormatCommands_Pipeline(t *testing.T) {
	got := pipefmt.FormatCommands([][]string{
		{"echo", "t"},
		{"tr", "t", "z"},
	})
	require.Equal(t, "echo t | tr t z", got)
}

func TestFormatCommands_Spring(t *testing.T) {
	got := pipefmt.FormatCommands([][][]string{
		{{"a"}, {"b"}},
		{{"c"}, {"d"}, {"e"}},
	})
	require.Equal(t, "(a | b + c | d | e)", got)
}

// Testable property 6: a one-element pipeline renders identically to its
// sole command.
func TestFormatCommands_SingleCommandPipelineIdempotence(t *testing.T) {
	cmd := []string{"echo", "t"}
	pipeline := [][]string{cmd}

	require.Equal(t, pipefmt.FormatCommands(cmd), pipefmt.FormatCommands(pipeline))
}

func TestFormatCommands_Empty(t *testing.T) {
	require.Equal(t, "", pipefmt.FormatCommands([]string{}))
}

func TestFormatCommands_PanicsOnMalformed(t *testing.T) {
	require.Panics(t, func() {
		pipefmt.FormatCommands(42)
	})
}
