package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_noArgsAndHelpHaveSameResultAndDoDontPanic(t *testing.T) {
	cmdArgsTestCases := [][]string{
		{"--help"},
		{},
	}

	for i, cmdArgs := range cmdArgsTestCases {
		// setup
		rootCmd := SetupCLI("x.y.z", "1234567890abcdef")
		rootCmd.SetArgs(cmdArgs)
		var out bytes.Buffer
		rootCmd.SetOut(&out)

		// test
		err := rootCmd.Execute()
		assert.NoErrorf(t, err, "test case %d returned an error", i)

		// assert printed text
		assert.Containsf(t, out.String(), "Use \"lease-engine [command] --help\" for more information about a command.", "test case %d did not print help message as expected", i)
	}
}

func Test_SetupCLI_subcommands(t *testing.T) {
	rootCmd := SetupCLI("x.y.z", "1234567890abcdef")

	gotCommands := []string{}
	for _, subcommand := range rootCmd.Commands() {
		gotCommands = append(gotCommands, subcommand.Name())
	}
	assert.Subset(t, gotCommands, []string{"serve", "db", "leases"})
}

func Test_version(t *testing.T) {
	rootCmd := SetupCLI("x.y.z", "1234567890abcdef")
	rootCmd.SetArgs([]string{"--version"})
	var out bytes.Buffer
	rootCmd.SetOut(&out)

	err := rootCmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, out.String(), "lease-engine version x.y.z")
}
