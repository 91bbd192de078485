package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeCommand(t *testing.T) {
	err := runCommand(t, describeCmd(newTestApp()), "testdata/valid.yaml")
	assert.NoError(t, err)
}

func TestDescribeCommandInvalidFile(t *testing.T) {
	err := runCommand(t, describeCmd(newTestApp()), "testdata/invalid-data.yaml")
	var code *exitCodeError
	require.ErrorAs(t, err, &code)
	assert.Equal(t, exitData, code.code)
}
