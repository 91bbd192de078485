package main

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iter-codac/imas-mapping/config"
	"github.com/iter-codac/imas-mapping/dd"
	"github.com/iter-codac/imas-mapping/mapping"
	"github.com/iter-codac/imas-mapping/yamltree"
)

func newTestApp() *app {
	a := &app{
		cfg:    config.DefaultConfig(),
		logger: slog.Default(),
	}
	a.resolver = dd.NewCachingResolver(dd.FileResolver{}, nil)
	a.validator = mapping.NewValidator(dd.NewFileCatalog("testdata/dict", nil), a.resolver)
	a.validator.Logger = a.logger
	return a
}

func runCommand(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestValidateCommandExitCodes(t *testing.T) {
	tests := []struct {
		name string
		file string
		code int
	}{
		{"valid file", "testdata/valid.yaml", 0},
		{"document format violation", "testdata/invalid-schema.yaml", exitFormat},
		{"data violation", "testdata/invalid-data.yaml", exitData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runCommand(t, validateCmd(newTestApp()), "-q", tt.file)
			if tt.code == 0 {
				require.NoError(t, err)
				return
			}
			var code *exitCodeError
			require.ErrorAs(t, err, &code)
			assert.Equal(t, tt.code, code.code)
		})
	}
}

func TestValidateCommandStopsAtFirstInvalid(t *testing.T) {
	err := runCommand(t, validateCmd(newTestApp()), "-q",
		"testdata/valid.yaml", "testdata/invalid-data.yaml")
	var code *exitCodeError
	require.ErrorAs(t, err, &code)
	assert.Equal(t, exitData, code.code)
}

func TestValidateCommandUnreadableFile(t *testing.T) {
	// A read failure is an internal error, not a validation outcome.
	err := runCommand(t, validateCmd(newTestApp()), "-q", "testdata/missing.yaml")
	require.Error(t, err)
	var code *exitCodeError
	assert.False(t, errors.As(err, &code))
}

func TestReportError(t *testing.T) {
	err := reportError(&yamltree.SchemaError{Msg: "bad shape", Line: 1})
	var code *exitCodeError
	require.ErrorAs(t, err, &code)
	assert.Equal(t, exitFormat, code.code)

	err = reportError(&mapping.ValidationError{Msg: "bad data"})
	require.ErrorAs(t, err, &code)
	assert.Equal(t, exitData, code.code)

	// Anything else passes through untouched.
	cause := fmt.Errorf("disk on fire")
	assert.Same(t, cause, reportError(cause))
}

func TestExpandPatterns(t *testing.T) {
	// Plain paths pass through untouched, existing or not.
	files, err := expandPatterns([]string{"no/such/file.yaml"})
	require.NoError(t, err)
	assert.Equal(t, []string{"no/such/file.yaml"}, files)

	// A glob expands to the matching files.
	files, err = expandPatterns([]string{"testdata/*.yaml"})
	require.NoError(t, err)
	assert.Len(t, files, 3)
	assert.Contains(t, files, "testdata/valid.yaml")

	// Doublestar descends into subdirectories.
	files, err = expandPatterns([]string{"testdata/**/*.yaml"})
	require.NoError(t, err)
	assert.Contains(t, files, "testdata/valid.yaml")
	assert.Contains(t, files, "testdata/md/magnetics.yaml")

	// A pattern that matches nothing is an error.
	_, err = expandPatterns([]string{"testdata/*.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matched no files")

	// So is a malformed pattern.
	_, err = expandPatterns([]string{"testdata/["})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pattern")
}
