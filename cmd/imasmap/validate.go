package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/iter-codac/imas-mapping/mapping"
	"github.com/iter-codac/imas-mapping/yamltree"
)

func validateCmd(a *app) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "validate <mapping-file>...",
		Short: "Validate data mapping YAML files",
		Long: `Validate data mapping YAML files against the Data Dictionary and the
machine description they reference. Arguments may be glob patterns
(including "**"). Validation stops at the first invalid file.

Exit codes:
  0  all files are valid
  1  internal error
  2  a file is not valid YAML or does not have the expected structure
  3  a file contains invalid data`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandPatterns(args)
			if err != nil {
				return err
			}
			for _, file := range files {
				if !quiet {
					fmt.Printf("Validating %q ...\n", file)
				}
				if _, err := a.validator.ValidateFile(file); err != nil {
					return reportError(err)
				}
				if !quiet {
					fmt.Printf("Success: %s is a valid IMAS ITER Mapping file\n", file)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Silence per-file progress output.")
	return cmd
}

// reportError prints the validation diagnostic and maps it to the documented
// exit code. Errors that are neither format nor data violations pass through
// as internal errors.
func reportError(err error) error {
	var serr *yamltree.SchemaError
	if errors.As(err, &serr) {
		fmt.Println("File contains invalid (strict) YAML:")
		fmt.Println(err)
		return &exitCodeError{code: exitFormat}
	}
	var verr *mapping.ValidationError
	if errors.As(err, &verr) {
		fmt.Println(err)
		return &exitCodeError{code: exitData}
	}
	return err
}

// expandPatterns resolves glob arguments to file paths. Plain paths pass
// through untouched so a typo'd filename fails at read time with a clear
// error instead of matching nothing.
func expandPatterns(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			files = append(files, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("pattern %q matched no files", arg)
		}
		files = append(files, matches...)
	}
	return files, nil
}
