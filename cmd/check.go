// =============================================================================
// Invoice XML Exporter - Check Command
// =============================================================================
//
// This file defines the 'check' command, which runs the structural checker
// on XML documents, typically the files written by 'export'. An .xlsx
// argument is read as an export register and expands to the documents it
// lists.
//
// COMMAND USAGE:
//   invoice-xml-export check FILE... [--log errors.txt]
//   invoice-xml-export check output/register_20230509_143022.xlsx
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/danutsss/invoice-xml-export/internal/validation"
	"github.com/danutsss/invoice-xml-export/internal/xlsxreport"
	"github.com/danutsss/invoice-xml-export/pkg/utils"
)

// checkLog is the optional error log path.
var checkLog string

// checkCmd represents the 'check' command.
var checkCmd = &cobra.Command{
	Use:   "check FILE...",
	Short: "Check generated XML documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(args)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkLog, "log", "", "Write all problems to this file")
}

// runCheck checks every file and fails if any document is invalid.
func runCheck(args []string) error {
	files, err := expandRegisters(args)
	if err != nil {
		return err
	}

	var (
		problems []*validation.ValidationError
		invalid  int
	)

	for _, file := range files {
		if !utils.HasXMLExtension(file) {
			logger.WithField("file", file).Warn("File does not have an .xml extension")
		}

		result, err := validation.CheckFile(file)
		if err != nil {
			return err
		}

		for _, problem := range result.Errors {
			problem.Path = filepath.Base(file) + ": " + problem.Path
		}
		problems = append(problems, result.Errors...)

		if result.IsValid {
			fmt.Printf("  ✓ %s (%d invoices, %d warnings)\n", filepath.Base(file), result.InvoicesChecked, result.WarningCount)
			continue
		}

		invalid++
		fmt.Printf("  ✗ %s (%d errors)\n", filepath.Base(file), result.ErrorCount)
	}

	if len(problems) > 0 {
		fmt.Println()
		fmt.Print(validation.FormatErrors(problems))
	}

	if checkLog != "" {
		if err := validation.WriteErrorLog(problems, checkLog); err != nil {
			return err
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d documents are invalid", invalid, len(files))
	}
	return nil
}

// expandRegisters replaces each register argument with its documents.
func expandRegisters(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		if !strings.EqualFold(filepath.Ext(arg), ".xlsx") {
			files = append(files, arg)
			continue
		}

		paths, err := xlsxreport.DocumentPaths(arg)
		if err != nil {
			return nil, err
		}
		logger.WithFields(logrus.Fields{"register": arg, "documents": len(paths)}).Debug("Expanded export register")
		files = append(files, paths...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no documents to check")
	}
	return files, nil
}
