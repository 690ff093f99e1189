// =============================================================================
// Invoice XML Exporter - Export Command
// =============================================================================
//
// This file defines the 'export' command, the command-line counterpart of the
// web form. It runs one export and writes each XML document under the file
// name the browser download would use.
//
// COMMAND USAGE:
//   invoice-xml-export export --organization ID [flags]
//
// FLAGS:
//   --organization : Organization id (required)
//   --since        : First invoice creation date (inclusive)
//   --until        : Last invoice creation date (inclusive)
//   --vat          : Include VAT (ProcTVA/TVA); without it VAT fields are "0"
//   --out          : Output directory (default export.output_dir)
//   --register     : Also write the XLSX export register
//   --links        : Print the HTML download anchors to stdout
//
// PROCESSING PIPELINE:
//   1. Fetch countries, states and invoices
//   2. Generate the XML documents
//   3. Write each document to the output directory
//   4. Optionally write the register and print the links
//   5. Write the export summary (or the error log on failure)
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/danutsss/invoice-xml-export/internal/download"
	"github.com/danutsss/invoice-xml-export/internal/exporter"
	"github.com/danutsss/invoice-xml-export/internal/xlsxreport"
	"github.com/danutsss/invoice-xml-export/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	organization string
	since        string
	until        string
	includeVAT   bool
	outputDir    string
	writeReg     bool
	printLinks   bool
	dateSubdirs  bool
)

// =============================================================================
// EXPORT COMMAND DEFINITION
// =============================================================================

// exportCmd represents the 'export' command.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export invoices to XML files",
	Long: `The export command fetches the invoices of an organization created between
--since and --until, converts them to XML and writes one file per document.

Any failure (API error, malformed invoice date) aborts the whole export; no
document is written and an error log is created in the output directory.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&organization, "organization", "", "Organization id")
	exportCmd.Flags().StringVar(&since, "since", "", "First creation date (YYYY-MM-DD or DD.MM.YYYY)")
	exportCmd.Flags().StringVar(&until, "until", "", "Last creation date (YYYY-MM-DD or DD.MM.YYYY)")
	exportCmd.Flags().BoolVar(&includeVAT, "vat", false, "Include VAT in the documents")
	exportCmd.Flags().StringVar(&outputDir, "out", "", "Output directory (default export.output_dir)")
	exportCmd.Flags().BoolVar(&writeReg, "register", false, "Write the XLSX export register")
	exportCmd.Flags().BoolVar(&printLinks, "links", false, "Print HTML download links to stdout")
	exportCmd.Flags().BoolVar(&dateSubdirs, "date-subdirs", false, "Write into YYYY/MM/DD subdirectories")

	exportCmd.MarkFlagRequired("organization")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runExport runs one export and writes its files.
func runExport(ctx context.Context) error {
	startTime := time.Now()

	api, err := newAPIClient(mainConfig)
	if err != nil {
		return err
	}

	dir := outputDir
	if dir == "" {
		dir = mainConfig.Export.OutputDir
	}
	fm := utils.NewFileManager(dir)
	fm.UseDateSubdirs = dateSubdirs

	// =========================================================================
	// STEP 1: GENERATE
	// =========================================================================

	fmt.Println("=== Invoice XML Export ===")

	req := exporter.Request{
		OrganizationID: organization,
		Since:          since,
		Until:          until,
		IncludeVAT:     includeVAT,
	}
	result := exporter.New(api, mainConfig, logger).Run(ctx, req)

	if !result.Success {
		logPath, logErr := fm.WriteErrorLog([]utils.ErrorLogEntry{{
			Timestamp:    time.Now(),
			RunID:        result.RunID,
			Organization: organization,
			Since:        since,
			Until:        until,
			ErrorMessage: result.Error.Error(),
		}})
		if logErr != nil {
			logger.WithError(logErr).Warn("Failed to write error log")
		} else {
			fmt.Printf("Error log: %s\n", logPath)
		}
		return fmt.Errorf("export failed: %w", result.Error)
	}

	// =========================================================================
	// STEP 2: WRITE DOCUMENTS
	// =========================================================================

	encoder := download.NewEncoder(mainConfig.Supplier.FileCode())

	names := make([]string, len(result.Documents))
	for i, doc := range result.Documents {
		names[i] = encoder.FileName(doc)

		path, err := fm.WriteDocument(names[i], doc)
		if err != nil {
			return err
		}
		fmt.Printf("  ✓ %s\n", path)
	}

	// =========================================================================
	// STEP 3: REGISTER AND LINKS
	// =========================================================================

	var registerPath string
	if writeReg && len(result.Rows) > 0 {
		registerPath = fm.ReportPath("register", ".xlsx")
		if err := xlsxreport.WriteRegister(registerPath, result.Rows, names); err != nil {
			return err
		}
		fmt.Printf("Register: %s\n", registerPath)
	}

	if printLinks {
		for _, anchor := range encoder.MakeLinks(result.Documents) {
			fmt.Println(anchor)
		}
	}

	// =========================================================================
	// STEP 4: SUMMARY
	// =========================================================================

	summaryPath, err := fm.WriteSummaryLog(utils.ExportSummary{
		RunID:        result.RunID,
		StartTime:    startTime,
		EndTime:      time.Now(),
		Invoices:     result.Stats.InvoicesExported,
		Documents:    names,
		RegisterPath: registerPath,
		IncludeVAT:   includeVAT,
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to write export summary")
	}

	fmt.Println("\n=== Export Complete ===")
	fmt.Printf("Invoices:        %d\n", result.Stats.InvoicesExported)
	fmt.Printf("Documents:       %d\n", result.Stats.DocumentsCreated)
	fmt.Printf("Time elapsed:    %s\n", time.Since(startTime))
	if summaryPath != "" {
		fmt.Printf("Summary:         %s\n", summaryPath)
	}

	return nil
}
