// =============================================================================
// Invoice XML Exporter - Main Entry Point
// =============================================================================
//
// This is the main entry point of the exporter CLI. It delegates command
// execution to the cmd package.
//
// USAGE:
//   invoice-xml-export serve     - Start the export web form
//   invoice-xml-export export    - Export invoices to XML files
//   invoice-xml-export check     - Check generated XML documents
//   invoice-xml-export version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Billing API client, conversion, checks, web form
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/danutsss/invoice-xml-export/cmd"
)

func main() {
	cmd.Execute()
}
