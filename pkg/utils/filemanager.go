// =============================================================================
// Invoice XML Exporter - File Manager Utility
// =============================================================================
//
// This module provides the file handling used by the export command:
//   - Output directory management
//   - Writing XML documents under their download file names
//   - Error log and export summary generation
//
// OUTPUT LAYOUT:
//   output/
//   ├── F_45858226_<md5>_09-05-2023.xml     one file per XML document
//   ├── register_20230509_143022.xlsx        optional export register
//   ├── export_summary_20230509_143022.txt
//   └── error_log_20230509_143022.txt        only when an export failed
//
//   With UseDateSubdirs the files go under output/2023/05/09/ instead.
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles the files written by an export.
type FileManager struct {
	// OutputDir is the directory where output files are placed.
	OutputDir string

	// UseDateSubdirs creates date-based subdirectories.
	// Example: output/2023/05/09/F_....xml
	UseDateSubdirs bool

	// now is the clock used for subdirectories and report names.
	now func() time.Time
}

// NewFileManager creates a new FileManager writing under outputDir.
func NewFileManager(outputDir string) *FileManager {
	return &FileManager{
		OutputDir: outputDir,
		now:       time.Now,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// Dir returns the directory files are written to, including the date
// subdirectory when enabled.
func (fm *FileManager) Dir() string {
	if !fm.UseDateSubdirs {
		return fm.OutputDir
	}

	now := fm.now()
	return filepath.Join(
		fm.OutputDir,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()),
	)
}

// EnsureDirectories creates the output directory if it doesn't exist.
//
// RETURNS:
//   - An error if the directory cannot be created.
func (fm *FileManager) EnsureDirectories() error {
	dir := fm.Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// =============================================================================
// DOCUMENT OUTPUT
// =============================================================================

// WriteDocument writes one XML document under name.
//
// The document is written to a temporary file first and renamed into place,
// so a reader never sees a partial document.
//
// RETURNS:
//   - The path of the written file.
//   - An error if writing fails.
func (fm *FileManager) WriteDocument(name, content string) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid document name %q", name)
	}

	if err := fm.EnsureDirectories(); err != nil {
		return "", err
	}

	path := filepath.Join(fm.Dir(), name)

	tmp, err := os.CreateTemp(fm.Dir(), "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", name, err)
	}

	return path, nil
}

// ReportPath returns a timestamped path for a report file, e.g.
// ReportPath("register", ".xlsx") -> output/register_20230509_143022.xlsx.
func (fm *FileManager) ReportPath(prefix, extension string) string {
	timestamp := fm.now().Format("20060102_150405")
	return filepath.Join(fm.Dir(), fmt.Sprintf("%s_%s%s", prefix, timestamp, extension))
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry describes one failed export.
type ErrorLogEntry struct {
	Timestamp    time.Time
	RunID        string
	Organization string
	Since        string
	Until        string
	ErrorMessage string
}

// WriteErrorLog writes error entries to a log file in the output directory.
//
// RETURNS:
//   - The path to the error log file, or "" when there are no entries.
//   - An error if writing fails.
func (fm *FileManager) WriteErrorLog(entries []ErrorLogEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	if err := fm.EnsureDirectories(); err != nil {
		return "", err
	}

	logPath := fm.ReportPath("error_log", ".txt")

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Invoice XML Exporter - Error Log\n"+
		"Generated: %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		fm.now().Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Error #%d\n"+
			"  Timestamp:      %s\n"+
			"  Run ID:         %s\n"+
			"  Message:        %s\n",
			i+1,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.RunID,
			entry.ErrorMessage)

		if entry.Organization != "" {
			fmt.Fprintf(writer, "  Organization:   %s\n", entry.Organization)
		}
		if entry.Since != "" || entry.Until != "" {
			fmt.Fprintf(writer, "  Period:         %s .. %s\n", entry.Since, entry.Until)
		}

		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// EXPORT SUMMARY
// =============================================================================

// ExportSummary contains summary information about one export.
type ExportSummary struct {
	RunID        string
	StartTime    time.Time
	EndTime      time.Time
	Invoices     int
	Documents    []string
	RegisterPath string
	IncludeVAT   bool
}

// WriteSummaryLog writes an export summary to a file in the output directory.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func (fm *FileManager) WriteSummaryLog(summary ExportSummary) (string, error) {
	if err := fm.EnsureDirectories(); err != nil {
		return "", err
	}

	summaryPath := fm.ReportPath("export_summary", ".txt")

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	duration := summary.EndTime.Sub(summary.StartTime)
	fmt.Fprintf(writer, "Invoice XML Exporter - Export Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Invoices:       %d\n"+
		"  Documents:      %d\n"+
		"  VAT included:   %t\n\n",
		summary.RunID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration.String(),
		summary.Invoices,
		len(summary.Documents),
		summary.IncludeVAT)

	if len(summary.Documents) > 0 {
		writer.WriteString("Documents:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, doc := range summary.Documents {
			fmt.Fprintf(writer, "  %s\n", doc)
		}
		writer.WriteString("\n")
	}

	if summary.RegisterPath != "" {
		fmt.Fprintf(writer, "Register: %s\n\n", summary.RegisterPath)
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// HasXMLExtension reports whether path names an .xml file.
func HasXMLExtension(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xml")
}
