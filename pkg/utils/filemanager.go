// =============================================================================
// Contract Generator - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the generator:
//   - Creating the working directories (templates, data, output)
//   - Listing template documents
//   - Picking non-clobbering output paths
//   - Copying example spreadsheets to the user
//   - Writing the per-batch error log
//
// DIRECTORY LAYOUT:
//   templates/   - .docx contract templates containing {placeholders}
//   data/        - example input spreadsheets (<template>_Template.xlsx)
//   output/      - generated archives and error logs
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the generator.
type FileManager struct {
	// TemplatesDir holds the .docx templates.
	TemplatesDir string

	// DataDir holds the example spreadsheets.
	DataDir string

	// OutputDir receives generated archives.
	OutputDir string
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(templatesDir, dataDir, outputDir string) *FileManager {
	return &FileManager{
		TemplatesDir: templatesDir,
		DataDir:      dataDir,
		OutputDir:    outputDir,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{fm.TemplatesDir, fm.DataDir, fm.OutputDir}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// EnsureOutputDir creates the output directory only.
func (fm *FileManager) EnsureOutputDir() error {
	if err := os.MkdirAll(fm.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.OutputDir, err)
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverTemplates lists the .docx files in the templates directory, sorted
// by name. Word lock files ("~$name.docx") are skipped.
func (fm *FileManager) DiscoverTemplates() ([]string, error) {
	entries, err := os.ReadDir(fm.TemplatesDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read templates directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "~$") {
			continue
		}
		if strings.EqualFold(filepath.Ext(name), ".docx") {
			files = append(files, name)
		}
	}
	sort.Strings(files)
	return files, nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// UniquePath returns filePath, or "name (2).ext", "name (3).ext" ... when a
// file with that name already exists.
func UniquePath(filePath string) string {
	if !FileExists(filePath) {
		return filePath
	}

	ext := filepath.Ext(filePath)
	stem := strings.TrimSuffix(filePath, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if !FileExists(candidate) {
			return candidate
		}
	}
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	Timestamp    time.Time
	FileName     string
	ErrorType    string
	ErrorMessage string
	RowNumber    int
	FieldName    string
	FieldValue   string
}

// WriteErrorLog writes error entries to a log file.
//
// PARAMETERS:
//   - entries:   The error entries to write.
//   - outputDir: The directory to write the log file.
//   - now:       Timestamp used in the file name and header.
//
// RETURNS:
//   - The path to the error log file ("" when there are no entries).
//   - An error if writing fails.
func WriteErrorLog(entries []ErrorLogEntry, outputDir string, now time.Time) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	logFileName := fmt.Sprintf("error_log_%s.txt", now.Format("20060102_150405"))
	logPath := UniquePath(filepath.Join(outputDir, logFileName))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Contract Generator - Error Log\n"+
		"Generated: %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		now.Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Error #%d\n"+
			"  Timestamp:      %s\n"+
			"  File:           %s\n"+
			"  Error Type:     %s\n"+
			"  Message:        %s\n",
			i+1,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.FileName,
			entry.ErrorType,
			entry.ErrorMessage)

		if entry.RowNumber > 0 {
			fmt.Fprintf(writer, "  Row Number:     %d\n", entry.RowNumber)
		}
		if entry.FieldName != "" {
			fmt.Fprintf(writer, "  Field:          %s\n", entry.FieldName)
		}
		if entry.FieldValue != "" {
			fmt.Fprintf(writer, "  Value:          %s\n", entry.FieldValue)
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
// UTILITY FUNCTIONS
// =============================================================================

// CopyFile copies a file from src to dst, creating dst's directory.
func CopyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	if dir := filepath.Dir(dst); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetFileSize returns the size of a file in bytes.
func GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
