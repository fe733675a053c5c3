package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"orderboard/internal/log"
)

// CSVWriter writes whole CSV files, replacing any previous content.
type CSVWriter struct {
	logger *log.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *log.Logger) *CSVWriter {
	if logger == nil {
		logger = log.Discard()
	}
	return &CSVWriter{logger: logger.WithComponent(log.ComponentExport)}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // UTF-8 BOM for Excel
}

// WriteCSV truncates path and writes headers and records to it. The parent
// directory is created when missing.
func (w *CSVWriter) WriteCSV(path string, options WriteOptions) error {
	w.logger.Debug("Writing CSV file", log.FieldFile, path, log.FieldRows, len(options.Records))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("write BOM to %s: %w", path, err)
		}
	}

	writer := csv.NewWriter(file)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("write headers to %s: %w", path, err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write record %d to %s: %w", i, path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return file.Close()
}
