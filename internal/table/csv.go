package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fjacquet/databonsai/internal/logging"

	"github.com/gocarina/gocsv"
)

// DefaultDelimiter is used when no delimiter is configured.
const DefaultDelimiter = ','

// Read parses CSV data whose first record is the header. Short records are
// padded; a record wider than the header is an error since its extra cells
// would have no column to be written back under.
func Read(r io.Reader, delimiter rune) (*Table, error) {
	reader := gocsv.LazyCSVReader(r)
	if cr, ok := reader.(*csv.Reader); ok {
		cr.Comma = delimiterOrDefault(delimiter)
		cr.FieldsPerRecord = -1
	}

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("error reading CSV header: empty input")
		}
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	t := New(header...)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error parsing CSV data: %w", err)
	}
	for i, record := range records {
		if len(record) > len(header) {
			return nil, fmt.Errorf("error parsing CSV data: row %d has %d fields, header has %d", i+1, len(record), len(header))
		}
		t.AppendRow(record...)
	}
	return t, nil
}

// Write serializes the table, header first.
func Write(w io.Writer, t *Table, delimiter rune) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiterOrDefault(delimiter)
	safe := gocsv.NewSafeCSVWriter(csvWriter)

	if err := safe.Write(t.Header); err != nil {
		return fmt.Errorf("error writing CSV header: %w", err)
	}
	for i, row := range t.Rows {
		if err := safe.Write(row); err != nil {
			return fmt.Errorf("error writing CSV row %d: %w", i, err)
		}
	}
	safe.Flush()
	if err := safe.Error(); err != nil {
		return fmt.Errorf("error flushing CSV data: %w", err)
	}
	return nil
}

// ReadFile reads a CSV file into a Table.
func ReadFile(filePath string, delimiter rune, logger logging.Logger) (*Table, error) {
	if logger == nil {
		logger = logging.GetLogger()
	}
	logger.Debug("Reading CSV file", logging.Field{Key: logging.FieldInputFile, Value: filePath})

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	t, err := Read(file, delimiter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	logger.Info("Successfully read CSV data",
		logging.Field{Key: logging.FieldInputFile, Value: filePath},
		logging.Field{Key: logging.FieldCount, Value: t.NumRows()})
	return t, nil
}

// WriteFile writes the table to filePath through a temporary file in the same
// directory, so an interrupted write never truncates a previous result.
func WriteFile(filePath string, t *Table, delimiter rune, logger logging.Logger) error {
	if t == nil {
		return fmt.Errorf("cannot write nil table to CSV")
	}
	if logger == nil {
		logger = logging.GetLogger()
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename succeeded
		_ = os.Remove(tmpName)
	}()

	if err := Write(tmp, t, delimiter); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing CSV file: %w", err)
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		return fmt.Errorf("error replacing CSV file: %w", err)
	}

	logger.Info("Successfully wrote CSV file",
		logging.Field{Key: logging.FieldOutputFile, Value: filePath},
		logging.Field{Key: logging.FieldCount, Value: t.NumRows()},
		logging.Field{Key: logging.FieldDelimiter, Value: string(delimiterOrDefault(delimiter))})
	return nil
}

func delimiterOrDefault(d rune) rune {
	if d == 0 {
		return DefaultDelimiter
	}
	return d
}
