package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"glmengine/domain/dataset"
	"glmengine/internal"
	"glmengine/internal/errors"
	"glmengine/ports"
)

var _ ports.DatasetReader = (*DataReader)(nil)

// DataReader reads Excel and CSV files into analysis datasets
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	config   ReaderConfig
	logger   *internal.Logger
}

// NewDataReader creates a reader; the type follows the file extension
func NewDataReader(filePath string, config ReaderConfig, logger *internal.Logger) *DataReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		config:   config,
		logger:   logger.With("reader"),
	}
}

// ReadData reads the file. The first row holds column names; every
// following row becomes one record with missing cells left out.
func (r *DataReader) ReadData() (*dataset.Dataset, error) {
	r.logger.Debug("reading %s file %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); err != nil {
		return nil, errors.IOError(fmt.Sprintf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath), err)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSV()
	default:
		rows, err = r.readExcel()
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, errors.IOError(fmt.Sprintf("%s must have a header row and at least one data row", r.filePath), nil)
	}
	return r.processRows(rows)
}

// readExcel reads every row of the configured worksheet
func (r *DataReader) readExcel() ([][]string, error) {
	start := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.IOError("failed to open Excel file", err)
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.IOError(fmt.Sprintf("failed to read sheet %s", sheet), err)
	}
	r.logger.Debug("sheet %s read in %s (%d rows)", sheet, time.Since(start), len(rows))
	return rows, nil
}

func (r *DataReader) readCSV() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.IOError("failed to open CSV file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.IOError("failed to read CSV file", err)
	}
	return rows, nil
}

// processRows converts raw string rows into records
func (r *DataReader) processRows(rows [][]string) (*dataset.Dataset, error) {
	headers := make([]string, len(rows[0]))
	seen := make(map[string]bool, len(headers))
	for i, h := range rows[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		if seen[h] {
			return nil, errors.IOError(fmt.Sprintf("duplicate column %q", h), nil)
		}
		seen[h] = true
		headers[i] = h
	}

	missing := make(map[string]bool, len(r.config.MissingValues))
	for _, m := range r.config.MissingValues {
		missing[m] = true
	}

	ds := &dataset.Dataset{
		Name:    strings.TrimSuffix(filepath.Base(r.filePath), filepath.Ext(r.filePath)),
		Columns: headers,
	}
	for _, row := range rows[1:] {
		rec := make(dataset.Record, len(headers))
		for j, cell := range row {
			if j >= len(headers) {
				break
			}
			cell = strings.TrimSpace(cell)
			if missing[cell] {
				continue
			}
			rec[headers[j]] = cell
		}
		if len(rec) == 0 {
			continue
		}
		ds.Records = append(ds.Records, rec)
	}

	r.logger.Info("%s file %s: %d columns, %d records", strings.ToUpper(r.fileType), r.filePath, len(headers), len(ds.Records))
	return ds, nil
}
