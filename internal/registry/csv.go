package registry

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/openbooks-dev/openbooks/internal/model"
)

// ChartHeader is the CSV header for chart-of-accounts files.
const ChartHeader = "code,name,type,parent_id,description"

const (
	numFields = 5
	colCode   = 0
	colName   = 1
	colType   = 2
	colParent = 3
	colDesc   = 4
)

// ReadChart reads chart-of-accounts rows from a CSV with a header line.
// Rows are syntactically parsed only; BulkCreate applies the business
// validation per row.
func ReadChart(r io.Reader) ([]CreateParams, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chart CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var rows []CreateParams
	for i, rec := range records[1:] {
		row, err := unmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func unmarshalRow(record []string) (CreateParams, error) {
	if len(record) != numFields {
		return CreateParams{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	var parentID int64
	if record[colParent] != "" {
		var err error
		parentID, err = strconv.ParseInt(record[colParent], 10, 64)
		if err != nil {
			return CreateParams{}, fmt.Errorf("parsing parent_id %q: %w", record[colParent], err)
		}
	}

	return CreateParams{
		Code:        record[colCode],
		Name:        record[colName],
		Type:        model.AccountType(record[colType]),
		ParentID:    parentID,
		Description: record[colDesc],
	}, nil
}
