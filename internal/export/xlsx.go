// Package export writes the display-projected batch to an XLSX artifact.
package export

import (
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/brightlane/prospect-cli/internal/model"
)

const sheetName = "Results"

// Write renders the records onto w as an XLSX workbook: one header row
// with the given columns, one row per record.
func Write(w io.Writer, columns []string, records []model.Record) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range columns {
		header.AddCell().Value = col
	}

	for _, r := range records {
		row := sheet.AddRow()
		for _, col := range columns {
			row.AddCell().Value = cellValue(r, col)
		}
	}

	return eris.Wrap(f.Write(w), "export: write workbook")
}

// WriteFile writes the workbook to path.
func WriteFile(path string, columns []string, records []model.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	if err := Write(f, columns, records); err != nil {
		return err
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}

// cellValue maps a display column name onto the record field.
func cellValue(r model.Record, col string) string {
	switch col {
	case "Input":
		return r.InputContext
	case "Name":
		return r.Name
	case "Address":
		return r.Address
	case "Phone":
		return r.Phone
	case "Website":
		return r.Website
	case "Email":
		return r.Email
	case "Latitude":
		return floatCell(r.Latitude)
	case "Longitude":
		return floatCell(r.Longitude)
	case "Status":
		return string(r.Status)
	case "Date":
		return r.LastSeen.Format("02-01-2006 15:04:05")
	default:
		return ""
	}
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
