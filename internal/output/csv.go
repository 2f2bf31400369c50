package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/html-makers/surf/pkg/models"
)

// WriteCSV renders a page as CSV. Matched items become one row each;
// extracted values become a single-column table; with neither, the
// page content is written as one row.
func WriteCSV(w io.Writer, page *models.Page) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	switch {
	case len(page.Extracted) > 0:
		if rows, ok := structuredRows(page.Extracted); ok {
			return writeStructured(cw, rows)
		}
		if err := cw.Write([]string{"Value"}); err != nil {
			return err
		}
		for _, v := range page.Extracted {
			if err := cw.Write([]string{fmt.Sprintf("%v", v)}); err != nil {
				return err
			}
		}

	case len(page.Items) > 0:
		if err := cw.Write([]string{"Text", "HTML"}); err != nil {
			return err
		}
		for _, item := range page.Items {
			if err := cw.Write([]string{item.Text, item.HTML}); err != nil {
				return err
			}
		}

	default:
		if err := cw.Write([]string{"URL", "Title", "Content"}); err != nil {
			return err
		}
		if err := cw.Write([]string{page.URL, page.Title, page.Content}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// structuredRows detects projections that returned objects, so each
// key becomes a CSV column.
func structuredRows(values []interface{}) ([]map[string]interface{}, bool) {
	rows := make([]map[string]interface{}, 0, len(values))
	for _, v := range values {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, false
		}
		rows = append(rows, m)
	}
	return rows, len(rows) > 0
}

func writeStructured(cw *csv.Writer, rows []map[string]interface{}) error {
	var headers []string
	for k := range rows[0] {
		headers = append(headers, k)
	}
	sort.Strings(headers)

	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, len(headers))
		for i, h := range headers {
			if v, ok := row[h]; ok {
				record[i] = fmt.Sprintf("%v", v)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the page CSV export to a file.
func SaveCSV(page *models.Page, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteCSV(f, page)
}
