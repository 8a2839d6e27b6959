package sheets

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fintrack/internal/records"
)

// tab is a decoded sheet. rows[i] lives on sheet row i+2; rows without a
// valid Id are kept so positions stay aligned.
type tab struct {
	header []string
	rows   []records.Record
}

func sheetRow(i int) int { return i + 2 }

func parseTab(values [][]any) *tab {
	t := &tab{}
	if len(values) == 0 {
		return t
	}
	t.header = toStrings(values[0])
	for _, row := range values[1:] {
		rec := records.Record{}
		for j, cell := range row {
			if j >= len(t.header) || t.header[j] == "" {
				continue
			}
			if v := cellValue(cell); v != nil {
				rec[t.header[j]] = v
			}
		}
		if id, ok := records.IDOf(rec[records.IDField]); ok {
			rec[records.IDField] = id
		} else {
			delete(rec, records.IDField)
		}
		t.rows = append(t.rows, rec)
	}
	return t
}

// records returns the rows that carry an id.
func (t *tab) records() []records.Record {
	out := make([]records.Record, 0, len(t.rows))
	for _, r := range t.rows {
		if r.ID() > 0 {
			out = append(out, r.Clone())
		}
	}
	return out
}

func (t *tab) index(id int64) int {
	if id <= 0 {
		return -1
	}
	for i, r := range t.rows {
		if r.ID() == id {
			return i
		}
	}
	return -1
}

func (t *tab) maxID() int64 {
	var max int64
	for _, r := range t.rows {
		if id := r.ID(); id > max {
			max = id
		}
	}
	return max
}

// cellValue converts an unformatted cell into a record value. Empty cells
// are absent.
func cellValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(x) == "" {
			return nil
		}
		return x
	case float64:
		return json.Number(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// extendHeader appends, in sorted order, every field used by recs that the
// header lacks. A missing header starts with Id and Name.
func extendHeader(header []string, recs []records.Record) ([]string, bool) {
	out := append([]string(nil), header...)
	grew := false
	if len(out) == 0 {
		out = []string{records.IDField, records.NameField}
		grew = true
	}
	known := make(map[string]bool, len(out))
	for _, h := range out {
		known[h] = true
	}
	var extra []string
	for _, r := range recs {
		for k := range r {
			if !known[k] {
				known[k] = true
				extra = append(extra, k)
			}
		}
	}
	if len(extra) == 0 {
		return out, grew
	}
	sort.Strings(extra)
	return append(out, extra...), true
}

func rowValues(header []string, r records.Record) []any {
	row := make([]any, len(header))
	for i, h := range header {
		v, ok := r[h]
		if !ok || v == nil {
			row[i] = ""
			continue
		}
		row[i] = v
	}
	return row
}

func toRow(header []string) []any {
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	return row
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
