// Package export renders record lists as CSV.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

const ContentType = "text/csv; charset=utf-8"

type Column[T any] struct {
	Header string
	Value  func(T) string
}

func Write[T any](w io.Writer, columns []Column[T], rows []T) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Header
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, c := range columns {
			record[i] = c.Value(row)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func Bytes[T any](columns []Column[T], rows []T) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, columns, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ===============================
// Cell formatting
// ===============================

func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func DatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return Date(*t)
}

func DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func Money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func MoneyPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return Money(*v)
}

func Int(v int) string {
	return fmt.Sprintf("%d", v)
}

func Bool(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// Filename gives "<entity>_<yyyymmdd_hhmmss>.csv".
func Filename(entity string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", entity, now.Format("20060102_150405"))
}
