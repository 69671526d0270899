package sink

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/newthinker/harvester/internal/core"
)

// Encode serializes a record and returns its content type.
func Encode(rec core.Record) ([]byte, string, error) {
	switch rec.Format {
	case core.FormatJSON:
		if !json.Valid(rec.JSON) {
			return nil, "", core.WrapError(core.ErrWriteEncode, fmt.Errorf("%s: invalid JSON document", rec.Key))
		}
		return rec.JSON, "application/json", nil

	case core.FormatCSV:
		if rec.Table == nil {
			return nil, "", core.WrapError(core.ErrWriteEncode, fmt.Errorf("%s: missing table", rec.Key))
		}
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write(rec.Table.Header); err != nil {
			return nil, "", core.WrapError(core.ErrWriteEncode, err)
		}
		if err := w.WriteAll(rec.Table.Rows); err != nil {
			return nil, "", core.WrapError(core.ErrWriteEncode, err)
		}
		return buf.Bytes(), "text/csv", nil

	default:
		return nil, "", core.WrapError(core.ErrWriteEncode, fmt.Errorf("%s: unknown format %q", rec.Key, rec.Format))
	}
}

// Decode parses stored bytes back into a record of the given format.
func Decode(key string, format core.Format, data []byte) (core.Record, error) {
	rec := core.Record{Key: key, Format: format}

	switch format {
	case core.FormatJSON:
		if !json.Valid(data) {
			return rec, fmt.Errorf("%s: invalid JSON document", key)
		}
		rec.JSON = data
		return rec, nil

	case core.FormatCSV:
		r := csv.NewReader(bytes.NewReader(data))
		r.FieldsPerRecord = -1
		header, err := r.Read()
		if err != nil {
			if err == io.EOF {
				return rec, fmt.Errorf("%s: missing header", key)
			}
			return rec, err
		}
		rows, err := r.ReadAll()
		if err != nil {
			return rec, err
		}
		if rows == nil {
			rows = [][]string{}
		}
		rec.Table = &core.Table{Header: header, Rows: rows}
		return rec, nil

	default:
		return rec, fmt.Errorf("%s: unknown format %q", key, format)
	}
}
