package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Dialect describes the layout of a delimited text file.
type Dialect struct {
	Comma rune // default ','
	// Charset decodes the input to UTF-8. Nil means the input is UTF-8.
	Charset   encoding.Encoding
	HasHeader bool
}

// ReceitaDialect is the layout of the federal company registry open-data
// files: semicolon separated, Latin-1, quoted, no header row.
var ReceitaDialect = Dialect{Comma: ';', Charset: charmap.ISO8859_1}

// RowFunc receives one row and its 1-based line number. fields is reused
// between calls and must not be retained.
type RowFunc func(line int, fields []string) error

// ScanRows reads delimited rows from r and passes each to fn with its fields
// trimmed. A header row, when the dialect has one, is skipped. Scanning stops
// at the first error from fn or when ctx is done. It returns the number of
// rows passed to fn.
func ScanRows(ctx context.Context, r io.Reader, d Dialect, fn RowFunc) (int, error) {
	if d.Charset != nil {
		r = transform.NewReader(r, d.Charset.NewDecoder())
	}
	reader := csv.NewReader(r)
	if d.Comma != 0 {
		reader.Comma = d.Comma
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	rows := 0
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return rows, eris.Wrap(err, "csv: context cancelled")
		}

		fields, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, eris.Wrapf(err, "csv: read line %d", line)
		}
		if line == 1 && d.HasHeader {
			continue
		}

		for i, f := range fields {
			fields[i] = strings.TrimSpace(f)
		}
		if err := fn(line, fields); err != nil {
			return rows, err
		}
		rows++
	}
}
