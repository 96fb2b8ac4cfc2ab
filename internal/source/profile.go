package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrInvalidProfile = errors.New("source: invalid profile")

// Profile replays a time series loaded once at startup: one column per input, one row per tick.
type Profile struct {
	columns []string
	rows    []map[string]float64
	loop    bool
}

// LoadProfile reads a CSV profile from path.
func LoadProfile(path string, loop bool) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("profile load failed (%s): %w", path, err)
	}
	defer f.Close()

	p, err := ReadProfile(f, loop)
	if err != nil {
		return nil, fmt.Errorf("profile parse failed (%s): %w", path, err)
	}
	log.Debug().Msgf("source.LoadProfile path=%q columns=%d rows=%d loop=%v", path, len(p.columns), len(p.rows), loop)
	return p, nil
}

// ReadProfile parses a CSV profile with a header row of input names.
func ReadProfile(r io.Reader, loop bool) (*Profile, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing header", ErrInvalidProfile)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	columns := make([]string, len(header))
	for i, col := range header {
		col = strings.TrimSpace(col)
		if col == "" {
			return nil, fmt.Errorf("%w: empty column name at %d", ErrInvalidProfile, i)
		}
		columns[i] = col
	}

	rows := make([]map[string]float64, 0)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
		}
		row := make(map[string]float64, len(columns))
		for i, raw := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %q: %v", ErrInvalidProfile, line, columns[i], err)
			}
			row[columns[i]] = v
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidProfile)
	}
	return &Profile{columns: columns, rows: rows, loop: loop}, nil
}

// Columns returns the input names in header order.
func (p *Profile) Columns() []string {
	out := make([]string, len(p.columns))
	copy(out, p.columns)
	return out
}

// Len returns the number of rows.
func (p *Profile) Len() int {
	return len(p.rows)
}

func (p *Profile) Inputs(tick uint64, _ time.Time) (map[string]float64, error) {
	n := uint64(len(p.rows))
	if tick >= n {
		if !p.loop {
			return nil, fmt.Errorf("%w: tick %d beyond %d rows", ErrProfileExhausted, tick, n)
		}
		tick %= n
	}
	return maps.Clone(p.rows[tick]), nil
}
