package timedataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the timestamp layout of the first column in series files
const TimeLayout = "2006-01-02 15:04:05"

var ErrDataLoad = errors.New("unable to load time series")

// LoadCSV reads a headerless two column datetime,value file
func LoadCSV(path string) (*TimeDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s, %w", err.Error(), ErrDataLoad)
	}
	defer f.Close()

	td, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s, %w", path, err)
	}
	return td, nil
}

// ReadCSV parses headerless datetime,value rows from r. Timestamps are interpreted as UTC.
func ReadCSV(r io.Reader) (*TimeDataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	var t []time.Time
	var y []float64
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s, %w", err.Error(), ErrDataLoad)
		}

		ts, err := time.Parse(TimeLayout, strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid datetime %q, %w", line, rec[0], ErrDataLoad)
		}
		val, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid value %q, %w", line, rec[1], ErrDataLoad)
		}
		t = append(t, ts)
		y = append(y, val)
	}

	td, err := NewUnivariateDataset(t, y)
	if err != nil {
		return nil, errors.Join(ErrDataLoad, err)
	}
	return td, nil
}

// WriteCSV writes the dataset in the layout ReadCSV accepts
func WriteCSV(w io.Writer, td *TimeDataset) error {
	cw := csv.NewWriter(w)
	for i := range td.Y {
		rec := []string{
			td.T[i].UTC().Format(TimeLayout),
			strconv.FormatFloat(td.Y[i], 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
