package framesrc

import (
	"encoding/csv"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"
)

// CounterFile replays lap counter readings from a CSV file with the
// columns frame,counter. An empty counter field, or a frame missing from
// the file, is an absent reading. A header row is allowed.
type CounterFile struct {
	values map[int64]int
}

// LoadCounterFile reads a counter CSV.
func LoadCounterFile(path string) (*CounterFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open counter file: %w", err)
	}
	defer f.Close()
	return ParseCounterCSV(f)
}

// ParseCounterCSV reads counter readings from r.
func ParseCounterCSV(r io.Reader) (*CounterFile, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	cf := &CounterFile{values: make(map[int64]int)}
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("counter file: %w", err)
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("counter file line %d: want frame,counter", line)
		}
		frame, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("counter file line %d: bad frame %q", line, rec[0])
		}
		field := strings.TrimSpace(rec[1])
		if field == "" {
			continue
		}
		v, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("counter file line %d: bad counter %q", line, rec[1])
		}
		cf.values[frame] = v
	}
	return cf, nil
}

// Len returns the number of frames with a reading.
func (c *CounterFile) Len() int { return len(c.values) }

// ReadCounter implements pipeline.CounterReader. The region is ignored.
func (c *CounterFile) ReadCounter(frameIndex int64, _ image.Image) (int, bool) {
	v, ok := c.values[frameIndex]
	return v, ok
}
