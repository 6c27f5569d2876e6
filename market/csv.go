package market

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
)

// timeLayout matches the exported candle dumps: "20060102 150405", UTC.
const timeLayout = "20060102 150405"

// CSVSource loads bars from per-symbol files in a directory. Each symbol has
// a file <Dir>/<symbol>.csv (or <symbol>.csv.xz) with semicolon-separated
// rows: time;open;high;low;close;volume. A header row starting with "time;"
// is skipped, as are malformed rows.
type CSVSource struct {
	Dir string

	// BadLines counts rows skipped by the last LoadBars call.
	BadLines int
}

// LoadBars returns the symbol's bars inside [start, end], ascending in time.
func (s *CSVSource) LoadBars(symbol string, interval Interval, start, end time.Time) ([]Bar, error) {
	r, closeFn, err := s.open(symbol)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	s.BadLines = 0

	var bars []Bar
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "time;") || strings.HasPrefix(line, "Time;") {
			continue
		}

		bar, ok := parseBarLine(symbol, line)
		if !ok {
			s.BadLines++
			continue
		}
		if bar.Time.Before(start) || bar.Time.After(end) {
			continue
		}
		bars = append(bars, bar)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("market: scan %s bars: %w", symbol, err)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (s *CSVSource) open(symbol string) (io.Reader, func() error, error) {
	plain := filepath.Join(s.Dir, symbol+".csv")
	if f, err := os.Open(plain); err == nil {
		return f, f.Close, nil
	}

	packed := filepath.Join(s.Dir, symbol+".csv.xz")
	f, err := os.Open(packed)
	if err != nil {
		return nil, nil, fmt.Errorf("market: no data file for %s in %s", symbol, s.Dir)
	}
	xr, err := xz.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("market: open %s: %w", packed, err)
	}
	return xr, f.Close, nil
}

func parseBarLine(symbol, line string) (Bar, bool) {
	parts := strings.Split(line, ";")
	if len(parts) < 5 {
		return Bar{}, false
	}

	ts, err := time.ParseInLocation(timeLayout, parts[0], time.UTC)
	if err != nil {
		return Bar{}, false
	}

	var vals [4]float64
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(parts[i+1], 64)
		if err != nil {
			return Bar{}, false
		}
		vals[i] = v
	}

	volume := 0.0
	if len(parts) >= 6 {
		// volume column is optional; a bad value zeroes it rather than
		// dropping the bar
		volume, _ = strconv.ParseFloat(parts[5], 64)
	}

	return Bar{
		Symbol: symbol,
		Time:   ts,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: volume,
	}, true
}
