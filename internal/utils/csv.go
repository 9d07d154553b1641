package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"trailbot/internal/domain"
	"trailbot/internal/strategy/indicators"
)

var klineHeader = []string{"open_time", "close_time", "symbol", "interval", "open", "high", "low", "close", "volume"}

var indicatorHeader = []string{"ema_fast", "ema_slow", "rsi", "volume_avg"}

// WriteKlines writes klines as CSV. When snaps is non-nil it must be aligned
// with klines and its indicator columns are appended; undefined values are left empty.
func WriteKlines(w io.Writer, klines []*domain.Kline, snaps []indicators.Snapshot) error {
	if snaps != nil && len(snaps) != len(klines) {
		return fmt.Errorf("snapshot count %d does not match kline count %d", len(snaps), len(klines))
	}

	writer := csv.NewWriter(w)
	header := klineHeader
	if snaps != nil {
		header = append(append([]string{}, klineHeader...), indicatorHeader...)
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for i, k := range klines {
		row := []string{
			k.OpenTime.UTC().Format(time.RFC3339),
			k.CloseTime.UTC().Format(time.RFC3339),
			k.Symbol,
			k.Interval,
			formatFloat(k.Open),
			formatFloat(k.High),
			formatFloat(k.Low),
			formatFloat(k.Close),
			formatFloat(k.Volume),
		}
		if snaps != nil {
			s := snaps[i]
			row = append(row, formatFloat(s.EMAFast), formatFloat(s.EMASlow), formatFloat(s.RSI), formatFloat(s.VolumeAvg))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteKlinesToCSV writes klines (and optional indicator columns) to filename,
// creating the parent directory when needed.
func WriteKlinesToCSV(klines []*domain.Kline, snaps []indicators.Snapshot, filename string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := WriteKlines(file, klines, snaps); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
