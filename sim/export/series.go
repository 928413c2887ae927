// Package export writes run artefacts: the per-step series as CSV
// (optionally zstd-compressed), the summary as JSON and sweep result tables.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/opensatcom/missionsim/sim"
)

// SeriesHeader is the column order of WriteSeriesCSV.
var SeriesHeader = []string{
	"time_s", "satellite_id", "elev_deg", "az_deg", "range_m",
	"margin_db", "ebn0_db", "throughput_bps", "mode", "capacity_bps",
	"outage", "outage_reason",
}

// formatFloat renders NaN as an empty cell.
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// WriteSeriesCSV writes one row per timestep.
func WriteSeriesCSV(w io.Writer, series []sim.TimeSeriesSample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SeriesHeader); err != nil {
		return err
	}
	for _, s := range series {
		row := []string{
			formatFloat(s.TimeS),
			s.SatelliteID,
			formatFloat(s.ElevationDeg),
			formatFloat(s.AzimuthDeg),
			formatFloat(s.RangeM),
			formatFloat(s.MarginDB),
			formatFloat(s.EbN0DB),
			formatFloat(s.ThroughputBps),
			s.Mode,
			formatFloat(s.CapacityBps),
			strconv.FormatBool(s.Outage),
			string(s.OutageReason),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// IsCompressed reports whether path names a zstd artefact.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

// SaveSeries writes the series to path, zstd-compressed when the name
// ends in ".zst".
func SaveSeries(path string, series []sim.TimeSeriesSample) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create series file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if !IsCompressed(path) {
		return WriteSeriesCSV(f, series)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	if err := WriteSeriesCSV(enc, series); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// OpenSeries opens a series artefact for reading, decompressing ".zst".
func OpenSeries(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open series file: %w", err)
	}
	if !IsCompressed(path) {
		return f, nil
	}
	dec, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(0))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &zstdFile{Decoder: dec, f: f}, nil
}

type zstdFile struct {
	*zstd.Decoder
	f *os.File
}

func (z *zstdFile) Close() error {
	z.Decoder.Close()
	return z.f.Close()
}
