package export

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/opensatcom/missionsim/sim/sweep"
)

// WriteSweepCSV writes one row per case: the swept parameters in key order,
// then status and headline summary metrics.
func WriteSweepCSV(w io.Writer, results []sweep.Result) error {
	keySet := map[string]bool{}
	for _, r := range results {
		for k := range r.Case.Params {
			keySet[k] = true
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cw := csv.NewWriter(w)
	header := append([]string{"case_id", "index"}, keys...)
	header = append(header, "status", "availability", "outage_minutes", "margin_p05_db",
		"margin_p50_db", "throughput_mean_bps", "handovers", "duration_s", "error")
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{r.Case.ID, strconv.Itoa(r.Case.Index)}
		for _, k := range keys {
			if v, ok := r.Case.Params[k]; ok {
				row = append(row, formatFloat(v))
			} else {
				row = append(row, "")
			}
		}
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		row = append(row,
			r.Status(),
			formatFloat(r.Summary.Availability),
			formatFloat(r.Summary.OutageMinutes),
			formatFloat(r.Summary.MarginP05DB),
			formatFloat(r.Summary.MarginP50DB),
			formatFloat(r.Summary.ThroughputMeanBps),
			strconv.Itoa(r.Summary.HandoverCount),
			formatFloat(r.Duration.Seconds()),
			errText,
		)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
