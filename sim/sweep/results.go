package sweep

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// Summary holds the mean metrics over the runs of one parameter set.
type Summary struct {
	MaxDelay      float64
	EnergyBalance float64
	AverageEnergy float64
	MaxBuffer     float64
}

// Average returns the mean of every headline metric. An empty input gives
// a zero summary.
func Average(outcomes []Outcome) Summary {
	if len(outcomes) == 0 {
		return Summary{}
	}
	delay := make([]float64, len(outcomes))
	balance := make([]float64, len(outcomes))
	energy := make([]float64, len(outcomes))
	buffer := make([]float64, len(outcomes))
	for i, o := range outcomes {
		delay[i] = o.Results.MaxDelay
		balance[i] = o.Results.EnergyBalance
		energy[i] = o.Results.AverageEnergy
		buffer[i] = o.Results.MaxBuffer
	}
	return Summary{
		MaxDelay:      stat.Mean(delay, nil),
		EnergyBalance: stat.Mean(balance, nil),
		AverageEnergy: stat.Mean(energy, nil),
		MaxBuffer:     stat.Mean(buffer, nil),
	}
}

var csvHeader = []string{
	"heuristic", "max_delay", "balance", "ave_energy", "max_buffer",
	"segment_count", "mdc_count", "traffic_mean", "traffic_stdev", "comms_range",
}

// WriteCSV writes one line per row: the heuristic, then metrics, then the
// effective parameters. A header line comes first when header is set.
func WriteCSV(w io.Writer, rows []Row, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(csvHeader); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for _, r := range rows {
		record := []string{
			string(r.Heuristic),
			formatFloat(r.Summary.MaxDelay),
			formatFloat(r.Summary.EnergyBalance),
			formatFloat(r.Summary.AverageEnergy),
			formatFloat(r.Summary.MaxBuffer),
			strconv.Itoa(r.Env.SegmentCount),
			strconv.Itoa(r.Env.MDCCount),
			formatFloat(r.Env.TrafficMean),
			formatFloat(r.Env.TrafficStdDev),
			formatFloat(r.Env.CommsRange),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
