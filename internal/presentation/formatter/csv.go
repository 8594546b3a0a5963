package formatter

import (
	"encoding/csv"
	"io"
	"strconv"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

func (f *CSVFormatter) Format(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	headers := []string{
		"Source", "Version", "Width", "Height", "Mines",
		"Opens", "Flags", "Ticks", "Duration (ms)", "Progress", "Mode",
	}
	if err := cw.Write(headers); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			row.Source,
			row.Version,
			strconv.Itoa(row.Width),
			strconv.Itoa(row.Height),
			strconv.Itoa(row.Mines),
			strconv.Itoa(row.Opens),
			strconv.Itoa(row.Flags),
			strconv.Itoa(row.Ticks),
			strconv.FormatInt(row.DurationMs, 10),
			strconv.Itoa(row.Progress),
			row.Mode,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
