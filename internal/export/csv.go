package export

import (
	"encoding/csv"
	"os"

	"github.com/kimhsiao/salonbook/backend/internal/models"
)

func writeCSV(path string, rows []models.ReservationExport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Headers); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(record(r, "")); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}
