package db

import (
	"database/sql"

	"github.com/kimhsiao/salonbook/backend/internal/models"
)

// ListReservationsBetween returns reservations whose date falls in the
// inclusive [start, end] range (YYYY-MM-DD), newest first.
func ListReservationsBetween(conn *sql.DB, start, end string) ([]models.ReservationExport, error) {
	query := `
	SELECT r.date, r.time, r.customer_name, r.customer_phone,
		   d.name, r.service_type, r.status, r.notes
	FROM reservations r
	LEFT JOIN designers d ON r.designer_id = d.id
	WHERE r.date BETWEEN ? AND ?
	ORDER BY r.date DESC, r.time DESC
	`
	rows, err := conn.Query(query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ReservationExport
	for rows.Next() {
		var r models.ReservationExport
		var phone, designer, service, status, notes sql.NullString
		if err := rows.Scan(&r.Date, &r.Time, &r.CustomerName, &phone,
			&designer, &service, &status, &notes); err != nil {
			return nil, err
		}
		r.CustomerPhone = phone.String
		r.DesignerName = designer.String
		r.ServiceType = service.String
		r.Status = models.ReservationStatus(status.String)
		r.Notes = notes.String
		out = append(out, r)
	}
	return out, rows.Err()
}
