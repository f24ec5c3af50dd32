package models

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCompleted ReservationStatus = "completed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusNoShow    ReservationStatus = "no_show"
)

// Label returns the display label used in exports. Unknown statuses are
// returned as-is.
func (s ReservationStatus) Label() string {
	switch s {
	case StatusPending:
		return "대기중"
	case StatusConfirmed:
		return "확정"
	case StatusCompleted:
		return "완료"
	case StatusCancelled:
		return "취소"
	case StatusNoShow:
		return "노쇼"
	default:
		return string(s)
	}
}

// ReservationExport is one reservation row joined with its designer name.
type ReservationExport struct {
	Date          string            `json:"date"`
	Time          string            `json:"time"`
	CustomerName  string            `json:"customer_name"`
	CustomerPhone string            `json:"customer_phone,omitempty"`
	DesignerName  string            `json:"designer_name,omitempty"`
	ServiceType   string            `json:"service_type,omitempty"`
	Status        ReservationStatus `json:"status"`
	Notes         string            `json:"notes,omitempty"`
}
