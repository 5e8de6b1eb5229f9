package models

import "time"

// Reservation statuses as stored. ACTIVE_SERVICE is the stored name for what
// the owner dashboard calls IN_PROGRESS; the mismatch is part of the API
// contract and must not be "fixed".
const (
	ReservationPendingApproval   = "PENDING_APPROVAL"
	ReservationAccepted          = "ACCEPTED"
	ReservationActiveService     = "ACTIVE_SERVICE"
	ReservationServed            = "SERVED"
	ReservationCancelled         = "CANCELLED"
	ReservationLapsedPaid        = "LAPSED_PAID"
	ReservationLapsedNotAccepted = "LAPSED_NOT_ACCEPTED"
)

type Reservation struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	StoreID     int64     `json:"store_id"`
	ServiceID   int64     `json:"service_id"`
	ExpertID    int64     `json:"expert_id"`
	CustomerID  int64     `json:"customer_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	DurationMin int       `json:"duration_min"`
	Status      string    `json:"status"`
	Note        *string   `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ReservationDetail struct {
	Reservation
	CustomerName string  `json:"customer_name"`
	ServiceName  string  `json:"service_name"`
	ExpertName   string  `json:"expert_name"`
	ServicePrice float64 `json:"service_price"`
}
