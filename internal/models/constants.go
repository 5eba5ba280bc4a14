package models

type PaymentMode string

const (
	PaymentCash   PaymentMode = "Cash"
	PaymentCard   PaymentMode = "Card"
	PaymentUPI    PaymentMode = "UPI"
	PaymentOnline PaymentMode = "Online"
)

// Valid reports whether m is an accepted payment mode.
func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentOnline:
		return true
	}
	return false
}

const (
	StatusBooked    = "Booked"
	StatusConfirmed = "confirmed"
	StatusCheckedIn = "checked-in"
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// ValidStatus reports whether s is one of the booking statuses above.
func ValidStatus(s string) bool {
	switch s {
	case StatusBooked, StatusConfirmed, StatusCheckedIn, StatusPending, StatusCompleted:
		return true
	}
	return false
}

const (
	// Placeholders for guest fields left empty at intake.
	UnknownGuest   = "Unknown Guest"
	NotAvailable   = "N/A"
	DefaultPayment = PaymentCash

	// GSTRate is the tax applied to room charges.
	GSTRate = "0.12"

	// DateLayout is the wire format of check-in/check-out dates.
	DateLayout = "2006-01-02"
)

const (
	// DefaultDraftTTL время жизни черновика заявки
	DefaultDraftTTL = 24 * 60 * 60 // 24 часа в секундах

	// SubmitLimit количество отправок черновика в окне
	SubmitLimit = 5

	// SubmitWindow окно ограничения частоты отправок
	SubmitWindow = 60 // 1 минута в секундах

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 1000

	// ReportMonths количество месяцев в помесячных графиках
	ReportMonths = 6
)
