package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"frontdesk/internal/billing"
	"frontdesk/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	BookingsSheet = "Bookings"
	InvoiceSheet  = "Invoice"
)

var bookingHeaders = []string{
	"ID", "Guest", "Phone", "Aadhaar", "Room", "Type", "Check-in", "Check-out",
	"Nights", "Rate", "Total", "Tax", "Discount", "Grand total", "Payment", "Status", "Rating",
}

// BookingsWorkbook builds the bookings register, one row per booking.
func BookingsWorkbook(bookings []models.Booking) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", BookingsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("error renaming sheet: %w", err)
	}

	for i, h := range bookingHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(BookingsSheet, cell, h)
	}

	for i, b := range bookings {
		row := i + 2
		values := []interface{}{
			b.ID, b.Name, b.Phone, b.Aadhaar, b.RoomNumber, string(b.RoomType),
			b.CheckIn.Format(models.DateLayout), b.CheckOut.Format(models.DateLayout),
			b.Nights, b.RoomRate, b.TotalAmount, b.Tax, b.Discount, billing.GrandTotal(b),
			string(b.PaymentMode), b.Status, b.Rating,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(BookingsSheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	lastCol, _ := excelize.ColumnNumberToName(len(bookingHeaders))
	_ = f.SetCellStyle(BookingsSheet, "A1", lastCol+"1", headerStyle)
	_ = f.SetColWidth(BookingsSheet, "B", "B", 25)
	_ = f.SetColWidth(BookingsSheet, "C", "H", 14)
	_ = f.SetPanes(BookingsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	return f, nil
}

// InvoiceWorkbook lays out a printable invoice for one booking.
func InvoiceWorkbook(inv billing.Invoice) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", InvoiceSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("error renaming sheet: %w", err)
	}

	rows := [][]interface{}{
		{inv.Hotel.Name},
		{inv.Hotel.Address},
		{inv.Hotel.Phone, inv.Hotel.Email},
		{},
		{"Invoice No", inv.Number},
		{"Date", inv.Date.Format(models.DateLayout)},
		{"Status", inv.Status},
		{},
		{"Guest", inv.GuestName},
		{"Phone", inv.Phone},
		{"Aadhaar", inv.Aadhaar},
		{"Room", fmt.Sprintf("%d (%s)", inv.RoomNumber, inv.RoomType)},
		{},
		{inv.ChargesLabel, billing.FormatRupees(inv.RoomCharges)},
		{"GST (12%)", billing.FormatRupees(inv.Tax)},
		{"Discount", billing.FormatRupees(-inv.Discount)},
		{"Payment Mode", string(inv.PaymentMode)},
		{"Grand Total", billing.FormatRupees(inv.GrandTotal)},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		row := r
		if err := f.SetSheetRow(InvoiceSheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write invoice row %d: %w", i+1, err)
		}
	}

	title, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	_ = f.SetCellStyle(InvoiceSheet, "A1", "A1", title)
	total, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	last := fmt.Sprintf("B%d", len(rows))
	_ = f.SetCellStyle(InvoiceSheet, fmt.Sprintf("A%d", len(rows)), last, total)
	_ = f.SetColWidth(InvoiceSheet, "A", "A", 40)
	_ = f.SetColWidth(InvoiceSheet, "B", "B", 22)

	return f, nil
}

func WriteBookings(w io.Writer, bookings []models.Booking) error {
	f, err := BookingsWorkbook(bookings)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func WriteInvoice(w io.Writer, inv billing.Invoice) error {
	f, err := InvoiceWorkbook(inv)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// SaveBookings writes the register into dir and returns the file path.
func SaveBookings(dir string, bookings []models.Booking, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f, err := BookingsWorkbook(bookings)
	if err != nil {
		return "", err
	}
	defer f.Close()

	path := filepath.Join(dir, fmt.Sprintf("bookings_%s.xlsx", now.Format("2006-01-02_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}
	return path, nil
}
