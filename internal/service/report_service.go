package service

import (
	"context"
	"math"
	"strings"
	"time"

	"frontdesk/internal/billing"
	"frontdesk/internal/domain"
	"frontdesk/internal/models"
)

// Report periods.
const (
	Period7d  = "7d"
	Period30d = "30d"
	Period90d = "90d"
	PeriodAll = "all"
)

var periodDays = map[string]int{Period7d: 7, Period30d: 30, Period90d: 90, PeriodAll: 0}

// reportStatuses are the statuses charted in the status distribution.
var reportStatuses = []string{models.StatusBooked, models.StatusCheckedIn, models.StatusConfirmed, models.StatusPending}

type TypeOccupancy struct {
	Type     models.RoomType `json:"type"`
	Total    int             `json:"total"`
	Occupied int             `json:"occupied"`
}

type RoomStats struct {
	Total         int             `json:"total"`
	Occupied      int             `json:"occupied"`
	Available     int             `json:"available"`
	OccupancyRate int             `json:"occupancy_rate"`
	ByType        []TypeOccupancy `json:"by_type"`
}

// DashboardFilter narrows the booking list. Empty Status or "all" keeps every status.
type DashboardFilter struct {
	Status string
	Search string
}

type Dashboard struct {
	Rooms         RoomStats        `json:"rooms"`
	TotalRevenue  int64            `json:"total_revenue"`
	AverageRating float64          `json:"average_rating"`
	TotalBookings int              `json:"total_bookings"`
	Bookings      []models.Booking `json:"bookings"`
}

type RoomTypeRevenue struct {
	Type    models.RoomType `json:"type"`
	Count   int             `json:"count"`
	Revenue int64           `json:"revenue"`
}

type StatusCount struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}

type MonthRevenue struct {
	Month   string `json:"month"`
	Label   string `json:"label"`
	Revenue int64  `json:"revenue"`
}

type MonthStay struct {
	Month   string  `json:"month"`
	Label   string  `json:"label"`
	AvgStay float64 `json:"avg_stay"`
}

type Report struct {
	Period         string            `json:"period"`
	From           time.Time         `json:"from"`
	TotalRevenue   int64             `json:"total_revenue"`
	TotalBookings  int               `json:"total_bookings"`
	UniqueGuests   int               `json:"unique_guests"`
	OccupiedRooms  int               `json:"occupied_rooms"`
	ByRoomType     []RoomTypeRevenue `json:"by_room_type"`
	ByStatus       []StatusCount     `json:"by_status"`
	RevenueByMonth []MonthRevenue    `json:"revenue_by_month"`
	AvgStayByMonth []MonthStay       `json:"avg_stay_by_month"`
}

// ReportService computes read-only analytics over store snapshots.
type ReportService struct {
	store domain.RoomStore
}

func NewReportService(roomStore domain.RoomStore) *ReportService {
	return &ReportService{store: roomStore}
}

func (s *ReportService) RoomStats(ctx context.Context) RoomStats {
	return roomStats(s.store.ListRooms(ctx))
}

func roomStats(rooms []models.Room) RoomStats {
	stats := RoomStats{Total: len(rooms)}
	byType := make(map[models.RoomType]*TypeOccupancy, len(models.RoomTypes))
	for _, t := range models.RoomTypes {
		byType[t] = &TypeOccupancy{Type: t}
	}

	for _, r := range rooms {
		t, ok := byType[r.Type]
		if !ok {
			t = &TypeOccupancy{Type: r.Type}
			byType[r.Type] = t
		}
		t.Total++
		if r.Booked {
			stats.Occupied++
			t.Occupied++
		}
	}
	stats.Available = stats.Total - stats.Occupied
	if stats.Total > 0 {
		stats.OccupancyRate = int(math.Floor(float64(stats.Occupied)*100/float64(stats.Total) + 0.5))
	}
	for _, t := range models.RoomTypes {
		stats.ByType = append(stats.ByType, *byType[t])
	}
	return stats
}

func (s *ReportService) Dashboard(ctx context.Context, filter DashboardFilter) Dashboard {
	bookings := s.store.ListBookings(ctx)

	d := Dashboard{
		Rooms:         roomStats(s.store.ListRooms(ctx)),
		TotalBookings: len(bookings),
		Bookings:      []models.Booking{},
	}

	var ratingSum int
	for _, b := range bookings {
		d.TotalRevenue += b.TotalAmount
		ratingSum += b.Rating
	}
	if len(bookings) > 0 {
		d.AverageRating = roundTenth(float64(ratingSum) / float64(len(bookings)))
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, b := range bookings {
		if filter.Status != "" && filter.Status != "all" && b.Status != filter.Status {
			continue
		}
		if search != "" {
			haystack := strings.ToLower(strings.Join([]string{b.Name, b.Phone, b.Aadhaar, string(b.RoomType)}, " "))
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		d.Bookings = append(d.Bookings, b)
	}
	return d
}

// Report aggregates bookings whose check-in is within the period before now.
// Monthly series cover the last ReportMonths calendar months, oldest first.
func (s *ReportService) Report(ctx context.Context, period string, now time.Time) (Report, error) {
	if period == "" {
		period = Period30d
	}
	days, ok := periodDays[period]
	if !ok {
		return Report{}, ErrInvalidPeriod
	}

	rep := Report{Period: period}
	if days > 0 {
		rep.From = now.AddDate(0, 0, -days)
	}

	var filtered []models.Booking
	for _, b := range s.store.ListBookings(ctx) {
		if days > 0 && b.CheckIn.Before(rep.From) {
			continue
		}
		filtered = append(filtered, b)
	}

	guests := make(map[string]struct{})
	rooms := make(map[int]struct{})
	byType := make(map[models.RoomType]*RoomTypeRevenue)
	byStatus := make(map[string]int)
	for _, b := range filtered {
		rep.TotalRevenue += b.TotalAmount
		guests[b.Name] = struct{}{}
		rooms[b.RoomNumber] = struct{}{}
		t, ok := byType[b.RoomType]
		if !ok {
			t = &RoomTypeRevenue{Type: b.RoomType}
			byType[b.RoomType] = t
		}
		t.Count++
		t.Revenue += b.TotalAmount
		byStatus[b.Status]++
	}
	rep.TotalBookings = len(filtered)
	rep.UniqueGuests = len(guests)
	rep.OccupiedRooms = len(rooms)

	for _, t := range models.RoomTypes {
		entry := RoomTypeRevenue{Type: t}
		if got, ok := byType[t]; ok {
			entry = *got
		}
		rep.ByRoomType = append(rep.ByRoomType, entry)
	}
	for _, st := range reportStatuses {
		rep.ByStatus = append(rep.ByStatus, StatusCount{Status: st, Label: statusLabel(st), Count: byStatus[st]})
	}

	rep.RevenueByMonth, rep.AvgStayByMonth = monthlySeries(filtered, now)
	return rep, nil
}

func monthlySeries(bookings []models.Booking, now time.Time) ([]MonthRevenue, []MonthStay) {
	now = now.UTC()
	revenue := make([]MonthRevenue, 0, models.ReportMonths)
	stays := make([]MonthStay, 0, models.ReportMonths)

	for i := models.ReportMonths - 1; i >= 0; i-- {
		month := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		key := month.Format("2006-01")
		label := month.Format("Jan")

		var sum int64
		var nights, count int
		for _, b := range bookings {
			in := b.CheckIn.UTC()
			if in.Year() != month.Year() || in.Month() != month.Month() {
				continue
			}
			sum += b.TotalAmount
			nights += billing.Nights(b.CheckIn, b.CheckOut)
			count++
		}

		revenue = append(revenue, MonthRevenue{Month: key, Label: label, Revenue: sum})
		avg := 0.0
		if count > 0 {
			avg = roundTenth(float64(nights) / float64(count))
		}
		stays = append(stays, MonthStay{Month: key, Label: label, AvgStay: avg})
	}
	return revenue, stays
}

// statusLabel turns "checked-in" into "Checked in".
func statusLabel(status string) string {
	if status == "" {
		return ""
	}
	s := strings.Replace(status, "-", " ", 1)
	return strings.ToUpper(s[:1]) + s[1:]
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
