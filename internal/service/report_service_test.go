package service

import (
	"context"
	"testing"
	"time"

	"frontdesk/internal/models"
	"frontdesk/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T) *store.Store {
	t.Helper()
	st := newTestStore()
	ctx := context.Background()

	seed := []models.AllocateRequest{
		{RoomNumber: 1, Name: "Asha", Phone: "9000000001", Aadhaar: "100000000001", CheckIn: date("2024-03-10"), CheckOut: date("2024-03-12"), Rating: 4},
		{RoomNumber: 6, Name: "Bala", Phone: "9000000002", Aadhaar: "100000000002", CheckIn: date("2024-02-20"), CheckOut: date("2024-02-21"), Status: models.StatusCheckedIn, Rating: 5},
		{RoomNumber: 11, Name: "Asha", Phone: "9000000003", Aadhaar: "100000000003", CheckIn: date("2023-12-01"), CheckOut: date("2023-12-04"), Status: models.StatusConfirmed},
	}
	for _, req := range seed {
		_, err := st.Allocate(ctx, req)
		require.NoError(t, err)
	}
	return st
}

func date(s string) time.Time {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestReportService_RoomStats(t *testing.T) {
	svc := NewReportService(seedStore(t))

	stats := svc.RoomStats(context.Background())
	assert.Equal(t, 15, stats.Total)
	assert.Equal(t, 3, stats.Occupied)
	assert.Equal(t, 12, stats.Available)
	assert.Equal(t, 20, stats.OccupancyRate)
	require.Len(t, stats.ByType, 3)
	assert.Equal(t, TypeOccupancy{Type: models.RoomDeluxe, Total: 5, Occupied: 1}, stats.ByType[1])
}

func TestReportService_RoomStatsEmptyRegistry(t *testing.T) {
	svc := NewReportService(store.New(nil, nil))
	stats := svc.RoomStats(context.Background())
	assert.Equal(t, 0, stats.OccupancyRate)
}

func TestReportService_Dashboard(t *testing.T) {
	svc := NewReportService(seedStore(t))
	ctx := context.Background()

	d := svc.Dashboard(ctx, DashboardFilter{})
	assert.Equal(t, 3, d.TotalBookings)
	assert.Equal(t, int64(5000+3500+15000), d.TotalRevenue)
	assert.Equal(t, 3.0, d.AverageRating)
	assert.Len(t, d.Bookings, 3)

	d = svc.Dashboard(ctx, DashboardFilter{Status: models.StatusCheckedIn})
	require.Len(t, d.Bookings, 1)
	assert.Equal(t, "Bala", d.Bookings[0].Name)

	d = svc.Dashboard(ctx, DashboardFilter{Status: "all", Search: "SUITE"})
	require.Len(t, d.Bookings, 1)
	assert.Equal(t, 11, d.Bookings[0].RoomNumber)

	d = svc.Dashboard(ctx, DashboardFilter{Search: "9000000002"})
	require.Len(t, d.Bookings, 1)

	d = svc.Dashboard(ctx, DashboardFilter{Search: "nobody"})
	assert.Empty(t, d.Bookings)
	assert.Equal(t, 3, d.TotalBookings)
}

func TestReportService_Report(t *testing.T) {
	svc := NewReportService(seedStore(t))
	ctx := context.Background()

	t.Run("30d", func(t *testing.T) {
		rep, err := svc.Report(ctx, Period30d, testNow)
		require.NoError(t, err)

		assert.Equal(t, 2, rep.TotalBookings)
		assert.Equal(t, int64(5000+3500), rep.TotalRevenue)
		assert.Equal(t, 2, rep.UniqueGuests)
		assert.Equal(t, 2, rep.OccupiedRooms)
		assert.Equal(t, RoomTypeRevenue{Type: models.RoomStandard, Count: 1, Revenue: 5000}, rep.ByRoomType[0])
		assert.Equal(t, RoomTypeRevenue{Type: models.RoomSuite}, rep.ByRoomType[2])

		require.Len(t, rep.ByStatus, 4)
		assert.Equal(t, StatusCount{Status: models.StatusBooked, Label: "Booked", Count: 1}, rep.ByStatus[0])
		assert.Equal(t, StatusCount{Status: models.StatusCheckedIn, Label: "Checked in", Count: 1}, rep.ByStatus[1])
	})

	t.Run("AllTime", func(t *testing.T) {
		rep, err := svc.Report(ctx, PeriodAll, testNow)
		require.NoError(t, err)

		assert.True(t, rep.From.IsZero())
		assert.Equal(t, 3, rep.TotalBookings)
		assert.Equal(t, 2, rep.UniqueGuests, "guests are counted by name")

		require.Len(t, rep.RevenueByMonth, 6)
		assert.Equal(t, "2023-10", rep.RevenueByMonth[0].Month)
		assert.Equal(t, "Mar", rep.RevenueByMonth[5].Label)
		assert.Equal(t, int64(5000), rep.RevenueByMonth[5].Revenue)
		assert.Equal(t, int64(3500), rep.RevenueByMonth[4].Revenue)
		assert.Equal(t, int64(15000), rep.RevenueByMonth[2].Revenue)

		require.Len(t, rep.AvgStayByMonth, 6)
		assert.Equal(t, 3.0, rep.AvgStayByMonth[2].AvgStay)
		assert.Equal(t, 0.0, rep.AvgStayByMonth[3].AvgStay)
	})

	t.Run("DefaultPeriod", func(t *testing.T) {
		rep, err := svc.Report(ctx, "", testNow)
		require.NoError(t, err)
		assert.Equal(t, Period30d, rep.Period)
	})

	t.Run("InvalidPeriod", func(t *testing.T) {
		_, err := svc.Report(ctx, "1y", testNow)
		assert.ErrorIs(t, err, ErrInvalidPeriod)
	})
}

func TestMonthlySeries_EndOfMonth(t *testing.T) {
	// March 31 minus one month must still be February.
	rev, _ := monthlySeries(nil, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	require.Len(t, rev, 6)
	assert.Equal(t, "2024-02", rev[4].Month)
	assert.Equal(t, "2024-03", rev[5].Month)
}
