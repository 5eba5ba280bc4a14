package service

import (
	"context"
	"fmt"
	"time"

	"frontdesk/internal/domain"
	"frontdesk/internal/metrics"
	"frontdesk/internal/models"

	"github.com/rs/zerolog"
)

// Draft field keys. They match the json names of BookingRequest.
const (
	FieldName       = "name"
	FieldPhone      = "phone"
	FieldAadhaar    = "aadhaar"
	FieldCheckIn    = "check_in"
	FieldCheckOut   = "check_out"
	FieldRoomNumber = "room_number"
	FieldRoomType   = "room_type"
	FieldStatus     = "status"
	FieldRating     = "rating"
)

var draftFields = map[string]bool{
	FieldName: true, FieldPhone: true, FieldAadhaar: true,
	FieldCheckIn: true, FieldCheckOut: true,
	FieldRoomNumber: true, FieldRoomType: true,
	FieldStatus: true, FieldRating: true,
}

type bookingCreator interface {
	CreateBooking(ctx context.Context, req BookingRequest) (models.Booking, error)
}

// IntakeService keeps the half-filled booking form of each desk.
type IntakeService struct {
	drafts       domain.DraftRepository
	bookings     bookingCreator
	submitLimit  int
	submitWindow time.Duration
	logger       *zerolog.Logger
}

func NewIntakeService(
	drafts domain.DraftRepository,
	bookings bookingCreator,
	submitLimit int,
	submitWindow time.Duration,
	logger *zerolog.Logger,
) *IntakeService {
	if submitLimit <= 0 {
		submitLimit = models.SubmitLimit
	}
	if submitWindow <= 0 {
		submitWindow = models.SubmitWindow * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &IntakeService{
		drafts:       drafts,
		bookings:     bookings,
		submitLimit:  submitLimit,
		submitWindow: submitWindow,
		logger:       logger,
	}
}

func (s *IntakeService) GetDraft(ctx context.Context, deskID string) (*models.Draft, error) {
	draft, err := s.drafts.GetDraft(ctx, deskID)
	if err != nil {
		s.logger.Error().Err(err).Str("desk_id", deskID).Msg("failed to get draft")
		return nil, err
	}
	if draft == nil {
		return nil, ErrDraftNotFound
	}
	return draft, nil
}

// SaveDraft merges fields into the desk's draft. Unknown keys are rejected.
func (s *IntakeService) SaveDraft(ctx context.Context, deskID string, fields map[string]interface{}) (*models.Draft, error) {
	bad := make(map[string]string)
	for k := range fields {
		if !draftFields[k] {
			bad[k] = "unknown field"
		}
	}
	if len(bad) > 0 {
		return nil, &ValidationError{Fields: bad}
	}

	draft, err := s.drafts.GetDraft(ctx, deskID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		draft = &models.Draft{DeskID: deskID}
	}
	if draft.Fields == nil {
		draft.Fields = make(map[string]interface{}, len(fields))
	}
	for k, v := range fields {
		draft.Fields[k] = v
	}
	draft.UpdatedAt = time.Now()

	if err := s.drafts.SaveDraft(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *IntakeService) ClearDraft(ctx context.Context, deskID string) error {
	return s.drafts.ClearDraft(ctx, deskID)
}

// SubmitDraft turns the desk's draft into a booking. The draft is kept when
// the booking is rejected so the clerk can correct it.
func (s *IntakeService) SubmitDraft(ctx context.Context, deskID string) (models.Booking, error) {
	allowed, err := s.drafts.CheckRateLimit(ctx, deskID, s.submitLimit, s.submitWindow)
	if err != nil {
		return models.Booking{}, fmt.Errorf("check submit limit: %w", err)
	}
	if !allowed {
		metrics.IncAllocationFailure("rate_limited")
		s.logger.Warn().Str("desk_id", deskID).Msg("draft submit rate limited")
		return models.Booking{}, ErrRateLimited
	}

	draft, err := s.GetDraft(ctx, deskID)
	if err != nil {
		return models.Booking{}, err
	}

	booking, err := s.bookings.CreateBooking(ctx, requestFromDraft(draft))
	if err != nil {
		return models.Booking{}, err
	}

	if err := s.drafts.ClearDraft(ctx, deskID); err != nil {
		s.logger.Error().Err(err).Str("desk_id", deskID).Msg("failed to clear submitted draft")
	}
	return booking, nil
}

func requestFromDraft(d *models.Draft) BookingRequest {
	return BookingRequest{
		Name:       d.GetString(FieldName),
		Phone:      d.GetString(FieldPhone),
		Aadhaar:    d.GetString(FieldAadhaar),
		CheckIn:    draftDate(d, FieldCheckIn),
		CheckOut:   draftDate(d, FieldCheckOut),
		RoomNumber: int(d.GetInt64(FieldRoomNumber)),
		RoomType:   models.RoomType(d.GetString(FieldRoomType)),
		Status:     d.GetString(FieldStatus),
		Rating:     int(d.GetInt64(FieldRating)),
	}
}

// draftDate normalizes a stored date to YYYY-MM-DD. Drafts may hold plain
// dates, RFC3339 timestamps or time.Time values; anything else is passed
// through so validation reports it.
func draftDate(d *models.Draft, key string) string {
	if t := d.GetTime(key); !t.IsZero() {
		return t.Format(models.DateLayout)
	}
	return d.GetString(key)
}
