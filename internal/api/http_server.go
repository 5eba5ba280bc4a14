package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"frontdesk/internal/config"
	"frontdesk/internal/export"
	"frontdesk/internal/metrics"
	"frontdesk/internal/models"
	"frontdesk/internal/service"
	"frontdesk/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	healthPath       = "/healthz"
	maxDocumentBytes = 5 << 20
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// SheetsSync is the administrative side of the sheets mirror.
type SheetsSync interface {
	Resync(ctx context.Context, bookings []models.Booking) error
	DeadLetters(ctx context.Context) ([]models.SyncTask, error)
}

// Services are the front-desk operations exposed over HTTP. Sync may be nil.
type Services struct {
	Bookings *service.BookingService
	Intake   *service.IntakeService
	Reports  *service.ReportService
	Sync     SheetsSync
}

// HTTPServer exposes the front desk as a JSON API.
type HTTPServer struct {
	cfg       config.APIConfig
	svc       Services
	exportDir string
	server    *http.Server
	auth      *HTTPAuth
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewHTTPServer(cfg config.APIConfig, exportDir string, svc Services, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	srv := &HTTPServer{
		cfg:       cfg,
		svc:       svc,
		exportDir: exportDir,
		auth:      NewHTTPAuth(cfg),
		logger:    logger,
		now:       time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+healthPath, srv.handleHealth)

	mux.HandleFunc("GET /api/v1/rooms", srv.handleRooms)
	mux.HandleFunc("GET /api/v1/rooms/stats", srv.handleRoomStats)
	mux.HandleFunc("POST /api/v1/rooms/{number}/release", srv.handleRelease)

	mux.HandleFunc("GET /api/v1/bookings", srv.handleListBookings)
	mux.HandleFunc("POST /api/v1/bookings", srv.handleCreateBooking)
	mux.HandleFunc("GET /api/v1/bookings/{id}", srv.handleGetBooking)
	mux.HandleFunc("PATCH /api/v1/bookings/{id}", srv.handleUpdateBilling)
	mux.HandleFunc("GET /api/v1/bookings/{id}/invoice", srv.handleInvoice)
	mux.HandleFunc("GET /api/v1/bookings/{id}/invoice.xlsx", srv.handleInvoiceXLSX)

	mux.HandleFunc("GET /api/v1/exports/bookings.xlsx", srv.handleBookingsXLSX)
	mux.HandleFunc("POST /api/v1/exports/bookings", srv.handleSaveBookings)
	mux.HandleFunc("GET /api/v1/dashboard", srv.handleDashboard)
	mux.HandleFunc("GET /api/v1/reports", srv.handleReport)

	mux.HandleFunc("GET /api/v1/drafts/{desk}", srv.handleGetDraft)
	mux.HandleFunc("PUT /api/v1/drafts/{desk}", srv.handleSaveDraft)
	mux.HandleFunc("DELETE /api/v1/drafts/{desk}", srv.handleClearDraft)
	mux.HandleFunc("POST /api/v1/drafts/{desk}/submit", srv.handleSubmitDraft)

	mux.HandleFunc("POST /api/v1/sync/sheets", srv.handleResync)
	mux.HandleFunc("GET /api/v1/sync/deadletters", srv.handleDeadLetters)

	handler := requestIDMiddleware(srv.loggingMiddleware(srv.auth.Wrap(mux)), logger)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	roomType := models.RoomType(strings.TrimSpace(q.Get("type")))
	if roomType != "" && !roomType.Valid() {
		writeError(w, http.StatusBadRequest, "type must be Standard, Deluxe or Suite")
		return
	}

	var rooms []models.Room
	if q.Get("available") == "true" {
		rooms = s.svc.Bookings.AvailableRooms(r.Context(), roomType)
	} else {
		for _, room := range s.svc.Bookings.ListRooms(r.Context()) {
			if roomType == "" || room.Type == roomType {
				rooms = append(rooms, room)
			}
		}
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (s *HTTPServer) handleRoomStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Reports.RoomStats(r.Context()))
}

func (s *HTTPServer) handleRelease(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "room number must be an integer")
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Bookings.ReleaseRoom(r.Context(), number))
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	bookings := s.svc.Bookings.ListBookings(r.Context())
	if bookings == nil {
		bookings = []models.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBookingRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := s.svc.Bookings.CreateBooking(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// decodeBookingRequest accepts a JSON body or a multipart form carrying the
// guest ID document in the "document" file field.
func decodeBookingRequest(r *http.Request) (service.BookingRequest, error) {
	var req service.BookingRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			return req, errors.New("invalid JSON body")
		}
		return req, nil
	}

	if err := r.ParseMultipartForm(maxDocumentBytes); err != nil {
		return req, errors.New("invalid multipart form")
	}
	req.Name = r.FormValue(service.FieldName)
	req.Phone = r.FormValue(service.FieldPhone)
	req.Aadhaar = r.FormValue(service.FieldAadhaar)
	req.CheckIn = r.FormValue(service.FieldCheckIn)
	req.CheckOut = r.FormValue(service.FieldCheckOut)
	req.RoomType = models.RoomType(r.FormValue(service.FieldRoomType))
	req.Status = r.FormValue(service.FieldStatus)
	if v := r.FormValue(service.FieldRoomNumber); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, errors.New("room_number must be an integer")
		}
		req.RoomNumber = n
	}
	if v := r.FormValue(service.FieldRating); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, errors.New("rating must be an integer")
		}
		req.Rating = n
	}

	file, header, err := r.FormFile("document")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return req, errors.New("invalid document upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxDocumentBytes+1))
	if err != nil {
		return req, errors.New("read document")
	}
	if len(data) > maxDocumentBytes {
		return req, errors.New("document is too large")
	}
	req.Document = &models.Document{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        int64(len(data)),
		Data:        data,
	}
	return req, nil
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	booking, err := s.svc.Bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleUpdateBilling(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}

	var update models.BookingUpdate
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.svc.Bookings.UpdateBilling(r.Context(), id, update)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	inv, err := s.svc.Bookings.Invoice(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *HTTPServer) handleInvoiceXLSX(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	inv, err := s.svc.Bookings.Invoice(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice_%d.xlsx"`, id))
	if err := export.WriteInvoice(w, inv); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Int64("booking_id", id).Msg("write invoice workbook")
	}
}

func (s *HTTPServer) handleBookingsXLSX(w http.ResponseWriter, r *http.Request) {
	bookings := s.svc.Bookings.ListBookings(r.Context())

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	if err := export.WriteBookings(w, bookings); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("write bookings workbook")
	}
}

func (s *HTTPServer) handleSaveBookings(w http.ResponseWriter, r *http.Request) {
	path, err := export.SaveBookings(s.exportDir, s.svc.Bookings.ListBookings(r.Context()), s.now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"path": path})
}

func (s *HTTPServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := service.DashboardFilter{
		Status: strings.TrimSpace(q.Get("status")),
		Search: q.Get("search"),
	}
	writeJSON(w, http.StatusOK, s.svc.Reports.Dashboard(r.Context(), filter))
}

func (s *HTTPServer) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.svc.Reports.Report(r.Context(), strings.TrimSpace(r.URL.Query().Get("period")), s.now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *HTTPServer) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := s.svc.Intake.GetDraft(r.Context(), r.PathValue("desk"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *HTTPServer) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	var fields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	draft, err := s.svc.Intake.SaveDraft(r.Context(), r.PathValue("desk"), fields)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *HTTPServer) handleClearDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Intake.ClearDraft(r.Context(), r.PathValue("desk")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleSubmitDraft(w http.ResponseWriter, r *http.Request) {
	booking, err := s.svc.Intake.SubmitDraft(r.Context(), r.PathValue("desk"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleResync(w http.ResponseWriter, r *http.Request) {
	if s.svc.Sync == nil {
		writeError(w, http.StatusServiceUnavailable, "sheets sync is not configured")
		return
	}
	bookings := s.svc.Bookings.ListBookings(r.Context())
	if err := s.svc.Sync.Resync(r.Context(), bookings); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"synced": len(bookings)})
}

func (s *HTTPServer) handleDeadLetters(w http.ResponseWriter, r *http.Request) {
	if s.svc.Sync == nil {
		writeError(w, http.StatusServiceUnavailable, "sheets sync is not configured")
		return
	}
	tasks, err := s.svc.Sync.DeadLetters(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []models.SyncTask{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func bookingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "booking id must be a positive integer")
		return 0, false
	}
	return id, true
}

// writeServiceError maps domain errors to status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, store.ErrBookingNotFound), errors.Is(err, service.ErrDraftNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrRoomUnavailable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, service.ErrInvalidPeriod):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// requestIDMiddleware tags each request with an id and a request-scoped logger.
func requestIDMiddleware(next http.Handler, logger *zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		reqLogger := logger.With().Str("request_id", id).Logger()
		next.ServeHTTP(w, r.WithContext(reqLogger.WithContext(r.Context())))
	})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.IncHTTP(endpoint)

		zerolog.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
