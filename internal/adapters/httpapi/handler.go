package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"spark-health-backend/internal/adapters/push"
	"spark-health-backend/internal/adapters/repo"
	"spark-health-backend/internal/domain"
	infrahttp "spark-health-backend/internal/infra/http"
	"spark-health-backend/internal/usecase/account"
	"spark-health-backend/internal/usecase/advice"
	"spark-health-backend/internal/usecase/booking"
	"spark-health-backend/internal/usecase/checkup"
	"spark-health-backend/internal/usecase/risk"
	"spark-health-backend/internal/usecase/transcript"
	"spark-health-backend/internal/usecase/wellness"
)

const maxUploadSize = 20 << 20 // 20 МБ на файл

// Handler регистрирует HTTP-маршруты приложения.
type Handler struct {
	accounts      *account.Service
	users         domain.UserRepo
	notifications domain.NotificationRepo
	wellness      *wellness.Service
	advice        *advice.Service
	booking       *booking.Service
	checkup       *checkup.Service
	risk          *risk.Service
	transcripts   *transcript.Service
	clinics       domain.ClinicSearcher
	hub           *push.Hub
	tokens        *infrahttp.TokenIssuer
	uploadsDir    string
	log           zerolog.Logger
}

// NewHandler создаёт обработчик API.
func NewHandler(
	accounts *account.Service,
	users domain.UserRepo,
	notifications domain.NotificationRepo,
	wellnessSvc *wellness.Service,
	adviceSvc *advice.Service,
	bookingSvc *booking.Service,
	checkupSvc *checkup.Service,
	riskSvc *risk.Service,
	transcriptSvc *transcript.Service,
	clinics domain.ClinicSearcher,
	hub *push.Hub,
	tokens *infrahttp.TokenIssuer,
	uploadsDir string,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		accounts:      accounts,
		users:         users,
		notifications: notifications,
		wellness:      wellnessSvc,
		advice:        adviceSvc,
		booking:       bookingSvc,
		checkup:       checkupSvc,
		risk:          riskSvc,
		transcripts:   transcriptSvc,
		clinics:       clinics,
		hub:           hub,
		tokens:        tokens,
		uploadsDir:    uploadsDir,
		log:           log.With().Str("component", "httpapi").Logger(),
	}
}

// Register вешает маршруты на роутер.
func (h *Handler) Register(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/registration", h.register)
		r.Post("/login", h.login)
		r.Post("/refresh", h.refresh)
		r.Post("/request-password-change", h.requestPasswordChange)
		r.Post("/reset-password", h.resetPassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(infrahttp.AuthMiddleware(h.tokens))

		r.Get("/ws", h.websocket)

		r.Route("/user", func(r chi.Router) {
			r.Get("/me", h.me)
			r.Patch("/profile", h.updateProfile)
			r.Get("/weekly-statistic", h.weeklyStatistic)
			r.Post("/weekly-statistic", h.addWeeklyStatistic)
			r.Get("/ai-health-advice", h.healthAdvice)
			r.Get("/ai-stats", h.hydrationStats)
			r.Post("/ai-assistance", h.assist)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Post("/", h.createNotification)
			r.Get("/", h.listNotifications)
			r.Get("/{id}", h.getNotification)
			r.Patch("/{id}", h.updateNotification)
			r.Delete("/{id}", h.deleteNotification)
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", h.createAppointment)
			r.Get("/", h.listAppointments)
			r.Get("/doctors", h.listDoctors)
			r.Patch("/{id}", h.rescheduleAppointment)
			r.Delete("/{id}", h.cancelAppointment)
		})

		r.Get("/clinics/search", h.searchClinics)

		r.Route("/checks", func(r chi.Router) {
			r.Post("/dental", h.dentalCheck)
			r.Post("/skin", h.skinCheck)
			r.Post("/analysis", h.analyzeImage)
		})

		r.Route("/risk", func(r chi.Router) {
			r.Post("/calculate", h.calculateRisk)
			r.Get("/report", h.riskReport)
		})

		r.Route("/transcripts", func(r chi.Router) {
			r.Post("/", h.uploadTranscript)
			r.Get("/", h.listTranscripts)
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusFor переводит доменные ошибки в HTTP-статусы.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repo.ErrNotFound), errors.Is(err, account.ErrUserNotFound), errors.Is(err, risk.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, account.ErrInvalidCredentials), errors.Is(err, infrahttp.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, booking.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, account.ErrAlreadyRegistered), errors.Is(err, account.ErrSamePassword):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error, op string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("op", op).Msg("внутренняя ошибка запроса")
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func identity(w http.ResponseWriter, r *http.Request) (infrahttp.Identity, bool) {
	id, ok := infrahttp.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
	}
	return id, ok
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// --- auth ---

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string   `json:"email"`
		Phone      string   `json:"phone"`
		Password   string   `json:"password"`
		FirstName  string   `json:"first_name"`
		LastName   string   `json:"last_name"`
		Patronymic string   `json:"patronymic"`
		MedDoc     string   `json:"med_doc"`
		Diseases   []string `json:"diseases"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email и password обязательны")
		return
	}
	pair, err := h.accounts.Register(r.Context(), account.RegisterParams{
		Email:      req.Email,
		Phone:      req.Phone,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Patronymic: req.Patronymic,
		MedDoc:     req.MedDoc,
		Diseases:   req.Diseases,
	})
	if err != nil {
		h.fail(w, err, "register")
		return
	}
	writeJSON(w, http.StatusCreated, pair)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	pair, err := h.accounts.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		h.fail(w, err, "login")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	id, err := h.tokens.ParseRefresh(req.RefreshToken)
	if err != nil {
		h.fail(w, err, "refresh")
		return
	}
	token, err := h.accounts.RefreshFor(r.Context(), id.Email)
	if err != nil {
		h.fail(w, err, "refresh")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

func (h *Handler) requestPasswordChange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Lang  string `json:"lang"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.accounts.RequestPasswordChange(r.Context(), req.Email, req.Lang); err != nil {
		h.fail(w, err, "request_password_change")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// resetPassword принимает токен из письма и новый пароль.
func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	id, err := h.tokens.ParseAccess(req.Token)
	if err != nil {
		h.fail(w, err, "reset_password")
		return
	}
	if err := h.accounts.ResetPassword(r.Context(), id.Email, req.NewPassword); err != nil {
		h.fail(w, err, "reset_password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// --- websocket ---

func (h *Handler) websocket(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	h.hub.Serve(w, r, id.UserID)
}

// --- user ---

type userResponse struct {
	ID         int64    `json:"id"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Patronymic string   `json:"patronymic"`
	Gender     string   `json:"gender"`
	Age        int      `json:"age"`
	Height     float64  `json:"height"`
	Weight     float64  `json:"weight"`
	Diseases   []string `json:"diseases"`
	MedDoc     string   `json:"med_doc"`
	Role       string   `json:"role"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID: u.ID, Email: u.Email, Phone: u.Phone,
		FirstName: u.FirstName, LastName: u.LastName, Patronymic: u.Patronymic,
		Gender: u.Gender, Age: u.Age, Height: u.Height, Weight: u.Weight,
		Diseases: u.Diseases, MedDoc: u.MedDoc, Role: string(u.Role),
	}
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	user, err := h.users.GetByID(r.Context(), id.UserID)
	if err != nil {
		h.fail(w, err, "me")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	user, err := h.users.GetByID(r.Context(), id.UserID)
	if err != nil {
		h.fail(w, err, "update_profile")
		return
	}

	var req struct {
		FirstName  *string   `json:"first_name"`
		LastName   *string   `json:"last_name"`
		Patronymic *string   `json:"patronymic"`
		Gender     *string   `json:"gender"`
		Age        *int      `json:"age"`
		Height     *float64  `json:"height"`
		Weight     *float64  `json:"weight"`
		Diseases   *[]string `json:"diseases"`
		MedDoc     *string   `json:"med_doc"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Patronymic != nil {
		user.Patronymic = *req.Patronymic
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.Age != nil {
		user.Age = *req.Age
	}
	if req.Height != nil {
		user.Height = *req.Height
	}
	if req.Weight != nil {
		user.Weight = *req.Weight
	}
	if req.Diseases != nil {
		user.Diseases = *req.Diseases
	}
	if req.MedDoc != nil {
		user.MedDoc = *req.MedDoc
	}

	updated, err := h.users.UpdateProfile(r.Context(), user)
	if err != nil {
		h.fail(w, err, "update_profile")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(updated))
}

func (h *Handler) weeklyStatistic(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	stat, err := h.wellness.GetWeeklyStatistic(r.Context(), id.UserID)
	if err != nil {
		h.fail(w, err, "weekly_statistic")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sleep": stat.Sleep, "water": stat.Water})
}

func (h *Handler) addWeeklyStatistic(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req struct {
		Sleep *float64 `json:"sleep"`
		Water *float64 `json:"water"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Sleep == nil && req.Water == nil {
		writeError(w, http.StatusBadRequest, "нужно передать sleep или water")
		return
	}
	if err := h.wellness.AddWeeklyStatistic(r.Context(), id.UserID, req.Sleep, req.Water); err != nil {
		h.fail(w, err, "add_weekly_statistic")
		return
	}
	stat, err := h.wellness.GetWeeklyStatistic(r.Context(), id.UserID)
	if err != nil {
		h.fail(w, err, "add_weekly_statistic")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sleep": stat.Sleep, "water": stat.Water})
}

func (h *Handler) healthAdvice(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	adv, err := h.advice.HealthAdvice(r.Context(), id.UserID)
	if err != nil {
		h.fail(w, err, "health_advice")
		return
	}
	writeJSON(w, http.StatusOK, adv)
}

func (h *Handler) hydrationStats(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	stats, err := h.advice.HydrationStats(r.Context(), id.UserID)
	if err != nil {
		h.fail(w, err, "hydration_stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) assist(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	answer, err := h.advice.Assist(r.Context(), id.UserID, req.Query)
	if err != nil {
		h.fail(w, err, "assist")
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

// --- notifications ---

type notificationRequest struct {
	Time        string `json:"time"`
	EndDate     string `json:"end_date"`
	Recurrence  string `json:"recurrence"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (req notificationRequest) validate() error {
	if _, err := domain.ParseClock(req.Time); err != nil {
		return fmt.Errorf("некорректное время %q, ожидается HH:mm", req.Time)
	}
	if _, err := domain.ParseDate(req.EndDate); err != nil {
		return fmt.Errorf("некорректная дата окончания %q, ожидается dd.MM.yyyy", req.EndDate)
	}
	if !domain.Recurrence(req.Recurrence).Valid() {
		return fmt.Errorf("неизвестное правило повторения %q", req.Recurrence)
	}
	if req.Title == "" {
		return errors.New("title обязателен")
	}
	return nil
}

func (h *Handler) createNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req notificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.notifications.Create(r.Context(), domain.Notification{
		UserID:      id.UserID,
		Time:        req.Time,
		EndDate:     req.EndDate,
		Recurrence:  domain.Recurrence(req.Recurrence),
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.fail(w, err, "create_notification")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	result, err := h.notifications.List(r.Context(), page, limit)
	if err != nil {
		h.fail(w, err, "list_notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":      result.Data,
		"total":     result.Total,
		"page":      result.Page,
		"last_page": result.LastPage,
	})
}

func (h *Handler) getNotification(w http.ResponseWriter, r *http.Request) {
	nid, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	n, err := h.notifications.GetByID(r.Context(), nid)
	if err != nil {
		h.fail(w, err, "get_notification")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handler) updateNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	nid, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.notifications.GetByID(r.Context(), nid)
	if err != nil {
		h.fail(w, err, "update_notification")
		return
	}
	if existing.UserID != id.UserID && id.Role != domain.RoleAdmin {
		writeError(w, http.StatusForbidden, "напоминание принадлежит другому пользователю")
		return
	}

	var req notificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Time != "" {
		existing.Time = req.Time
	}
	if req.EndDate != "" {
		existing.EndDate = req.EndDate
	}
	if req.Recurrence != "" {
		existing.Recurrence = domain.Recurrence(req.Recurrence)
	}
	if req.Title != "" {
		existing.Title = req.Title
	}
	if req.Description != "" {
		existing.Description = req.Description
	}
	check := notificationRequest{
		Time:       existing.Time,
		EndDate:    existing.EndDate,
		Recurrence: string(existing.Recurrence),
		Title:      existing.Title,
	}
	if err := check.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.notifications.Update(r.Context(), existing)
	if err != nil {
		h.fail(w, err, "update_notification")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	nid, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.notifications.GetByID(r.Context(), nid)
	if err != nil {
		h.fail(w, err, "delete_notification")
		return
	}
	if existing.UserID != id.UserID && id.Role != domain.RoleAdmin {
		writeError(w, http.StatusForbidden, "напоминание принадлежит другому пользователю")
		return
	}
	if err := h.notifications.Delete(r.Context(), nid); err != nil {
		h.fail(w, err, "delete_notification")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- appointments ---

func (h *Handler) createAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req struct {
		DoctorID    int64     `json:"doctor_id"`
		Date        time.Time `json:"date"`
		Description string    `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	created, err := h.booking.Create(r.Context(), id.UserID, booking.CreateParams{
		DoctorID:    req.DoctorID,
		Date:        req.Date,
		Description: req.Description,
	})
	if err != nil {
		h.fail(w, err, "create_appointment")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) listAppointments(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var (
		items []domain.Appointment
		err   error
	)
	if id.Role == domain.RoleAdmin && r.URL.Query().Get("all") == "true" {
		items, err = h.booking.ListAll(r.Context())
	} else {
		items, err = h.booking.ListMine(r.Context(), id.UserID)
	}
	if err != nil {
		h.fail(w, err, "list_appointments")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) listDoctors(w http.ResponseWriter, r *http.Request) {
	items, err := h.booking.Doctors(r.Context())
	if err != nil {
		h.fail(w, err, "list_doctors")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) rescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	aid, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Date        time.Time `json:"date"`
		Description string    `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	updated, err := h.booking.Reschedule(r.Context(), id.UserID, aid, req.Date, req.Description)
	if err != nil {
		h.fail(w, err, "reschedule_appointment")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	aid, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.booking.Cancel(r.Context(), id.UserID, aid); err != nil {
		h.fail(w, err, "cancel_appointment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- clinics ---

func (h *Handler) searchClinics(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query обязателен")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	results, err := h.clinics.SearchClinics(r.Context(), query, r.URL.Query().Get("city"), page, pageSize)
	if err != nil {
		h.fail(w, err, "search_clinics")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// --- checks ---

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request, field string) (string, string, []byte, bool) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "ожидается multipart-форма с файлом")
		return "", "", nil, false
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("поле %s обязательно", field))
		return "", "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "не удалось прочитать файл")
		return "", "", nil, false
	}
	return header.Filename, header.Header.Get("Content-Type"), data, true
}

func (h *Handler) dentalCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	filename, _, image, ok := h.readUpload(w, r, "image")
	if !ok {
		return
	}
	check, err := h.checkup.DentalCheck(r.Context(), id.UserID, filename, image)
	if err != nil {
		h.fail(w, err, "dental_check")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":          check.ID,
		"explanation": check.Explanation,
		"raw_result":  json.RawMessage(check.RawResult),
	})
}

func (h *Handler) skinCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	filename, contentType, image, ok := h.readUpload(w, r, "image")
	if !ok {
		return
	}
	check, err := h.checkup.SkinCheck(r.Context(), id.UserID, filename, contentType, image)
	if err != nil {
		h.fail(w, err, "skin_check")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":               check.ID,
		"risk_level":       check.RiskLevel,
		"risk_description": check.RiskDescription,
	})
}

func (h *Handler) analyzeImage(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req struct {
		ImageURL string `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ImageURL == "" {
		writeError(w, http.StatusBadRequest, "image_url обязателен")
		return
	}
	analysis, err := h.checkup.AnalyzeImage(r.Context(), id.UserID, req.ImageURL)
	if err != nil {
		h.fail(w, err, "analyze_image")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":     analysis.ID,
		"result": analysis.Result,
	})
}

// --- risk ---

func (h *Handler) calculateRisk(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	result, err := h.risk.Calculate(r.Context(), id.UserID)
	if err != nil {
		h.fail(w, err, "calculate_risk")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"risk_score":   result.Profile.RiskScore,
		"risk_factors": result.Profile.RiskFactors,
		"updated_at":   result.Profile.UpdatedAt,
		"report_path":  result.PDFPath,
	})
}

func (h *Handler) riskReport(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	path, err := h.risk.Report(r.Context(), id.UserID)
	if err != nil {
		h.fail(w, err, "risk_report")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, path)
}

// --- transcripts ---

func (h *Handler) uploadTranscript(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	filename, _, audio, ok := h.readUpload(w, r, "audio")
	if !ok {
		return
	}
	doctorID, _ := strconv.ParseInt(r.FormValue("doctor_id"), 10, 64)

	// Аудио пишется на диск: задача уходит воркеру через очередь,
	// а тело запроса к тому моменту уже закрыто.
	if err := os.MkdirAll(h.uploadsDir, 0o755); err != nil {
		h.fail(w, err, "upload_transcript")
		return
	}
	path := filepath.Join(h.uploadsDir, uuid.NewString()+filepath.Ext(filename))
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		h.fail(w, err, "upload_transcript")
		return
	}

	jobID, err := h.transcripts.Enqueue(r.Context(), id.UserID, doctorID, filename, path)
	if err != nil {
		h.fail(w, err, "upload_transcript")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

func (h *Handler) listTranscripts(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	doctorID, _ := strconv.ParseInt(r.URL.Query().Get("doctor_id"), 10, 64)
	items, err := h.transcripts.List(r.Context(), id.UserID, doctorID)
	if err != nil {
		h.fail(w, err, "list_transcripts")
		return
	}
	writeJSON(w, http.StatusOK, items)
}
