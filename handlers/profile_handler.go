package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gradconnect/backend/middleware"
	"github.com/gradconnect/backend/models"
	"github.com/gradconnect/backend/services/profiles"
	"github.com/gradconnect/backend/utils"
	"go.uber.org/zap"
)

// ProfileService is the profile behaviour the profile endpoints need
type ProfileService interface {
	GetMine(ctx context.Context, accountID uuid.UUID) (*profiles.Profile, error)
	UpsertAlumni(ctx context.Context, accountID uuid.UUID, upd models.AlumniProfileUpdate) (*models.AlumniProfile, error)
	UpsertStudent(ctx context.Context, accountID uuid.UUID, upd models.StudentProfileUpdate) (*models.StudentProfile, error)
	ListAlumni(ctx context.Context) ([]*models.AlumniProfile, error)
	ListStudents(ctx context.Context) ([]*models.StudentProfile, error)
	Directory(ctx context.Context) (*profiles.Directory, error)
	GetAlumni(ctx context.Context, viewerID, profileID uuid.UUID) (*models.AlumniProfile, error)
	GetStudent(ctx context.Context, viewerID, profileID uuid.UUID) (*models.StudentProfile, error)
}

// ProfileHandler handles profile endpoints. Every route requires an
// authenticated caller.
type ProfileHandler struct {
	profiles ProfileService
	logger   *zap.Logger
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(svc ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: svc,
		logger:   logger,
	}
}

func (h *ProfileHandler) caller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		_ = utils.WriteUnauthorized(w, "")
	}
	return id, ok
}

// HandleGetMine handles GET /api/profiles/me
func (h *ProfileHandler) HandleGetMine(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.caller(w, r)
	if !ok {
		return
	}

	profile, err := h.profiles.GetMine(r.Context(), accountID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, profile)
}

// HandleUpsertAlumni handles PUT /api/profiles/me/alumni
func (h *ProfileHandler) HandleUpsertAlumni(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var upd models.AlumniProfileUpdate
	if !decodeAndValidate(w, r, &upd, h.logger) {
		return
	}

	profile, err := h.profiles.UpsertAlumni(r.Context(), accountID, upd)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, profile)
}

// HandleUpsertStudent handles PUT /api/profiles/me/student
func (h *ProfileHandler) HandleUpsertStudent(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var upd models.StudentProfileUpdate
	if !decodeAndValidate(w, r, &upd, h.logger) {
		return
	}

	profile, err := h.profiles.UpsertStudent(r.Context(), accountID, upd)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, profile)
}

// HandleListAlumni handles GET /api/profiles/alumni
func (h *ProfileHandler) HandleListAlumni(w http.ResponseWriter, r *http.Request) {
	list, err := h.profiles.ListAlumni(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, list)
}

// HandleListStudents handles GET /api/profiles/students
func (h *ProfileHandler) HandleListStudents(w http.ResponseWriter, r *http.Request) {
	list, err := h.profiles.ListStudents(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, list)
}

// HandleDirectory handles GET /api/profiles/directory
func (h *ProfileHandler) HandleDirectory(w http.ResponseWriter, r *http.Request) {
	dir, err := h.profiles.Directory(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, dir)
}

// HandleGetAlumni handles GET /api/profiles/alumni/{id}
func (h *ProfileHandler) HandleGetAlumni(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	profileID, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid profile id", nil)
		return
	}

	profile, err := h.profiles.GetAlumni(r.Context(), viewerID, profileID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, profile)
}

// HandleGetStudent handles GET /api/profiles/students/{id}
func (h *ProfileHandler) HandleGetStudent(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	profileID, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid profile id", nil)
		return
	}

	profile, err := h.profiles.GetStudent(r.Context(), viewerID, profileID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, profile)
}
