package controller

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/chnu/award-monitoring-system/internal/service"
	"github.com/chnu/award-monitoring-system/pkg/apperror"
	"github.com/chnu/award-monitoring-system/pkg/model"
	"github.com/chnu/award-monitoring-system/pkg/observability"
)

const maxDocumentSize = 10 << 20

type AwardController struct {
	awardService service.AwardService
	userService  service.UserService
	log          observability.Logger
}

func NewAwardController(awardService service.AwardService, userService service.UserService, log observability.Logger) *AwardController {
	return &AwardController{awardService: awardService, userService: userService, log: log}
}

func (ctrl *AwardController) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/awards", ctrl.SubmitAward)
	mux.HandleFunc("GET /api/awards/{id}", ctrl.GetAward)
	mux.HandleFunc("POST /api/awards/{id}/decision", ctrl.DecideAward)
	mux.HandleFunc("POST /api/awards/{id}/documents", ctrl.UploadDocument)
	mux.HandleFunc("POST /api/users", ctrl.RegisterUser)
	mux.HandleFunc("POST /api/sessions", ctrl.OpenSession)
	mux.HandleFunc("DELETE /api/sessions", ctrl.CloseSession)
}

type submitAwardRequest struct {
	Title     string `json:"title"`
	Applicant string `json:"applicant"`
}

type decideAwardRequest struct {
	Approved bool   `json:"approved"`
	Level    string `json:"level"`
}

type registerUserRequest struct {
	Username string `json:"username"`
}

type awardResponse struct {
	Id          string     `json:"id"`
	Title       string     `json:"title"`
	Applicant   string     `json:"applicant"`
	Status      string     `json:"status"`
	Level       string     `json:"level,omitempty"`
	Documents   int        `json:"documents"`
	SubmittedAt time.Time  `json:"submittedAt"`
	DecidedAt   *time.Time `json:"decidedAt,omitempty"`
}

type userResponse struct {
	Id       string `json:"id"`
	Username string `json:"username"`
}

func (ctrl *AwardController) SubmitAward(w http.ResponseWriter, r *http.Request) {
	var req submitAwardRequest
	if err := decode(r, &req); err != nil {
		writeError(w, ctrl.log, r, err)
		return
	}

	award, err := ctrl.awardService.Submit(r.Context(), req.Title, req.Applicant)
	if err != nil {
		writeError(w, ctrl.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAwardResponse(award))
}

func (ctrl *AwardController) GetAward(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, ctrl.log, r, err)
		return
	}

	award, err := ctrl.awardService.Get(r.Context(), id)
	if err != nil {
		writeError(w, ctrl.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAwardResponse(award))
}

func (ctrl *AwardController) DecideAward(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, ctrl.log, r, err)
		return
	}

	var req decideAwardRequest
	if err := decode(r, &req); err != nil {
		writeError(w, ctrl.log, r, err)
		return
	}

	award, err := ctrl.awardService.Decide(r.Context(), id, req.Approved, req.Level)
	if err != nil {
		writeError(w, ctrl.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAwardResponse(award))
}

func (ctrl *AwardController) UploadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, ctrl.log, r, err)
		return
	}

	content, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentSize))
	if err != nil {
		writeError(w, ctrl.log, r, fmt.Errorf("read document: %w", apperror.ErrInvalidArgument))
		return
	}

	award, err := ctrl.awardService.ProcessDocument(r.Context(), id, content)
	if err != nil {
		writeError(w, ctrl.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAwardResponse(award))
}

func (ctrl *AwardController) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := decode(r, &req); err != nil {
		writeError(w, ctrl.log, r, err)
		return
	}

	user, err := ctrl.userService.Register(r.Context(), req.Username)
	if err != nil {
		writeError(w, ctrl.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{Id: strconv.FormatInt(user.Id, 10), Username: user.Username})
}

func (ctrl *AwardController) OpenSession(w http.ResponseWriter, r *http.Request) {
	ctrl.userService.OpenSession(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (ctrl *AwardController) CloseSession(w http.ResponseWriter, r *http.Request) {
	ctrl.userService.CloseSession(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("malformed request body: %w", apperror.ErrInvalidArgument)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id must be a positive integer: %w", apperror.ErrInvalidArgument)
	}
	return id, nil
}

func toAwardResponse(a *model.Award) awardResponse {
	resp := awardResponse{
		Id:          strconv.FormatInt(a.Id, 10),
		Title:       a.Title,
		Applicant:   a.Applicant,
		Status:      string(a.Status),
		Level:       a.Level,
		Documents:   a.Documents,
		SubmittedAt: a.SubmittedAt,
	}
	if !a.DecidedAt.IsZero() {
		decidedAt := a.DecidedAt
		resp.DecidedAt = &decidedAt
	}
	return resp
}
