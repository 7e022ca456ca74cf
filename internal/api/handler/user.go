package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/comate/comate/internal/api/request"
	"github.com/comate/comate/internal/api/response"
	"github.com/comate/comate/internal/model"
	"github.com/comate/comate/internal/services/lifecycle"
	"github.com/comate/comate/internal/services/registration"
)

// UserHandler handles registration and the match lifecycle of one user
type UserHandler struct {
	registration *registration.Service
	lifecycle    *lifecycle.Service
}

// NewUserHandler creates a new user handler
func NewUserHandler(registration *registration.Service, lifecycle *lifecycle.Service) *UserHandler {
	return &UserHandler{
		registration: registration,
		lifecycle:    lifecycle,
	}
}

func userID(r *http.Request) model.UserID {
	return model.UserID(mux.Vars(r)["id"])
}

// Register handles POST /api/v1/users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	user, err := h.registration.Register(r.Context(), registration.Input{
		Handle:               req.Handle,
		QuizAnswers:          req.QuizAnswers,
		VerificationQuestion: req.VerificationQuestion,
		VerificationAnswer:   req.VerificationAnswer,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.Registered{
		UserID:      string(user.ID),
		DisplayCode: user.DisplayCode,
	})
}

// Get handles GET /api/v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.registration.Get(r.Context(), userID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.UserFromModel(user))
}

// Status handles GET /api/v1/users/{id}/status
func (h *UserHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.lifecycle.Status(r.Context(), userID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StatusFromModel(status))
}

// Verify handles POST /api/v1/users/{id}/verify
func (h *UserHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	code, err := req.DecodedCode()
	if err != nil {
		WriteError(w, NewInvalidRequestError("code must be a string or number"))
		return
	}

	result, err := h.lifecycle.Verify(r.Context(), userID(r), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.VerifyFromModel(result))
}

// Leave handles POST /api/v1/users/{id}/leave and DELETE /api/v1/users/{id}
func (h *UserHandler) Leave(w http.ResponseWriter, r *http.Request) {
	if err := h.lifecycle.Leave(r.Context(), userID(r)); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
