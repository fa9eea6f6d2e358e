package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/xrkiosk/internal/api/request"
	"github.com/mcoot/xrkiosk/internal/api/response"
	"github.com/mcoot/xrkiosk/internal/services/kiosk"
	"github.com/mcoot/xrkiosk/internal/services/registration"
)

// RegistrationHandler handles the registration kiosk endpoints
type RegistrationHandler struct {
	kiosks     *kiosk.Registry
	controller *registration.Controller
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(kiosks *kiosk.Registry) *RegistrationHandler {
	return &RegistrationHandler{
		kiosks:     kiosks,
		controller: kiosks.Registration,
	}
}

type registrationAction func(ctx context.Context, s *registration.Session) error

// act runs an action on the session named in the path and writes the resulting state
func (h *RegistrationHandler) act(w http.ResponseWriter, r *http.Request, action registrationAction) {
	id := mux.Vars(r)["id"]

	var resp response.Registration
	err := h.kiosks.WithRegistration(id, func(s *registration.Session) error {
		if action != nil {
			if err := action(r.Context(), s); err != nil {
				return err
			}
		}
		resp = response.RegistrationFromSession(s, h.controller.Games())
		return nil
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, resp)
}

// Create handles POST /api/v1/registrations
func (h *RegistrationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateRegistrationRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	s, err := h.kiosks.CreateRegistrationAt(req.StoreID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.RegistrationFromSession(s, h.controller.Games()))
}

// Get handles GET /api/v1/registrations/{id}
func (h *RegistrationHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, nil)
}

// Start handles POST /api/v1/registrations/{id}/start
func (h *RegistrationHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(_ context.Context, s *registration.Session) error {
		return h.controller.Start(s)
	})
}

// SelectGame handles POST /api/v1/registrations/{id}/game
func (h *RegistrationHandler) SelectGame(w http.ResponseWriter, r *http.Request) {
	var req request.SelectGameRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	h.act(w, r, func(ctx context.Context, s *registration.Session) error {
		return h.controller.SelectGame(ctx, s, req.Game)
	})
}

// Continue handles POST /api/v1/registrations/{id}/continue
func (h *RegistrationHandler) Continue(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(_ context.Context, s *registration.Session) error {
		return h.controller.Continue(s)
	})
}

// SubmitDetails handles POST /api/v1/registrations/{id}/details
func (h *RegistrationHandler) SubmitDetails(w http.ResponseWriter, r *http.Request) {
	var req request.DetailsRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	h.act(w, r, func(_ context.Context, s *registration.Session) error {
		return h.controller.SubmitDetails(s, req.Details())
	})
}

// Edit handles POST /api/v1/registrations/{id}/edit
func (h *RegistrationHandler) Edit(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(_ context.Context, s *registration.Session) error {
		return h.controller.Edit(s)
	})
}

// Confirm handles POST /api/v1/registrations/{id}/confirm
func (h *RegistrationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(_ context.Context, s *registration.Session) error {
		return h.controller.Confirm(s)
	})
}

// AcceptTerms handles POST /api/v1/registrations/{id}/terms
func (h *RegistrationHandler) AcceptTerms(w http.ResponseWriter, r *http.Request) {
	var req request.TermsRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	h.act(w, r, func(ctx context.Context, s *registration.Session) error {
		return h.controller.AcceptTerms(ctx, s, registration.TermsInput{
			Signature: req.Signature,
			Consent:   req.Consent,
		})
	})
}

// AddMember handles POST /api/v1/registrations/{id}/members
func (h *RegistrationHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(_ context.Context, s *registration.Session) error {
		return h.controller.AddMember(s)
	})
}

// TeamNameInput handles POST /api/v1/registrations/{id}/team-name
func (h *RegistrationHandler) TeamNameInput(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(_ context.Context, s *registration.Session) error {
		return h.controller.ProceedToTeamNameInput(s)
	})
}

// Complete handles POST /api/v1/registrations/{id}/complete
func (h *RegistrationHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req request.TeamNameRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	h.act(w, r, func(ctx context.Context, s *registration.Session) error {
		return h.controller.Finalize(ctx, s, req.TeamName)
	})
}

// RetrySave handles POST /api/v1/registrations/{id}/retry-save
func (h *RegistrationHandler) RetrySave(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ctx context.Context, s *registration.Session) error {
		return h.controller.RetrySave(ctx, s)
	})
}

// Reset handles POST /api/v1/registrations/{id}/reset
func (h *RegistrationHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(_ context.Context, s *registration.Session) error {
		h.controller.Reset(s)
		return nil
	})
}
