package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/xrkiosk/internal/api/request"
	"github.com/mcoot/xrkiosk/internal/api/response"
	"github.com/mcoot/xrkiosk/internal/model"
	"github.com/mcoot/xrkiosk/internal/services/auth"
	"github.com/mcoot/xrkiosk/internal/services/kiosk"
	"github.com/mcoot/xrkiosk/internal/services/staff"
)

// StaffHandler handles the staff station endpoints
type StaffHandler struct {
	kiosks      *kiosk.Registry
	controller  *staff.Controller
	authService *auth.Service
}

// NewStaffHandler creates a new staff handler
func NewStaffHandler(kiosks *kiosk.Registry, authService *auth.Service) *StaffHandler {
	return &StaffHandler{
		kiosks:      kiosks,
		controller:  kiosks.Staff,
		authService: authService,
	}
}

type staffAction func(ctx context.Context, s *staff.Session) error

// act runs an action on the session named in the path and writes the resulting state
func (h *StaffHandler) act(w http.ResponseWriter, r *http.Request, action staffAction) {
	id := mux.Vars(r)["id"]

	var resp response.Staff
	err := h.kiosks.WithStaff(id, func(s *staff.Session) error {
		if action != nil {
			if err := action(r.Context(), s); err != nil {
				return err
			}
		}
		resp = response.StaffFromSession(s)
		return nil
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, resp)
}

// Login handles POST /api/v1/staff/login
func (h *StaffHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.StaffLoginRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	session, err := h.authService.Login(req.PIN)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StaffLoginFromSession(session))
}

// Create handles POST /api/v1/staff/sessions
func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	s := h.kiosks.CreateStaff()
	response.JSON(w, http.StatusCreated, response.StaffFromSession(s))
}

// Get handles GET /api/v1/staff/sessions/{id}
func (h *StaffHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, nil)
}

// LoadTeam handles POST /api/v1/staff/sessions/{id}/team
func (h *StaffHandler) LoadTeam(w http.ResponseWriter, r *http.Request) {
	var req request.LoadTeamRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	h.act(w, r, func(ctx context.Context, s *staff.Session) error {
		return h.controller.LoadTeam(ctx, s, model.SessionCode(strings.TrimSpace(req.SessionCode)))
	})
}

// Weapons handles GET /api/v1/staff/sessions/{id}/weapons
func (h *StaffHandler) Weapons(w http.ResponseWriter, r *http.Request) {
	var resp response.Weapons
	err := h.kiosks.WithStaff(mux.Vars(r)["id"], func(s *staff.Session) error {
		resp = response.Weapons{
			SelectedPlayer: s.SelectedPlayer,
			Weapons:        h.controller.AvailableWeapons(s),
		}
		return nil
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, resp)
}

// StartPhoto handles POST /api/v1/staff/sessions/{id}/players/{player_id}/photo
func (h *StaffHandler) StartPhoto(w http.ResponseWriter, r *http.Request) {
	playerID := model.PlayerID(mux.Vars(r)["player_id"])
	h.act(w, r, func(_ context.Context, s *staff.Session) error {
		return h.controller.StartPhotoCapture(s, playerID)
	})
}

// CancelPhoto handles DELETE /api/v1/staff/sessions/{id}/players/{player_id}/photo
func (h *StaffHandler) CancelPhoto(w http.ResponseWriter, r *http.Request) {
	playerID := model.PlayerID(mux.Vars(r)["player_id"])
	h.act(w, r, func(_ context.Context, s *staff.Session) error {
		return h.controller.CancelPhoto(s, playerID)
	})
}

// AcceptPhoto handles PUT /api/v1/staff/sessions/{id}/photo
func (h *StaffHandler) AcceptPhoto(w http.ResponseWriter, r *http.Request) {
	var req request.PhotoRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	h.act(w, r, func(ctx context.Context, s *staff.Session) error {
		return h.controller.AcceptPhoto(ctx, s, req.Image)
	})
}

// StartWeapon handles POST /api/v1/staff/sessions/{id}/players/{player_id}/weapon
func (h *StaffHandler) StartWeapon(w http.ResponseWriter, r *http.Request) {
	playerID := model.PlayerID(mux.Vars(r)["player_id"])
	h.act(w, r, func(_ context.Context, s *staff.Session) error {
		return h.controller.StartWeaponSelection(s, playerID)
	})
}

// CancelWeapon handles DELETE /api/v1/staff/sessions/{id}/players/{player_id}/weapon
func (h *StaffHandler) CancelWeapon(w http.ResponseWriter, r *http.Request) {
	playerID := model.PlayerID(mux.Vars(r)["player_id"])
	h.act(w, r, func(_ context.Context, s *staff.Session) error {
		return h.controller.CancelWeapon(s, playerID)
	})
}

// ChooseWeapon handles PUT /api/v1/staff/sessions/{id}/weapon
func (h *StaffHandler) ChooseWeapon(w http.ResponseWriter, r *http.Request) {
	var req request.WeaponRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	h.act(w, r, func(ctx context.Context, s *staff.Session) error {
		return h.controller.ChooseWeapon(ctx, s, req.Weapon)
	})
}

// Complete handles POST /api/v1/staff/sessions/{id}/complete
func (h *StaffHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(_ context.Context, s *staff.Session) error {
		return h.controller.Complete(s)
	})
}

// Edit handles POST /api/v1/staff/sessions/{id}/edit
func (h *StaffHandler) Edit(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(_ context.Context, s *staff.Session) error {
		return h.controller.ReturnToEdit(s)
	})
}

// Next handles POST /api/v1/staff/sessions/{id}/next
func (h *StaffHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ctx context.Context, s *staff.Session) error {
		return h.controller.NextSession(ctx, s)
	})
}

// Reset handles POST /api/v1/staff/sessions/{id}/reset
func (h *StaffHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(_ context.Context, s *staff.Session) error {
		h.controller.Reset(s)
		return nil
	})
}
