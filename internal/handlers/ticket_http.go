package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/faiisll/TKT-BE/internal/models"
	"github.com/faiisll/TKT-BE/internal/repository"
	"github.com/faiisll/TKT-BE/internal/service"
	"github.com/faiisll/TKT-BE/internal/utils"
)

const ticketNotFound = "ticket not found"

// TicketHTTP wires HTTP endpoints to the ticket service.
type TicketHTTP struct {
	svc *service.TicketService
	log zerolog.Logger
}

func NewTicketHTTP(svc *service.TicketService, log zerolog.Logger) *TicketHTTP {
	return &TicketHTTP{svc: svc, log: log}
}

// -----------------------------------------------------------------------------
// Public
// -----------------------------------------------------------------------------

// POST /api/tickets
func (h *TicketHTTP) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.CreateTicketInput
		if err := utils.DecodeJSON(w, r, &in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		t, err := h.svc.CreateTicket(r.Context(), in)
		if err != nil {
			writeError(h.log, w, r, err, ticketNotFound)
			return
		}
		utils.JSON(w, http.StatusCreated, t)
	}
}

// GET /api/tickets/ticket/{ticketNumber}
func (h *TicketHTTP) GetByNumber() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := h.svc.GetTicketByNumber(r.Context(), chi.URLParam(r, "ticketNumber"))
		if err != nil {
			writeError(h.log, w, r, err, ticketNotFound)
			return
		}
		utils.JSON(w, http.StatusOK, t)
	}
}

// -----------------------------------------------------------------------------
// Staff
// -----------------------------------------------------------------------------

// GET /api/tickets/technicians
func (h *TicketHTTP) Technicians() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		techs, err := h.svc.ListTechnicians(r.Context())
		if err != nil {
			writeError(h.log, w, r, err, "not found")
			return
		}
		utils.JSON(w, http.StatusOK, techs)
	}
}

// GET /api/tickets?status=&priority=&category=&page=&limit=
func (h *TicketHTTP) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qv := r.URL.Query()
		page, err := h.svc.ListTickets(r.Context(), service.ListTicketsInput{
			Status:   utils.QueryString(qv, "status"),
			Priority: utils.QueryString(qv, "priority"),
			Category: utils.QueryString(qv, "category"),
			Page:     utils.QueryInt(qv, "page", 1),
			Limit:    utils.QueryInt(qv, "limit", repository.DefaultPageSize),
		})
		if err != nil {
			writeError(h.log, w, r, err, ticketNotFound)
			return
		}
		utils.JSON(w, http.StatusOK, page)
	}
}

// GET /api/tickets/{id}
func (h *TicketHTTP) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := h.svc.GetTicketByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(h.log, w, r, err, ticketNotFound)
			return
		}
		utils.JSON(w, http.StatusOK, t)
	}
}

// PATCH /api/tickets/{id}
func (h *TicketHTTP) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in models.TicketPatch
		if err := utils.DecodeJSON(w, r, &in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		t, err := h.svc.UpdateTicket(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeError(h.log, w, r, err, ticketNotFound)
			return
		}
		utils.JSON(w, http.StatusOK, t)
	}
}

// POST /api/tickets/{id}/updates
func (h *TicketHTTP) AddUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := utils.IdentityFrom(r.Context())
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		var in service.AddTicketUpdateInput
		if err := utils.DecodeJSON(w, r, &in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		u, err := h.svc.AddTicketUpdate(r.Context(), chi.URLParam(r, "id"), in, caller.UserID)
		if err != nil {
			writeError(h.log, w, r, err, ticketNotFound)
			return
		}
		utils.JSON(w, http.StatusCreated, u)
	}
}

// GET /api/tickets/{id}/updates
func (h *TicketHTTP) Updates() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		updates, err := h.svc.ListTicketUpdates(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(h.log, w, r, err, ticketNotFound)
			return
		}
		utils.JSON(w, http.StatusOK, updates)
	}
}
