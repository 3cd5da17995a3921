package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vanshika/circuitcycle/backend/internal/domain"
	"github.com/vanshika/circuitcycle/backend/internal/kiosk"
	"github.com/vanshika/circuitcycle/backend/internal/scanner"
	"github.com/vanshika/circuitcycle/backend/internal/service"
)

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger  *slog.Logger
	service *service.RewardsService
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, svc *service.RewardsService) *APIHandlers {
	return &APIHandlers{
		logger:  logger,
		service: svc,
	}
}

func (h *APIHandlers) register(r *mux.Router) {
	r.HandleFunc("/state", h.getState).Methods(http.MethodGet)

	user := r.PathPrefix("/user").Subrouter()
	user.HandleFunc("/profile", h.getProfile).Methods(http.MethodGet)
	user.HandleFunc("/bins", h.listBins).Methods(http.MethodGet)
	user.HandleFunc("/active-bin", h.getActiveBin).Methods(http.MethodGet)
	user.HandleFunc("/active-bin", h.putActiveBin).Methods(http.MethodPut)
	user.HandleFunc("/credits", h.postCredits).Methods(http.MethodPost)
	user.HandleFunc("/carbon", h.postCarbon).Methods(http.MethodPost)
	user.HandleFunc("/transactions", h.listTransactions).Methods(http.MethodGet)
	user.HandleFunc("/scan", h.getScan).Methods(http.MethodGet)
	user.HandleFunc("/scan", h.postScan).Methods(http.MethodPost)
	user.HandleFunc("/scan/reset", h.resetScan).Methods(http.MethodPost)

	r.HandleFunc("/kiosk", h.getKiosk).Methods(http.MethodGet)
	r.HandleFunc("/kiosk/events", h.postKioskEvent).Methods(http.MethodPost)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/dashboard", h.getDashboard).Methods(http.MethodGet)
	admin.HandleFunc("/route", h.getRoute).Methods(http.MethodGet)
	admin.HandleFunc("/route/dispatch", h.dispatchRoute).Methods(http.MethodPost)
	admin.HandleFunc("/bins/{id}/collect", h.collectBin).Methods(http.MethodPost)
}

type creditsRequest struct {
	Delta int `json:"delta"`
}

type carbonRequest struct {
	Delta float64 `json:"delta"`
}

type activeBinRequest struct {
	BinID *string `json:"binId"`
}

type activeBinResponse struct {
	Bin *domain.Bin `json:"bin"`
}

type kioskEventRequest struct {
	Event string `json:"event"`
}

func (h *APIHandlers) getState(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Snapshot())
}

func (h *APIHandlers) getProfile(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Profile())
}

func (h *APIHandlers) listBins(w http.ResponseWriter, r *http.Request) {
	filter, err := service.ParseBinFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"filter": filter,
		"items":  h.service.ListBins(filter),
	})
}

func (h *APIHandlers) getActiveBin(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, activeBinResponse{Bin: h.service.ActiveBin()})
}

func (h *APIHandlers) putActiveBin(w http.ResponseWriter, r *http.Request) {
	var req activeBinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, activeBinResponse{Bin: h.service.SelectBin(req.BinID)})
}

func (h *APIHandlers) postCredits(w http.ResponseWriter, r *http.Request) {
	var req creditsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.service.AdjustCredits(req.Delta))
}

func (h *APIHandlers) postCarbon(w http.ResponseWriter, r *http.Request) {
	var req carbonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.service.AdjustCarbon(req.Delta))
}

func (h *APIHandlers) listTransactions(w http.ResponseWriter, _ *http.Request) {
	txs := h.service.Transactions()
	if txs == nil {
		txs = []domain.Transaction{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": txs})
}

func (h *APIHandlers) getScan(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.service.ScanView())
}

func (h *APIHandlers) postScan(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Scan(r.Context())
	if err != nil {
		h.writeServiceError(w, "scan failed", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *APIHandlers) resetScan(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.ResetScan(r.Context()))
}

func (h *APIHandlers) getKiosk(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.service.KioskState())
}

func (h *APIHandlers) postKioskEvent(w http.ResponseWriter, r *http.Request) {
	var req kioskEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.service.SendKioskEvent(r.Context(), req.Event)
	if err != nil {
		h.writeServiceError(w, "kiosk event failed", err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (h *APIHandlers) getDashboard(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Dashboard())
}

func (h *APIHandlers) getRoute(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"stops": h.service.Route()})
}

func (h *APIHandlers) collectBin(w http.ResponseWriter, r *http.Request) {
	bin, err := h.service.CollectBin(mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, "collect bin failed", err)
		return
	}
	respondJSON(w, http.StatusOK, bin)
}

func (h *APIHandlers) dispatchRoute(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.DispatchRoute(r.Context())
	if err != nil {
		h.writeServiceError(w, "route dispatch failed", err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

// writeServiceError maps service sentinels to status codes. Anything
// unrecognised is logged and reported as a 500.
func (h *APIHandlers) writeServiceError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, domain.ErrBinNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, kiosk.ErrUnknownEvent), errors.Is(err, service.ErrInvalidFilter):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, scanner.ErrScanInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, scanner.ErrEmptyCatalog):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrDispatchDisabled), errors.Is(err, kiosk.ErrRunnerStopped):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		h.logger.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, msg)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}
