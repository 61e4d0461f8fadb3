package handler

import (
	"encoding/json"
	"net/http"

	"thus-sync-server/internal/domain"
	"thus-sync-server/internal/middleware"
	"thus-sync-server/internal/service"
	"thus-sync-server/pkg/response"
)

// operateType value that selects query mode on the combined endpoint.
const operateGeneralSync = "general_sync"

type SyncHandler struct {
	syncService     *service.SyncService
	envelopeService *service.EnvelopeService
}

func NewSyncHandler(syncService *service.SyncService, envelopeService *service.EnvelopeService) *SyncHandler {
	return &SyncHandler{
		syncService:     syncService,
		envelopeService: envelopeService,
	}
}

// HandleSync serves the combined endpoint. operateType picks the mode for the
// whole batch; atoms never mix modes within one request.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	mode := service.BatchMutate
	if req.OperateType == operateGeneralSync {
		mode = service.BatchQuery
	}
	h.run(w, r, mode, req)
}

func (h *SyncHandler) HandleSyncGet(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	h.run(w, r, service.BatchQuery, req)
}

func (h *SyncHandler) HandleSyncSet(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	h.run(w, r, service.BatchMutate, req)
}

func (h *SyncHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (*domain.SyncRequest, bool) {
	var req domain.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return nil, false
	}
	return &req, true
}

func (h *SyncHandler) run(w http.ResponseWriter, r *http.Request, mode service.BatchMode, req *domain.SyncRequest) {
	userID := middleware.GetUserID(r)

	atoms := req.Atoms
	if len(atoms) == 0 && len(req.PlzEncAtoms) > 0 {
		atoms = req.PlzEncAtoms
	}

	// An encrypted envelope replaces the plaintext atoms. A failed decode
	// yields zero atoms and an empty success: the batch is never partially
	// applied and the client learns nothing about which step failed.
	if req.LiuEncAtoms != nil {
		atoms = h.envelopeService.DecodeAtoms(userID, req.LiuEncAtoms)
	}

	if len(atoms) == 0 {
		response.Success(w, domain.SyncResponse{Results: []domain.AtomResult{}})
		return
	}

	results := h.syncService.Process(userID, mode, atoms)
	response.Success(w, domain.SyncResponse{Results: results})
}
