package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"thus-sync-server/internal/middleware"
	"thus-sync-server/internal/repository"
	"thus-sync-server/internal/service"
	"thus-sync-server/pkg/response"
)

type ContentHandler struct {
	contentService *service.ContentService
}

func NewContentHandler(contentService *service.ContentService) *ContentHandler {
	return &ContentHandler{
		contentService: contentService,
	}
}

func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req struct {
		ThreadID      string          `json:"threadId"`
		Blocks        json.RawMessage `json:"blocks"`
		IsEncrypted   bool            `json:"isEncrypted"`
		EncryptedData string          `json:"encryptedData"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if req.ThreadID == "" || len(req.Blocks) == 0 {
		response.BadRequest(w, "threadId and blocks are required")
		return
	}

	content, err := h.contentService.CreateRevision(userID, req.ThreadID, req.Blocks, req.IsEncrypted, req.EncryptedData)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(w, "Thread not found")
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.Created(w, content)
}

func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	threadID := r.URL.Query().Get("threadId")
	if threadID == "" {
		response.BadRequest(w, "threadId is required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))

	contents, err := h.contentService.ListByThread(userID, threadID, limit, skip)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(w, "Thread not found")
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.Success(w, map[string]interface{}{"contents": contents})
}

func (h *ContentHandler) Latest(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	threadID := mux.Vars(r)["threadId"]
	if threadID == "" {
		response.BadRequest(w, "threadId is required")
		return
	}

	content, err := h.contentService.Latest(userID, threadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(w, "Content not found")
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.Success(w, content)
}
