package handlers

import (
	"errors"
	"net/http"

	"github.com/cumulo-cloud/cumulo/pkg/drive"
	"github.com/cumulo-cloud/cumulo/pkg/metrics"
)

// TrashHandler handles trash management endpoints.
type TrashHandler struct {
	drive   *drive.Service
	metrics *metrics.DriveMetrics
}

// NewTrashHandler creates a new TrashHandler.
func NewTrashHandler(driveService *drive.Service, driveMetrics *metrics.DriveMetrics) *TrashHandler {
	return &TrashHandler{drive: driveService, metrics: driveMetrics}
}

// RestoreRequest is the request body for POST /api/v1/trash/restore.
type RestoreRequest struct {
	ID string `json:"id"`
}

// List handles GET /api/v1/trash.
func (h *TrashHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	files, err := h.drive.ListTrash(userID)
	if err != nil {
		if errors.Is(err, drive.ErrUserNotFound) {
			WriteJSONOK(w, ListResponse{Files: []drive.FileEntry{}})
			return
		}
		writeDriveError(w, err)
		return
	}
	if files == nil {
		files = []drive.FileEntry{}
	}
	WriteJSONOK(w, ListResponse{Files: files})
}

// Folders handles GET /api/v1/trash/folders.
func (h *TrashHandler) Folders(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	folders, err := h.drive.ListTrashFolders(userID)
	if err != nil {
		if errors.Is(err, drive.ErrUserNotFound) {
			WriteJSONOK(w, FoldersResponse{Folders: []string{}})
			return
		}
		writeDriveError(w, err)
		return
	}
	if folders == nil {
		folders = []string{}
	}
	WriteJSONOK(w, FoldersResponse{Folders: folders})
}

// Restore handles POST /api/v1/trash/restore.
func (h *TrashHandler) Restore(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req RestoreRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.ID == "" {
		BadRequest(w, "Item id is required")
		return
	}

	err := h.drive.RestoreFromTrash(userID, req.ID)
	h.metrics.RecordOperation("restore", err)
	if err != nil {
		writeDriveError(w, err)
		return
	}
	WriteNoContent(w)
}

// DeleteItem handles DELETE /api/v1/trash/item?id=<path>. Permanently
// removes the item.
func (h *TrashHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	itemID := r.URL.Query().Get("id")
	if itemID == "" {
		BadRequest(w, "Query parameter 'id' is required")
		return
	}

	err := h.drive.DeleteFromTrash(userID, itemID)
	h.metrics.RecordOperation("purge", err)
	if err != nil {
		writeDriveError(w, err)
		return
	}
	WriteNoContent(w)
}

// Clear handles DELETE /api/v1/trash. Empties the trash entirely.
func (h *TrashHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	err := h.drive.ClearTrash(userID)
	h.metrics.RecordOperation("clear_trash", err)
	if err != nil {
		writeDriveError(w, err)
		return
	}
	WriteNoContent(w)
}
