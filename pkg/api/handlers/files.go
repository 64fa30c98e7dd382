package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/cumulo-cloud/cumulo/internal/logger"
	"github.com/cumulo-cloud/cumulo/pkg/drive"
	"github.com/cumulo-cloud/cumulo/pkg/metrics"
)

// FilesHandler handles file management endpoints.
type FilesHandler struct {
	drive         *drive.Service
	metrics       *metrics.DriveMetrics
	maxUploadSize int64
}

// NewFilesHandler creates a new FilesHandler. maxUploadSize caps the
// request body of uploads; zero means no cap beyond quota.
func NewFilesHandler(driveService *drive.Service, driveMetrics *metrics.DriveMetrics, maxUploadSize int64) *FilesHandler {
	return &FilesHandler{
		drive:         driveService,
		metrics:       driveMetrics,
		maxUploadSize: maxUploadSize,
	}
}

// ListResponse is the response body for GET /api/v1/files.
type ListResponse struct {
	Files []drive.FileEntry `json:"files"`
}

// FoldersResponse is the response body for folder listings.
type FoldersResponse struct {
	Folders []string `json:"folders"`
}

// CreateFolderRequest is the request body for POST /api/v1/files/folder.
type CreateFolderRequest struct {
	Path string `json:"path"`
}

// MoveRequest is the request body for POST /api/v1/files/move.
type MoveRequest struct {
	ID           string `json:"id"`
	TargetFolder string `json:"target_folder"`
}

// RenameRequest is the request body for POST /api/v1/files/rename.
type RenameRequest struct {
	ID      string `json:"id"`
	NewName string `json:"new_name"`
}

// RenameFolderRequest is the request body for POST /api/v1/files/rename-folder.
type RenameFolderRequest struct {
	Path    string `json:"path"`
	NewName string `json:"new_name"`
}

// MoveResponse reports the file's identifier after a move or rename,
// which may differ from the requested one when a collision was resolved.
type MoveResponse struct {
	ID string `json:"id"`
}

// List handles GET /api/v1/files.
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	files, err := h.drive.List(userID)
	h.metrics.RecordOperation("list", err)
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

// Upload handles POST /api/v1/files. Expects a multipart form with a
// "file" part and an optional "folder" field naming the destination.
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}

	reader, err := r.MultipartReader()
	if err != nil {
		BadRequest(w, "Expected multipart/form-data request")
		return
	}

	folder := r.URL.Query().Get("folder")
	var entry *drive.FileEntry
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				WriteProblem(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
					fmt.Sprintf("Upload exceeds the maximum size of %d bytes", maxErr.Limit))
				return
			}
			BadRequest(w, "Malformed multipart body")
			return
		}

		switch part.FormName() {
		case "folder":
			value, err := io.ReadAll(io.LimitReader(part, 4096))
			if err != nil {
				BadRequest(w, "Malformed multipart body")
				return
			}
			folder = string(value)
		case "file":
			filename := path.Base(part.FileName())
			entry, err = h.drive.Upload(userID, part, r.ContentLength, filename, folder)
			h.metrics.RecordOperation("upload", err)
			if err != nil {
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					WriteProblem(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
						fmt.Sprintf("Upload exceeds the maximum size of %d bytes", maxErr.Limit))
					return
				}
				writeDriveError(w, err)
				return
			}
			h.metrics.RecordUpload(entry.Size)
		}
	}

	if entry == nil {
		BadRequest(w, "Missing file part")
		return
	}

	logger.Info("file uploaded", "user_id", userID, "file_id", entry.ID, "size", entry.Size)
	WriteJSONCreated(w, entry)
}

// Download handles GET /api/v1/files/download?id=<fileID>.
func (h *FilesHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	fileID := r.URL.Query().Get("id")
	if fileID == "" {
		BadRequest(w, "Query parameter 'id' is required")
		return
	}

	rc, entry, err := h.drive.Open(userID, fileID)
	h.metrics.RecordOperation("download", err)
	if err != nil {
		writeDriveError(w, err)
		return
	}
	defer rc.Close()

	serveFile(w, rc, entry)
}

// CreateFolder handles POST /api/v1/files/folder.
func (h *FilesHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req CreateFolderRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		BadRequest(w, "Folder path is required")
		return
	}

	err := h.drive.CreateDirectory(userID, req.Path)
	h.metrics.RecordOperation("create_folder", err)
	if err != nil {
		writeDriveError(w, err)
		return
	}
	WriteJSONCreated(w, CreateFolderRequest{Path: req.Path})
}

// ListFolders handles GET /api/v1/files/folders.
func (h *FilesHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	folders, err := h.drive.ListFolders(userID)
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

// Move handles POST /api/v1/files/move.
func (h *FilesHandler) Move(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req MoveRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.ID == "" {
		BadRequest(w, "File id is required")
		return
	}

	newID, err := h.drive.MoveFile(userID, req.ID, req.TargetFolder)
	h.metrics.RecordOperation("move", err)
	if err != nil {
		writeDriveError(w, err)
		return
	}
	WriteJSONOK(w, MoveResponse{ID: newID})
}

// Rename handles POST /api/v1/files/rename.
func (h *FilesHandler) Rename(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req RenameRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.ID == "" || req.NewName == "" {
		BadRequest(w, "File id and new name are required")
		return
	}

	newID, err := h.drive.RenameFile(userID, req.ID, req.NewName)
	h.metrics.RecordOperation("rename", err)
	if err != nil {
		writeDriveError(w, err)
		return
	}
	WriteJSONOK(w, MoveResponse{ID: newID})
}

// RenameFolder handles POST /api/v1/files/rename-folder.
func (h *FilesHandler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req RenameFolderRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Path == "" || req.NewName == "" {
		BadRequest(w, "Folder path and new name are required")
		return
	}

	newPath, err := h.drive.RenameFolder(userID, req.Path, req.NewName)
	h.metrics.RecordOperation("rename_folder", err)
	if err != nil {
		writeDriveError(w, err)
		return
	}
	WriteJSONOK(w, MoveResponse{ID: newPath})
}

// Delete handles DELETE /api/v1/files?id=<path>. Moves the file or
// folder to trash rather than deleting it.
func (h *FilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	itemPath := r.URL.Query().Get("id")
	if itemPath == "" {
		BadRequest(w, "Query parameter 'id' is required")
		return
	}

	err := h.drive.MoveToTrash(userID, itemPath)
	h.metrics.RecordOperation("trash", err)
	if err != nil {
		writeDriveError(w, err)
		return
	}
	WriteNoContent(w)
}

// Usage handles GET /api/v1/files/usage.
func (h *FilesHandler) Usage(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	usage, err := h.drive.GetUsage(userID)
	if err != nil {
		writeDriveError(w, err)
		return
	}
	WriteJSONOK(w, usage)
}

// serveFile streams a file entry to the client with download headers.
func serveFile(w http.ResponseWriter, rc io.Reader, entry *drive.FileEntry) {
	contentType := mime.TypeByExtension(path.Ext(entry.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(entry.Size, 10))
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": entry.Name}))

	if _, err := io.Copy(w, rc); err != nil {
		logger.Debug("download aborted", "file_id", entry.ID, "error", err)
	}
}
