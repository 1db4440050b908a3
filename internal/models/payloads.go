package models

// These structs define the JSON payloads for HTTP requests and responses
// between the back-office frontend and the pipeline service.

// UploadResponse is the output of POST /documents/upload.
type UploadResponse struct {
	Success bool      `json:"success"`
	FileID  string    `json:"fileId"`
	AITags  TagResult `json:"aiTags"`
}

// ListDocumentsResponse is the output of GET /documents/list.
type ListDocumentsResponse struct {
	Success   bool               `json:"success"`
	Documents []DocumentMetadata `json:"documents"`
}

// DocumentResponse is the output of GET /documents/{id}.
type DocumentResponse struct {
	Success  bool              `json:"success"`
	Document *DocumentMetadata `json:"document"`
}

// MoveRequest is the input for POST /documents/move/{id}.
type MoveRequest struct {
	Category string `json:"category"`
	FolderID string `json:"folderId"`
}

// CreateFolderRequest is the input for POST /documents/create-folder.
type CreateFolderRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
}

// CreateFolderResponse is the output of POST /documents/create-folder.
type CreateFolderResponse struct {
	Success  bool   `json:"success"`
	FolderID string `json:"folderId"`
}

// VersionResponse is the output of POST /documents/{id}/version.
type VersionResponse struct {
	Success bool `json:"success"`
	Version int  `json:"version"`
}

// VersionsResponse is the output of GET /documents/{id}/versions.
type VersionsResponse struct {
	Success  bool              `json:"success"`
	Versions []DocumentVersion `json:"versions"`
}

// RestoreRequest is the input for POST /documents/{id}/restore.
type RestoreRequest struct {
	Version int `json:"version"`
}

// NotificationsResponse is the output of GET /notifications.
type NotificationsResponse struct {
	Success       bool           `json:"success"`
	Notifications []Notification `json:"notifications"`
}

// SuccessResponse is the generic mutation acknowledgement.
type SuccessResponse struct {
	Success bool `json:"success"`
}
