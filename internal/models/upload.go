package models

type PresignedUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
	FileName    string `json:"fileName" binding:"required"`
}

type PresignedUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	MediaKey  string `json:"mediaKey"`
	MediaURL  string `json:"mediaUrl"`
}
