package res

type UploadResponse struct {
	FileURL     string `json:"fileUrl"`
	FileName    string `json:"fileName"`
	FileSize    int64  `json:"fileSize"`
	MessageType string `json:"messageType"`
	FileID      string `json:"fileId"`
}
