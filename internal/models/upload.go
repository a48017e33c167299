package models

// Upload is the metadata document for a file attached to a wizard answer.
// The bytes live in the blob bucket under BlobKey.
type Upload struct {
	ID          string `json:"_id,omitempty"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	BlobKey     string `json:"blobKey"`
	QuestionID  string `json:"questionId"`
	SessionID   string `json:"sessionId,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

// Locator is the URL path stored as the answer value for a file question.
// It carries the random blob key, never the sequential document id.
func (u *Upload) Locator() string {
	return "/api/v1/uploads/" + u.BlobKey
}
