package unlock

// UnlockRequest is the body of POST /api/documents/unlock. Content, when set,
// carries the document bytes (base64 over the wire) and skips the store read.
type UnlockRequest struct {
	Path    string `json:"path"`
	Content []byte `json:"content,omitempty"`
}

// UnlockResponse reports the outcome for one document.
type UnlockResponse struct {
	Path     string `json:"path"`
	Unlocked bool   `json:"unlocked"`
	Size     int    `json:"size"`
}
