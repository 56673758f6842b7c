package reports

// RetrieveRequest is the body of POST /api/reports/retrieve.
type RetrieveRequest struct {
	ReportID     string `json:"report_id"`
	Jurisdiction string `json:"jurisdiction"`
	Project      string `json:"project"`
}

// RetrieveResponse reports the outcome of a retrieval job.
type RetrieveResponse struct {
	Message    string `json:"message"`
	Downloaded int    `json:"downloaded"`
}
