package reports

import (
	"fmt"
	"strings"
)

// Jurisdiction identifies a publishing region. Each jurisdiction's portal has
// its own page layout and linking convention, captured by its Strategy.
type Jurisdiction string

const (
	JurisdictionQuebec       Jurisdiction = "Quebec"
	JurisdictionOntario      Jurisdiction = "Ontario"
	JurisdictionNewBrunswick Jurisdiction = "New Brunswick"
	JurisdictionSaskatchewan Jurisdiction = "Saskatchewan"
)

// RetrievalJob is one unit of work: acquire the documents of one assessment
// report into one project folder. Immutable once created.
type RetrievalJob struct {
	Jurisdiction Jurisdiction
	ReportID     string
	Project      string
}

// Validate checks that every field is present.
func (j RetrievalJob) Validate() error {
	if j.ReportID == "" {
		return fmt.Errorf("report_id is required")
	}
	if j.Jurisdiction == "" {
		return fmt.Errorf("jurisdiction is required")
	}
	if j.Project == "" {
		return fmt.Errorf("project is required")
	}
	return nil
}

// Strategy describes how one jurisdiction's documents are located.
// Exactly one of ListingURL/DirectFileURL may be set; both empty means the
// jurisdiction gets folders and templates but no document retrieval.
type Strategy struct {
	// ListingURL is a printf template (one %s, the report id) for the page
	// enumerating a report's documents.
	ListingURL string `yaml:"listing_url"`

	// AlternateHost, when set, enables guessed candidates of the form
	// <AlternateHost>/<reportID>/<stem>.<case-permuted suffix>.
	AlternateHost string `yaml:"alternate_host"`

	// DirectFileURL is a printf template (one %s, the report id) for
	// jurisdictions serving a single document at a known address.
	DirectFileURL string `yaml:"direct_file_url"`

	// ReportPrefix, when set, is a required (case-insensitive) report id prefix.
	ReportPrefix string `yaml:"report_prefix"`
}

// ListingURLFor renders the listing page address for a report.
func (s Strategy) ListingURLFor(reportID string) string {
	if s.ListingURL == "" {
		return ""
	}
	return fmt.Sprintf(s.ListingURL, reportID)
}

// DirectFileURLFor renders the single-file address for a report.
func (s Strategy) DirectFileURLFor(reportID string) string {
	if s.DirectFileURL == "" {
		return ""
	}
	return fmt.Sprintf(s.DirectFileURL, reportID)
}

// AcceptsReportID checks the jurisdiction's report id precondition.
func (s Strategy) AcceptsReportID(reportID string) bool {
	if s.ReportPrefix == "" {
		return true
	}
	return strings.HasPrefix(strings.ToUpper(reportID), strings.ToUpper(s.ReportPrefix))
}
