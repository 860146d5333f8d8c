package model

// AnalysisStatus is the terminal outcome of one analysis invocation.
// Statuses are mutually exclusive, a run ends in exactly one of them.
type AnalysisStatus string

const (
	// AnalysisNoCategories means the owner has no categories configured,
	// so the extraction model was never called.
	AnalysisNoCategories AnalysisStatus = "no_categories"
	// AnalysisIgnored means the model reported the image is not a receipt.
	AnalysisIgnored AnalysisStatus = "ignored"
	// AnalysisIncomplete means the parsed record lacks a usable amount or
	// category name.
	AnalysisIncomplete AnalysisStatus = "incomplete"
	// AnalysisCategoryNotFound means the model named a category the owner
	// does not have.
	AnalysisCategoryNotFound AnalysisStatus = "category_not_found"
	// AnalysisError covers every unexpected failure: missing receipt,
	// network errors, malformed model output.
	AnalysisError AnalysisStatus = "analysis_error"
	// AnalysisProcessed means a transaction was created and issuer
	// metadata persisted.
	AnalysisProcessed AnalysisStatus = "processed"
)

// AnalysisResult is what Analyze always returns, it never raises past its
// own boundary.
type AnalysisResult struct {
	ReceiptID     int64          `json:"receipt_id"`
	Status        AnalysisStatus `json:"status"`
	Message       string         `json:"message,omitempty"`
	TransactionID *int64         `json:"transaction_id,omitempty"`
	Record        map[string]any `json:"record,omitempty"` // raw parsed record, echoed for diagnostics
	NotFound      bool           `json:"-"`                // receipt row absent, HTTP callers map this to 404
}
