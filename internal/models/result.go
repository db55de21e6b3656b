package models

// RetrievalResult is what the retrieval engine hands back for a recognized
// query. Exactly one of Document or the listing fields is populated.
// A nil *RetrievalResult means the query was not recognized at all and the
// caller should fall back to a generic reply.
type RetrievalResult struct {
	// Document is the matched knowledge document, nil for listings.
	Document *KnowledgeDocument `json:"document,omitempty"`

	// IsDepartmentListing is true when the query resolved to a department.
	// Entries may legitimately be empty; an empty listing is still a hit,
	// distinct from a nil result.
	IsDepartmentListing bool              `json:"is_department_listing,omitempty"`
	Department          string            `json:"department,omitempty"`
	Entries             []DepartmentEntry `json:"entries,omitempty"`
}
