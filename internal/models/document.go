// Package models defines core data structures for knowledge documents,
// keyword targets, and retrieval results.
package models

// KnowledgeDocument is one stored knowledge-base entry. Documents are
// created by the ingestion tooling and read-only from the bot's side.
// IDs are conventionally prefixed "<departmentCode>-", e.g. "icu-cvvh-setup".
type KnowledgeDocument struct {
	ID              string   `json:"id"`
	Keywords        []string `json:"keywords"`
	Text            string   `json:"text"`
	ImageURL        string   `json:"imageUrl,omitempty"`
	VideoURL        string   `json:"videoUrl,omitempty"`
	VideoPreviewURL string   `json:"videoPreviewUrl,omitempty"`
}

// Department returns the department code prefix of the document ID, or ""
// when the ID carries no department prefix.
func (d *KnowledgeDocument) Department() string {
	for i := 0; i < len(d.ID); i++ {
		if d.ID[i] == '-' {
			return d.ID[:i]
		}
	}
	return ""
}

// DepartmentEntry is one row of a department listing: a document reduced
// to its id, derived title, and short description.
type DepartmentEntry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}
