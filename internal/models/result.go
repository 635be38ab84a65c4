package models

// Result is what one import run hands back to the caller.
type Result struct {
	ImportID     string                 `json:"importId" yaml:"import_id"`
	File         string                 `json:"file" yaml:"file"`
	Source       string                 `json:"source" yaml:"source"`
	Layout       string                 `json:"layout" yaml:"layout"`
	RowsRead     int                    `json:"rowsRead" yaml:"rows_read"`
	RowsSkipped  int                    `json:"rowsSkipped" yaml:"rows_skipped"`
	Transactions []CanonicalTransaction `json:"transactions" yaml:"transactions"`
	Warnings     []string               `json:"warnings" yaml:"warnings"`
}
