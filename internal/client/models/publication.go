package models

import "time"

// Publication is a journal row for a document this client published.
// Registered is set once the matching ledger write is confirmed; EditedFrom
// names the CID an edit supersedes.
type Publication struct {
	CID          string
	Kind         Kind
	Name         string
	Owner        string
	CreatedAt    time.Time
	Registered   bool
	EditedFrom   string
	SupersededBy string
}
