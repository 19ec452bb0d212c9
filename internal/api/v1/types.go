package apiv1

// Pong is the ping endpoint response.
type Pong struct {
	Ping string `json:"ping"`
}

// RowVersionParam carries the optimistic-concurrency guard for draft writes.
// Clients echo back the row_version they last read; stale values are rejected
// with 409 and the current value.
type RowVersionParam struct {
	RowVersion int `query:"row_version" json:"row_version"`
}

// ConflictResponse is the 409 body for stale draft writes.
type ConflictResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Expected int    `json:"expected"`
	Actual   int    `json:"actual"`
}

// ValidationResponse is the 400 body for schema violations, with one entry
// per offending field.
type ValidationResponse struct {
	Error  string       `json:"error"`
	Fields []FieldIssue `json:"fields"`
}

// FieldIssue pinpoints one invalid field in a draft payload.
type FieldIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}
