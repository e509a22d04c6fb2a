package scanner

// Attachment is a named byte payload recovered from a raw email message.
// Content holds the decoded bytes; ContentType is guessed from the
// filename extension.
type Attachment struct {
	Filename    string `json:"filename"`
	Content     []byte `json:"-"`
	ContentType string `json:"content_type"`
}

// Part is an attachment part reported by a standards-compliant MIME
// parser. Filename may be empty when the parser could not determine one.
type Part struct {
	Filename string
	Content  []byte
}

// PartLister is the delegate used as a last resort when the heuristic scan
// finds nothing: a full MIME parser that returns the attachment parts of a
// raw message.
type PartLister interface {
	ListParts(raw []byte) ([]Part, error)
}

// dataFileExtensions is the allow-list of attachment extensions worth
// extracting from. Extensions are matched case-insensitively; anything
// else is ignored entirely.
var dataFileExtensions = map[string]bool{
	".csv":  true,
	".json": true,
	".xml":  true,
	".txt":  true,
	".xlsx": true,
	".xls":  true,
}

// contentTypeByExtension maps allow-listed extensions to MIME types.
var contentTypeByExtension = map[string]string{
	".csv":  "text/csv",
	".json": "application/json",
	".xml":  "application/xml",
	".txt":  "text/plain",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
}

const defaultContentType = "application/octet-stream"
