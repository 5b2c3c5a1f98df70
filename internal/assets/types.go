package assets

import "time"

// Asset is a stored binary file plus its metadata. Content is nulled before
// serialization on every metadata path so list and write responses never carry
// the blob.
type Asset struct {
	ID          int64     `json:"id"`
	TypeID      int       `json:"type_id"`
	Description string    `json:"description"`
	FileName    string    `json:"file_name"`
	MediaType   string    `json:"media_type"`
	Content     []byte    `json:"content,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Summary is the list projection of an Asset: everything except content.
type Summary struct {
	ID          int64  `json:"id"`
	TypeID      int    `json:"type_id"`
	Description string `json:"description"`
	FileName    string `json:"file_name"`
	MediaType   string `json:"media_type"`
}

// Input carries the fields of an upload. FileName and MediaType are the
// explicit form parameters; UploadName and UploadMediaType come from the
// multipart file part and are used as fallbacks.
type Input struct {
	TypeID          int
	Description     string
	FileName        string
	MediaType       string
	UploadName      string
	UploadMediaType string
	Content         []byte
}

// Page is one page of asset summaries plus the total row count.
type Page struct {
	Items []Summary `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Count int       `json:"count"`
}
