package entity

// Document is one uploaded purchase order.
type Document struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	Handle      string `json:"handle"`
	Checksum    string `json:"checksum,omitempty"` // hex SHA-256 of Data
	Size        int64  `json:"size"`
	SourcePath  string `json:"source_path,omitempty"`
	Data        []byte `json:"-"`
}
