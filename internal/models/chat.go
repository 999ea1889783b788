package models

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system-note"
)

// Message is one transcript entry. Citations are set only on answers
// produced with search or maps grounding.
type Message struct {
	Role      Role       `json:"role"`
	Text      string     `json:"text"`
	Citations []Citation `json:"citations,omitempty"`
}

type Citation struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

type Place struct {
	URI     string `json:"uri"`
	Title   string `json:"title,omitempty"`
	PlaceID string `json:"placeId,omitempty"`
}
