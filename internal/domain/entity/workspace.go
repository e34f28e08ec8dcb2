package entity

import "time"

type Todo struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	Date      string    `json:"date,omitempty"`
	FolderID  string    `json:"folderId,omitempty"`
	Completed bool      `json:"completed"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"createdAt"`
}

type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Date      string    `json:"date,omitempty"`
	FolderID  string    `json:"folderId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// TodoPatch carries optional todo changes; nil fields are left untouched.
type TodoPatch struct {
	Content   *string
	Completed *bool
	Date      *string
}

type NotePatch struct {
	Title   *string
	Content *string
}

// APIKeys is the credential view used by provider resolution. A provider is
// available when its key is present and not paused.
type APIKeys struct {
	AnthropicAvailable bool
	AnthropicKey       string
	OpenAIAvailable    bool
	OpenAIKey          string
}

// DateLayout is the calendar day format used for todo and note placement.
const DateLayout = "2006-01-02"
