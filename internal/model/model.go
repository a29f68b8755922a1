package model

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NoParentID is the parent message id LibreChat stores for root messages.
const NoParentID = "00000000-0000-0000-0000-000000000000"

// SourceConversation is a LibreChat conversation document. Timestamps are kept
// raw because their representation varies between exports.
type SourceConversation struct {
	ConversationID string   `bson:"conversationId"`
	Title          string   `bson:"title"`
	Model          *string  `bson:"model,omitempty"`
	Tags           []string `bson:"tags,omitempty"`
	CreatedAt      any      `bson:"createdAt"`
	UpdatedAt      any      `bson:"updatedAt"`
}

// SourceMessage is a single LibreChat message. ParentMessageID is nil or
// NoParentID for root messages.
type SourceMessage struct {
	MessageID       string  `bson:"messageId"`
	ConversationID  string  `bson:"conversationId"`
	ParentMessageID *string `bson:"parentMessageId,omitempty"`
	IsCreatedByUser bool    `bson:"isCreatedByUser"`
	Text            string  `bson:"text"`
	Model           *string `bson:"model,omitempty"`
	CreatedAt       any     `bson:"createdAt"`
}

// SourcePreset is a LibreChat preset. Pointer fields distinguish "absent" from
// a zero value so defaults can be applied.
type SourcePreset struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Title            *string            `bson:"title,omitempty"`
	Model            *string            `bson:"model,omitempty"`
	Temperature      *float64           `bson:"temperature,omitempty"`
	TopP             *float64           `bson:"top_p,omitempty"`
	FrequencyPenalty *float64           `bson:"frequency_penalty,omitempty"`
	PresencePenalty  *float64           `bson:"presence_penalty,omitempty"`
	PromptPrefix     *string            `bson:"promptPrefix,omitempty"`
	Examples         []any              `bson:"examples,omitempty"`
	Tags             []string           `bson:"tags,omitempty"`
	CreatedAt        any                `bson:"createdAt"`
	UpdatedAt        any                `bson:"updatedAt"`
}

// ChatRecord is one row of the Open WebUI `chat` table.
type ChatRecord struct {
	ID        string
	UserID    string
	Title     string
	Archived  bool
	CreatedAt int64
	UpdatedAt int64
	Chat      ChatDocument
	Pinned    bool
	Meta      map[string]any
	FolderID  *string
}

// ChatDocument is the JSON blob stored in the `chat` column.
type ChatDocument struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Models    []string       `json:"models"`
	Params    map[string]any `json:"params"`
	Messages  []ChatMessage  `json:"messages"`
	Tags      []string       `json:"tags"`
	Timestamp int64          `json:"timestamp"` // milliseconds
	Files     []any          `json:"files"`
}

// ChatMessage is one entry of ChatDocument.Messages.
type ChatMessage struct {
	ID        string  `json:"id"`
	ParentID  *string `json:"parentId"`
	Role      string  `json:"role"`
	Content   string  `json:"content"`
	Model     *string `json:"model"`
	Timestamp int64   `json:"timestamp"`
}

// ModelRecord is an Open WebUI model definition built from a preset.
type ModelRecord struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	BaseModelID   string      `json:"base_model_id"`
	Name          string      `json:"name"`
	Params        ModelParams `json:"params"`
	Meta          ModelMeta   `json:"meta"`
	AccessControl any         `json:"access_control"`
	IsActive      bool        `json:"is_active"`
	UpdatedAt     int64       `json:"updated_at"`
	CreatedAt     int64       `json:"created_at"`
	User          UserProfile `json:"user"`
}

type ModelParams struct {
	Temperature      float64 `json:"temperature"`
	System           string  `json:"system"`
	TopP             float64 `json:"top_p"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
	PresencePenalty  float64 `json:"presence_penalty"`
}

type ModelMeta struct {
	ProfileImageURL     *string      `json:"profile_image_url"`
	Description         string       `json:"description"`
	Capabilities        Capabilities `json:"capabilities"`
	SuggestionPrompts   []any        `json:"suggestion_prompts"`
	RawModelfileContent *string      `json:"raw_modelfile_content"`
	Tags                []string     `json:"tags"`
}

type Capabilities struct {
	Vision    bool `json:"vision"`
	Usage     bool `json:"usage"`
	Citations bool `json:"citations"`
}

// UserProfile is the owner denormalized into every ModelRecord.
type UserProfile struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Role            string  `json:"role"`
	ProfileImageURL *string `json:"profile_image_url"`
}

// Result counts the outcome of a pipeline run.
type Result struct {
	Migrated int `json:"migrated"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}
