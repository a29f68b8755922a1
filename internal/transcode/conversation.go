// Package transcode maps LibreChat records onto Open WebUI records. The
// functions here are pure apart from the injected id generator and clock.
package transcode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	app_errors "chatbridge/internal/errors"
	"chatbridge/internal/model"
	"chatbridge/internal/timeconv"
)

// DefaultConversationTitle is used when a conversation title is absent or blank.
const DefaultConversationTitle = "Imported Conversation"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyConversation signals that a conversation has no messages and must be
// skipped rather than migrated.
var ErrEmptyConversation = errors.New("conversation has no messages")

// IDFunc generates primary keys for new chat rows.
type IDFunc func() string

// ConversationTranscoder builds Open WebUI chat rows for one target user.
type ConversationTranscoder struct {
	userID string
	times  *timeconv.Normalizer
	newID  IDFunc
}

// NewConversationTranscoder creates a transcoder. A nil newID uses random UUIDs.
func NewConversationTranscoder(userID string, times *timeconv.Normalizer, newID IDFunc) *ConversationTranscoder {
	if newID == nil {
		newID = uuid.NewString
	}
	return &ConversationTranscoder{userID: userID, times: times, newID: newID}
}

// Transcode converts a conversation and its messages, which must already be
// sorted by creation time. It returns ErrEmptyConversation when there are no
// messages.
func (t *ConversationTranscoder) Transcode(conv model.SourceConversation, messages []model.SourceMessage) (*model.ChatRecord, error) {
	if len(messages) == 0 {
		return nil, ErrEmptyConversation
	}

	title := conv.Title
	if strings.TrimSpace(title) == "" {
		title = DefaultConversationTitle
	}
	createdAt := t.times.EpochSeconds(conv.CreatedAt)
	updatedAt := t.times.EpochSeconds(conv.UpdatedAt)

	models := newModelSet()
	if conv.Model != nil {
		models.add(*conv.Model)
	}

	chatMessages := make([]model.ChatMessage, 0, len(messages))
	for i, msg := range messages {
		if msg.MessageID == "" {
			return nil, fmt.Errorf("%w: message %d of conversation %s has no messageId",
				app_errors.ErrInvalidRecord, i, conv.ConversationID)
		}

		role := RoleAssistant
		if msg.IsCreatedByUser {
			role = RoleUser
		}

		var msgModel *string
		if role == RoleAssistant && msg.Model != nil {
			models.add(*msg.Model)
			msgModel = msg.Model
		}

		chatMessages = append(chatMessages, model.ChatMessage{
			ID:        msg.MessageID,
			ParentID:  ParentID(msg.ParentMessageID),
			Role:      role,
			Content:   msg.Text,
			Model:     msgModel,
			Timestamp: t.times.EpochSeconds(msg.CreatedAt),
		})
	}

	tags := conv.Tags
	if tags == nil {
		tags = []string{}
	}

	return &model.ChatRecord{
		ID:        t.newID(),
		UserID:    t.userID,
		Title:     title,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		Chat: model.ChatDocument{
			ID:        "",
			Title:     title,
			Models:    models.list(),
			Params:    map[string]any{},
			Messages:  chatMessages,
			Tags:      tags,
			Timestamp: timeconv.Milliseconds(createdAt),
			Files:     []any{},
		},
		Meta: map[string]any{},
	}, nil
}

// ParentID rewrites the LibreChat root sentinel to nil and passes any other
// value through unchanged.
func ParentID(parent *string) *string {
	if parent == nil || *parent == model.NoParentID {
		return nil
	}
	p := *parent
	return &p
}

// modelSet keeps distinct, non-empty model names in first-seen order.
type modelSet struct {
	seen  map[string]struct{}
	names []string
}

func newModelSet() *modelSet {
	return &modelSet{seen: map[string]struct{}{}, names: []string{}}
}

func (s *modelSet) add(name string) {
	if name == "" {
		return
	}
	if _, ok := s.seen[name]; ok {
		return
	}
	s.seen[name] = struct{}{}
	s.names = append(s.names, name)
}

func (s *modelSet) list() []string {
	return s.names
}
