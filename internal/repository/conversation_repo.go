package repository

import (
	"context"
	"errors"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"valhalla-backend/internal/models"
)

const (
	conversationsCollection = "conversations"
	historyCollection       = "conversation_history"
)

type ConversationRepo struct {
	client *firestore.Client
}

func NewConversationRepo(client *firestore.Client) *ConversationRepo {
	return &ConversationRepo{client: client}
}

// AppendMessage adds one message to a conversation inside a transaction,
// creating the conversation on the first message. The message sequence only
// ever grows; concurrent appends to the same conversation serialize through
// the transaction. After the commit a snapshot is mirrored to the history
// collection best-effort.
func (r *ConversationRepo) AppendMessage(ctx context.Context, conversationID, projectID string, msg models.ChatMessage) (*models.Conversation, error) {
	if conversationID == "" {
		return nil, &InvalidArgumentError{Message: "conversation id is required"}
	}
	if projectID == "" {
		return nil, &InvalidArgumentError{Message: "project id is required"}
	}
	if msg.Role != "user" && msg.Role != "assistant" {
		return nil, &InvalidArgumentError{Message: "message role must be user or assistant"}
	}
	if msg.Content == "" {
		return nil, &InvalidArgumentError{Message: "message content is required"}
	}

	now := time.Now().UTC()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}
	if msg.TokenCountEstimate == 0 {
		msg.TokenCountEstimate = models.EstimateTokens(msg.Content)
	}

	ref := r.client.Collection(conversationsCollection).Doc(conversationID)
	var conv models.Conversation

	// The closure may run more than once on contention, so it rebuilds conv
	// from the stored document every attempt.
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		switch {
		case err == nil:
			conv = models.Conversation{}
			if err := doc.DataTo(&conv); err != nil {
				return err
			}
		case status.Code(err) == codes.NotFound:
			conv = models.Conversation{ProjectID: projectID, CreatedAt: now}
		default:
			return err
		}

		conv.Messages = append(conv.Messages, msg)
		conv.MessageCount = len(conv.Messages)
		conv.UpdatedAt = now
		return tx.Set(ref, conv)
	})
	if err != nil {
		return nil, mapStoreErr("append message to conversation "+conversationID, err)
	}
	conv.ID = conversationID

	r.mirrorHistory(ctx, &conv)
	return &conv, nil
}

// mirrorHistory appends a snapshot to the backup collection. Failures are
// logged and swallowed: the primary write already committed.
func (r *ConversationRepo) mirrorHistory(ctx context.Context, conv *models.Conversation) {
	snapshot := models.HistorySnapshot{
		ConversationID: conv.ID,
		ProjectID:      conv.ProjectID,
		MessageCount:   conv.MessageCount,
		Messages:       conv.Messages,
		SavedAt:        time.Now().UTC(),
	}
	if _, _, err := r.client.Collection(historyCollection).Add(ctx, snapshot); err != nil {
		log.Printf("history mirror write failed for conversation %s: %v", conv.ID, err)
	}
}

func (r *ConversationRepo) Get(ctx context.Context, conversationID string) (*models.Conversation, error) {
	if conversationID == "" {
		return nil, &InvalidArgumentError{Message: "conversation id is required"}
	}

	doc, err := r.client.Collection(conversationsCollection).Doc(conversationID).Get(ctx)
	if err != nil {
		return nil, mapStoreErr("get conversation "+conversationID, err)
	}

	var conv models.Conversation
	if err := doc.DataTo(&conv); err != nil {
		return nil, mapStoreErr("decode conversation "+conversationID, err)
	}
	conv.ID = doc.Ref.ID
	return &conv, nil
}

// History returns the most recent limit messages in original order. An
// unknown conversation yields an empty history, not an error, so a fresh
// chat window renders without special cases.
func (r *ConversationRepo) History(ctx context.Context, conversationID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		return nil, &InvalidArgumentError{Message: "limit must be a positive integer"}
	}

	conv, err := r.Get(ctx, conversationID)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return []models.ChatMessage{}, nil
		}
		return nil, err
	}
	return models.LastN(conv.Messages, limit), nil
}

// LatestForProject finds the most recently updated conversation for a
// project so the UI can resume where the user left off.
func (r *ConversationRepo) LatestForProject(ctx context.Context, projectID string) (*models.Conversation, error) {
	if projectID == "" {
		return nil, &InvalidArgumentError{Message: "project id is required"}
	}

	iter := r.client.Collection(conversationsCollection).
		Where("project_id", "==", projectID).
		OrderBy("updated_at", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, &NotFoundError{Message: "no conversations for project " + projectID}
	}
	if err != nil {
		return nil, mapStoreErr("query conversations for project "+projectID, err)
	}

	var conv models.Conversation
	if err := doc.DataTo(&conv); err != nil {
		return nil, mapStoreErr("decode conversation "+doc.Ref.ID, err)
	}
	conv.ID = doc.Ref.ID
	return &conv, nil
}
