package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/instaclone-server/internal/domain"
)

func orderedPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// SendMessage stores a message, creating the conversation between the two
// participants on first contact.
func (s *Store) SendMessage(ctx context.Context, senderID, receiverID, text string) (*domain.Message, error) {
	msg := &domain.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    text,
	}
	low, high := orderedPair(senderID, receiverID)

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO conversations (id, user_low, user_high) VALUES ($1, $2, $3) ON CONFLICT (user_low, user_high) DO NOTHING`,
			uuid.NewString(), low, high)
		if err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, `SELECT id FROM conversations WHERE user_low = $1 AND user_high = $2`, low, high).Scan(&msg.ConversationID); err != nil {
			return err
		}
		return tx.QueryRow(ctx,
			`INSERT INTO messages (id, conversation_id, sender_id, receiver_id, message) VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
			msg.ID, msg.ConversationID, senderID, receiverID, text,
		).Scan(&msg.CreatedAt)
	})
	if err != nil {
		return nil, wrap("send message", err)
	}
	return msg, nil
}

// Conversation returns the messages exchanged by a and b in send order.
func (s *Store) Conversation(ctx context.Context, a, b string) ([]domain.Message, error) {
	low, high := orderedPair(a, b)

	var conversationID string
	err := s.pool.QueryRow(ctx, `SELECT id FROM conversations WHERE user_low = $1 AND user_high = $2`, low, high).Scan(&conversationID)
	if errors.Is(err, pgx.ErrNoRows) {
		return []domain.Message{}, nil
	}
	if err != nil {
		return nil, wrap("conversation", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, conversation_id, sender_id, receiver_id, message, created_at FROM messages WHERE conversation_id = $1 ORDER BY created_at, seq`,
		conversationID)
	if err != nil {
		return nil, wrap("conversation messages", err)
	}
	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Message, error) {
		var m domain.Message
		err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID, &m.Message, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		return nil, wrap("scan messages", err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}
