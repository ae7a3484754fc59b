package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/limbo/habitstreak/pkg/entity"
)

type ChatMessagesRepository struct {
	conn PgConnection
}

func NewChatMessagesRepo(conn PgConnection) *ChatMessagesRepository {
	return &ChatMessagesRepository{
		conn: conn,
	}
}

func (mr *ChatMessagesRepository) Create(ctx context.Context, msg *entity.ChatMessage) (*entity.ChatMessage, error) {
	created := *msg
	row := mr.conn.QueryRow(ctx,
		`INSERT INTO chat_messages (user_id, role, text) VALUES ($1, $2, $3) RETURNING id, created_at;`,
		msg.UserID,
		msg.Role,
		msg.Text,
	)
	if err := row.Scan(&created.ID, &created.CreatedAt); err != nil {
		return nil, errors.New("creating chat message error: " + err.Error())
	}
	return &created, nil
}

func (mr *ChatMessagesRepository) GetByUserID(ctx context.Context, uid uuid.UUID) ([]*entity.ChatMessage, error) {
	rows, err := mr.conn.Query(ctx,
		`SELECT id, user_id, role, text, created_at FROM chat_messages WHERE user_id = $1 ORDER BY created_at, id;`,
		uid,
	)
	if err != nil {
		return nil, errors.New("getting chat history error: " + err.Error())
	}
	defer rows.Close()
	messages := make([]*entity.ChatMessage, 0)
	for rows.Next() {
		m := entity.ChatMessage{}
		if err = rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Text, &m.CreatedAt); err != nil {
			return nil, errors.New("chat message parsing error: " + err.Error())
		}
		messages = append(messages, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.New("unexpected chat rows error: " + err.Error())
	}
	return messages, nil
}
