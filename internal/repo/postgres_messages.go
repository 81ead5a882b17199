package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/anderka/support-relay/internal/model"
)

type PostgresMessageStore struct {
	db *sql.DB
}

func NewPostgresMessageStore(db *sql.DB) *PostgresMessageStore {
	return &PostgresMessageStore{db: db}
}

const messageColumns = `
	id, chat_id, sender, body,
	media_kind, media_url, media_caption, media_filename, media_mime, media_size,
	topic, delivered, created_at, updated_at`

func (s *PostgresMessageStore) FetchPendingOutbound(ctx context.Context, limit int) ([]model.Message, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be > 0")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE delivered = FALSE AND sender = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, string(model.DirectionOperator), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (s *PostgresMessageStore) MarkDelivered(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE messages
		SET delivered = TRUE,
		    updated_at = now()
		WHERE id = $1 AND delivered = FALSE
	`, id)
	return err
}

func (s *PostgresMessageStore) LatestTopic(ctx context.Context, chatID int64) (string, error) {
	var topic string
	err := s.db.QueryRowContext(ctx, `
		SELECT topic
		FROM messages
		WHERE chat_id = $1 AND topic <> ''
		ORDER BY created_at DESC
		LIMIT 1
	`, chatID).Scan(&topic)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return topic, nil
}

func (s *PostgresMessageStore) Insert(ctx context.Context, m *model.Message) error {
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	var (
		mediaKind, mediaURL, mediaCaption sql.NullString
		mediaFilename, mediaMIME          sql.NullString
		mediaSize                         sql.NullInt64
	)
	if m.Media != nil {
		mediaKind = sql.NullString{String: string(m.Media.Kind), Valid: true}
		mediaURL = sql.NullString{String: m.Media.URL, Valid: true}
		mediaCaption = sql.NullString{String: m.Media.Caption, Valid: m.Media.Caption != ""}
		mediaFilename = sql.NullString{String: m.Media.Filename, Valid: m.Media.Filename != ""}
		mediaMIME = sql.NullString{String: m.Media.MIME, Valid: m.Media.MIME != ""}
		mediaSize = sql.NullInt64{Int64: m.Media.SizeBytes, Valid: m.Media.SizeBytes > 0}
	}

	return s.db.QueryRowContext(ctx, `
		INSERT INTO messages (
			chat_id, sender, body,
			media_kind, media_url, media_caption, media_filename, media_mime, media_size,
			topic, delivered, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`,
		m.ChatID, string(m.Sender), m.Text,
		mediaKind, mediaURL, mediaCaption, mediaFilename, mediaMIME, mediaSize,
		m.Topic, m.Delivered, m.CreatedAt, m.UpdatedAt,
	).Scan(&m.ID)
}

func (s *PostgresMessageStore) ListDelivered(ctx context.Context, limit, offset int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE delivered = TRUE AND sender = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3
	`, string(model.DirectionOperator), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (s *PostgresMessageStore) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*)
		FROM messages
		WHERE delivered = FALSE AND sender = $1
	`, string(model.DirectionOperator)).Scan(&n)
	return n, err
}

func scanMessages(rows *sql.Rows) ([]model.Message, error) {
	var out []model.Message
	for rows.Next() {
		var (
			m                                 model.Message
			sender                            string
			mediaKind, mediaURL, mediaCaption sql.NullString
			mediaFilename, mediaMIME          sql.NullString
			mediaSize                         sql.NullInt64
			topic                             sql.NullString
		)

		if err := rows.Scan(
			&m.ID,
			&m.ChatID,
			&sender,
			&m.Text,
			&mediaKind,
			&mediaURL,
			&mediaCaption,
			&mediaFilename,
			&mediaMIME,
			&mediaSize,
			&topic,
			&m.Delivered,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, err
		}

		m.Sender = model.Direction(sender)
		if topic.Valid {
			m.Topic = topic.String
		}
		if mediaURL.Valid && mediaURL.String != "" {
			m.Media = &model.Media{
				Kind:      model.MediaKind(mediaKind.String),
				URL:       mediaURL.String,
				Caption:   mediaCaption.String,
				Filename:  mediaFilename.String,
				MIME:      mediaMIME.String,
				SizeBytes: mediaSize.Int64,
			}
		}

		out = append(out, m)
	}
	return out, rows.Err()
}
