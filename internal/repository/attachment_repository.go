package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/response-desk/internal/domain"
)

// AttachmentRepository reads attachment metadata. Attachments are only
// written together with their ticket.
type AttachmentRepository interface {
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertAttachment(ctx context.Context, q querier, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO attachments (ticket_id, file_name, file_type, file_url, file_size)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return q.QueryRow(ctx, query,
		attachment.TicketID,
		attachment.FileName,
		attachment.FileType,
		attachment.FileURL,
		attachment.FileSize,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	const query = `
        SELECT id, ticket_id, file_name, file_type, file_url, file_size, created_at
        FROM attachments WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var att domain.Attachment
		if err := rows.Scan(
			&att.ID,
			&att.TicketID,
			&att.FileName,
			&att.FileType,
			&att.FileURL,
			&att.FileSize,
			&att.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, att)
	}
	return result, rows.Err()
}
