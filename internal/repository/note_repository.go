package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/response-desk/internal/domain"
)

// NoteRepository persists internal ticket notes.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	// ListByTicket returns notes newest first.
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Note, error)
}

type noteRepository struct {
	pool *pgxpool.Pool
}

// NewNoteRepository constructs repository.
func NewNoteRepository(pool *pgxpool.Pool) NoteRepository {
	return &noteRepository{pool: pool}
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	const query = `
        INSERT INTO notes (ticket_id, author_id, author_name, content)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		note.TicketID,
		note.AuthorID,
		note.AuthorName,
		note.Content,
	).Scan(&note.ID, &note.CreatedAt)
	return translate(err)
}

func (r *noteRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Note, error) {
	const query = `
        SELECT id, ticket_id, author_id, author_name, content, created_at
        FROM notes WHERE ticket_id=$1 ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Note
	for rows.Next() {
		var note domain.Note
		if err := rows.Scan(
			&note.ID,
			&note.TicketID,
			&note.AuthorID,
			&note.AuthorName,
			&note.Content,
			&note.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	return result, rows.Err()
}
