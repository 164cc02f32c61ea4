package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/response-desk/internal/domain"
)

// TicketFilter captures operator search parameters.
type TicketFilter struct {
	Status   *domain.TicketStatus
	Category *domain.TicketCategory
	// Search matches first name, last name, email or subject,
	// case-insensitively.
	Search string
	Limit  int
	Offset int
}

// TicketTiming carries the fields analytics aggregates over.
type TicketTiming struct {
	CreatedAt   time.Time
	RespondedAt *time.Time
}

// MutateFunc edits a locked ticket in place. Returning an error aborts
// the write and leaves the row unchanged.
type MutateFunc func(ticket *domain.Ticket) error

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	// CreateWithAttachments stores the ticket and its attachments as one unit.
	CreateWithAttachments(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// List returns one page, newest first, plus the unpaged total.
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	// Stream walks every ticket matching filter, newest first, ignoring paging.
	Stream(ctx context.Context, filter TicketFilter, fn func(*domain.Ticket) error) error
	// Mutate locks the row, hands it to fn and writes status, final
	// fields and respondedAt back in the same transaction.
	Mutate(ctx context.Context, id string, fn MutateFunc) (*domain.Ticket, error)
	// BulkTransition moves the listed tickets currently in one of from to
	// status to, returning how many rows changed.
	BulkTransition(ctx context.Context, ids []string, from []domain.TicketStatus, to domain.TicketStatus) (int, error)
	CountByStatus(ctx context.Context, category *domain.TicketCategory) (map[domain.TicketStatus]int, error)
	CreatedSince(ctx context.Context, since time.Time) ([]TicketTiming, error)
	// Recent returns the most recently updated tickets.
	Recent(ctx context.Context, limit int) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, category, first_name, last_name, email, location, phone_number,
       property_name, property_address, country, linkedin_url, position,
       subject, message, ai_draft_subject, ai_draft_response, final_subject, final_response,
       status, execution_id, created_at, updated_at, responded_at`

func (r *ticketRepository) CreateWithAttachments(ctx context.Context, ticket *domain.Ticket) error {
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		const query = `
            INSERT INTO tickets (category, first_name, last_name, email, location, phone_number,
                property_name, property_address, country, linkedin_url, position,
                subject, message, ai_draft_subject, ai_draft_response, status, execution_id)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
            RETURNING id, created_at, updated_at`
		if err := tx.QueryRow(ctx, query,
			ticket.Category,
			ticket.FirstName,
			ticket.LastName,
			ticket.Email,
			ticket.Location,
			ticket.PhoneNumber,
			ticket.PropertyName,
			ticket.PropertyAddress,
			ticket.Country,
			ticket.LinkedinURL,
			ticket.Position,
			ticket.Subject,
			ticket.Message,
			ticket.AIDraftSubject,
			ticket.AIDraftResponse,
			ticket.Status,
			ticket.ExecutionID,
		).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
			return err
		}

		for i := range ticket.Attachments {
			att := &ticket.Attachments[i]
			att.TicketID = ticket.ID
			if err := insertAttachment(ctx, tx, att); err != nil {
				return fmt.Errorf("insert attachment %d: %w", i, err)
			}
		}
		return nil
	})
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	where, args := filterClause(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets%s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		ticketColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := collectTickets(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *ticketRepository) Stream(ctx context.Context, filter TicketFilter, fn func(*domain.Ticket) error) error {
	where, args := filterClause(filter)
	rows, err := r.pool.Query(ctx, `SELECT `+ticketColumns+` FROM tickets`+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return err
		}
		if err := fn(ticket); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *ticketRepository) Mutate(ctx context.Context, id string, fn MutateFunc) (*domain.Ticket, error) {
	var result *domain.Ticket
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ticket, err := scanTicket(tx.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1 FOR UPDATE`, id))
		if err != nil {
			return translate(err)
		}
		if err := fn(ticket); err != nil {
			return err
		}

		const update = `
            UPDATE tickets SET status=$1, final_subject=$2, final_response=$3, responded_at=$4, updated_at=NOW()
            WHERE id=$5
            RETURNING updated_at`
		if err := tx.QueryRow(ctx, update,
			ticket.Status,
			ticket.FinalSubject,
			ticket.FinalResponse,
			ticket.RespondedAt,
			ticket.ID,
		).Scan(&ticket.UpdatedAt); err != nil {
			return err
		}
		result = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *ticketRepository) BulkTransition(ctx context.Context, ids []string, from []domain.TicketStatus, to domain.TicketStatus) (int, error) {
	if len(ids) == 0 || len(from) == 0 {
		return 0, nil
	}
	const query = `
        UPDATE tickets SET status=$1, updated_at=NOW()
        WHERE id = ANY($2::uuid[]) AND status = ANY($3::text[])`
	cmd, err := r.pool.Exec(ctx, query, string(to), ids, statusStrings(from))
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

func (r *ticketRepository) CountByStatus(ctx context.Context, category *domain.TicketCategory) (map[domain.TicketStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM tickets`
	var args []any
	if category != nil {
		query += ` WHERE category=$1`
		args = append(args, string(*category))
	}
	query += ` GROUP BY status`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[domain.TicketStatus(status)] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) CreatedSince(ctx context.Context, since time.Time) ([]TicketTiming, error) {
	rows, err := r.pool.Query(ctx, `SELECT created_at, responded_at FROM tickets WHERE created_at >= $1`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TicketTiming
	for rows.Next() {
		var timing TicketTiming
		if err := rows.Scan(&timing.CreatedAt, &timing.RespondedAt); err != nil {
			return nil, err
		}
		result = append(result, timing)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Recent(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `SELECT `+ticketColumns+` FROM tickets ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

func filterClause(filter TicketFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, string(*filter.Category))
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+escapeLike(term)+"%")
		p := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(first_name ILIKE %[1]s OR last_name ILIKE %[1]s OR email ILIKE %[1]s OR subject ILIKE %[1]s)", p))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func statusStrings(statuses []domain.TicketStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func collectTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Category,
		&ticket.FirstName,
		&ticket.LastName,
		&ticket.Email,
		&ticket.Location,
		&ticket.PhoneNumber,
		&ticket.PropertyName,
		&ticket.PropertyAddress,
		&ticket.Country,
		&ticket.LinkedinURL,
		&ticket.Position,
		&ticket.Subject,
		&ticket.Message,
		&ticket.AIDraftSubject,
		&ticket.AIDraftResponse,
		&ticket.FinalSubject,
		&ticket.FinalResponse,
		&ticket.Status,
		&ticket.ExecutionID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.RespondedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
