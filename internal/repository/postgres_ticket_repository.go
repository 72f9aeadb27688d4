package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/pkg/errorutil"
)

// postgresTicketRepository is the durable ticket store. Sequential id
// allocation is delegated to the tickets BIGSERIAL column, which is
// linearizable by construction.
type postgresTicketRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketRepository instantiates the repository.
func NewPostgresTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &postgresTicketRepository{pool: pool}
}

const ticketColumns = `id, status, requester_id, requester_name, requester_username,
        category, body, attachments, card_channel, card_message_id, assignee_name,
        created_at, updated_at, closed_at`

func (r *postgresTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	attachments, err := json.Marshal(ticket.Attachments)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO tickets (status, requester_id, requester_name, requester_username,
            category, body, attachments, assignee_name)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Status,
		ticket.Requester.ID,
		ticket.Requester.DisplayName,
		ticket.Requester.Username,
		ticket.Category,
		ticket.Body,
		attachments,
		ticket.AssigneeName,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *postgresTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewTicketNotFound(id)
		}
		return nil, err
	}
	return ticket, nil
}

func (r *postgresTicketRepository) Update(ctx context.Context, id int64, patch TicketPatch) (*domain.Ticket, error) {
	sets := []string{"updated_at=NOW()"}
	args := []any{}

	if patch.Status != nil {
		args = append(args, *patch.Status)
		sets = append(sets, fmt.Sprintf("status=$%d", len(args)))
	}
	if patch.CardMessage != nil {
		args = append(args, patch.CardMessage.Channel)
		sets = append(sets, fmt.Sprintf("card_channel=$%d", len(args)))
		args = append(args, patch.CardMessage.MessageID)
		sets = append(sets, fmt.Sprintf("card_message_id=$%d", len(args)))
	}
	if patch.AssigneeName != nil {
		args = append(args, *patch.AssigneeName)
		sets = append(sets, fmt.Sprintf("assignee_name=$%d", len(args)))
	}
	if patch.ClosedAt != nil {
		args = append(args, *patch.ClosedAt)
		sets = append(sets, fmt.Sprintf("closed_at=$%d", len(args)))
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tickets SET %s WHERE id=$%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), ticketColumns)

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewTicketNotFound(id)
		}
		return nil, err
	}
	return ticket, nil
}

func (r *postgresTicketRepository) ListByRequester(ctx context.Context, requesterID int64, limit, offset int) ([]domain.Ticket, error) {
	// Same contract as the in-memory store: limit <= 0 returns everything.
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE requester_id=$1 ORDER BY id`, ticketColumns)
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}
	if offset > 0 {
		query += fmt.Sprintf(` OFFSET %d`, offset)
	}

	rows, err := r.pool.Query(ctx, query, requesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

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
	var (
		ticket          domain.Ticket
		attachmentsJSON []byte
		cardChannel     *int64
		cardMessageID   *int64
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Status,
		&ticket.Requester.ID,
		&ticket.Requester.DisplayName,
		&ticket.Requester.Username,
		&ticket.Category,
		&ticket.Body,
		&attachmentsJSON,
		&cardChannel,
		&cardMessageID,
		&ticket.AssigneeName,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	if len(attachmentsJSON) > 0 {
		if err := json.Unmarshal(attachmentsJSON, &ticket.Attachments); err != nil {
			return nil, err
		}
	}
	if cardChannel != nil && cardMessageID != nil {
		ticket.CardMessage = &domain.MessageRef{Channel: *cardChannel, MessageID: *cardMessageID}
	}
	return &ticket, nil
}
