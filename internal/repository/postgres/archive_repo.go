package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cboderot1/turnos2/internal/models"
)

// ArchiveRepo persists completed tickets so reporting history survives
// restarts of the in-memory dispatch core.
type ArchiveRepo struct{ db *pgxpool.Pool }

func NewArchiveRepo(db *pgxpool.Pool) *ArchiveRepo { return &ArchiveRepo{db: db} }

func (r *ArchiveRepo) Archive(ctx context.Context, t models.Ticket) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO completed_tickets
			(ticket_id, client_name, client_identifier, motive, client_type, service_type, priority, assigned_to, created_at, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (ticket_id) DO NOTHING
	`,
		t.ID, t.ClientName, t.ClientIdentifier, t.Motive, string(t.ClientType), string(t.ServiceType),
		t.Priority, t.AssignedTo, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

// ListCompleted reads archived tickets back, newest first, for reports that
// span past process lifetimes.
func (r *ArchiveRepo) ListCompleted(ctx context.Context, limit, offset int) ([]models.Ticket, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, `
		SELECT ticket_id, client_name, client_identifier, motive, client_type, service_type, priority, assigned_to, created_at, completed_at
		FROM completed_tickets
		ORDER BY completed_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Ticket
	for rows.Next() {
		var t models.Ticket
		if err := rows.Scan(
			&t.ID, &t.ClientName, &t.ClientIdentifier, &t.Motive, &t.ClientType, &t.ServiceType,
			&t.Priority, &t.AssignedTo, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		t.Status = models.TicketDone
		out = append(out, t)
	}
	return out, rows.Err()
}
