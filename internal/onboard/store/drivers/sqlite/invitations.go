package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lettingshq/onboard/internal/onboard/domain"
	"github.com/lettingshq/onboard/internal/onboard/store"
)

type invitationsRepo struct {
	db dbtx
}

const invitationColumns = `id, email, invitee_name, invitation_type, status, personal_message,
	invited_by, accepted_by, reminder_count, accepted_at, created_at, updated_at`

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invitations (`+invitationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID,
		inv.Email,
		inv.InviteeName,
		string(inv.Type),
		string(inv.Status),
		inv.PersonalMessage,
		inv.InvitedBy,
		mapStringNull(inv.AcceptedBy),
		inv.ReminderCount,
		mapTimePtrNull(inv.AcceptedAt),
		inv.CreatedAt,
		inv.UpdatedAt,
	)
	return err
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations WHERE id = ?`, id)
	return scanInvitation(row)
}

func (r *invitationsRepo) GetPendingInvitationByEmail(
	ctx context.Context,
	email string,
	t domain.InvitationType,
) (domain.Invitation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE email = ? AND invitation_type = ? AND status = 'pending'
		ORDER BY created_at DESC
		LIMIT 1`, email, string(t))
	return scanInvitation(row)
}

func (r *invitationsRepo) ListInvitationsByInviter(
	ctx context.Context,
	invitedBy string,
) ([]domain.Invitation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE invited_by = ?
		ORDER BY created_at DESC`, invitedBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *invitationsRepo) MarkInvitationAccepted(
	ctx context.Context,
	id, acceptedBy string,
	at time.Time,
) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations
		SET status = 'accepted', accepted_by = ?, accepted_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`,
		mapStringNull(acceptedBy), at, at, id)
	if err != nil {
		return err
	}
	return requireRowChanged(res)
}

func (r *invitationsRepo) MarkInvitationDeclined(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations
		SET status = 'declined', updated_at = ?
		WHERE id = ? AND status = 'pending'`,
		at, id)
	if err != nil {
		return err
	}
	return requireRowChanged(res)
}

func (r *invitationsRepo) IncrementReminderCount(
	ctx context.Context,
	id string,
	limit int,
	at time.Time,
) (int, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE invitations
		SET reminder_count = reminder_count + 1, updated_at = ?
		WHERE id = ? AND status = 'pending' AND reminder_count < ?
		RETURNING reminder_count`,
		at, id, limit)

	var count int
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.ErrStale
		}
		return 0, err
	}
	return count, nil
}

func (r *invitationsRepo) ExpireLapsedInvitations(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations
		SET status = 'expired', updated_at = ?
		WHERE status = 'pending' AND id IN (
			SELECT invitation_id FROM onboarding_tokens
			WHERE expires_at <= ? AND used_at IS NULL
		)`,
		cutoff, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInvitation(s scanner) (domain.Invitation, error) {
	var (
		inv        domain.Invitation
		invType    string
		status     string
		acceptedBy sql.NullString
		acceptedAt sql.NullTime
	)
	err := s.Scan(
		&inv.ID,
		&inv.Email,
		&inv.InviteeName,
		&invType,
		&status,
		&inv.PersonalMessage,
		&inv.InvitedBy,
		&acceptedBy,
		&inv.ReminderCount,
		&acceptedAt,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}

	inv.Type = domain.InvitationType(invType)
	inv.Status = domain.InvitationStatus(status)
	inv.AcceptedBy = mapNullString(acceptedBy)
	inv.AcceptedAt = mapNullTimePtr(acceptedAt)
	return inv, nil
}

func mapTimePtrNull(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func requireRowChanged(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrStale
	}
	return nil
}
