package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/lettingshq/onboard/internal/onboard/domain"
)

type tokensRepo struct {
	db dbtx
}

const tokenColumns = `id, token, email, user_type, invitation_id, metadata,
	expires_at, used_at, used_by, created_at`

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.OnboardingToken) error {
	meta, err := marshalMetadata(t.Metadata)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO onboarding_tokens (`+tokenColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.Token,
		t.Email,
		string(t.UserType),
		t.InvitationID,
		meta,
		t.ExpiresAt,
		mapTimePtrNull(t.UsedAt),
		mapStringNull(t.UsedBy),
		t.CreatedAt,
	)
	return err
}

func (r *tokensRepo) GetTokenByValue(ctx context.Context, token string) (domain.OnboardingToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+tokenColumns+`
		FROM onboarding_tokens WHERE token = ?`, token)
	return scanToken(row)
}

func (r *tokensRepo) GetLiveTokenByInvitation(
	ctx context.Context,
	invitationID string,
	now time.Time,
) (domain.OnboardingToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+tokenColumns+`
		FROM onboarding_tokens
		WHERE invitation_id = ? AND used_at IS NULL AND expires_at > ?
		ORDER BY created_at DESC
		LIMIT 1`, invitationID, now)
	return scanToken(row)
}

func (r *tokensRepo) MarkTokenUsed(ctx context.Context, id, usedBy string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE onboarding_tokens
		SET used_at = ?, used_by = ?
		WHERE id = ? AND used_at IS NULL`,
		at, mapStringNull(usedBy), id)
	if err != nil {
		return err
	}
	return requireRowChanged(res)
}

func scanToken(s scanner) (domain.OnboardingToken, error) {
	var (
		t        domain.OnboardingToken
		userType string
		meta     string
		usedAt   sql.NullTime
		usedBy   sql.NullString
	)
	err := s.Scan(
		&t.ID,
		&t.Token,
		&t.Email,
		&userType,
		&t.InvitationID,
		&meta,
		&t.ExpiresAt,
		&usedAt,
		&usedBy,
		&t.CreatedAt,
	)
	if err != nil {
		return domain.OnboardingToken{}, mapNotFound(err)
	}

	t.UserType = domain.InvitationType(userType)
	t.UsedAt = mapNullTimePtr(usedAt)
	t.UsedBy = mapNullString(usedBy)

	t.Metadata, err = unmarshalMetadata(meta)
	if err != nil {
		return domain.OnboardingToken{}, err
	}
	return t, nil
}
