package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/walletgate/walletgate/core"
	"github.com/walletgate/walletgate/ports"
)

// uniqueViolation is the Postgres error code for a unique constraint
// violation.
const uniqueViolation = "23505"

// Schema expects partial unique indexes so empty-string sentinels
// never collide:
//
//	CREATE UNIQUE INDEX identities_wallet_address_key ON identities (wallet_address) WHERE wallet_address <> '';
//	CREATE UNIQUE INDEX identities_email_key          ON identities (email)          WHERE email <> '';
//	CREATE UNIQUE INDEX identities_phone_key          ON identities (phone)          WHERE phone <> '';

// PostgresIdentityStore is a pgx-backed identity store. Uniqueness is
// enforced by the database's unique indexes, which is the enforcement
// that holds under concurrent writers.
type PostgresIdentityStore struct {
	pool *pgxpool.Pool
}

var _ ports.IdentityStore = (*PostgresIdentityStore)(nil)

// NewPostgresIdentityStore returns an identity store backed by pool.
func NewPostgresIdentityStore(pool *pgxpool.Pool) *PostgresIdentityStore {
	return &PostgresIdentityStore{pool: pool}
}

// FindByWalletAddress matches case-insensitively; addresses are stored
// lower-cased.
func (s *PostgresIdentityStore) FindByWalletAddress(ctx context.Context, address string) (*core.Identity, error) {
	normalized := core.Candidate{WalletAddress: address}.Normalize().WalletAddress
	if normalized == "" {
		return nil, nil
	}
	return s.queryOne(ctx,
		`SELECT id, wallet_address, email, phone, is_active, permissions, created_at
		 FROM identities WHERE wallet_address = $1`, normalized)
}

// FindByAnyOf returns the first identity matching any of the given
// non-empty fields.
func (s *PostgresIdentityStore) FindByAnyOf(ctx context.Context, walletAddress, email, phone string) (*core.Identity, error) {
	return s.queryOne(ctx,
		`SELECT id, wallet_address, email, phone, is_active, permissions, created_at
		 FROM identities
		 WHERE (wallet_address = $1 AND $1 <> '')
		    OR (email = $2 AND $2 <> '')
		    OR (phone = $3 AND $3 <> '')
		 LIMIT 1`, walletAddress, email, phone)
}

// Create inserts the identity; a unique index violation is reported as
// a *core.DuplicateFieldError naming the constrained field.
func (s *PostgresIdentityStore) Create(ctx context.Context, candidate core.Candidate) (*core.Identity, error) {
	candidate = candidate.Normalize()
	identity := &core.Identity{
		ID:            uuid.New().String(),
		WalletAddress: candidate.WalletAddress,
		Email:         candidate.Email,
		Phone:         candidate.Phone,
		IsActive:      true,
		Permissions:   append([]string(nil), candidate.Permissions...),
		CreatedAt:     time.Now(),
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO identities (id, wallet_address, email, phone, is_active, permissions, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		identity.ID, identity.WalletAddress, identity.Email, identity.Phone,
		identity.IsActive, identity.Permissions, identity.CreatedAt)
	if err != nil {
		return nil, mapUniqueViolation(err, candidate)
	}

	return identity, nil
}

// GetByID returns the identity for id, or (nil, nil) if missing.
func (s *PostgresIdentityStore) GetByID(ctx context.Context, id string) (*core.Identity, error) {
	return s.queryOne(ctx,
		`SELECT id, wallet_address, email, phone, is_active, permissions, created_at
		 FROM identities WHERE id = $1`, id)
}

// UpdateWalletAddress re-binds the identity to a new wallet address.
func (s *PostgresIdentityStore) UpdateWalletAddress(ctx context.Context, id, address string) (*core.Identity, error) {
	normalized := core.Candidate{WalletAddress: address}.Normalize().WalletAddress

	tag, err := s.pool.Exec(ctx,
		`UPDATE identities SET wallet_address = $2 WHERE id = $1`, id, normalized)
	if err != nil {
		return nil, mapUniqueViolation(err, core.Candidate{WalletAddress: normalized})
	}
	if tag.RowsAffected() == 0 {
		return nil, core.ErrIdentityNotFound
	}

	return s.GetByID(ctx, id)
}

func (s *PostgresIdentityStore) queryOne(ctx context.Context, sql string, args ...any) (*core.Identity, error) {
	var identity core.Identity
	err := s.pool.QueryRow(ctx, sql, args...).Scan(
		&identity.ID, &identity.WalletAddress, &identity.Email, &identity.Phone,
		&identity.IsActive, &identity.Permissions, &identity.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &identity, nil
}

// mapUniqueViolation turns a 23505 on one of the identity indexes into
// the duplicate-field decision the guard reports.
func mapUniqueViolation(err error, candidate core.Candidate) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}

	switch pgErr.ConstraintName {
	case "identities_phone_key":
		return &core.DuplicateFieldError{Field: core.FieldPhone, Value: candidate.Phone}
	case "identities_wallet_address_key":
		return &core.DuplicateFieldError{Field: core.FieldWalletAddress, Value: candidate.WalletAddress}
	case "identities_email_key":
		return &core.DuplicateFieldError{Field: core.FieldEmail, Value: candidate.Email}
	default:
		return err
	}
}
