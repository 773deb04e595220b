package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueIDVar = "unique_id"

// InterRegRepository хранит серверные переменные (interreg), в частности
// последний выданный уникальный id предмета.
type InterRegRepository struct {
	db *pgxpool.Pool
}

// NewInterRegRepository создаёт новый InterRegRepository.
func NewInterRegRepository(db *pgxpool.Pool) *InterRegRepository {
	return &InterRegRepository{db: db}
}

// LoadUniqueID returns the stored unique item id, 0 if it was never saved.
func (r *InterRegRepository) LoadUniqueID(ctx context.Context) (uint64, error) {
	var value string
	err := r.db.QueryRow(ctx, `SELECT value FROM interreg WHERE varname = $1`, uniqueIDVar).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("loading %s: %w", uniqueIDVar, err)
	}
	v, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s %q: %w", uniqueIDVar, value, err)
	}
	return v, nil
}

// SaveUniqueID stores v as the last issued unique item id.
func (r *InterRegRepository) SaveUniqueID(ctx context.Context, v uint64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO interreg (varname, value) VALUES ($1, $2)
		 ON CONFLICT (varname) DO UPDATE SET value = EXCLUDED.value`,
		uniqueIDVar, strconv.FormatUint(v, 10),
	)
	if err != nil {
		return fmt.Errorf("saving %s: %w", uniqueIDVar, err)
	}
	return nil
}
