package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"jeopardy-service/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// BoardLoader loads a question board stored as JSONB in Postgres.
type BoardLoader struct {
	pool    *pgxpool.Pool
	boardID string
}

func NewBoardLoader(pool *pgxpool.Pool, boardID string) *BoardLoader {
	return &BoardLoader{pool: pool, boardID: boardID}
}

func (l *BoardLoader) LoadBoard(ctx context.Context) (domain.Board, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM boards WHERE id=$1`, l.boardID).Scan(&raw)
	if err != nil {
		return domain.Board{}, fmt.Errorf("%w: load board %q: %v", domain.ErrDataUnavailable, l.boardID, err)
	}
	var board domain.Board
	if err := json.Unmarshal(raw, &board); err != nil {
		return domain.Board{}, fmt.Errorf("%w: unmarshal board %q: %v", domain.ErrDataUnavailable, l.boardID, err)
	}
	if err := board.Validate(); err != nil {
		return domain.Board{}, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}
	return board, nil
}
