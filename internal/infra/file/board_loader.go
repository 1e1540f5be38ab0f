package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"jeopardy-service/internal/domain"
)

// BoardLoader reads the question board from a JSON file on disk. Any
// problem with the file wraps domain.ErrDataUnavailable; the server treats
// that as fatal at startup.
type BoardLoader struct {
	path string
}

func NewBoardLoader(path string) *BoardLoader {
	return &BoardLoader{path: path}
}

func (l *BoardLoader) LoadBoard(_ context.Context) (domain.Board, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return domain.Board{}, fmt.Errorf("%w: read %s: %v", domain.ErrDataUnavailable, l.path, err)
	}
	var board domain.Board
	if err := json.Unmarshal(data, &board); err != nil {
		return domain.Board{}, fmt.Errorf("%w: parse %s: %v", domain.ErrDataUnavailable, l.path, err)
	}
	if err := board.Validate(); err != nil {
		return domain.Board{}, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}
	return board, nil
}
