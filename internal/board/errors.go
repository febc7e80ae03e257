package board

import "errors"

var (
	ErrDuplicateSquare = errors.New("square already occupied")
	ErrUnknownID       = errors.New("unknown piece id")
	ErrInvalidPiece    = errors.New("invalid piece type or color")
	ErrInconsistent    = errors.New("grid and registry disagree")
)
