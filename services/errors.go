package services

import (
	"errors"
	"fmt"
)

// Виды ошибок, которые контроллеры переводят в HTTP статусы
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	ErrAssetNotFound         = fmt.Errorf("asset %w", ErrNotFound)
	ErrAssetCodeTaken        = fmt.Errorf("%w: asset code already registered", ErrConflict)
	ErrAssetAlreadyInUse     = fmt.Errorf("%w: asset is already in use", ErrConflict)
	ErrAssetAlreadyAvailable = fmt.Errorf("%w: asset is already available", ErrConflict)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
)
