package service

import "errors"

var (
	// ErrInvalidInput: номер варианта или предмет вне допустимых значений.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStaleEvent: событие для уже завершённой или заменённой сессии.
	ErrStaleEvent = errors.New("stale event")
	// ErrMessageNotFound: сообщение для редактирования удалено или недоступно.
	ErrMessageNotFound = errors.New("message not found")
	// ErrPersistence: хранилище недоступно, прогресс в памяти сохраняется.
	ErrPersistence = errors.New("persistence unavailable")
)
