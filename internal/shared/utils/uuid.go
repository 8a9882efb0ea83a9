package utils

import "github.com/google/uuid"

// NewUUID генерирует новый UUID v4
func NewUUID() string {
	return uuid.New().String()
}

// IsUUID сообщает, что s — корректный UUID (id водителей и поездок)
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
