package storage

import "clpool/internal/model"

// Storage defines a sink for executed pool operations.
type Storage interface {
	PutEventBatch(events []model.EventRecord) error
}
