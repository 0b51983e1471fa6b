package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrInvalidDocument = errors.New("document must be a JSON object")
)

// Document is a schema-free JSON object stored under a server-assigned ID.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Merged returns the document body with its ID set as the "id" field.
func (d Document) Merged() (json.RawMessage, error) {
	fields, err := decodeObject(d.Data)
	if err != nil {
		return nil, err
	}
	id, err := json.Marshal(d.ID)
	if err != nil {
		return nil, err
	}
	fields["id"] = id
	return json.Marshal(fields)
}

// DocumentStore keeps named collections of documents. List returns documents
// in insertion order.
type DocumentStore interface {
	List(ctx context.Context, collection string) ([]Document, error)
	Add(ctx context.Context, collection string, data json.RawMessage) (string, error)
	Delete(ctx context.Context, collection, id string) error
	Close() error
}

func decodeObject(data json.RawMessage) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, ErrInvalidDocument
	}
	return fields, nil
}

// normalize validates data as a JSON object and drops any client supplied
// "id", which is always assigned by the store.
func normalize(data json.RawMessage) (json.RawMessage, error) {
	fields, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	delete(fields, "id")
	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("error encoding document: %w", err)
	}
	return out, nil
}
