package repository

import (
	"context"
	"fmt"
	"time"

	"thus-sync-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type ThreadRepository interface {
	Create(thread *domain.Thread) error
	// FindByID returns ErrNotFound both for missing threads and for threads
	// owned by another user.
	FindByID(id, userID string) (*domain.Thread, error)
	// FindByFirstID resolves a client-local temporary id to the thread it
	// created, scoped to the user. Backs both same-batch references and
	// creation idempotency.
	FindByFirstID(firstID, userID string) (*domain.Thread, error)
	List(userID string, filter domain.ThreadFilter) ([]*domain.Thread, error)
	Update(thread *domain.Thread) error
}

type threadRepository struct {
	client *kivik.Client
	dbName string
}

func NewThreadRepository(client *kivik.Client, dbName string) ThreadRepository {
	return &threadRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *threadRepository) Create(thread *domain.Thread) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("thread:%s", thread.ID)
	_, err := db.Put(context.Background(), docID, thread)
	if err != nil {
		return fmt.Errorf("failed to create thread: %w", err)
	}

	return nil
}

func (r *threadRepository) FindByID(id, userID string) (*domain.Thread, error) {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("thread:%s", id)
	row := db.Get(context.Background(), docID)

	var thread domain.Thread
	if err := row.ScanDoc(&thread); err != nil {
		if kivik.HTTPStatus(err) == 404 {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find thread: %w", err)
	}

	if thread.UserID != userID {
		return nil, ErrNotFound
	}

	return &thread, nil
}

func (r *threadRepository) FindByFirstID(firstID, userID string) (*domain.Thread, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"first_id": firstID,
			"user_id":  userID,
		},
		"limit": 1,
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query thread by first_id: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrNotFound
	}

	var thread domain.Thread
	if err := rows.ScanDoc(&thread); err != nil {
		return nil, fmt.Errorf("failed to scan thread: %w", err)
	}

	return &thread, nil
}

func (r *threadRepository) List(userID string, filter domain.ThreadFilter) ([]*domain.Thread, error) {
	db := r.client.DB(r.dbName)

	selector := map[string]interface{}{
		"user_id": userID,
	}
	if filter.SpaceID != "" {
		selector["space_id"] = filter.SpaceID
	}

	switch filter.ViewType {
	case domain.ViewTrash:
		selector["o_state"] = string(domain.OStateDeleted)
	case domain.ViewArchived:
		selector["status"] = string(domain.ThreadStatusArchived)
	default:
		selector["status"] = string(domain.ThreadStatusActive)
		selector["o_state"] = map[string]interface{}{"$ne": string(domain.OStateDeleted)}
	}

	query := map[string]interface{}{
		"selector": selector,
		"sort":     []map[string]string{{"updated_at": "desc"}},
		"limit":    filter.Limit,
		"skip":     filter.Skip,
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	var threads []*domain.Thread
	for rows.Next() {
		var thread domain.Thread
		if err := rows.ScanDoc(&thread); err != nil {
			continue
		}
		threads = append(threads, &thread)
	}

	return threads, nil
}

func (r *threadRepository) Update(thread *domain.Thread) error {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("thread:%s", thread.ID)

	var existingDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existingDoc); err != nil {
		if kivik.HTTPStatus(err) == 404 {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch thread for update: %w", err)
	}

	thread.UpdatedAt = time.Now()

	doc, err := mergeDoc(existingDoc, thread)
	if err != nil {
		return fmt.Errorf("failed to merge thread doc: %w", err)
	}

	if _, err := db.Put(context.Background(), docID, doc); err != nil {
		return fmt.Errorf("failed to update thread: %w", err)
	}

	return nil
}
