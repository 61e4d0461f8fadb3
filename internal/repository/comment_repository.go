package repository

import (
	"context"
	"fmt"
	"time"

	"thus-sync-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type CommentRepository interface {
	Create(comment *domain.Comment) error
	FindByID(id, userID string) (*domain.Comment, error)
	FindByFirstID(firstID, userID string) (*domain.Comment, error)
	ListByThread(threadID, userID string, limit, skip int) ([]*domain.Comment, error)
	Update(comment *domain.Comment) error
}

type commentRepository struct {
	client *kivik.Client
	dbName string
}

func NewCommentRepository(client *kivik.Client, dbName string) CommentRepository {
	return &commentRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *commentRepository) Create(comment *domain.Comment) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("comment:%s", comment.ID)
	_, err := db.Put(context.Background(), docID, comment)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

func (r *commentRepository) FindByID(id, userID string) (*domain.Comment, error) {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("comment:%s", id)
	row := db.Get(context.Background(), docID)

	var comment domain.Comment
	if err := row.ScanDoc(&comment); err != nil {
		if kivik.HTTPStatus(err) == 404 {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	if comment.UserID != userID {
		return nil, ErrNotFound
	}

	return &comment, nil
}

func (r *commentRepository) FindByFirstID(firstID, userID string) (*domain.Comment, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"first_id": firstID,
			"user_id":  userID,
			"content":  map[string]interface{}{"$exists": true},
		},
		"limit": 1,
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query comment by first_id: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrNotFound
	}

	var comment domain.Comment
	if err := rows.ScanDoc(&comment); err != nil {
		return nil, fmt.Errorf("failed to scan comment: %w", err)
	}

	return &comment, nil
}

func (r *commentRepository) ListByThread(threadID, userID string, limit, skip int) ([]*domain.Comment, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"thread_id": threadID,
			"user_id":   userID,
		},
		"sort":  []map[string]string{{"created_at": "desc"}},
		"limit": limit,
		"skip":  skip,
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.ScanDoc(&comment); err != nil {
			continue
		}
		comments = append(comments, &comment)
	}

	return comments, nil
}

func (r *commentRepository) Update(comment *domain.Comment) error {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("comment:%s", comment.ID)

	var existingDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existingDoc); err != nil {
		if kivik.HTTPStatus(err) == 404 {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch comment for update: %w", err)
	}

	comment.UpdatedAt = time.Now()

	doc, err := mergeDoc(existingDoc, comment)
	if err != nil {
		return fmt.Errorf("failed to merge comment doc: %w", err)
	}

	if _, err := db.Put(context.Background(), docID, doc); err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}

	return nil
}
