package repository

import (
	"context"
	"fmt"

	"thus-sync-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type ContentRepository interface {
	Create(content *domain.Content) error
	// ListByThread returns content revisions newest version first.
	ListByThread(threadID, userID string, limit, skip int) ([]*domain.Content, error)
}

type contentRepository struct {
	client *kivik.Client
	dbName string
}

func NewContentRepository(client *kivik.Client, dbName string) ContentRepository {
	return &contentRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *contentRepository) Create(content *domain.Content) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("content:%s", content.ID)
	_, err := db.Put(context.Background(), docID, content)
	if err != nil {
		return fmt.Errorf("failed to create content: %w", err)
	}

	return nil
}

func (r *contentRepository) ListByThread(threadID, userID string, limit, skip int) ([]*domain.Content, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"thread_id": threadID,
			"user_id":   userID,
			"version":   map[string]interface{}{"$gte": 0},
		},
		"sort":  []map[string]string{{"version": "desc"}},
		"limit": limit,
		"skip":  skip,
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list contents: %w", err)
	}
	defer rows.Close()

	var contents []*domain.Content
	for rows.Next() {
		var content domain.Content
		if err := rows.ScanDoc(&content); err != nil {
			continue
		}
		contents = append(contents, &content)
	}

	return contents, nil
}
