package repository

import (
	"context"
	"fmt"

	"thus-sync-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type MemberRepository interface {
	Create(member *domain.Member) error
	// FindFirstByUser returns the user's first OK membership, which supplies
	// the default space.
	FindFirstByUser(userID string) (*domain.Member, error)
}

type SpaceRepository interface {
	Create(space *domain.Space) error
	FindByID(id string) (*domain.Space, error)
}

type memberRepository struct {
	client *kivik.Client
	dbName string
}

func NewMemberRepository(client *kivik.Client, dbName string) MemberRepository {
	return &memberRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *memberRepository) Create(member *domain.Member) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("member:%s", member.ID)
	_, err := db.Put(context.Background(), docID, member)
	if err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}

	return nil
}

func (r *memberRepository) FindFirstByUser(userID string) (*domain.Member, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"user_id":  userID,
			"space_id": map[string]interface{}{"$exists": true},
			"status":   string(domain.MemberStatusOK),
		},
		"limit": 1,
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query membership: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrNotFound
	}

	var member domain.Member
	if err := rows.ScanDoc(&member); err != nil {
		return nil, fmt.Errorf("failed to scan member: %w", err)
	}

	return &member, nil
}

type spaceRepository struct {
	client *kivik.Client
	dbName string
}

func NewSpaceRepository(client *kivik.Client, dbName string) SpaceRepository {
	return &spaceRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *spaceRepository) Create(space *domain.Space) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("space:%s", space.ID)
	_, err := db.Put(context.Background(), docID, space)
	if err != nil {
		return fmt.Errorf("failed to create space: %w", err)
	}

	return nil
}

func (r *spaceRepository) FindByID(id string) (*domain.Space, error) {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("space:%s", id)
	row := db.Get(context.Background(), docID)

	var space domain.Space
	if err := row.ScanDoc(&space); err != nil {
		if kivik.HTTPStatus(err) == 404 {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find space: %w", err)
	}

	return &space, nil
}
