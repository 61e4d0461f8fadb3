package repository

import (
	"context"
	"fmt"

	"github.com/go-kivik/kivik/v4"
)

// syncIndexes are the Mango indexes backing every sorted Find in this
// package. CouchDB answers no_usable_index for a sorted _find that no JSON
// index covers, so the fields here must stay aligned with the selectors and
// sort keys the repositories use.
var syncIndexes = []struct {
	ddoc   string
	name   string
	fields []string
}{
	{"idx-threads", "threads-by-user-updated", []string{"user_id", "updated_at"}},
	{"idx-comments", "comments-by-thread-created", []string{"thread_id", "user_id", "created_at"}},
	{"idx-contents", "contents-by-thread-version", []string{"thread_id", "user_id", "version"}},
}

// EnsureIndexes creates the Mango indexes the repositories query against.
// Re-creating an index that already exists is a no-op on CouchDB.
func EnsureIndexes(client *kivik.Client, dbName string) error {
	db := client.DB(dbName)

	for _, idx := range syncIndexes {
		index := map[string]interface{}{
			"fields": idx.fields,
		}
		if err := db.CreateIndex(context.Background(), idx.ddoc, idx.name, index); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
