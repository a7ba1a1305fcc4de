package mosaic

import (
	"context"
	"database/sql"
	"log"
	"time"
)

// Cache holds combined annotation payloads, keyed by collection id,
// serving origin and source variant. Entries are immutable snapshots
// written in one statement, so readers never see a partial payload.
// Expired rows are removed lazily by the miss that finds them; there is
// no background sweep.
type Cache struct {
	DB  *sql.DB
	TTL time.Duration
}

func NewCache(db *sql.DB, ttl time.Duration) *Cache {
	return &Cache{DB: db, TTL: ttl}
}

func (c *Cache) Get(ctx context.Context, collectionID, origin, variant string) ([]byte, bool) {
	var payload []byte
	var created int64
	err := c.DB.QueryRowContext(ctx, `
		SELECT payload, created_at FROM mosaic_cache
		WHERE collection_id = ? AND origin = ? AND variant = ?
	`, collectionID, origin, variant).Scan(&payload, &created)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[mosaic] cache read failed: %v", err)
		}
		return nil, false
	}
	if time.Since(time.Unix(created, 0)) >= c.TTL {
		_, _ = c.DB.ExecContext(ctx, `
			DELETE FROM mosaic_cache
			WHERE collection_id = ? AND origin = ? AND variant = ?
		`, collectionID, origin, variant)
		return nil, false
	}
	return payload, true
}

// Put overwrites any previous entry. Last write wins: a slightly stale
// overwrite only widens the staleness window, it cannot corrupt.
func (c *Cache) Put(ctx context.Context, collectionID, origin, variant string, payload []byte) {
	_, err := c.DB.ExecContext(ctx, `
		INSERT OR REPLACE INTO mosaic_cache
			(collection_id, origin, variant, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, collectionID, origin, variant, payload, time.Now().Unix())
	if err != nil {
		log.Printf("[mosaic] cache write failed: %v", err)
	}
}
