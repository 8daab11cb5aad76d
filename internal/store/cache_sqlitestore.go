package store

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// CacheSQLiteStore keeps cache entries in a separate in-memory sqlite
// database so cache churn never touches the main database files.
type CacheSQLiteStore struct {
	DB *sql.DB
}

func NewCacheSQLiteStore() *CacheSQLiteStore {
	db, err := sql.Open("sqlite", "file:cache?mode=memory&cache=shared")
	if err != nil {
		log.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(
		`create table if not exists cache (
			key text primary key,
			value blob not null,
			expires_on timestamp not null
		)`,
	); err != nil {
		log.Fatal(err)
	}
	return &CacheSQLiteStore{DB: db}
}

func (cs *CacheSQLiteStore) ScheduleCleanUp(s gocron.Scheduler) {
	if _, err := s.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			if err := cs.RemoveExpired(); err != nil {
				log.Println("err deleting expired keys from cache:", err)
			}
		}),
	); err != nil {
		log.Fatal(err)
	}
}

func (cs *CacheSQLiteStore) Get(ctx context.Context, key string) ([]byte, bool) {
	query := `select value from cache where key = $1 and expires_on > $2`
	var value []byte
	err := cs.DB.QueryRowContext(ctx, query, key, dbTime(time.Now().UTC())).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Println("err reading cache key:", err)
		}
		return nil, false
	}
	return value, true
}

func (cs *CacheSQLiteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	query := `insert into cache (key, value, expires_on)
	values ($1, $2, $3)
	on conflict (key) do update set
		value = excluded.value,
		expires_on = excluded.expires_on`
	expires := time.Now().UTC().Add(ttl)
	if _, err := cs.DB.ExecContext(ctx, query, key, value, dbTime(expires)); err != nil {
		log.Println("err writing cache key:", err)
	}
}

func (cs *CacheSQLiteStore) Delete(ctx context.Context, key string) {
	query := `delete from cache where key = $1`
	if _, err := cs.DB.ExecContext(ctx, query, key); err != nil {
		log.Println("err deleting cache key:", err)
	}
}

func (cs *CacheSQLiteStore) RemoveExpired() error {
	query := `delete from cache where expires_on < $1`
	_, err := cs.DB.Exec(query, dbTime(time.Now().UTC()))
	return err
}
