package meeting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	badger "github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when a meeting record does not exist.
var ErrNotFound = errors.New("meeting: record not found")

// Store persists meeting records in an embedded BadgerDB instance.
//
// Keys:
//
//	meeting:<id>                        -> record JSON
//	user:<userID>:<reverse-ts>:<id>     -> record id
//
// The reverse timestamp in the index key makes a prefix scan over a user's
// meetings return newest first without sorting.
type Store struct {
	db *badger.DB
}

// Page is one page of a user's meeting history.
type Page struct {
	Meetings      []*Record `json:"meetings"`
	CurrentPage   int       `json:"currentPage"`
	TotalPages    int       `json:"totalPages"`
	TotalMeetings int       `json:"totalMeetings"`
}

// NewStore creates a meeting store on an already-open BadgerDB handle.
func NewStore(db *badger.DB) *Store {
	return &Store{db: db}
}

func recordKey(id string) []byte {
	return []byte("meeting:" + id)
}

func userIndexKey(userID string, rec *Record) []byte {
	// Reverse timestamp so lexicographic order is newest-first.
	rev := math.MaxInt64 - rec.CreatedAt.UnixNano()
	return []byte(fmt.Sprintf("user:%s:%020d:%s", userID, rev, rec.ID))
}

func userIndexPrefix(userID string) []byte {
	return []byte("user:" + userID + ":")
}

// Create persists a record exactly once. Re-creating an existing id is an
// error, never an overwrite.
func (s *Store) Create(_ context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", rec.ID, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := recordKey(rec.ID)
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("record %s already exists", rec.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(userIndexKey(rec.UserID, rec), []byte(rec.ID))
	})
}

// GetByID retrieves one record. Ownership checks are the caller's job.
func (s *Store) GetByID(_ context.Context, id string) (*Record, error) {
	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListByUser returns one page of a user's meetings, newest first.
// Page numbers start at 1; out-of-range pages return an empty page with
// correct totals.
func (s *Store) ListByUser(ctx context.Context, userID string, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	prefix := userIndexPrefix(userID)
	skip := (page - 1) * limit

	var ids []string
	total := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if total >= skip && total < skip+limit {
				id, err := it.Item().ValueCopy(nil)
				if err != nil {
					return err
				}
				ids = append(ids, string(id))
			}
			total++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	meetings := make([]*Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load indexed record %s: %w", id, err)
		}
		meetings = append(meetings, rec)
	}

	totalPages := (total + limit - 1) / limit

	return &Page{
		Meetings:      meetings,
		CurrentPage:   page,
		TotalPages:    totalPages,
		TotalMeetings: total,
	}, nil
}
