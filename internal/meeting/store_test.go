package meeting

import (
	"context"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// openTestDB creates an in-memory badger instance for store tests.
func openTestDB(t *testing.T) *badger.DB {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("Failed to open in-memory badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testRecord(userID string, createdAt time.Time) *Record {
	meta := SessionMeta{
		SessionID: "meet-" + createdAt.Format("150405.000000000"),
		UserID:    userID,
		StartedAt: createdAt,
		Duration:  5 * time.Minute,
	}
	rec := Assemble(meta, PipelineOutput{Transcript: "Speaker 0: hi"})
	rec.CreatedAt = createdAt
	return rec
}

func TestStoreCreateAndGet(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	rec := testRecord("user-1", time.Now())
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.ID != rec.ID {
		t.Errorf("Expected id %q, got %q", rec.ID, got.ID)
	}
	if got.UserID != rec.UserID {
		t.Errorf("Expected user %q, got %q", rec.UserID, got.UserID)
	}
	if got.Transcript != rec.Transcript {
		t.Errorf("Expected transcript %q, got %q", rec.Transcript, got.Transcript)
	}
}

func TestStoreCreateDuplicate(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	rec := testRecord("user-1", time.Now())
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.Create(ctx, rec); err == nil {
		t.Error("Expected error creating a record twice")
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := NewStore(openTestDB(t))

	_, err := store.GetByID(context.Background(), "nope")
	if err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStoreListByUserNewestFirst(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	var created []*Record
	for i := 0; i < 5; i++ {
		rec := testRecord("user-1", base.Add(time.Duration(i)*time.Hour))
		if err := store.Create(ctx, rec); err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
		created = append(created, rec)
	}

	// Another user's meetings must not leak into the listing.
	other := testRecord("user-2", base.Add(30*time.Minute))
	if err := store.Create(ctx, other); err != nil {
		t.Fatalf("Create for other user failed: %v", err)
	}

	page, err := store.ListByUser(ctx, "user-1", 1, 10)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}

	if page.TotalMeetings != 5 {
		t.Errorf("Expected 5 meetings, got %d", page.TotalMeetings)
	}
	if len(page.Meetings) != 5 {
		t.Fatalf("Expected 5 meetings in page, got %d", len(page.Meetings))
	}

	// Newest first: the last created record comes back first.
	if page.Meetings[0].ID != created[4].ID {
		t.Errorf("Expected newest record first, got %q", page.Meetings[0].ID)
	}
	if page.Meetings[4].ID != created[0].ID {
		t.Errorf("Expected oldest record last, got %q", page.Meetings[4].ID)
	}
}

func TestStoreListByUserPagination(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		rec := testRecord("user-1", base.Add(time.Duration(i)*time.Minute))
		if err := store.Create(ctx, rec); err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
	}

	page1, err := store.ListByUser(ctx, "user-1", 1, 3)
	if err != nil {
		t.Fatalf("ListByUser page 1 failed: %v", err)
	}
	if len(page1.Meetings) != 3 || page1.TotalPages != 3 || page1.TotalMeetings != 7 {
		t.Errorf("Page 1: got %d meetings, %d pages, %d total",
			len(page1.Meetings), page1.TotalPages, page1.TotalMeetings)
	}

	page3, err := store.ListByUser(ctx, "user-1", 3, 3)
	if err != nil {
		t.Fatalf("ListByUser page 3 failed: %v", err)
	}
	if len(page3.Meetings) != 1 {
		t.Errorf("Page 3: expected 1 meeting, got %d", len(page3.Meetings))
	}

	page9, err := store.ListByUser(ctx, "user-1", 9, 3)
	if err != nil {
		t.Fatalf("ListByUser page 9 failed: %v", err)
	}
	if len(page9.Meetings) != 0 || page9.TotalMeetings != 7 {
		t.Errorf("Out-of-range page: got %d meetings, %d total",
			len(page9.Meetings), page9.TotalMeetings)
	}
}

func TestStoreListByUserEmpty(t *testing.T) {
	store := NewStore(openTestDB(t))

	page, err := store.ListByUser(context.Background(), "nobody", 1, 10)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if page.TotalMeetings != 0 || len(page.Meetings) != 0 {
		t.Errorf("Expected empty page, got %+v", page)
	}
}
