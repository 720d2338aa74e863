package parts

import (
	"context"
	"testing"

	"github.com/ziadkadry99/partschat/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func seedParts(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	seed := []Part{
		{
			PartID:       "ABC-12345",
			Name:         "진공 펌프 베어링",
			Category:     "베어링",
			Spec:         map[string]string{"내경": "25mm", "재질": "세라믹"},
			CurrentStock: 850,
			MinimumStock: 100,
			UnitPrice:    45000,
			Supplier:     "한국정밀",
			Location:     "A-03-12",
		},
		{
			PartID:       "XYZ-99101",
			Name:         "쿼츠 튜브",
			Category:     "소모품",
			CurrentStock: 12,
			MinimumStock: 30,
			UnitPrice:    380000,
			Supplier:     "SemiQ",
			Location:     "B-01-05",
		},
		{
			PartID:       "ABC-54321",
			Name:         "펌프 오일 필터",
			Category:     "필터",
			CurrentStock: 200,
			MinimumStock: 50,
			Supplier:     "한국정밀",
			Location:     "A-03-14",
		},
	}
	for _, p := range seed {
		if err := store.Upsert(ctx, p); err != nil {
			t.Fatalf("seeding part %s: %v", p.PartID, err)
		}
	}
}

func TestGetByID(t *testing.T) {
	store := setupStore(t)
	seedParts(t, store)
	ctx := context.Background()

	p, err := store.GetByID(ctx, "ABC-12345")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if p == nil {
		t.Fatal("expected part, got nil")
	}
	if p.Name != "진공 펌프 베어링" {
		t.Errorf("unexpected name: %s", p.Name)
	}
	if p.Spec["재질"] != "세라믹" {
		t.Errorf("spec not preserved: %v", p.Spec)
	}
}

func TestGetByIDAbsent(t *testing.T) {
	store := setupStore(t)

	p, err := store.GetByID(context.Background(), "NOPE-00001")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil for absent part, got %+v", p)
	}
}

func TestSearch(t *testing.T) {
	store := setupStore(t)
	seedParts(t, store)
	ctx := context.Background()

	results, err := store.Search(ctx, "펌프", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results for 펌프, got %d", len(results))
	}

	results, err = store.Search(ctx, "ABC", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected limit to cap results at 1, got %d", len(results))
	}
}

func TestListBelowMinimum(t *testing.T) {
	store := setupStore(t)
	seedParts(t, store)

	results, err := store.List(context.Background(), ListFilter{BelowMinimum: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 part below minimum, got %d", len(results))
	}
	if results[0].PartID != "XYZ-99101" {
		t.Errorf("unexpected part: %s", results[0].PartID)
	}
	if !results[0].BelowMinimum() {
		t.Error("BelowMinimum should report true")
	}
}

func TestListByCategory(t *testing.T) {
	store := setupStore(t)
	seedParts(t, store)

	results, err := store.List(context.Background(), ListFilter{Category: "필터"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(results) != 1 || results[0].PartID != "ABC-54321" {
		t.Errorf("unexpected category results: %+v", results)
	}
}

func TestUpsertUpdates(t *testing.T) {
	store := setupStore(t)
	seedParts(t, store)
	ctx := context.Background()

	if err := store.Upsert(ctx, Part{
		PartID:       "ABC-12345",
		Name:         "진공 펌프 베어링",
		Category:     "베어링",
		CurrentStock: 700,
		MinimumStock: 100,
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	p, err := store.GetByID(ctx, "ABC-12345")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if p.CurrentStock != 700 {
		t.Errorf("expected updated stock 700, got %d", p.CurrentStock)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Errorf("upsert must not add a duplicate row, count=%d", count)
	}
}

func TestSample(t *testing.T) {
	store := setupStore(t)
	seedParts(t, store)

	results, err := store.Sample(context.Background(), 2)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 sampled parts, got %d", len(results))
	}
}
