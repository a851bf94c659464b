package storage

import (
	"path/filepath"
	"testing"

	"arb_go/internal/domain"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "quotes.db"))
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	return s
}

func TestStorage_SaveAndFetchOne(t *testing.T) {
	s := newTestStorage(t)

	q := &domain.Quote{VenueID: "alphax", Timestamp: 1700000000, Bid: 50000.5, Ask: 50001.0}
	if err := s.SaveQuote(q); err != nil {
		t.Fatalf("SaveQuote failed: %v", err)
	}

	rows, err := s.FetchOne("alphax", 1700000000)
	if err != nil {
		t.Fatalf("FetchOne failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0].Bid != 50000.5 || rows[0].Ask != 50001.0 {
		t.Errorf("Round-trip mismatch: %+v", rows[0])
	}
}

func TestStorage_FetchOneScopedByVenueAndTime(t *testing.T) {
	s := newTestStorage(t)

	s.SaveQuote(&domain.Quote{VenueID: "alphax", Timestamp: 100, Bid: 1, Ask: 2})
	s.SaveQuote(&domain.Quote{VenueID: "betabit", Timestamp: 100, Bid: 3, Ask: 4})
	s.SaveQuote(&domain.Quote{VenueID: "alphax", Timestamp: 101, Bid: 5, Ask: 6})

	rows, err := s.FetchOne("alphax", 100)
	if err != nil {
		t.Fatalf("FetchOne failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Bid != 1 {
		t.Errorf("Expected only alphax@100, got %+v", rows)
	}

	// A second not recorded returns empty, not an error
	rows, err = s.FetchOne("alphax", 999)
	if err != nil {
		t.Fatalf("FetchOne failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected no rows, got %d", len(rows))
	}
}

func TestStorage_Prune(t *testing.T) {
	s := newTestStorage(t)

	s.SaveQuote(&domain.Quote{VenueID: "alphax", Timestamp: 100, Bid: 1, Ask: 2})
	s.SaveQuote(&domain.Quote{VenueID: "alphax", Timestamp: 200, Bid: 3, Ask: 4})

	if err := s.Prune(150); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	if rows, _ := s.FetchOne("alphax", 100); len(rows) != 0 {
		t.Error("Expected old quote pruned")
	}
	if rows, _ := s.FetchOne("alphax", 200); len(rows) != 1 {
		t.Error("Expected recent quote kept")
	}
}
