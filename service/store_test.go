package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/svanhaverbeke/offerbuilder/model"
)

func TestOfferStoreSaveAndGet(t *testing.T) {
	store := &OfferStore{offers: make(map[string]*model.Offer)}

	offer := &model.Offer{
		ID:              "2026_001_SM_Acme.docx",
		ReferenceNumber: "2026/001/SM/Acme",
		CreatedAt:       time.Now(),
	}
	store.Save(offer)

	got := store.Get("2026_001_SM_Acme.docx")
	if got == nil {
		t.Fatal("Get returned nil")
	}
	if got.ReferenceNumber != "2026/001/SM/Acme" {
		t.Errorf("reference = %q", got.ReferenceNumber)
	}

	if store.Get("missing") != nil {
		t.Error("expected nil for unknown id")
	}
}

func TestOfferStoreListNewestFirst(t *testing.T) {
	store := &OfferStore{offers: make(map[string]*model.Offer)}

	base := time.Now()
	store.Save(&model.Offer{ID: "old.docx", CreatedAt: base.Add(-2 * time.Hour)})
	store.Save(&model.Offer{ID: "new.docx", CreatedAt: base})
	store.Save(&model.Offer{ID: "mid.docx", CreatedAt: base.Add(-1 * time.Hour)})

	list := store.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 offers, got %d", len(list))
	}
	if list[0].ID != "new.docx" || list[1].ID != "mid.docx" || list[2].ID != "old.docx" {
		t.Errorf("unexpected order: %s, %s, %s", list[0].ID, list[1].ID, list[2].ID)
	}
}

func TestOfferStoreDelete(t *testing.T) {
	store := &OfferStore{offers: make(map[string]*model.Offer)}
	store.Save(&model.Offer{ID: "a.docx", CreatedAt: time.Now()})

	store.Delete("a.docx")

	if store.Get("a.docx") != nil {
		t.Error("offer still present after delete")
	}
	if store.Count() != 0 {
		t.Errorf("Count = %d, want 0", store.Count())
	}
}

func TestOfferStoreCleanup(t *testing.T) {
	dir := t.TempDir()
	store := &OfferStore{offers: make(map[string]*model.Offer), maxOffers: 2}

	base := time.Now()
	for i, id := range []string{"first.docx", "second.docx", "third.docx"} {
		path := filepath.Join(dir, id)
		if err := os.WriteFile(path, []byte("doc"), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		store.Save(&model.Offer{
			ID:        id,
			Path:      path,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	if store.Count() != 2 {
		t.Fatalf("Count = %d, want 2", store.Count())
	}
	if store.Get("first.docx") != nil {
		t.Error("oldest offer not evicted")
	}
	if _, err := os.Stat(filepath.Join(dir, "first.docx")); !os.IsNotExist(err) {
		t.Error("evicted offer file not removed from disk")
	}
	if store.Get("second.docx") == nil || store.Get("third.docx") == nil {
		t.Error("newer offers should survive cleanup")
	}
}

func TestOfferStoreUnlimited(t *testing.T) {
	store := &OfferStore{offers: make(map[string]*model.Offer)}

	for i := 0; i < 150; i++ {
		store.Save(&model.Offer{
			ID:        fmt.Sprintf("offer-%d.docx", i),
			CreatedAt: time.Now(),
		})
	}

	if store.Count() != 150 {
		t.Errorf("Count = %d, want 150 with maxOffers 0", store.Count())
	}
}

func TestGetOfferStoreConcurrentFallback(t *testing.T) {
	const n = 16
	stores := make([]*OfferStore, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stores[i] = GetOfferStore()
		}(i)
	}
	wg.Wait()

	if stores[0] == nil {
		t.Fatal("GetOfferStore returned nil")
	}
	for i := 1; i < n; i++ {
		if stores[i] != stores[0] {
			t.Fatalf("goroutine %d observed a different store", i)
		}
	}
}
