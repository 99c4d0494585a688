package service

import (
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/svanhaverbeke/offerbuilder/config"
	"github.com/svanhaverbeke/offerbuilder/model"
)

// OfferStore is an in-memory index of generated offers
// In production, this should be replaced with a database
type OfferStore struct {
	offers    map[string]*model.Offer
	mu        sync.RWMutex
	maxOffers int // Maximum offers to keep, 0 = unlimited
}

var (
	globalStore *OfferStore
	storeOnce   sync.Once
)

// InitOfferStore initializes the global offer store with configuration
func InitOfferStore(cfg *config.Store) {
	storeOnce.Do(func() {
		maxOffers := cfg.MaxOffers
		if maxOffers < 0 {
			maxOffers = 0
		}
		globalStore = &OfferStore{
			offers:    make(map[string]*model.Offer),
			maxOffers: maxOffers,
		}
		slog.Info("offer store initialized", "max_offers", maxOffers)
	})
}

// GetOfferStore returns the global offer store, initializing it with default
// settings if InitOfferStore has not run. The same Once guards both paths so
// concurrent first calls observe a single store.
func GetOfferStore() *OfferStore {
	storeOnce.Do(func() {
		globalStore = &OfferStore{
			offers:    make(map[string]*model.Offer),
			maxOffers: 100,
		}
	})
	return globalStore
}

func (s *OfferStore) Save(offer *model.Offer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.offers[offer.ID] = offer

	s.cleanupIfNeeded()
}

func (s *OfferStore) Get(id string) *model.Offer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offers[id]
}

// List returns all offers, newest first
func (s *OfferStore) List() []*model.Offer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.Offer, 0, len(s.offers))
	for _, o := range s.offers {
		result = append(result, o)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (s *OfferStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.offers, id)
}

// cleanupIfNeeded removes the oldest offers if the store exceeds
// maxOffers, deleting their generated files as well
// Must be called with lock held
func (s *OfferStore) cleanupIfNeeded() {
	if s.maxOffers <= 0 {
		return // Unlimited
	}

	if len(s.offers) <= s.maxOffers {
		return
	}

	offers := make([]*model.Offer, 0, len(s.offers))
	for _, o := range s.offers {
		offers = append(offers, o)
	}
	sort.Slice(offers, func(i, j int) bool {
		return offers[i].CreatedAt.Before(offers[j].CreatedAt)
	})

	removeCount := len(offers) - s.maxOffers
	for i := 0; i < removeCount; i++ {
		slog.Info("auto-cleaning old offer",
			"offer_id", offers[i].ID,
			"created_at", offers[i].CreatedAt,
		)
		if offers[i].Path != "" {
			if err := os.Remove(offers[i].Path); err != nil && !os.IsNotExist(err) {
				slog.Warn("failed to remove offer file", "path", offers[i].Path, "error", err)
			}
		}
		delete(s.offers, offers[i].ID)
	}
}

// Count returns the number of offers in the store
func (s *OfferStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.offers)
}
