package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/kirillkom/shop-verification/internal/core/domain"
	"github.com/kirillkom/shop-verification/internal/core/ports"
)

func fixedNow() time.Time {
	return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
}

type docRepoFake struct {
	mu        sync.Mutex
	nextID    int64
	docs      map[int64]domain.DocumentRecord
	createErr error
	pages     map[int64]int
}

func newDocRepoFake() *docRepoFake {
	return &docRepoFake{docs: map[int64]domain.DocumentRecord{}, pages: map[int64]int{}}
}

func (f *docRepoFake) Create(_ context.Context, doc *domain.DocumentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	doc.ID = f.nextID
	f.docs[doc.ID] = *doc
	return nil
}

func (f *docRepoFake) GetByID(_ context.Context, id int64) (*domain.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%d", id))
	}
	return &doc, nil
}

func (f *docRepoFake) ListByShop(_ context.Context, shopID int64) ([]domain.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.DocumentRecord
	for _, doc := range f.docs {
		if doc.ShopID == shopID {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *docRepoFake) UpdateVerification(_ context.Context, doc *domain.DocumentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.ID] = *doc
	return nil
}

func (f *docRepoFake) MarkExpired(_ context.Context, doc *domain.DocumentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.ID] = *doc
	return nil
}

func (f *docRepoFake) SavePageCount(_ context.Context, id int64, pages int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[id] = pages
	return nil
}

func (f *docRepoFake) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "delete document", fmt.Errorf("id=%d", id))
	}
	delete(f.docs, id)
	return nil
}

type shopRepoFake struct {
	mu     sync.Mutex
	nextID int64
	shops  map[int64]domain.Shop
}

func newShopRepoFake() *shopRepoFake {
	return &shopRepoFake{shops: map[int64]domain.Shop{}}
}

func (f *shopRepoFake) Create(_ context.Context, shop *domain.Shop) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	shop.ID = f.nextID
	f.shops[shop.ID] = cloneShop(*shop)
	return nil
}

func (f *shopRepoFake) GetByID(_ context.Context, id int64) (*domain.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	shop, ok := f.shops[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrShopNotFound, "get shop", fmt.Errorf("id=%d", id))
	}
	out := cloneShop(shop)
	return &out, nil
}

func (f *shopRepoFake) List(_ context.Context, filter domain.ShopFilter) ([]domain.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Shop
	for _, shop := range f.shops {
		if filter.Status != "" && shop.Status != filter.Status {
			continue
		}
		out = append(out, cloneShop(shop))
	}
	return out, nil
}

func (f *shopRepoFake) CountByStatus(context.Context) (map[domain.ShopStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[domain.ShopStatus]int64{}
	for _, shop := range f.shops {
		counts[shop.Status]++
	}
	return counts, nil
}

func (f *shopRepoFake) UpdateStatus(_ context.Context, id int64, fn ports.ShopTransitionFunc) (*domain.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.shops[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrShopNotFound, "update shop status", fmt.Errorf("id=%d", id))
	}
	working := cloneShop(stored)
	if _, err := fn(&working); err != nil {
		return nil, err
	}
	f.shops[id] = cloneShop(working)
	return &working, nil
}

func cloneShop(s domain.Shop) domain.Shop {
	s.StatusHistory = append([]domain.StatusHistoryEntry(nil), s.StatusHistory...)
	return s
}

type storageFake struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
	deleted []string
}

func newStorageFake() *storageFake {
	return &storageFake{objects: map[string][]byte{}}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *storageFake) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type publisherFake struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (f *publisherFake) Publish(_ context.Context, event domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *publisherFake) types() []domain.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.EventType, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}
