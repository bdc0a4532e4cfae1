package handler

// store_stub_test.go provides an in-memory ListingStore used by the handler
// tests. It mimics the repository's SQL behavior closely enough for routing
// and response-shape tests: date overlap on ListActiveBetween, sentinel
// errors, and run_id uniqueness are all honored.

import (
	"context"
	"sort"

	"github.com/stagedoor/theatre-listings/internal/model"
	"github.com/stagedoor/theatre-listings/internal/repository"
)

type stubStore struct {
	nextID uint64
	items  map[uint64]model.Listing

	// last arguments seen by ListActiveBetween, for filter assertions
	lastStart    string
	lastEnd      string
	lastCategory model.Category

	failWith error // when set, every method returns this error
}

func newStubStore() *stubStore {
	return &stubStore{items: make(map[uint64]model.Listing)}
}

func (s *stubStore) add(l model.Listing) model.Listing {
	s.nextID++
	l.ID = s.nextID
	s.items[l.ID] = l
	return l
}

func (s *stubStore) sorted() []model.Listing {
	out := make([]model.Listing, 0, len(s.items))
	for _, l := range s.items {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *stubStore) ListAll(context.Context) ([]model.Listing, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	return s.sorted(), nil
}

func (s *stubStore) ListActiveBetween(_ context.Context, start, end string, category model.Category) ([]model.Listing, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	s.lastStart, s.lastEnd, s.lastCategory = start, end, category
	out := make([]model.Listing, 0)
	for _, l := range s.sorted() {
		if l.StartDate > end {
			continue
		}
		if l.EndDate != nil && *l.EndDate < start {
			continue
		}
		if category != "" && l.Category != category {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *stubStore) GetByID(_ context.Context, id uint64) (*model.Listing, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	l, ok := s.items[id]
	if !ok {
		return nil, repository.ErrListingNotFound
	}
	return &l, nil
}

func (s *stubStore) GetByRunID(_ context.Context, runID string) (*model.Listing, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	for _, l := range s.items {
		if l.RunID == runID {
			cp := l
			return &cp, nil
		}
	}
	return nil, repository.ErrListingNotFound
}

func (s *stubStore) Create(_ context.Context, l *model.Listing) error {
	if s.failWith != nil {
		return s.failWith
	}
	for _, existing := range s.items {
		if existing.RunID != "" && existing.RunID == l.RunID {
			return repository.ErrDuplicateRunID
		}
	}
	s.nextID++
	l.ID = s.nextID
	s.items[l.ID] = *l
	return nil
}

func (s *stubStore) Update(_ context.Context, l *model.Listing) error {
	if s.failWith != nil {
		return s.failWith
	}
	if _, ok := s.items[l.ID]; !ok {
		return repository.ErrListingNotFound
	}
	for id, existing := range s.items {
		if id != l.ID && existing.RunID != "" && existing.RunID == l.RunID {
			return repository.ErrDuplicateRunID
		}
	}
	s.items[l.ID] = *l
	return nil
}

func (s *stubStore) Delete(_ context.Context, id uint64) error {
	if s.failWith != nil {
		return s.failWith
	}
	if _, ok := s.items[id]; !ok {
		return repository.ErrListingNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *stubStore) DeleteAll(context.Context) (int64, error) {
	if s.failWith != nil {
		return 0, s.failWith
	}
	n := int64(len(s.items))
	s.items = make(map[uint64]model.Listing)
	return n, nil
}

func (s *stubStore) ListMissingRunID(context.Context) ([]model.Listing, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	out := make([]model.Listing, 0)
	for _, l := range s.sorted() {
		if l.RunID == "" {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *stubStore) UpdateRunID(_ context.Context, id uint64, runID string) error {
	if s.failWith != nil {
		return s.failWith
	}
	l, ok := s.items[id]
	if !ok {
		return repository.ErrListingNotFound
	}
	for other, existing := range s.items {
		if other != id && existing.RunID == runID {
			return repository.ErrDuplicateRunID
		}
	}
	l.RunID = runID
	s.items[id] = l
	return nil
}
