package portfolio

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"plutus/pkg/errors"
)

// Store is the portfolio persistence contract. Implementations are
// transactional per call.
type Store interface {
	// List returns all positions sorted by ticker.
	List(ctx context.Context) ([]Position, error)

	// Get returns the position for a ticker, or ErrNotFound.
	Get(ctx context.Context, ticker string) (*Position, error)

	// Upsert inserts or replaces a position wholesale.
	Upsert(ctx context.Context, p Position) error

	// Delete removes a position, or ErrNotFound.
	Delete(ctx context.Context, ticker string) error

	// Add merges shares into an existing position, averaging the cost
	// basis, or creates the position when absent. Returns the resulting
	// position.
	Add(ctx context.Context, p Position) (*Position, error)

	// Remove trims shares from a position. A zero shares value, or one
	// greater than or equal to the held amount, deletes the position.
	// Returns the remaining position, or nil when fully removed.
	Remove(ctx context.Context, ticker string, shares decimal.Decimal) (*Position, error)
}

// fileDocument is the on-disk shape of the portfolio file.
type fileDocument struct {
	Positions []Position `json:"positions"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// FileStore persists positions to a single JSON file. Every write goes
// through a temp file followed by a rename, so a crash mid-write never
// leaves a corrupt portfolio.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file-backed portfolio store. The file is created
// lazily on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) load() (map[string]Position, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Position{}, nil
		}
		return nil, errors.Wrap(err, "read portfolio file")
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "parse portfolio file %s", s.path)
	}

	positions := make(map[string]Position, len(doc.Positions))
	for _, p := range doc.Positions {
		positions[normalizeTicker(p.Ticker)] = p
	}
	return positions, nil
}

func (s *FileStore) persist(positions map[string]Position) error {
	doc := fileDocument{
		Positions: make([]Position, 0, len(positions)),
		UpdatedAt: time.Now().UTC(),
	}
	for _, p := range positions {
		doc.Positions = append(doc.Positions, p)
	}
	sort.Slice(doc.Positions, func(i, j int) bool {
		return doc.Positions[i].Ticker < doc.Positions[j].Ticker
	})

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal portfolio")
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".portfolio-*.json")
	if err != nil {
		return errors.Wrap(err, "create temp portfolio file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "write temp portfolio file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "close temp portfolio file")
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "replace portfolio file")
	}
	return nil
}

// List returns all positions sorted by ticker.
func (s *FileStore) List(_ context.Context) ([]Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions, err := s.load()
	if err != nil {
		return nil, err
	}

	out := make([]Position, 0, len(positions))
	for _, p := range positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

// Get returns the position for a ticker.
func (s *FileStore) Get(_ context.Context, ticker string) (*Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions, err := s.load()
	if err != nil {
		return nil, err
	}

	p, ok := positions[normalizeTicker(ticker)]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "no position for %s", ticker)
	}
	return &p, nil
}

// Upsert inserts or replaces a position.
func (s *FileStore) Upsert(_ context.Context, p Position) error {
	if err := validatePosition(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	positions, err := s.load()
	if err != nil {
		return err
	}

	p.Ticker = normalizeTicker(p.Ticker)
	positions[p.Ticker] = p
	return s.persist(positions)
}

// Delete removes a position.
func (s *FileStore) Delete(_ context.Context, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions, err := s.load()
	if err != nil {
		return err
	}

	key := normalizeTicker(ticker)
	if _, ok := positions[key]; !ok {
		return errors.Wrapf(errors.ErrNotFound, "no position for %s", ticker)
	}
	delete(positions, key)
	return s.persist(positions)
}

// Add merges shares into an existing position, averaging the cost basis
// weighted by share count. The original purchase date is kept.
func (s *FileStore) Add(_ context.Context, p Position) (*Position, error) {
	if err := validatePosition(p); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	positions, err := s.load()
	if err != nil {
		return nil, err
	}

	p.Ticker = normalizeTicker(p.Ticker)
	if p.PurchaseDate.IsZero() {
		p.PurchaseDate = time.Now().UTC()
	}

	existing, ok := positions[p.Ticker]
	if ok {
		totalShares := existing.Shares.Add(p.Shares)
		totalCost := existing.CostValue().Add(p.CostValue())
		merged := Position{
			Ticker:       p.Ticker,
			Shares:       totalShares,
			CostBasis:    totalCost.Div(totalShares),
			PurchaseDate: existing.PurchaseDate,
			Sector:       existing.Sector,
		}
		if merged.Sector == "" {
			merged.Sector = p.Sector
		}
		positions[p.Ticker] = merged
		p = merged
	} else {
		positions[p.Ticker] = p
	}

	if err := s.persist(positions); err != nil {
		return nil, err
	}
	return &p, nil
}

// Remove trims shares from a position or deletes it outright.
func (s *FileStore) Remove(_ context.Context, ticker string, shares decimal.Decimal) (*Position, error) {
	if shares.IsNegative() {
		return nil, errors.Wrap(errors.ErrInvalidInput, "shares to remove cannot be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	positions, err := s.load()
	if err != nil {
		return nil, err
	}

	key := normalizeTicker(ticker)
	existing, ok := positions[key]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "no position for %s", ticker)
	}

	if shares.IsZero() || shares.GreaterThanOrEqual(existing.Shares) {
		delete(positions, key)
		if err := s.persist(positions); err != nil {
			return nil, err
		}
		return nil, nil
	}

	existing.Shares = existing.Shares.Sub(shares)
	positions[key] = existing
	if err := s.persist(positions); err != nil {
		return nil, err
	}
	return &existing, nil
}

func validatePosition(p Position) error {
	if strings.TrimSpace(p.Ticker) == "" {
		return errors.Wrap(errors.ErrInvalidInput, "ticker cannot be empty")
	}
	if !p.Shares.IsPositive() {
		return errors.Wrapf(errors.ErrInvalidInput, "shares must be positive, got %s", p.Shares)
	}
	if !p.CostBasis.IsPositive() {
		return errors.Wrapf(errors.ErrInvalidInput, "cost basis must be positive, got %s", p.CostBasis)
	}
	return nil
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
