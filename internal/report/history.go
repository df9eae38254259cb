package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/secgate-io/secgate/pkg/shared/errors"
	"github.com/secgate-io/secgate/pkg/shared/files"
	"github.com/secgate-io/secgate/pkg/types"
)

// Repository stores the ordered report history. Reports are appended
// monotonically; Reset drops the whole history and exists for tests only.
type Repository interface {
	Append(report types.Report) error
	All() ([]types.Report, error)
	Reset() error
}

// MemoryRepository keeps the history in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	reports []types.Report
}

// NewMemoryRepository creates an empty in-memory history.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Append(report types.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
	return nil
}

func (r *MemoryRepository) All() ([]types.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Report, len(r.reports))
	copy(out, r.reports)
	return out, nil
}

func (r *MemoryRepository) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = nil
	return nil
}

// FileRepository persists the history as a JSON file under the results
// folder, written atomically so a crashed write never corrupts history.
type FileRepository struct {
	mu   sync.RWMutex
	path string

	reports []types.Report
}

// NewFileRepository loads (or initializes) a file-backed history. Malformed
// historical data is reported as a HistoryLoadError while the repository
// stays usable with an empty history.
func NewFileRepository(folder string) (*FileRepository, error) {
	if err := files.CreateFolderIfNotExists(folder); err != nil {
		return nil, err
	}

	repo := &FileRepository{path: filepath.Join(folder, "history.json")}

	data, err := os.ReadFile(repo.path)
	if os.IsNotExist(err) {
		return repo, nil
	}
	if err != nil {
		return repo, &errors.HistoryLoadError{Path: repo.path, Err: err}
	}

	if err := json.Unmarshal(data, &repo.reports); err != nil {
		repo.reports = nil
		return repo, &errors.HistoryLoadError{Path: repo.path, Err: err}
	}

	return repo, nil
}

func (r *FileRepository) Append(report types.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reports = append(r.reports, report)
	return r.persist()
}

func (r *FileRepository) All() ([]types.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Report, len(r.reports))
	copy(out, r.reports)
	return out, nil
}

func (r *FileRepository) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reports = nil
	return r.persist()
}

func (r *FileRepository) persist() error {
	data, err := json.MarshalIndent(r.reports, "", "  ")
	if err != nil {
		return err
	}
	return files.WriteFileAtomic(r.path, data)
}
