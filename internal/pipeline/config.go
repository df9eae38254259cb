package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/secgate-io/secgate/pkg/shared/config"
	"github.com/secgate-io/secgate/pkg/shared/errors"
	"github.com/secgate-io/secgate/pkg/types"
)

// gatesFile is the on-disk shape of a gates configuration file.
type gatesFile struct {
	Gates []types.Gate `yaml:"gates"`
}

// Store holds the configured gates in declaration order. All mutations are
// validated; the zero-value gate set is never exposed.
type Store struct {
	mu    sync.RWMutex
	gates []types.Gate
}

// NewStore creates a store seeded with the built-in default gates.
func NewStore() *Store {
	return &Store{gates: DefaultGates()}
}

// NewStoreFromConfig creates a store seeded with the defaults and, when the
// configuration names a gates file, replaces them with its contents.
func NewStoreFromConfig(cfg *config.Config) (*Store, error) {
	store := NewStore()
	if cfg.Secgate.GatesFile == "" {
		return store, nil
	}
	if err := store.LoadFile(cfg.Secgate.GatesFile); err != nil {
		return nil, err
	}
	return store, nil
}

// DefaultGates returns the built-in gate set covering all pipeline stages.
func DefaultGates() []types.Gate {
	return []types.Gate{
		{
			ID:       "pre-commit-security",
			Name:     "Pre-Commit Security",
			Stage:    types.StagePreCommit,
			Enabled:  true,
			Blocking: true,
			Checks: []types.Check{
				{ID: "code-scan", Name: "Code Scan", Type: types.CheckTypeScan, Enabled: true},
				{ID: "secrets-scan", Name: "Secrets Scan", Type: types.CheckTypeSecrets, Enabled: true, Timeout: 2 * time.Minute},
				{ID: "code-review", Name: "Code Review", Type: types.CheckTypeReview, Enabled: true},
			},
			Thresholds: types.Thresholds{MaxCritical: 0, MaxHigh: 2, MaxMedium: 5, MinSecurityScore: 70},
		},
		{
			ID:       "pre-build-dependencies",
			Name:     "Pre-Build Dependencies",
			Stage:    types.StagePreBuild,
			Enabled:  true,
			Blocking: true,
			Checks: []types.Check{
				{ID: "dependency-audit", Name: "Dependency Audit", Type: types.CheckTypeDependency, Enabled: true, Timeout: 5 * time.Minute, Retries: 1},
				{ID: "code-scan", Name: "Code Scan", Type: types.CheckTypeScan, Enabled: true},
			},
			Thresholds: types.Thresholds{MaxCritical: 0, MaxHigh: 3, MaxMedium: 10, MinSecurityScore: 60},
		},
		{
			ID:       "pre-deploy-configuration",
			Name:     "Pre-Deploy Configuration",
			Stage:    types.StagePreDeploy,
			Enabled:  true,
			Blocking: true,
			Checks: []types.Check{
				{ID: "config-audit", Name: "Configuration Audit", Type: types.CheckTypeConfiguration, Enabled: true, Timeout: 2 * time.Minute},
				{ID: "compliance", Name: "Compliance Validation", Type: types.CheckTypeCompliance, Enabled: true, Timeout: 2 * time.Minute},
			},
			Thresholds: types.Thresholds{MaxCritical: 0, MaxHigh: 1, MaxMedium: 5, MinSecurityScore: 75},
		},
		{
			ID:       "post-deploy-compliance",
			Name:     "Post-Deploy Compliance",
			Stage:    types.StagePostDeploy,
			Enabled:  true,
			Blocking: false,
			Checks: []types.Check{
				{ID: "compliance", Name: "Compliance Validation", Type: types.CheckTypeCompliance, Enabled: true, Timeout: 5 * time.Minute, Retries: 2},
			},
			Thresholds: types.Thresholds{MaxCritical: 0, MaxHigh: 5, MaxMedium: 10, MinSecurityScore: 50},
		},
	}
}

// LoadFile replaces the gate set with the contents of a gates file.
func (s *Store) LoadFile(path string) error {
	var file gatesFile
	if err := config.LoadYAML(path, &file); err != nil {
		return &errors.ConfigurationError{Field: "secgate.gates_file", Reason: err.Error()}
	}
	if len(file.Gates) == 0 {
		return &errors.ConfigurationError{Field: "secgate.gates_file", Reason: fmt.Sprintf("no gates defined in %q", path)}
	}

	for i := range file.Gates {
		if err := validateGate(file.Gates[i]); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gates = file.Gates
	return nil
}

// Reload re-reads the gates file while preserving the enabled toggles of
// gates that survive the reload.
func (s *Store) Reload(path string) error {
	s.mu.RLock()
	toggles := make(map[string]bool, len(s.gates))
	for _, g := range s.gates {
		toggles[g.ID] = g.Enabled
	}
	s.mu.RUnlock()

	if err := s.LoadFile(path); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.gates {
		if enabled, ok := toggles[s.gates[i].ID]; ok {
			s.gates[i].Enabled = enabled
		}
	}
	return nil
}

// Gates returns a copy of all configured gates in declaration order.
func (s *Store) Gates() []types.Gate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Gate, len(s.gates))
	copy(out, s.gates)
	return out
}

// GatesForStage returns the enabled gates of one stage in declaration order.
func (s *Store) GatesForStage(stage types.Stage) []types.Gate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Gate
	for _, g := range s.gates {
		if g.Stage == stage && g.Enabled {
			out = append(out, g)
		}
	}
	return out
}

// Get returns one gate by id.
func (s *Store) Get(id string) (types.Gate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.gates {
		if g.ID == id {
			return g, nil
		}
	}
	return types.Gate{}, fmt.Errorf("unknown gate %q", id)
}

// Configure adds a new gate or replaces the existing one with the same id,
// keeping declaration order stable for replacements.
func (s *Store) Configure(g types.Gate) error {
	if err := validateGate(g); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.gates {
		if s.gates[i].ID == g.ID {
			s.gates[i] = g
			return nil
		}
	}
	s.gates = append(s.gates, g)
	return nil
}

// SetEnabled toggles one gate without touching the rest of its definition.
func (s *Store) SetEnabled(id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.gates {
		if s.gates[i].ID == id {
			s.gates[i].Enabled = enabled
			return nil
		}
	}
	return fmt.Errorf("unknown gate %q", id)
}

// validateGate rejects gate definitions the pipeline cannot execute.
func validateGate(g types.Gate) error {
	if g.ID == "" {
		return &errors.ConfigurationError{Field: "gate.id", Reason: "gate id must not be empty"}
	}
	if _, err := types.ParseStage(string(g.Stage)); err != nil {
		return &errors.ConfigurationError{Field: "gate.stage", Reason: fmt.Sprintf("gate %q: %v", g.ID, err)}
	}
	seen := make(map[string]bool, len(g.Checks))
	for _, check := range g.Checks {
		if check.ID == "" {
			return &errors.ConfigurationError{Field: "gate.checks", Reason: fmt.Sprintf("gate %q has a check without an id", g.ID)}
		}
		if seen[check.ID] {
			return &errors.ConfigurationError{Field: "gate.checks", Reason: fmt.Sprintf("gate %q declares check %q twice", g.ID, check.ID)}
		}
		seen[check.ID] = true
	}
	if g.Thresholds.MinSecurityScore < 0 || g.Thresholds.MinSecurityScore > 100 {
		return &errors.ConfigurationError{Field: "gate.thresholds", Reason: fmt.Sprintf("gate %q: min_security_score must be within [0,100]", g.ID)}
	}
	return nil
}
