package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/innovationhub/store"
	"github.com/innovationhub/store/internal/config"
	memstore "github.com/innovationhub/store/memory"
	sqlstore "github.com/innovationhub/store/sql"
)

// session is what an entity command works with: the configuration, the
// opened backend and a handler registry over it.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	service  store.Service
	registry *store.Registry

	// snapshot is set for a memory store backed by a file.
	snapshot *memstore.Store
}

// newSession opens the configured backend. The returned cleanup closes it
// and, for a file-backed memory store, writes the snapshot back when persist
// is set.
func newSession(cmd *cobra.Command, persist bool) (*session, func() error, error) {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)
	if cfg == nil {
		return nil, nil, errors.New("configuration not loaded")
	}
	logger := GetLogger(ctx)

	s := &session{cfg: cfg, logger: logger}
	if err := s.open(ctx); err != nil {
		return nil, nil, err
	}
	s.registry = store.NewRegistry(s.service,
		store.WithRegistryLogger(logger),
		store.WithEntityConfig(cfg.Store.Entities))

	cleanup := func() error {
		var saveErr error
		if persist && s.snapshot != nil {
			saveErr = saveSnapshot(cfg.Store.FilePath, s.snapshot)
		}
		return errors.Join(saveErr, s.service.Close())
	}
	return s, cleanup, nil
}

func (s *session) open(ctx context.Context) error {
	if !strings.EqualFold(s.cfg.Store.Type, "memory") {
		svc, err := sqlstore.OpenConfig(ctx, &s.cfg.Store, sqlstore.WithLogger(s.logger))
		if err != nil {
			return err
		}
		s.service = svc
		return nil
	}

	mem := memstore.New(
		memstore.WithAutoCreate(),
		memstore.WithIDColumn(s.cfg.Store.Entities.IDColumn))
	if path := s.cfg.Store.FilePath; path != "" {
		if err := loadSnapshot(path, mem); err != nil {
			return err
		}
		s.snapshot = mem
	}
	s.service = mem
	s.logger.Debug("opened memory store", slog.String("snapshot", s.cfg.Store.FilePath))
	return nil
}

func (s *session) handler(entity string) (*store.Handler, error) {
	return s.registry.Handler(entity)
}

// loadSnapshot restores a YAML snapshot. A missing file is an empty store.
func loadSnapshot(path string, mem *memstore.Store) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", path, err)
	}
	var tables map[string][]store.Record
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return mem.Restore(tables)
}

func saveSnapshot(path string, mem *memstore.Store) error {
	data, err := yaml.Marshal(mem.Snapshot())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}
