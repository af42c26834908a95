package rosid

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/acoburn/trellis-rosid/internal/layout"
	"github.com/acoburn/trellis-rosid/internal/quad"
	"github.com/acoburn/trellis-rosid/internal/resource"
)

// ListEntry is one row of a partition listing.
type ListEntry struct {
	ID               quad.IRI
	InteractionModel quad.IRI
}

// ListOptions bounds a List call; PageSize caps how many entries are
// returned before the iterator stops (0 means unbounded), letting a
// partition with many resources be consumed incrementally.
type ListOptions struct {
	PageSize int
}

// List yields one ListEntry per resource under partition whose IRI is
// "info:trellis/<partition>" or nests beneath it, skipping resources
// whose cache cannot be read (they still exist; a caller wanting their
// exact state should Get them directly, replaying the journal). When the
// Service has an index attached (see WithIndex), List answers from it
// directly; otherwise it falls back to walking the whole hash-sharded
// tree, since the hash shard a resource lives under is derived from its
// full IRI, not from the partition name, so membership can only be
// decided after each cache header is read back.
func (s *Service) List(ctx context.Context, partition string, opts ListOptions) (func() (ListEntry, bool), error) {
	if s.index != nil {
		rows, err := s.index.List(quad.IRI("info:trellis/" + partition))
		if err != nil {
			return nil, fmt.Errorf("rosid: list partition via index: %w", err)
		}
		if opts.PageSize > 0 && len(rows) > opts.PageSize {
			rows = rows[:opts.PageSize]
		}
		i := 0
		return func() (ListEntry, bool) {
			if i >= len(rows) {
				return ListEntry{}, false
			}
			e := rows[i]
			i++
			return ListEntry{ID: e.ID, InteractionModel: e.InteractionModel}, true
		}, nil
	}

	root := s.cfg.Root
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return func() (ListEntry, bool) { return ListEntry{}, false }, nil
		}
		return nil, ioError("list partition", err)
	}
	prefix := "info:trellis/" + partition

	var entries []ListEntry
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != layout.CacheFile {
			return nil
		}
		dir := filepath.Dir(path)
		r, findErr := resource.CachedResource{}.Find(dir, "")
		if findErr != nil {
			return nil
		}
		if string(r.ID) != prefix && !strings.HasPrefix(string(r.ID), prefix+"/") {
			return nil
		}
		entries = append(entries, ListEntry{ID: r.ID, InteractionModel: r.InteractionModel})
		if opts.PageSize > 0 && len(entries) >= opts.PageSize {
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, ioError("walk partition", err)
	}

	i := 0
	return func() (ListEntry, bool) {
		if i >= len(entries) {
			return ListEntry{}, false
		}
		e := entries[i]
		i++
		return e, true
	}, nil
}

// Ping verifies the root partition directory is still writable, a cheap
// health check re-asserting the construction-time invariant that the
// storage root exists and accepts writes.
func (s *Service) Ping(ctx context.Context) error {
	probe := filepath.Join(s.cfg.Root, ".ping")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("rosid: ping: %w", err)
	}
	return os.Remove(probe)
}
