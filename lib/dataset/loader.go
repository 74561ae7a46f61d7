// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	"github.com/tcgref/tcgref/lib/dispatch"
	"github.com/tcgref/tcgref/lib/ingest"
	"github.com/tcgref/tcgref/lib/refdata"
)

// digest identifies a field's raw content.
type digest [32]byte

// Loader reads refdata fields from a Source.
//
// Unchanged fields are recognised by comparing content digests with
// those of the data the live context holds. An update's digests only
// count once Applied reports it published, so an update that is built
// but never applied does not hide the same content next time.
type Loader struct {
	source Source
	logger *slog.Logger

	mu      sync.Mutex
	applied map[refdata.Field]digest
	pending map[*refdata.Update]map[refdata.Field]digest
}

// NewLoader creates a Loader. Panics if source is nil.
func NewLoader(source Source, logger *slog.Logger) *Loader {
	if source == nil {
		panic("dataset.NewLoader: source is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		source:  source,
		logger:  logger.With("component", "dataset", "source", source.String()),
		applied: make(map[refdata.Field]digest),
		pending: make(map[*refdata.Update]map[refdata.Field]digest),
	}
}

// Load reads every field and returns the initial context. The context
// is published by the caller, so its digests count at once.
func (l *Loader) Load(ctx context.Context) (*refdata.Context, error) {
	update, err := l.Reload(ctx)
	if err != nil {
		return nil, err
	}
	l.Applied(update)
	return refdata.Merge(refdata.Empty(), update), nil
}

// Applied records that update, as returned by this loader, is now part
// of the live context. Updates from elsewhere are ignored.
func (l *Loader) Applied(update *refdata.Update) {
	l.mu.Lock()
	defer l.mu.Unlock()
	digests, ok := l.pending[update]
	if !ok {
		return
	}
	delete(l.pending, update)
	for field, sum := range digests {
		l.applied[field] = sum
	}
}

// Reload reads every field regardless of recorded digests and returns
// a complete update.
func (l *Loader) Reload(ctx context.Context) (*refdata.Update, error) {
	return l.load(ctx, allFields(), true)
}

// Update reads the fields changes touched. Fields whose content is
// unchanged since the last load are omitted; the result is nil when
// nothing changed. A truncated change set is widened through the
// source's Comparer, or to every field when the source has none.
func (l *Loader) Update(ctx context.Context, changes ingest.ChangeSet) (*refdata.Update, error) {
	files := changes.Files
	if changes.Truncated {
		comparer, ok := l.source.(Comparer)
		if !ok || changes.Before == "" || changes.After == "" {
			l.logger.Info("change set truncated, reloading every field", "repository", changes.Repository)
			return l.nonEmpty(l.load(ctx, allFields(), false))
		}
		changed, err := comparer.ChangedFiles(ctx, changes.Before, changes.After)
		if err != nil {
			return nil, fmt.Errorf("listing files changed in %s: %w", changes.CompareURL, err)
		}
		files = append(append([]string(nil), files...), changed...)
	}

	touched := FieldsFor(files)
	if touched == 0 {
		l.logger.Debug("change set touches no dataset files", "files", len(changes.Files))
		return nil, nil
	}
	return l.nonEmpty(l.load(ctx, touched, false))
}

// Handler returns a dispatch handler applying changes.
func (l *Loader) Handler(changes ingest.ChangeSet) dispatch.Handler {
	return func(ctx context.Context, _ *refdata.Context) dispatch.Result {
		update, err := l.Update(ctx, changes)
		if err != nil {
			return dispatch.Failure(fmt.Errorf("updating dataset from %s: %w", changes.Repository, err))
		}
		return dispatch.Success(update)
	}
}

func (l *Loader) nonEmpty(update *refdata.Update, err error) (*refdata.Update, error) {
	if err != nil || update.IsEmpty() {
		return nil, err
	}
	return update, nil
}

type fieldResult struct {
	spec   fieldSpec
	files  []file
	digest digest
}

// load reads fields concurrently. Unless force is set, fields whose
// digest matches the applied one are dropped. The digests of the
// fields that make it into the update wait in pending for Applied.
func (l *Loader) load(ctx context.Context, fields refdata.FieldSet, force bool) (*refdata.Update, error) {
	var specs []fieldSpec
	for _, spec := range layout {
		if fields.Has(spec.field) {
			specs = append(specs, spec)
		}
	}

	results := make([]fieldResult, len(specs))
	group, groupCtx := errgroup.WithContext(ctx)
	for index, spec := range specs {
		group.Go(func() error {
			files, err := l.readField(groupCtx, spec)
			if err != nil {
				return fmt.Errorf("loading %s: %w", spec.field, err)
			}
			results[index] = fieldResult{spec: spec, files: files, digest: digestFiles(files)}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	update := &refdata.Update{}
	decoded := make(map[refdata.Field]digest, len(results))
	var skipped refdata.FieldSet
	for _, result := range results {
		if !force {
			if previous, ok := l.applied[result.spec.field]; ok && previous == result.digest {
				skipped |= refdata.Fields(result.spec.field)
				continue
			}
		}
		if err := result.spec.decode(result.files, update); err != nil {
			return nil, fmt.Errorf("loading %s: %w", result.spec.field, err)
		}
		decoded[result.spec.field] = result.digest
	}
	if len(decoded) > 0 && !update.IsEmpty() {
		l.pending[update] = decoded
	}

	l.logger.Info("dataset fields loaded",
		"requested", fields.String(),
		"changed", update.Fields().String(),
		"unchanged", skipped.String(),
	)
	return update, nil
}

func (l *Loader) readField(ctx context.Context, spec fieldSpec) ([]file, error) {
	names := []string{spec.name}
	if spec.isDir() {
		listed, err := l.source.ListFiles(ctx, spec.name)
		if err != nil && !(errors.Is(err, ErrNotExist) && !spec.required) {
			return nil, err
		}
		names = names[:0]
		for _, name := range listed {
			if spec.owns(name) {
				names = append(names, name)
			}
		}
	}

	files := make([]file, 0, len(names))
	for _, name := range names {
		data, err := l.source.ReadFile(ctx, name)
		if errors.Is(err, ErrNotExist) && !spec.required {
			continue
		}
		if err != nil {
			return nil, err
		}
		files = append(files, file{name: name, data: data})
	}
	return files, nil
}

// digestFiles hashes names and contents, length-prefixed so that
// moving bytes between files changes the digest.
func digestFiles(files []file) digest {
	hasher := blake3.New()
	var length [8]byte
	for _, f := range files {
		binary.LittleEndian.PutUint64(length[:], uint64(len(f.name)))
		hasher.Write(length[:])
		hasher.Write([]byte(f.name))
		binary.LittleEndian.PutUint64(length[:], uint64(len(f.data)))
		hasher.Write(length[:])
		hasher.Write(f.data)
	}
	var sum digest
	copy(sum[:], hasher.Sum(nil))
	return sum
}

func allFields() refdata.FieldSet {
	return refdata.Fields(refdata.AllFields...)
}
