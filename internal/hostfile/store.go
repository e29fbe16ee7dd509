// Package hostfile is the in-memory host: physical files in arrival
// sequence, optional key indexes and per-open cursors.
package hostfile

import (
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/S0me0neR0man/recaccess/internal/host"
)

// Store the tread safe set of host files
type Store struct {
	mu    sync.RWMutex
	files map[string]*File

	lookupSFG singleflight.Group

	tag   language.Tag
	sugar *zap.SugaredLogger
}

func NewStore(tag language.Tag, logger *zap.Logger) *Store {
	return &Store{
		files: make(map[string]*File),
		tag:   tag,
		sugar: logger.Sugar(),
	}
}

// Create adds an empty file.
func (s *Store) Create(spec FileSpec) (*File, error) {
	f, err := newFile(spec, s.tag, s.sugar.Desugar())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[spec.Name]; ok {
		return nil, host.NewError("file "+spec.Name+" already exists", host.CodeFileExists)
	}
	s.files[spec.Name] = f
	s.sugar.Infow("file created", "file", spec.Name, "keyed", spec.Keyed, "format", spec.Format.String())
	return f, nil
}

// Lookup returns the named file.
func (s *Store) Lookup(name string) (*File, error) {
	res, err, shared := s.lookupSFG.Do(name, func() (interface{}, error) {
		s.mu.RLock()
		defer s.mu.RUnlock()

		f, ok := s.files[name]
		if !ok {
			return nil, host.NewError("file "+name+" not found", host.CodeFileNotFound)
		}
		return f, nil
	})

	if err != nil {
		var he *host.Error
		if !errors.As(err, &he) || !he.Has(host.CodeFileNotFound) {
			s.sugar.Errorw("Lookup", "res", res, "err", err, "shared", shared)
		}
		return nil, err
	}
	return res.(*File), nil
}

// Open returns a new cursor on the named file, positioned before the first
// record.
func (s *Store) Open(name string, mode host.OpenMode, blockingFactor int, commitLockLevel int) (*Cursor, error) {
	f, err := s.Lookup(name)
	if err != nil {
		return nil, err
	}
	if blockingFactor < 1 {
		blockingFactor = 1
	}
	s.sugar.Debugw("open", "file", name, "mode", mode.String(), "blockingFactor", blockingFactor)
	return &Cursor{
		file:            f,
		mode:            mode,
		blockingFactor:  blockingFactor,
		commitLockLevel: commitLockLevel,
		at:              f.iterator(),
	}, nil
}

// Names lists the files in name order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
