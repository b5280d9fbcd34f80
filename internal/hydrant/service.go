package hydrant

import (
	"errors"
	"fmt"
	"time"
)

// Service owns the versioned state of the hydrant inventory: the live
// collection, the dated snapshots, their rotation and restore.
//
// Service holds no cached state. Settings and documents are read from the
// DocumentStore on every call so that edits made by an administrator take
// effect immediately.
type Service struct {
	store  DocumentStore
	assets AssetTree
	logger Logger
	clock  Clock
	idgen  IDGenerator
	loc    *time.Location
}

// NewService creates a Service. assets may be nil, in which case snapshots
// cannot include an image archive. loc is the location whose calendar
// defines "today" for snapshot dates; nil means time.Local.
func NewService(store DocumentStore, assets AssetTree, logger Logger, clock Clock, idgen IDGenerator, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		store:  store,
		assets: assets,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
		loc:    loc,
	}
}

// Store returns the document store the service writes through.
func (s *Service) Store() DocumentStore {
	return s.store
}

func (s *Service) now() time.Time {
	return s.clock.Now().In(s.loc)
}

// Today returns the current calendar date in YYYY-MM-DD form.
func (s *Service) Today() string {
	return s.now().Format(dateLayout)
}

// readCollection reads the live collection. A missing file is an empty
// collection; a corrupt file is an error.
func (s *Service) readCollection() (*Collection, error) {
	var coll Collection
	if err := s.store.Read(DocHydrants, &coll); err != nil {
		if errors.Is(err, ErrNotFound) {
			return &Collection{Version: DefaultCollectionVersion, Hydrants: []Hydrant{}}, nil
		}
		return nil, fmt.Errorf("reading live collection: %w", err)
	}
	if coll.Version == "" {
		coll.Version = DefaultCollectionVersion
	}
	if coll.Hydrants == nil {
		coll.Hydrants = []Hydrant{}
	}
	return &coll, nil
}

func (s *Service) writeCollection(coll *Collection) error {
	now := s.now()
	coll.LastUpdated = &now
	if err := s.store.Write(DocHydrants, coll); err != nil {
		return fmt.Errorf("writing live collection: %w", err)
	}
	return nil
}
