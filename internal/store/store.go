// Package store keeps the property service's records in memory: properties,
// their gallery images, visitor comments and uploaded image blobs.
package store

import (
	"errors"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fairyhunter13/property-admin-console/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrStale reports a write whose sequence is not newer than the last one
	// applied to the same property.
	ErrStale = errors.New("stale write")
)

type propertyState struct {
	p            model.Property
	lastSequence uint64
}

type Store struct {
	seq atomic.Uint64
	now func() time.Time

	mu         sync.RWMutex
	properties map[string]propertyState
	gallery    map[string][]model.GalleryImage
	comments   []model.Comment
	blobs      map[string]Blob
}

// Blob is an uploaded image.
type Blob struct {
	ContentType string
	Data        []byte
}

func New() *Store {
	return &Store{
		now:        time.Now,
		properties: make(map[string]propertyState),
		gallery:    make(map[string][]model.GalleryImage),
		blobs:      make(map[string]Blob),
	}
}

// NextSequence returns the next write sequence number.
func (s *Store) NextSequence() uint64 { return s.seq.Add(1) }

func (s *Store) Get(id string) (model.Property, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.properties[id]
	if !ok {
		return model.Property{}, false
	}
	return st.p.Clone(), true
}

// Put inserts or replaces a property record (fixtures and tests).
func (s *Store) Put(p model.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties[p.ID] = propertyState{p: p.Clone(), lastSequence: s.NextSequence()}
}

// Update applies fn to the property under the given write sequence. Writes
// older than (or equal to) the last applied sequence are rejected, so the
// newest write wins regardless of arrival order.
func (s *Store) Update(id string, seq uint64, fn func(*model.Property)) (model.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.properties[id]
	if !ok {
		return model.Property{}, ErrNotFound
	}
	if seq <= st.lastSequence {
		return st.p.Clone(), ErrStale
	}
	p := st.p.Clone()
	fn(&p)
	p.ID = id
	p.UpdatedAt = s.now().UTC().Format(time.RFC3339)
	s.properties[id] = propertyState{p: p, lastSequence: seq}
	return p.Clone(), nil
}

// Gallery returns a property's gallery ordered by position, then creation.
func (s *Store) Gallery(propertyID string) ([]model.GalleryImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.properties[propertyID]; !ok {
		return nil, ErrNotFound
	}
	out := slices.Clone(s.gallery[propertyID])
	sortGallery(out)
	if out == nil {
		out = []model.GalleryImage{}
	}
	return out, nil
}

func sortGallery(imgs []model.GalleryImage) {
	sort.SliceStable(imgs, func(i, j int) bool {
		if imgs[i].Position != imgs[j].Position {
			return imgs[i].Position < imgs[j].Position
		}
		return imgs[i].CreatedAt.Before(imgs[j].CreatedAt)
	})
}

// AddGalleryImages appends images after the current last position.
func (s *Store) AddGalleryImages(propertyID string, imgs []model.GalleryImage) ([]model.GalleryImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.properties[propertyID]; !ok {
		return nil, ErrNotFound
	}
	cur := s.gallery[propertyID]
	next := 0
	for _, g := range cur {
		if g.Position >= next {
			next = g.Position + 1
		}
	}
	added := make([]model.GalleryImage, 0, len(imgs))
	for _, img := range imgs {
		img.PropertyID = propertyID
		img.Position = next
		if img.CreatedAt.IsZero() {
			img.CreatedAt = s.now().UTC()
		}
		next++
		cur = append(cur, img)
		added = append(added, img)
	}
	s.gallery[propertyID] = cur
	return added, nil
}

func (s *Store) findImageLocked(imageID string) (string, int) {
	for pid, imgs := range s.gallery {
		for i, g := range imgs {
			if g.ID == imageID {
				return pid, i
			}
		}
	}
	return "", -1
}

// UpdateGalleryImage applies a patch to one gallery image.
func (s *Store) UpdateGalleryImage(imageID string, patch model.GalleryImagePatch) (model.GalleryImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pid, i := s.findImageLocked(imageID)
	if i < 0 {
		return model.GalleryImage{}, ErrNotFound
	}
	img := s.gallery[pid][i]
	if patch.Caption != nil {
		img.Caption = *patch.Caption
	}
	if patch.Category != nil {
		img.Category = *patch.Category
	}
	if patch.Position != nil {
		img.Position = *patch.Position
	}
	s.gallery[pid][i] = img
	return img, nil
}

// DeleteGalleryImage removes one gallery image and its blob.
func (s *Store) DeleteGalleryImage(imageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pid, i := s.findImageLocked(imageID)
	if i < 0 {
		return ErrNotFound
	}
	imgs := s.gallery[pid]
	delete(s.blobs, imgs[i].URL)
	s.gallery[pid] = slices.Delete(slices.Clone(imgs), i, i+1)
	return nil
}

// AddComment stores a comment.
func (s *Store) AddComment(c model.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
	}
	s.comments = append(s.comments, c)
}

// Comments returns matching comments, newest first. Empty filter fields
// match everything.
func (s *Store) Comments(f model.CommentFilter) []model.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Comment{}
	for _, c := range s.comments {
		if f.PropertyID != "" && c.PropertyID != f.PropertyID {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// PutBlob stores an uploaded image under path.
func (s *Store) PutBlob(path string, b Blob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[path] = b
}

// Blob returns an uploaded image.
func (s *Store) Blob(path string) (Blob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[path]
	return b, ok
}
