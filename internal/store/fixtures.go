package store

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/property-admin-console/internal/model"
)

// Fixtures is the YAML seed document loaded at service start.
type Fixtures struct {
	Properties []model.Property     `yaml:"properties"`
	Gallery    []model.GalleryImage `yaml:"gallery"`
	Comments   []model.Comment      `yaml:"comments"`
}

// LoadFixtures reads a YAML fixtures file into s.
func (s *Store) LoadFixtures(path string) (Fixtures, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Fixtures{}, fmt.Errorf("read fixtures %s: %w", path, err)
	}
	return s.ApplyFixtures(b)
}

// ApplyFixtures parses a YAML fixtures document and stores its records.
// Gallery images and comments without an id get a fresh one.
func (s *Store) ApplyFixtures(doc []byte) (Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(doc, &fx); err != nil {
		return Fixtures{}, fmt.Errorf("parse fixtures: %w", err)
	}
	for _, p := range fx.Properties {
		if p.ID == "" {
			return Fixtures{}, fmt.Errorf("fixture property %q has no id", p.Name)
		}
		if p.Status == "" {
			p.Status = model.StatusActive
		}
		s.Put(p)
	}
	byProperty := map[string][]model.GalleryImage{}
	var order []string
	for _, g := range fx.Gallery {
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		if _, seen := byProperty[g.PropertyID]; !seen {
			order = append(order, g.PropertyID)
		}
		byProperty[g.PropertyID] = append(byProperty[g.PropertyID], g)
	}
	for _, pid := range order {
		if _, err := s.AddGalleryImages(pid, byProperty[pid]); err != nil {
			return Fixtures{}, fmt.Errorf("fixture gallery for %s: %w", pid, err)
		}
	}
	for _, c := range fx.Comments {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		s.AddComment(c)
	}
	return fx, nil
}
