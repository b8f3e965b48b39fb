package venue

import (
	"fmt"
	"strings"
)

// Profile describes a venue and the fallbacks used when a source omits a field
type Profile struct {
	ID              string   `yaml:"id" json:"id"`
	DisplayName     string   `yaml:"name" json:"name"`
	DefaultLocation string   `yaml:"location" json:"location"`
	BaseURL         string   `yaml:"base_url" json:"base_url"`
	FileKeywords    []string `yaml:"file_keywords,omitempty" json:"file_keywords,omitempty"`
}

// Registry resolves venue ids to profiles
type Registry struct {
	order    []string
	profiles map[string]Profile
}

// NewRegistry builds a registry from profiles, rejecting blank and duplicate ids
func NewRegistry(profiles []Profile) (*Registry, error) {
	r := &Registry{
		order:    make([]string, 0, len(profiles)),
		profiles: make(map[string]Profile, len(profiles)),
	}

	for _, p := range profiles {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, fmt.Errorf("venue %q has no id", p.DisplayName)
		}
		if _, exists := r.profiles[id]; exists {
			return nil, fmt.Errorf("duplicate venue id: %s", id)
		}
		p.ID = id
		if p.DisplayName == "" {
			p.DisplayName = id
		}
		r.order = append(r.order, id)
		r.profiles[id] = p
	}

	return r, nil
}

// Get returns the profile for id
func (r *Registry) Get(id string) (Profile, bool) {
	p, ok := r.profiles[id]
	return p, ok
}

// All returns profiles in configuration order
func (r *Registry) All() []Profile {
	out := make([]Profile, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.profiles[id])
	}
	return out
}

// IDs returns venue ids in configuration order
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered venues
func (r *Registry) Len() int {
	return len(r.order)
}

// MatchFilename returns the first venue whose keywords appear in name.
// Matching is case-insensitive; venues without keywords match on their id.
func (r *Registry) MatchFilename(name string) (Profile, bool) {
	lower := strings.ToLower(name)
	for _, id := range r.order {
		p := r.profiles[id]
		keywords := p.FileKeywords
		if len(keywords) == 0 {
			keywords = []string{p.ID}
		}
		for _, kw := range keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				return p, true
			}
		}
	}
	return Profile{}, false
}

// IsSelfReference reports whether text merely names the venue itself
func (p Profile) IsSelfReference(text string) bool {
	text = strings.TrimSpace(text)
	return strings.EqualFold(text, p.DisplayName) || strings.EqualFold(text, p.ID)
}
