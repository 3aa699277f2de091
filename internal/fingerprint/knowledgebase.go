package fingerprint

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed signatures.yaml
var defaultSignatures []byte

// KnowledgeBase holds the ordered platform signatures and the generic
// admin path list. It is read-only after construction.
type KnowledgeBase struct {
	platforms  []*Platform
	adminPaths []string
}

// fileFormat is the on-disk YAML layout.
type fileFormat struct {
	Platforms []struct {
		Name         string   `yaml:"name"`
		Paths        []string `yaml:"paths"`
		Fingerprints []string `yaml:"fingerprints"`
	} `yaml:"platforms"`
	AdminPaths []string `yaml:"admin_paths"`
}

// New builds a knowledge base from platforms in evaluation order.
func New(platforms []*Platform, adminPaths []string) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{
		platforms:  make([]*Platform, 0, len(platforms)),
		adminPaths: make([]string, 0, len(adminPaths)),
	}
	seen := make(map[string]struct{}, len(platforms))
	for _, p := range platforms {
		if _, dup := seen[p.Name()]; dup {
			return nil, fmt.Errorf("duplicate platform %q", p.Name())
		}
		seen[p.Name()] = struct{}{}
		kb.platforms = append(kb.platforms, p)
	}
	for _, path := range adminPaths {
		kb.adminPaths = append(kb.adminPaths, CleanPath(path))
	}
	return kb, nil
}

// Parse decodes a YAML knowledge base.
func Parse(data []byte) (*KnowledgeBase, error) {
	var ff fileFormat
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parsing signatures: %w", err)
	}

	platforms := make([]*Platform, 0, len(ff.Platforms))
	for i, entry := range ff.Platforms {
		p, err := NewPlatform(entry.Name, entry.Paths, entry.Fingerprints)
		if err != nil {
			return nil, fmt.Errorf("platform #%d: %w", i+1, err)
		}
		platforms = append(platforms, p)
	}
	return New(platforms, ff.AdminPaths)
}

// Load reads a YAML knowledge base from path.
func Load(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading signatures: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in knowledge base.
func Default() *KnowledgeBase {
	kb, err := Parse(defaultSignatures)
	if err != nil {
		panic(fmt.Sprintf("fingerprint: embedded signatures are invalid: %v", err))
	}
	return kb
}

// Platforms returns the platforms in evaluation order.
func (kb *KnowledgeBase) Platforms() []*Platform {
	return append([]*Platform(nil), kb.platforms...)
}

// Names returns the platform names in evaluation order.
func (kb *KnowledgeBase) Names() []string {
	names := make([]string, len(kb.platforms))
	for i, p := range kb.platforms {
		names[i] = p.Name()
	}
	return names
}

// AdminPaths returns a copy of the generic admin/login path list.
func (kb *KnowledgeBase) AdminPaths() []string {
	return append([]string(nil), kb.adminPaths...)
}
