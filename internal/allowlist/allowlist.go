// Package allowlist keeps the domains on which filtering is disabled and
// turns them into exception rules.
package allowlist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/bnema/safari-cb-converter/internal/models"
	"github.com/bnema/safari-cb-converter/internal/parser"
)

// ErrNoFile is returned by Reload when the allowlist was not loaded from a file
var ErrNoFile = errors.New("allowlist has no backing file")

// Allowlist is a set of domains exempt from filtering.
// It is safe for concurrent use.
type Allowlist struct {
	mu      sync.RWMutex
	domains []string // normalized, in insertion order
	path    string
	loaded  bool
}

// New creates an empty allowlist
func New() *Allowlist {
	return &Allowlist{}
}

// Load replaces the allowlist with the domains read from r, one per line.
// Blank lines and lines starting with '!' or '#' are ignored.
func (a *Allowlist) Load(r io.Reader) error {
	domains, err := readDomains(r)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.domains = domains
	a.loaded = true
	return nil
}

// LoadFile loads the allowlist from path and remembers it for Reload
func (a *Allowlist) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open allowlist: %w", err)
	}
	defer f.Close()

	if err := a.Load(f); err != nil {
		return fmt.Errorf("read allowlist %s: %w", path, err)
	}

	a.mu.Lock()
	a.path = path
	a.mu.Unlock()
	return nil
}

// Reload re-reads the file the allowlist was loaded from
func (a *Allowlist) Reload() error {
	a.mu.RLock()
	path := a.path
	a.mu.RUnlock()

	if path == "" {
		return ErrNoFile
	}
	return a.LoadFile(path)
}

// Loaded reports whether Load or LoadFile succeeded at least once
func (a *Allowlist) Loaded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loaded
}

// Add adds a domain. It returns false if the domain is invalid or
// already present.
func (a *Allowlist) Add(domain string) bool {
	d, ok := normalize(domain)
	if !ok {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if slices.Contains(a.domains, d) {
		return false
	}
	a.domains = append(a.domains, d)
	return true
}

// Remove removes a domain. It returns false if the domain was not present.
func (a *Allowlist) Remove(domain string) bool {
	d, ok := normalize(domain)
	if !ok {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	i := slices.Index(a.domains, d)
	if i < 0 {
		return false
	}
	a.domains = slices.Delete(a.domains, i, i+1)
	return true
}

// Domains returns a copy of the allowlisted domains
func (a *Allowlist) Domains() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.domains)
}

// Rules returns one "@@//domain$document" exception per domain
func (a *Allowlist) Rules() []models.Rule {
	domains := a.Domains()

	rules := make([]models.Rule, 0, len(domains))
	for _, d := range domains {
		rule, err := parser.Parse(RuleText(d))
		if err != nil || rule == nil {
			continue
		}
		rules = append(rules, rule)
	}
	return rules
}

// RuleText returns the exception rule disabling filtering on domain
func RuleText(domain string) string {
	return "@@//" + domain + "$document"
}

func readDomains(r io.Reader) ([]string, error) {
	var domains []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "!") || strings.HasPrefix(line, "#") {
			continue
		}
		d, ok := normalize(line)
		if !ok || slices.Contains(domains, d) {
			continue
		}
		domains = append(domains, d)
	}

	return domains, scanner.Err()
}

// normalize returns the lower-case punycode form of a host name
func normalize(domain string) (string, bool) {
	d := parser.ToPunycode(domain)
	d = strings.TrimPrefix(d, "www.")
	if d == "" || strings.ContainsAny(d, " /$^|*") {
		return "", false
	}
	return d, true
}
