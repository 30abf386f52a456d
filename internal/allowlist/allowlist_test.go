package allowlist

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/safari-cb-converter/internal/models"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "one per line", input: "example.org\nexample.com\n", want: []string{"example.org", "example.com"}},
		{name: "comments and blanks", input: "! comment\n\n# other\n  Example.ORG  \n", want: []string{"example.org"}},
		{name: "duplicates", input: "example.org\nwww.example.org\nexample.org", want: []string{"example.org"}},
		{name: "idn", input: "пример.рф", want: []string{"xn--e1afmkfd.xn--p1ai"}},
		{name: "invalid entries", input: "||example.org^\nexample.org/path\nok.com", want: []string{"ok.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New()
			assert.False(t, a.Loaded())

			require.NoError(t, a.Load(strings.NewReader(tt.input)))
			assert.True(t, a.Loaded())
			assert.Equal(t, tt.want, a.Domains())
		})
	}
}

func TestAddRemove(t *testing.T) {
	a := New()

	assert.True(t, a.Add("example.org"))
	assert.False(t, a.Add("EXAMPLE.org"))
	assert.True(t, a.Add("example.com"))
	assert.False(t, a.Add(""))
	assert.False(t, a.Add("bad domain"))
	assert.Equal(t, []string{"example.org", "example.com"}, a.Domains())

	assert.True(t, a.Remove("www.example.org"))
	assert.False(t, a.Remove("example.org"))
	assert.Equal(t, []string{"example.com"}, a.Domains())

	// Adding does not mark the list as loaded
	assert.False(t, a.Loaded())
}

func TestDomainsReturnsCopy(t *testing.T) {
	a := New()
	a.Add("example.org")

	domains := a.Domains()
	domains[0] = "changed"

	assert.Equal(t, []string{"example.org"}, a.Domains())
}

func TestLoadFileAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowlist.txt")
	require.NoError(t, os.WriteFile(path, []byte("example.org\n"), 0o644))

	a := New()
	assert.ErrorIs(t, a.Reload(), ErrNoFile)

	require.NoError(t, a.LoadFile(path))
	assert.Equal(t, []string{"example.org"}, a.Domains())

	a.Add("added.com")
	require.NoError(t, os.WriteFile(path, []byte("example.org\nexample.net\n"), 0o644))
	require.NoError(t, a.Reload())
	assert.Equal(t, []string{"example.org", "example.net"}, a.Domains())

	require.Error(t, New().LoadFile(filepath.Join(t.TempDir(), "missing.txt")))
}

func TestRules(t *testing.T) {
	a := New()
	a.Add("example.org")
	a.Add("пример.рф")

	rules := a.Rules()
	require.Len(t, rules, 2)

	for i, want := range []string{"example.org", "xn--e1afmkfd.xn--p1ai"} {
		rule, ok := rules[i].(*models.URLRule)
		require.True(t, ok)
		assert.Equal(t, RuleText(want), rule.RuleText())
		assert.True(t, rule.Whitelist)
		assert.True(t, rule.IsDocumentWhitelist())
	}
}

func TestConcurrentAccess(t *testing.T) {
	a := New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Add("example.org")
			_ = a.Domains()
			_ = a.Rules()
			a.Remove("example.org")
		}()
	}
	wg.Wait()

	assert.Empty(t, a.Domains())
}
