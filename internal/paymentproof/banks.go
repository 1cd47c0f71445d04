package paymentproof

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed banks.yaml
var defaultBanksYAML []byte

// Bank is a recognised institution and the spellings it appears under.
type Bank struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

type bankFile struct {
	Banks []Bank `yaml:"banks"`
}

// BankMatcher finds the first known bank mentioned in a text.
type BankMatcher struct {
	banks    []Bank
	patterns []*regexp.Regexp
}

// ParseBanks builds a matcher from a YAML bank list.
func ParseBanks(data []byte) (*BankMatcher, error) {
	var file bankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse bank list: %w", err)
	}
	if len(file.Banks) == 0 {
		return nil, fmt.Errorf("bank list is empty")
	}

	m := &BankMatcher{}
	for _, bank := range file.Banks {
		if strings.TrimSpace(bank.Name) == "" {
			return nil, fmt.Errorf("bank entry without a name")
		}
		aliases := append([]string{bank.Name}, bank.Aliases...)
		quoted := make([]string, 0, len(aliases))
		for _, alias := range aliases {
			alias = strings.TrimSpace(alias)
			if alias != "" {
				quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(alias)))
			}
		}
		pattern, err := regexp.Compile(`(?i)(?:^|[^\pL\pN])(?:` + strings.Join(quoted, "|") + `)(?:$|[^\pL\pN])`)
		if err != nil {
			return nil, fmt.Errorf("compile aliases for %s: %w", bank.Name, err)
		}
		m.banks = append(m.banks, bank)
		m.patterns = append(m.patterns, pattern)
	}
	return m, nil
}

// DefaultBanks returns the matcher for the embedded bank list.
func DefaultBanks() *BankMatcher {
	m, err := ParseBanks(defaultBanksYAML)
	if err != nil {
		panic(err)
	}
	return m
}

// Find returns the name of the earliest mentioned bank.
func (m *BankMatcher) Find(text string) (string, bool) {
	best, bestAt := -1, -1
	for i, pattern := range m.patterns {
		loc := pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if bestAt == -1 || loc[0] < bestAt {
			best, bestAt = i, loc[0]
		}
	}
	if best == -1 {
		return "", false
	}
	return m.banks[best].Name, true
}
