package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/recertify/internal/common"
)

// Vocabulary holds the word lists used to normalize and compare labels.
type Vocabulary struct {
	Abbreviations map[string]string `yaml:"abbreviations"`
	StopWords     []string          `yaml:"stop_words"`
	RoleKeywords  []string          `yaml:"role_keywords"`
}

// DefaultVocabulary returns the built-in French HR vocabulary.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		StopWords: []string{
			"de", "le", "la", "les", "du", "des", "un", "une", "et", "ou", "a", "au", "aux",
			"en", "sur", "pour", "dans", "par", "avec", "sans", "sous",
		},
		Abbreviations: map[string]string{
			"resp":   "responsable",
			"dir":    "directeur",
			"adj":    "adjoint",
			"asst":   "assistant",
			"admin":  "administrateur",
			"dev":    "developpeur",
			"ing":    "ingenieur",
			"tech":   "technicien",
			"compta": "comptable",
			"rh":     "ressources humaines",
			"si":     "systemes information",
			"it":     "informatique",
		},
		RoleKeywords: []string{
			"chef", "responsable", "directeur", "manager", "coordinateur", "pilote",
			"developpeur", "analyste", "ingenieur", "technicien", "architecte",
			"assistant", "secretaire", "gestionnaire", "administrateur",
			"comptable", "auditeur", "controleur", "consultant",
			"commercial", "vendeur", "acheteur", "approvisionneur",
		},
	}
}

// LoadVocabulary reads a YAML vocabulary file. Sections missing from the file
// keep their default values.
func LoadVocabulary(path string) (Vocabulary, error) {
	vocab := DefaultVocabulary()
	if path == "" {
		return vocab, nil
	}

	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Vocabulary{}, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	var override Vocabulary
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to parse vocabulary file %s: %w", path, err)
	}

	if override.StopWords != nil {
		vocab.StopWords = override.StopWords
	}
	if override.Abbreviations != nil {
		vocab.Abbreviations = override.Abbreviations
	}
	if override.RoleKeywords != nil {
		vocab.RoleKeywords = override.RoleKeywords
	}

	if err := vocab.Validate(); err != nil {
		return Vocabulary{}, err
	}
	return vocab, nil
}

// Validate checks that every entry is a single lower-case ASCII word and that
// no expansion reintroduces an abbreviation, which would break idempotent
// normalization.
func (v Vocabulary) Validate() error {
	var problems []string

	for _, w := range v.StopWords {
		if !isPlainWord(w) {
			problems = append(problems, fmt.Sprintf("stop word %q", w))
		}
	}
	for _, w := range v.RoleKeywords {
		if !isPlainWord(w) {
			problems = append(problems, fmt.Sprintf("role keyword %q", w))
		}
	}

	abbrs := make([]string, 0, len(v.Abbreviations))
	for abbr := range v.Abbreviations {
		abbrs = append(abbrs, abbr)
	}
	sort.Strings(abbrs)

	for _, abbr := range abbrs {
		expansion := v.Abbreviations[abbr]
		if !isPlainWord(abbr) {
			problems = append(problems, fmt.Sprintf("abbreviation %q", abbr))
			continue
		}
		words := strings.Fields(expansion)
		if len(words) == 0 {
			problems = append(problems, fmt.Sprintf("empty expansion for %q", abbr))
		}
		for _, w := range words {
			if !isPlainWord(w) {
				problems = append(problems, fmt.Sprintf("expansion %q of %q", expansion, abbr))
				break
			}
			if _, ok := v.Abbreviations[w]; ok {
				problems = append(problems, fmt.Sprintf("expansion of %q contains abbreviation %q", abbr, w))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: vocabulary: %s", common.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func isPlainWord(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
