// Package ingest loads the application extraction and the HR reference from
// CSV files and joins them into account records.
package ingest

import (
	"maps"
	"slices"

	"github.com/Veraticus/recertify/internal/similarity"
	"github.com/Veraticus/recertify/internal/textnorm"
)

// Canonical column names.
const (
	ColumnID             = "user_id"
	ColumnName           = "full_name"
	ColumnFirstName      = "first_name"
	ColumnLastName       = "last_name"
	ColumnProfile        = "profile"
	ColumnDepartment     = "department"
	ColumnLastLogin      = "last_login"
	ColumnStatus         = "status"
	ColumnExtractionDate = "extraction_date"
)

// DefaultColumnMatchThreshold is the ratio a header must reach to be mapped
// to an alias it does not match exactly.
const DefaultColumnMatchThreshold = 85.0

// minFuzzyKeyLength keeps short codes such as "SS" or "LIB" out of fuzzy matching.
const minFuzzyKeyLength = 4

// DefaultAliases lists the headers known to carry each canonical column.
func DefaultAliases() map[string][]string {
	return map[string][]string{
		ColumnID: {
			"Identifiant", "Identifiant Local", "CODE_UTILISATEUR", "CUTI", "UTICOD",
			"Code utilisateur", "Identifiant utilisateur", "User ID", "Login",
		},
		ColumnName: {
			"NomComplet", "Nom et Prénoms", "Nom de Famille", "Prénom(s)", "NOM_UTILISATEUR",
			"LIB", "Nom et Prénoms utilisateur", "Nom et Prénom", "NOMU", "UTINOM", "Name",
		},
		ColumnFirstName: {"Prénom", "First name"},
		ColumnLastName:  {"Nom", "Last name"},
		ColumnProfile: {
			"Profil utilisateur", "Intitulé du poste", "PROFIL", "LPUTI", "LPRO", "PROFCOD",
			"position", "Intitule de poste", "profil",
		},
		ColumnDepartment: {
			"LBSER", "Direction", "LSER", "Libelle service", "LIBELLE SERVICE", "Service",
		},
		ColumnLastLogin: {
			"DateDerniereModif", "DATE_DERNIÈRE_CONNEXION", "date_de_derniere_connexion",
			"DATE DE DERNIERE CONNEXION", "Last login",
		},
		ColumnStatus: {
			"ACTI", "ACTIF", "Statut du compte Suspendu", "SUS", "SUSP", "SUSPENDU", "SS",
		},
		ColumnExtractionDate: {"DATE_EXTRACTION", "Date extraction"},
	}
}

// ColumnMapper maps spreadsheet headers to canonical column names.
type ColumnMapper struct {
	metric    similarity.Metric
	aliases   map[string]string
	keys      []string
	threshold float64
}

// NewColumnMapper builds a mapper from an alias table. Each canonical name is
// also an alias of itself.
func NewColumnMapper(aliases map[string][]string, metric similarity.Metric, threshold float64) *ColumnMapper {
	if metric == nil {
		metric = similarity.IndelRatio{}
	}
	m := &ColumnMapper{
		metric:    metric,
		aliases:   make(map[string]string),
		threshold: threshold,
	}
	add := func(alias, canonical string) {
		key := textnorm.Key(alias)
		if _, ok := m.aliases[key]; ok {
			return
		}
		m.aliases[key] = canonical
		m.keys = append(m.keys, key)
	}
	for _, canonical := range slices.Sorted(maps.Keys(aliases)) {
		add(canonical, canonical)
		for _, v := range aliases[canonical] {
			add(v, canonical)
		}
	}
	return m
}

// DefaultColumnMapper returns a mapper over DefaultAliases.
func DefaultColumnMapper() *ColumnMapper {
	return NewColumnMapper(DefaultAliases(), similarity.IndelRatio{}, DefaultColumnMatchThreshold)
}

// Map returns the index of every canonical column found in header. Exact
// alias matches are resolved first; remaining headers are matched to the
// closest alias when it scores at least the threshold. When two headers map
// to the same column the leftmost wins.
func (m *ColumnMapper) Map(header []string) map[string]int {
	cols := make(map[string]int)
	unmatched := make([]int, 0, len(header))

	for i, h := range header {
		canonical, ok := m.aliases[textnorm.Key(h)]
		if !ok {
			unmatched = append(unmatched, i)
			continue
		}
		if _, taken := cols[canonical]; !taken {
			cols[canonical] = i
		}
	}

	for _, i := range unmatched {
		key := textnorm.Key(header[i])
		if len(key) < minFuzzyKeyLength {
			continue
		}
		best, bestRatio := "", 0.0
		for _, alias := range m.keys {
			if len(alias) < minFuzzyKeyLength {
				continue
			}
			if r := m.metric.Ratio(key, alias); r > bestRatio {
				best, bestRatio = alias, r
			}
		}
		if bestRatio < m.threshold {
			continue
		}
		canonical := m.aliases[best]
		if _, taken := cols[canonical]; !taken {
			cols[canonical] = i
		}
	}
	return cols
}
