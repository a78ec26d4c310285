package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/recertify/internal/config"
)

func TestNormalize(t *testing.T) {
	n := Default()

	tests := []struct {
		name            string
		input           string
		removeStopWords bool
		want            string
	}{
		{"empty", "", false, ""},
		{"accents and case", "Développeur Sénior", false, "developpeur senior"},
		{"punctuation and spacing", "  Chef-de   projet (IT) ", false, "chef de projet informatique"},
		{"stop words removed", "Chef de projet", true, "chef projet"},
		{"abbreviation with dot", "Resp. Comptabilité", false, "responsable comptabilite"},
		{"multi-word expansion", "RH", false, "ressources humaines"},
		{"ligature", "Cœur d'Œuvre", false, "coeur d oeuvre"},
		{"digits kept", "Niveau 2", false, "niveau 2"},
		{"only punctuation", "--//--", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.input, tt.removeStopWords))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := Default()
	for _, input := range []string{"Resp. RH & SI", "Dév. senior", "Adj. Dir. Comptabilité", "Assistant(e)"} {
		once := n.Normalize(input, false)
		assert.Equal(t, once, n.Normalize(once, false), input)
	}
}

func TestWords(t *testing.T) {
	n := Default()
	assert.Nil(t, n.Words("", true))
	assert.Equal(t, []string{"responsable", "systemes", "information"}, n.Words("Resp SI", false))
	assert.Equal(t, []string{"directeur", "ventes"}, n.Words("Dir. des ventes", true))
}

func TestNew_CustomVocabulary(t *testing.T) {
	n := New(config.Vocabulary{
		Abbreviations: map[string]string{"mgr": "manager"},
		StopWords:     []string{"of"},
	})

	assert.Equal(t, "manager sales", n.Normalize("Mgr of Sales", true))
	assert.Equal(t, "resp", n.Normalize("Resp.", false))
}

func TestKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Date d'extraction", "date_d_extraction"},
		{" Last Login ", "last_login"},
		{"USER_ID", "user_id"},
		{"Département", "departement"},
		{"Resp", "resp"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.input))
		})
	}
}
