package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTopSongs(t *testing.T) {
	tests := []struct {
		name string
		text string
		k    int
		want []string
	}{
		{
			name: "json list",
			text: `["Clocks - Coldplay", "Yellow by Coldplay", "clocks"]`,
			k:    5,
			want: []string{"Clocks", "Yellow"},
		},
		{
			name: "json object",
			text: `{"recommendations": [{"title": "Hey Jude", "artist": "The Beatles"}, "Let It Be"]}`,
			k:    5,
			want: []string{"Hey Jude", "Let It Be"},
		},
		{
			name: "numbered list",
			text: "Here are my picks:\n\n1. \"Bohemian Rhapsody\" - Queen (1975)\n2) Imagine by John Lennon\n3: Hotel California – Eagles\n   - Similar tempo and key",
			k:    5,
			want: []string{"Bohemian Rhapsody", "Imagine", "Hotel California", "Similar tempo and key"},
		},
		{
			name: "limit applied",
			text: "1. One\n2. Two\n3. Three",
			k:    2,
			want: []string{"One", "Two"},
		},
		{
			name: "quoted titles",
			text: "\"Wonderwall\" — Oasis\n“Creep” - Radiohead",
			k:    5,
			want: []string{"Wonderwall", "Creep"},
		},
		{
			name: "separator lines",
			text: "Song suggestions\nTake On Me - a-ha\nSmooth by Santana",
			k:    5,
			want: []string{"Take On Me", "Smooth"},
		},
		{
			name: "year stripped and duplicates removed",
			text: "1. Africa (1982)\n2. africa\n3. Rosanna (1982)",
			k:    5,
			want: []string{"Africa", "Rosanna"},
		},
		{
			name: "last resort skips headings",
			text: "Music Recommendations for x\nAnalysis of tempo\nSome Song Title\nAnother",
			k:    5,
			want: []string{"Some Song Title"},
		},
		{
			name: "empty",
			text: "",
			k:    5,
			want: []string{},
		},
		{
			name: "zero k",
			text: "1. One",
			k:    0,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTopSongs(tt.text, tt.k))
		})
	}
}

func TestSplitTitleArtist(t *testing.T) {
	tests := map[string]string{
		`"Hey Jude" - The Beatles`: "Hey Jude",
		"Imagine by John Lennon":   "Imagine",
		"‘Creep’":                  "Creep",
		"  Plain Title ":           "Plain Title",
	}
	for in, want := range tests {
		assert.Equal(t, want, splitTitleArtist(in), in)
	}
}
