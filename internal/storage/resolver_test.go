package storage

import (
	"testing"
)

func TestPathResolver_ImageURL(t *testing.T) {
	r := NewPathResolver("https://cdn.example.com/bank/")

	tests := []struct {
		name string
		key  ImageKey
		want string
	}{
		{
			"full key",
			ImageKey{Exam: "CET", Standard: "11th", Subject: "Biology", ChapterFolder: "Plant_Kingdom", Filename: "fig1.png"},
			"https://cdn.example.com/bank/CET/11th/Biology/Plant_Kingdom/fig1.png",
		},
		{
			"escapes spaces",
			ImageKey{Exam: "MHT CET", Filename: "a b.png"},
			"https://cdn.example.com/bank/MHT%20CET/a%20b.png",
		},
		{
			"absolute filename passes through",
			ImageKey{Exam: "CET", Filename: "https://img.example.org/x.png"},
			"https://img.example.org/x.png",
		},
		{"empty filename", ImageKey{Exam: "CET"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ImageURL(tt.key); got != tt.want {
				t.Errorf("ImageURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChapterFolder(t *testing.T) {
	tests := map[string]string{
		"Plant Kingdom":          "Plant_Kingdom",
		"  Cell: Structure  ":    "Cell_Structure",
		"Laws-of-Motion":         "Laws-of-Motion",
		"Electro/Magnetism (II)": "Electro_Magnetism_II",
		"":                       "",
	}
	for in, want := range tests {
		if got := ChapterFolder(in); got != want {
			t.Errorf("ChapterFolder(%q) = %q, want %q", in, got, want)
		}
	}
}
