package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/svanhaverbeke/offerbuilder/model"
)

func TestFormatDutchDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"slash format", "15/03/2026", "15 maart 2026"},
		{"iso format", "2026-03-15", "15 maart 2026"},
		{"single digit day", "01/01/2026", "1 januari 2026"},
		{"december", "31/12/2025", "31 december 2025"},
		{"unparseable", "not-a-date", "not-a-date"},
		{"partial date", "15/03", "15/03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatDutchDate(tt.input)
			if got != tt.expected {
				t.Errorf("formatDutchDate(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatDutchDateEmpty(t *testing.T) {
	got := formatDutchDate("")
	now := time.Now()
	want := fmt.Sprintf("%d %s %d", now.Day(), dutchMonths[now.Month()-1], now.Year())
	if got != want {
		t.Errorf("formatDutchDate(\"\") = %q, want today %q", got, want)
	}
}

func TestAdvisorInitials(t *testing.T) {
	tests := []struct {
		name     string
		crm      model.CRMData
		expected string
	}{
		{"full name", model.CRMData{AdvisorName: "Jan van Dijk"}, "JVD"},
		{"single name", model.CRMData{AdvisorName: "Sofie"}, "S"},
		{"type fallback", model.CRMData{Type: "Maria Peeters"}, "MP"},
		{"no advisor", model.CRMData{}, "MP"},
		{"lowercase", model.CRMData{AdvisorName: "an de vries"}, "ADV"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := advisorInitials(&tt.crm)
			if got != tt.expected {
				t.Errorf("advisorInitials = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGenerateOfferNumber(t *testing.T) {
	crm := &model.CRMData{
		PotentieleKlant: "Acme & Co.",
		AdvisorName:     "Jan van Dijk",
	}
	training := &model.TrainingData{Title: "Leidinggeven (basis)"}

	number := generateOfferNumber(crm, training)

	parts := strings.Split(number, "/")
	if len(parts) != 4 {
		t.Fatalf("Expected 4 slash-separated parts, got %d: %q", len(parts), number)
	}
	if parts[0] != fmt.Sprintf("%d", time.Now().Year()) {
		t.Errorf("Expected year prefix, got %q", parts[0])
	}
	if len(parts[1]) != 3 {
		t.Errorf("Expected 3-digit sequence, got %q", parts[1])
	}
	if parts[2] != "JVD" {
		t.Errorf("Expected initials JVD, got %q", parts[2])
	}
	// Special characters are stripped from names
	if strings.ContainsAny(parts[3], "&().") {
		t.Errorf("Expected cleaned names, got %q", parts[3])
	}
	if !strings.Contains(parts[3], "Acme  Co") && !strings.Contains(parts[3], "Acme") {
		t.Errorf("Expected client name in last part, got %q", parts[3])
	}
}

func TestGenerateOfferNumberWithoutTraining(t *testing.T) {
	crm := &model.CRMData{PotentieleKlant: "Acme"}
	number := generateOfferNumber(crm, &model.TrainingData{})

	if !strings.HasSuffix(number, "/Acme") {
		t.Errorf("Expected number ending in client name only, got %q", number)
	}
}

func TestOfferFilename(t *testing.T) {
	got := offerFilename("2026/042/JVD/Acme Leidinggeven")
	want := "2026_042_JVD_Acme Leidinggeven.docx"
	if got != want {
		t.Errorf("offerFilename = %q, want %q", got, want)
	}
}

func TestBuildFieldMap(t *testing.T) {
	offer := &model.OfferContent{
		Introduction:       "Beste klant",
		TrainingObjectives: "Generated objectives",
		Investment:         "€ 1500 per dag",
	}
	crm := &model.CRMData{
		PotentieleKlant: "Acme",
		PrimaireContact: "Jan Peeters",
		DatumOfferte:    "15/03/2026",
		AdvisorName:     "Sofie Maes",
	}
	training := &model.TrainingData{
		Title:              "Leidinggeven",
		Duration:           "3 dagen",
		LearningObjectives: "Raw objectives",
		ProgramOutline:     "Raw outline",
	}
	intake := &model.IntakeData{NumberOfParticipants: 12}

	m := buildFieldMap("2026/001/SM/Acme", offer, crm, training, intake)

	checks := map[string]string{
		"reference_number":       "2026/001/SM/Acme",
		"referentie":             "2026/001/SM/Acme",
		"offer_date":             "15 maart 2026",
		"datum":                  "15 maart 2026",
		"client_name":            "Acme",
		"potentiele_klant":       "Acme",
		"primaire_contact":       "Jan Peeters",
		"advisor_name":           "Sofie Maes",
		"training_title":         "Leidinggeven",
		"training_duration":      "3 dagen",
		"training_objectives":    "Generated objectives",
		"program_outline":        "Raw outline",
		"number_of_participants": "12",
		"introduction":           "Beste klant",
		"investment":             "€ 1500 per dag",
	}
	for key, want := range checks {
		if got := m.Get(key); got != want {
			t.Errorf("field %q = %q, want %q", key, got, want)
		}
	}

	if len(m.Keys) != len(m.Values) {
		t.Errorf("Keys (%d) and Values (%d) out of sync", len(m.Keys), len(m.Values))
	}
}

func TestBuildFieldMapPrecedence(t *testing.T) {
	// Without generated content the raw training fields win
	m := buildFieldMap("ref", &model.OfferContent{}, &model.CRMData{},
		&model.TrainingData{LearningObjectives: "Raw", ProgramOutline: "Outline"},
		&model.IntakeData{})

	if got := m.Get("training_objectives"); got != "Raw" {
		t.Errorf("Expected raw objectives fallback, got %q", got)
	}
	if got := m.Get("program_outline"); got != "Outline" {
		t.Errorf("Expected raw outline fallback, got %q", got)
	}
	if got := m.Get("number_of_participants"); got != "" {
		t.Errorf("Expected empty participants for zero value, got %q", got)
	}
}
