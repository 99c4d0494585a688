package service

import (
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/svanhaverbeke/offerbuilder/model"
)

// FieldMap maps canonical template field names to display strings. Keys
// keeps insertion order so substitution and scratch building are
// deterministic.
type FieldMap struct {
	Keys   []string
	Values map[string]string
}

func (m *FieldMap) set(key, value string) {
	if _, ok := m.Values[key]; !ok {
		m.Keys = append(m.Keys, key)
	}
	m.Values[key] = value
}

// Get returns the display string for a canonical key, empty when unknown.
func (m *FieldMap) Get(key string) string {
	return m.Values[key]
}

var dutchMonths = [12]string{
	"januari", "februari", "maart", "april", "mei", "juni",
	"juli", "augustus", "september", "oktober", "november", "december",
}

// formatDutchDate renders a date as "D maandnaam YYYY". Accepts DD/MM/YYYY
// or YYYY-MM-DD; anything else passes through unchanged. An empty input
// formats today's date.
func formatDutchDate(dateStr string) string {
	if dateStr == "" {
		dateStr = time.Now().Format("02/01/2006")
	}

	t, err := time.Parse("02/01/2006", dateStr)
	if err != nil {
		t, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return dateStr
		}
	}

	return fmt.Sprintf("%d %s %d", t.Day(), dutchMonths[t.Month()-1], t.Year())
}

// advisorInitials derives uppercase word initials from the advisor name.
// CRM records sometimes carry the advisor in the type column, so that is
// the fallback source. No advisor at all yields "MP".
func advisorInitials(crm *model.CRMData) string {
	advisor := crm.AdvisorName
	if advisor == "" {
		advisor = crm.Type
	}
	if advisor == "" {
		return "MP"
	}

	var b strings.Builder
	for _, word := range strings.Fields(advisor) {
		r := []rune(word)
		b.WriteString(strings.ToUpper(string(r[0])))
	}
	if b.Len() == 0 {
		return "MP"
	}
	return b.String()
}

var nameCleaner = regexp.MustCompile(`[^\w\s-]`)

func cleanName(s string) string {
	return strings.TrimSpace(nameCleaner.ReplaceAllString(s, ""))
}

// generateOfferNumber builds a human-facing reference:
// {year}/{seq}/{initials}/{client}[ {training}]. The 3-digit sequence is
// pseudo-random, not a durable counter; collisions across restarts are
// accepted.
func generateOfferNumber(crm *model.CRMData, training *model.TrainingData) string {
	year := time.Now().Year()

	client := crm.PotentieleKlant
	if client == "" {
		client = "Client"
	}
	clientClean := cleanName(client)
	trainingClean := cleanName(training.Title)

	u := uuid.New()
	seq := fmt.Sprintf("%03d", binary.BigEndian.Uint32(u[0:4])%1000)

	initials := advisorInitials(crm)

	if trainingClean != "" {
		return fmt.Sprintf("%d/%s/%s/%s %s", year, seq, initials, clientClean, trainingClean)
	}
	return fmt.Sprintf("%d/%s/%s/%s", year, seq, initials, clientClean)
}

// offerFilename turns an offer number into a filesystem-safe .docx name.
func offerFilename(offerNumber string) string {
	return strings.ReplaceAll(offerNumber, "/", "_") + ".docx"
}

// buildFieldMap merges the four input records into the flat mapping
// consumed by substitution and scratch building. Narrative fields prefer
// generated offer content over the raw training record.
func buildFieldMap(offerNumber string, offer *model.OfferContent, crm *model.CRMData, training *model.TrainingData, intake *model.IntakeData) *FieldMap {
	offerDate := formatDutchDate(crm.DatumOfferte)

	advisorName := crm.AdvisorName
	if advisorName == "" {
		advisorName = crm.Type
	}

	objectives := offer.TrainingObjectives
	if objectives == "" {
		objectives = training.LearningObjectives
	}
	outline := offer.ProgramOverview
	if outline == "" {
		outline = training.ProgramOutline
	}

	participants := ""
	if intake.NumberOfParticipants != 0 {
		participants = strconv.Itoa(intake.NumberOfParticipants)
	}

	m := &FieldMap{Values: make(map[string]string)}

	// Reference and dates
	m.set("reference_number", offerNumber)
	m.set("referentie", offerNumber)
	m.set("offer_date", offerDate)
	m.set("datum_offerte", offerDate)
	m.set("datum", offerDate)

	// Client
	m.set("client_name", crm.PotentieleKlant)
	m.set("potentiele_klant", crm.PotentieleKlant)
	m.set("client_company_address", crm.ClientCompanyAddress)
	m.set("client_vat_number", crm.ClientVATNumber)
	m.set("primaire_contact", crm.PrimaireContact)
	m.set("extra_contact", crm.ExtraContact)

	// Advisor
	m.set("advisor_name", advisorName)
	m.set("advisor_phone", crm.AdvisorPhone)
	m.set("advisor_email", crm.AdvisorEmail)

	// Project manager
	m.set("project_manager_name", crm.ProjectManagerName)
	m.set("project_manager_phone", crm.ProjectManagerPhone)
	m.set("project_manager_email", crm.ProjectManagerEmail)

	// Training
	m.set("training_title", training.Title)
	m.set("training_duration", training.Duration)
	m.set("training_objectives", objectives)
	m.set("program_outline", outline)
	m.set("number_of_participants", participants)

	// Offer narrative
	m.set("introduction", offer.Introduction)
	m.set("practical_arrangements", offer.PracticalArrangements)
	m.set("investment", offer.Investment)
	m.set("next_steps", offer.NextSteps)

	return m
}
