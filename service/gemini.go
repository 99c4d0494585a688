package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/svanhaverbeke/offerbuilder/config"
	"github.com/svanhaverbeke/offerbuilder/model"
)

// GeminiService talks to the Gemini generateContent REST API.
type GeminiService struct {
	config     *config.Gemini
	httpClient *http.Client
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewGeminiService(cfg *config.Gemini) *GeminiService {
	return &GeminiService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// generate sends one prompt and returns the first candidate's text.
func (s *GeminiService) generate(prompt string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimSuffix(s.config.Endpoint, "/"), s.config.Model, s.config.APIKey)

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var result geminiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}

	if result.Error != nil {
		return "", fmt.Errorf("gemini API error %d: %s", result.Error.Code, result.Error.Message)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}

// stripFences removes a ```json / ``` code fence wrapper if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[7:]
	} else if strings.HasPrefix(s, "```") {
		s = s[3:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// GenerateOfferContent asks for the six Dutch narrative sections of an
// offer. Callers substitute FallbackOfferContent on error so the
// assembly engine always receives a full section set.
func (s *GeminiService) GenerateOfferContent(crm *model.CRMData, training *model.TrainingData, intake *model.IntakeData) (*model.OfferContent, error) {
	prompt := buildOfferPrompt(crm, training, intake)

	text, err := s.generate(prompt)
	if err != nil {
		return nil, err
	}

	var content model.OfferContent
	if err := json.Unmarshal([]byte(stripFences(text)), &content); err != nil {
		return nil, fmt.Errorf("failed to parse offer content: %w", err)
	}

	return &content, nil
}

// FallbackOfferContent is the fixed section set used when generation
// fails.
func FallbackOfferContent(crm *model.CRMData, training *model.TrainingData, intake *model.IntakeData) *model.OfferContent {
	client := crm.PotentieleKlant
	if client == "" {
		client = "Geachte klant"
	}
	trainingTitle := training.Title
	if trainingTitle == "" {
		trainingTitle = "de gevraagde opleiding"
	}
	participants := "uw medewerkers"
	if intake.NumberOfParticipants > 0 {
		participants = strconv.Itoa(intake.NumberOfParticipants) + " deelnemers"
	}

	return &model.OfferContent{
		Introduction:          fmt.Sprintf("Beste %s,\n\nBedankt voor uw interesse in onze opleidingen. Wij bieden u graag een offerte aan voor %s.", client, trainingTitle),
		TrainingObjectives:    "De opleiding is gericht op praktijkgerichte vaardigheden en directe toepasbaarheid in uw bedrijfscontext.",
		ProgramOverview:       "Het programma bestaat uit verschillende modules die systematisch opgebouwd zijn en aansluiten bij de behoeften van uw organisatie.",
		PracticalArrangements: fmt.Sprintf("De opleiding wordt verzorgd voor %s en kan zowel in-company als op onze locatie plaatsvinden.", participants),
		Investment:            "Wij bieden u een concurrerend tarief inclusief alle materialen en begeleiding.",
		NextSteps:             "Graag bespreken wij deze offerte verder met u. Neem contact op voor een vrijblijvend gesprek.",
	}
}

const maxExtractionRunes = 50000

// ExtractTrainingData extracts structured training fields from raw
// document text.
func (s *GeminiService) ExtractTrainingData(content, sourceType string) (*model.TrainingData, error) {
	if runes := []rune(content); len(runes) > maxExtractionRunes {
		content = string(runes[:maxExtractionRunes])
		slog.Warn("extraction content truncated", "limit", maxExtractionRunes)
	}

	prompt := buildExtractionPrompt(content, sourceType)

	text, err := s.generate(prompt)
	if err != nil {
		return nil, err
	}

	var training model.TrainingData
	if err := json.Unmarshal([]byte(stripFences(text)), &training); err != nil {
		return nil, fmt.Errorf("failed to parse training data: %w", err)
	}

	return &training, nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func buildOfferPrompt(crm *model.CRMData, training *model.TrainingData, intake *model.IntakeData) string {
	participants := "N/A"
	if intake.NumberOfParticipants > 0 {
		participants = strconv.Itoa(intake.NumberOfParticipants)
	}
	location := crm.PotentieleKlant
	if location == "" {
		location = "de klant"
	}

	return fmt.Sprintf(`Je bent een expert offertewriter voor Syntra Bizz, gespecialiseerd in bedrijfsopleidingen en coaching.

Creëer een professionele, gepersonaliseerde offerte op basis van onderstaande gegevens:

CRM GEGEVENS:
- Onderwerp: %s
- Klant: %s
- Contactpersoon: %s
- Beschrijving: %s
- Training code: %s

OPLEIDINGSGEGEVENS:
- Titel: %s
- Duur: %s
- Doelgroep: %s
- Leerdoelen: %s
- Programma-inhoud: %s
- Prijs: %s

INTAKE INFORMATIE:
- Aantal deelnemers: %s
- Doelstellingen klant: %s
- Specifieke eisen: %s
- Voorkeursdata: %s
- Aanvullende opmerkingen: %s

Genereer de volgende secties in het Nederlands, professionele B2B-toon:

1. INTRODUCTIE (2-3 alinea's)
   - Persoonlijke aanspreking gebaseerd op intake
   - Referentie naar de specifieke noden van de klant
   - Waarom deze opleiding aansluit bij hun doelstellingen

2. OPLEIDINGSDOELSTELLINGEN (4-6 punten)
   - Afgestemd op de doelstellingen van de klant
   - Concrete, meetbare resultaten
   - Link naar bedrijfscontext

3. PROGRAMMAOVERZICHT (gedetailleerde inhoud)
   - Gestructureerd curriculum
   - Belangrijkste modules en topics
   - Praktische werkvormen
   - Duur per onderdeel

4. PRAKTISCHE REGELING (alle logistieke details)
   - Aantal deelnemers
   - Voorgestelde planning/data
   - Locatie (in-company bij %s of op locatie Syntra)
   - Materialen en handboeken
   - Begeleiding en coaching

5. INVESTERING (prijsopbouw)
   - Heldere kostenstructuur
   - Inclusief: lesmateriaal, begeleiding, certificaten
   - Eventuele kortingen of voordelen
   - Betalingsvoorwaarden

6. VOLGENDE STAPPEN (call-to-action)
   - Hoe verder te gaan
   - Contactgegevens
   - Vrijblijvend gesprek aanbieden

Retourneer de output als een JSON object met deze structuur:
{
    "introduction": "tekst hier",
    "training_objectives": "tekst hier",
    "program_overview": "tekst hier",
    "practical_arrangements": "tekst hier",
    "investment": "tekst hier",
    "next_steps": "tekst hier"
}

Gebruik professioneel Nederlands, wees concreet en klantgericht. Return ALLEEN het JSON object, geen andere tekst.`,
		orNA(crm.Onderwerp), orNA(crm.PotentieleKlant), orNA(crm.PrimaireContact),
		orNA(crm.Beschrijving), orNA(crm.CommercieleContainer),
		orNA(training.Title), orNA(training.Duration), orNA(training.TargetAudience),
		orNA(training.LearningObjectives), orNA(training.ProgramOutline), orNA(training.Price),
		participants, orNA(intake.ClientGoals), orNA(intake.SpecificRequirements),
		orNA(intake.PreferredDates), orNA(intake.AdditionalNotes),
		location)
}

func buildExtractionPrompt(content, sourceType string) string {
	return fmt.Sprintf(`Je bent een AI-assistent gespecialiseerd in het extraheren van opleidingsgegevens.

Analyseer de volgende content en extraheer ALLE beschikbare informatie over het opleidingsprogramma.

CONTENT TYPE: %s

CONTENT:
%s

Extraheer de volgende informatie en retourneer een JSON object met deze exacte veldnamen:

{
    "title": "Volledige titel van de opleiding",
    "duration": "Duur van de opleiding (bijv. '3 dagen', '24 uur', '6 weken')",
    "price": "Prijs inclusief valuta (bijv. '€ 1.500', '€ 2.000 excl. BTW')",
    "target_audience": "Beschrijving van de doelgroep - voor wie is deze opleiding bedoeld",
    "learning_objectives": "Alle leerdoelen of wat deelnemers zullen leren - maak een gestructureerde lijst",
    "program_outline": "Volledige programma-inhoud, modules, onderwerpen - geef een gedetailleerd overzicht",
    "trainer_info": "Informatie over de trainer(s) of docent(en)"
}

BELANGRIJKE INSTRUCTIES:
1. Als een veld niet beschikbaar is in de content, laat het dan weg
2. Behoud alle relevante details - wees volledig en grondig
3. Voor lijsten (leerdoelen, programma-inhoud): gebruik bullet points of nummering voor leesbaarheid
4. Retourneer ALLEEN het JSON object, geen extra tekst
5. Zorg dat het JSON valid is (correct gebruik van quotes en komma's)
6. Als de content in HTML formaat is, extraheer dan de tekst en negeer HTML tags
7. Prijs: zoek naar € symbolen, bedragen, of woorden zoals 'prijs', 'kosten', 'investering'
8. Duur: zoek naar uren, dagen, weken, maanden, of andere tijdseenheden
9. Let op synoniemen: 'doelstellingen' = 'leerdoelen', 'lesinhoud' = 'programma-inhoud', etc.

Retourneer nu het JSON object:`, sourceType, content)
}
