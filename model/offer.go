package model

import (
	"time"
)

// CRMData holds the fields captured from a sales-pipeline record. Field
// names follow the CRM's Dutch labels.
type CRMData struct {
	Onderwerp             string `json:"onderwerp,omitempty"`
	PotentieleKlant       string `json:"potentiele_klant,omitempty"`
	Type                  string `json:"type,omitempty"`
	PrimaireContact       string `json:"primaire_contact,omitempty"`
	ExtraContact          string `json:"extra_contact,omitempty"`
	Beschrijving          string `json:"beschrijving,omitempty"`
	CommercieleContainer  string `json:"commerciele_container,omitempty"`
	SalesStage            string `json:"sales_stage,omitempty"`
	Waarschijnlijkheid    string `json:"waarschijnlijkheid,omitempty"`
	GewogenOmzet          string `json:"gewogen_omzet,omitempty"`
	WeightedMargin        string `json:"weighted_margin,omitempty"`
	Sluitingsdatum        string `json:"sluitingsdatum,omitempty"`
	DatumOfferte          string `json:"datum_offerte,omitempty"`
	ProjectManagerName    string `json:"project_manager_name,omitempty"`
	ProjectManagerPhone   string `json:"project_manager_phone,omitempty"`
	ProjectManagerEmail   string `json:"project_manager_email,omitempty"`
	AdvisorName           string `json:"advisor_name,omitempty"`
	AdvisorPhone          string `json:"advisor_phone,omitempty"`
	AdvisorEmail          string `json:"advisor_email,omitempty"`
	ClientCompanyAddress  string `json:"client_company_address,omitempty"`
	ClientVATNumber       string `json:"client_vat_number,omitempty"`
}

// TrainingData describes a training program.
type TrainingData struct {
	Title              string `json:"title,omitempty"`
	Duration           string `json:"duration,omitempty"`
	TargetAudience     string `json:"target_audience,omitempty"`
	LearningObjectives string `json:"learning_objectives,omitempty"`
	ProgramOutline     string `json:"program_outline,omitempty"`
	Price              string `json:"price,omitempty"`
	TrainerInfo        string `json:"trainer_info,omitempty"`
	URL                string `json:"url,omitempty"`
}

// IntakeData holds client-specific intake conversation fields.
type IntakeData struct {
	NumberOfParticipants int    `json:"number_of_participants,omitempty"`
	ClientGoals          string `json:"client_goals,omitempty"`
	SpecificRequirements string `json:"specific_requirements,omitempty"`
	PreferredDates       string `json:"preferred_dates,omitempty"`
	AdditionalNotes      string `json:"additional_notes,omitempty"`
}

// OfferContent is the six-section narrative body of an offer.
type OfferContent struct {
	Introduction          string `json:"introduction"`
	TrainingObjectives    string `json:"training_objectives"`
	ProgramOverview       string `json:"program_overview"`
	PracticalArrangements string `json:"practical_arrangements"`
	Investment            string `json:"investment"`
	NextSteps             string `json:"next_steps"`
}

// GenerateContentRequest asks for AI-generated offer narrative.
type GenerateContentRequest struct {
	CRMData      CRMData      `json:"crm_data"`
	TrainingData TrainingData `json:"training_data"`
	IntakeData   IntakeData   `json:"intake_data"`
}

// CreateOfferRequest asks for a rendered offer document.
type CreateOfferRequest struct {
	OfferData    OfferContent `json:"offer_data"`
	CRMData      CRMData      `json:"crm_data"`
	TrainingData TrainingData `json:"training_data"`
	IntakeData   IntakeData   `json:"intake_data"`
}

// Offer records a generated offer document.
type Offer struct {
	ID              string    `json:"id"` // filename, doubles as download id
	Filename        string    `json:"filename"`
	Path            string    `json:"-"`
	ReferenceNumber string    `json:"reference_number"`
	ClientName      string    `json:"client_name,omitempty"`
	TrainingTitle   string    `json:"training_title,omitempty"`
	CreatedBy       string    `json:"created_by,omitempty"`
	ArchiveURL      string    `json:"archive_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// TemplateInfo describes an available offer template.
type TemplateInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"-"`
}
