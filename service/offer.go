package service

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/svanhaverbeke/offerbuilder/docx"
	"github.com/svanhaverbeke/offerbuilder/markup"
	"github.com/svanhaverbeke/offerbuilder/model"
)

// TextContainer exposes the ordered body paragraphs of a document.
type TextContainer interface {
	Paragraphs() []*docx.Paragraph
}

// TableContainer exposes the ordered tables of a document.
type TableContainer interface {
	Tables() []*docx.Table
}

// DocxService assembles offer documents from a template or from scratch.
type DocxService struct {
	outputDir string
}

func NewDocxService(outputDir string) (*DocxService, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &DocxService{outputDir: outputDir}, nil
}

// CreateOffer renders an offer document and saves it under the output dir.
// An empty templatePath means no usable template and triggers a scratch
// build. The returned record carries the generated reference number and
// the saved file path.
func (s *DocxService) CreateOffer(templatePath string, offer *model.OfferContent, crm *model.CRMData, training *model.TrainingData, intake *model.IntakeData) (*model.Offer, error) {
	offerNumber := generateOfferNumber(crm, training)
	fieldMap := buildFieldMap(offerNumber, offer, crm, training, intake)

	var doc *docx.Document
	if templatePath != "" {
		var err error
		doc, err = docx.Open(templatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open template: %w", err)
		}

		substituteFields(doc, doc, fieldMap)
		if tables := doc.Tables(); len(tables) >= 1 {
			updatePricingTable(tables[0], offer, training)
		}
		fillSignatureBlock(doc, doc, crm)
	} else {
		doc = buildFromScratch(fieldMap)
	}

	filename := offerFilename(offerNumber)
	path := filepath.Join(s.outputDir, filename)
	if err := doc.Save(path); err != nil {
		return nil, fmt.Errorf("failed to save offer: %w", err)
	}

	return &model.Offer{
		ID:              filename,
		Filename:        filename,
		Path:            path,
		ReferenceNumber: offerNumber,
		ClientName:      crm.PotentieleKlant,
		TrainingTitle:   training.Title,
		CreatedAt:       time.Now(),
	}, nil
}

// substituteFields replaces {{key}} and [KEY] placeholders in body
// paragraphs and table cells. Headers and footers are not scanned.
func substituteFields(text TextContainer, tables TableContainer, fieldMap *FieldMap) {
	for _, para := range text.Paragraphs() {
		substituteInParagraph(para, fieldMap)
	}

	for _, table := range tables.Tables() {
		for _, row := range table.Rows() {
			for _, cell := range row.Cells() {
				for _, para := range cell.Paragraphs() {
					substituteInParagraph(para, fieldMap)
				}
			}
		}
	}
}

func substituteInParagraph(para *docx.Paragraph, fieldMap *FieldMap) {
	for _, key := range fieldMap.Keys {
		value := fieldMap.Values[key]

		patterns := []string{
			"{{" + key + "}}",
			"[" + strings.ToUpper(key) + "]",
		}
		for _, pattern := range patterns {
			if strings.Contains(para.Text(), pattern) {
				replaceToken(para, pattern, value)
			}
		}
	}
}

// replaceToken swaps one placeholder occurrence set inside a paragraph.
// Markup-bearing values clear the paragraph and re-render as styled runs;
// plain values are replaced inside individual runs so existing run
// formatting survives. A token split across runs is not found.
func replaceToken(para *docx.Paragraph, token, value string) {
	if markup.ContainsMarkup(value) {
		para.Clear()
		writeSpans(para, markup.ParseSpans(value))
		return
	}

	for _, run := range para.Runs() {
		if strings.Contains(run.Text(), token) {
			run.SetText(strings.ReplaceAll(run.Text(), token, value))
		}
	}
}

func writeSpans(para *docx.Paragraph, spans []markup.Span) {
	for _, span := range spans {
		run := para.AddRun(span.Text)
		if span.Bold {
			run.Bold()
		}
		if span.Italic {
			run.Italic()
		}
	}
}

var (
	priceRe = regexp.MustCompile(`€\s*(\d+(?:[.,]\d+)?)|(\d+(?:[.,]\d+)?)\s*€`)
	daysRe  = regexp.MustCompile(`(?i)(\d+)\s*dag`)
)

// updatePricingTable fills the paid line of the fixed-layout pricing
// table: header row, then four content rows where row index 3 is the main
// training cost. Without a price signal the table is left as authored.
// Failures are logged and swallowed so a broken table never aborts
// document generation.
func updatePricingTable(table *docx.Table, offer *model.OfferContent, training *model.TrainingData) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("could not update pricing table", "error", r)
		}
	}()

	investmentText := offer.Investment
	if investmentText == "" {
		investmentText = training.Price
	}

	m := priceRe.FindStringSubmatch(investmentText)
	if m == nil {
		return
	}
	priceStr := m[1]
	if priceStr == "" {
		priceStr = m[2]
	}
	price := strings.ReplaceAll(priceStr, ",", ".")

	rows := table.Rows()
	if len(rows) <= 3 {
		return
	}
	cells := rows[3].Cells()
	if len(cells) < 4 {
		return
	}

	quantity := "1"
	if dm := daysRe.FindStringSubmatch(training.Duration); dm != nil {
		quantity = dm[1]
	}

	cells[1].SetText(quantity)
	cells[2].SetText(price + " €")

	p, perr := strconv.ParseFloat(price, 64)
	q, qerr := strconv.ParseFloat(quantity, 64)
	if perr == nil && qerr == nil {
		cells[3].SetText(fmt.Sprintf("%.0f €", p*q))
	} else {
		cells[3].SetText(price + " €")
	}
}

// fillSignatureBlock injects date, client name and contact name into the
// signature section by searching for its fixed anchor phrases. Template
// authors must keep the anchors verbatim; a missing anchor is silently a
// no-op. The step never propagates an error.
func fillSignatureBlock(text TextContainer, tables TableContainer, crm *model.CRMData) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("could not fill signature block", "error", r)
		}
	}()

	clientName := crm.PotentieleKlant
	contactPerson := crm.PrimaireContact
	formattedDate := formatDutchDate(crm.DatumOfferte)

	for _, para := range text.Paragraphs() {
		t := para.Text()

		if strings.Contains(t, "Opgemaakt te Berchem op") {
			replaceToken(para, "Opgemaakt te Berchem op", "Opgemaakt te Berchem op "+formattedDate)
		}

		// "Voor Syntra Bizz BV <tabs> Voor" gains the client name after
		// the second Voor
		if strings.Contains(t, "Voor Syntra Bizz") && strings.Count(t, "Voor") >= 2 {
			if clientName != "" && strings.Contains(t, "Voor Syntra Bizz BV") {
				parts := strings.SplitN(t, "Voor", 3)
				if len(parts) >= 3 {
					para.SetText(parts[0] + "Voor" + parts[1] + "Voor " + clientName + parts[2])
				}
			}
		}

		if strings.Contains(t, "Naam") && contactPerson != "" && strings.Contains(t, "Opleidingsadviseur") {
			if strings.Contains(t, "\t") {
				parts := strings.SplitN(t, "Naam", 2)
				if len(parts) >= 2 {
					para.SetText(parts[0] + "Naam\t" + contactPerson + parts[1])
				}
			}
		}

		// "Jullie facturatiegegevens" marks the billing section; its
		// values arrive through the table placeholders below
	}

	for _, table := range tables.Tables() {
		for _, row := range table.Rows() {
			for _, cell := range row.Cells() {
				for _, para := range cell.Paragraphs() {
					if crm.ClientCompanyAddress != "" && strings.Contains(para.Text(), "{{client_company_address}}") {
						replaceToken(para, "{{client_company_address}}", crm.ClientCompanyAddress)
					}
					if crm.ClientVATNumber != "" && strings.Contains(para.Text(), "{{client_vat_number}}") {
						replaceToken(para, "{{client_vat_number}}", crm.ClientVATNumber)
					}
				}
			}
		}
	}
}

// scratchSections is the fixed section order for documents built without
// a template.
var scratchSections = []struct {
	heading string
	key     string
}{
	{"Introductie", "introduction"},
	{"Opleidingsdoelstellingen", "training_objectives"},
	{"Programmaoverzicht", "program_outline"},
	{"Praktische Regeling", "practical_arrangements"},
	{"Investering", "investment"},
	{"Volgende Stappen", "next_steps"},
}

// buildFromScratch creates a complete offer document when no template is
// available. Section headings are always emitted, even with empty bodies.
func buildFromScratch(fieldMap *FieldMap) *docx.Document {
	doc := docx.New()

	doc.SetHeaderText("Syntra Bizz - In-company Opleidingen", docx.AlignRight)

	title := doc.AddHeading(1)
	title.SetText("OFFERTE")
	title.SetAlignment(docx.AlignCenter)

	doc.AddParagraph().SetText("Offertenummer: " + fieldMap.Get("reference_number"))
	doc.AddParagraph().SetText("Datum: " + fieldMap.Get("offer_date"))
	doc.AddParagraph().SetText("Klant: " + fieldMap.Get("client_name"))
	doc.AddParagraph().SetText("Contactpersoon: " + fieldMap.Get("primaire_contact"))
	doc.AddParagraph()

	trainingTitle := fieldMap.Get("training_title")
	if trainingTitle == "" {
		trainingTitle = "Opleiding"
	}
	doc.AddHeading(2).SetText(trainingTitle)
	doc.AddParagraph()

	for _, section := range scratchSections {
		doc.AddHeading(2).SetText(section.heading)
		renderMarkup(doc, fieldMap.Get(section.key))
		doc.AddParagraph()
	}

	doc.SetFooterText("Syntra Antwerpen-Waasland vzw | www.syntra-ab.be", docx.AlignCenter)

	return doc
}

// renderMarkup appends parsed markup blocks to the document as headings,
// list items and paragraphs with styled runs.
func renderMarkup(doc *docx.Document, text string) {
	for _, block := range markup.Parse(text) {
		var para *docx.Paragraph
		switch block.Kind {
		case markup.Heading:
			para = doc.AddHeading(block.Level)
		case markup.BulletItem:
			para = doc.AddParagraph()
			para.SetNumbering(docx.NumBullet)
		case markup.NumberedItem:
			para = doc.AddParagraph()
			para.SetNumbering(docx.NumDecimal)
		default:
			para = doc.AddParagraph()
		}
		writeSpans(para, block.Spans)
	}
}
