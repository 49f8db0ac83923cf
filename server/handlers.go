package server

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"property-valuation/models"
	"property-valuation/report"
	"property-valuation/services"
	"property-valuation/utils"
)

//go:embed templates/*.html
var templatesFS embed.FS

type selectField struct {
	Name     string
	Options  []string
	Selected string
	Required bool
}

var pageTemplates = template.Must(template.New("pages").Funcs(template.FuncMap{
	"field": func(name string, options []string, selected string, required bool) selectField {
		return selectField{Name: name, Options: options, Selected: selected, Required: required}
	},
	"has":   slices.Contains[[]string, string],
	"upper": strings.ToUpper,
}).ParseFS(templatesFS, "templates/*.html"))

type formPage struct {
	Vocab  Vocabulary
	Values services.RawSubmission
	Error  string
}

type resultPage struct {
	Vocab    Vocabulary
	Values   services.RawSubmission
	Lead     *models.Lead
	Estimate string
	Range    string
	Rate     string
	Formats  []string
}

// ValuationHandler serves the estimate form and the JSON API.
type ValuationHandler struct {
	svc     *services.ValuationService
	cleaner *services.Cleaner
	vocab   Vocabulary
	logger  *utils.Logger
}

func NewValuationHandler(svc *services.ValuationService, vocab Vocabulary, logger *utils.Logger) *ValuationHandler {
	return &ValuationHandler{
		svc:     svc,
		cleaner: services.NewCleaner(logger),
		vocab:   vocab,
		logger:  logger,
	}
}

func (h *ValuationHandler) Health(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Form handles GET /.
func (h *ValuationHandler) Form(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, "form", formPage{Vocab: h.vocab})
}

// Valuate handles POST /valuate: it records the lead and shows the estimate.
func (h *ValuationHandler) Valuate(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r.Context(), h.logger)

	raw, err := rawFromForm(r)
	if err != nil {
		h.renderPage(w, r, http.StatusBadRequest, "form", formPage{Vocab: h.vocab, Error: "Could not read the form"})
		return
	}

	lead, err := h.estimate(raw)
	if err != nil {
		status := statusFor(err)
		logger.Warn("[http] Valuation rejected (%d): %v", status, err)
		h.renderPage(w, r, status, "form", formPage{Vocab: h.vocab, Values: raw, Error: publicMessage(r, err, status)})
		return
	}

	display := h.svc.Display()
	h.renderPage(w, r, http.StatusOK, "result", resultPage{
		Vocab:    h.vocab,
		Values:   raw,
		Lead:     lead,
		Estimate: report.FormatAmount(lead.Result.Total, display.Currency),
		Range: report.FormatAmount(lead.Result.Low, display.Currency) + " – " +
			report.FormatAmount(lead.Result.High, display.Currency),
		Rate:    report.FormatAmount(lead.Result.RatePerUnit, display.Currency) + " / " + display.Unit,
		Formats: h.svc.Formats(),
	})
}

// Report handles POST /report?format=pdf|doc|html. The submission is
// re-valuated from the posted fields and not recorded again.
func (h *ValuationHandler) Report(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r.Context(), h.logger)

	raw, err := rawFromForm(r)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Could not read the form")
		return
	}
	format := r.FormValue("format")
	if format == "" {
		format = "pdf"
	}

	sub, err := h.cleaner.Clean(raw)
	if err != nil {
		WriteJSONError(w, statusFor(err), err.Error())
		return
	}
	lead, err := h.svc.Quote(sub)
	if err != nil {
		status := statusFor(err)
		WriteJSONError(w, status, publicMessage(r, err, status))
		return
	}

	doc, err := h.svc.Report(r.Context(), lead, format)
	if err != nil {
		status := statusFor(err)
		logger.Error("[http] Report %s failed: %v", format, err)
		WriteJSONError(w, status, publicMessage(r, err, status))
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Data)
}

// GetVocabulary handles GET /api/v1/vocabulary.
func (h *ValuationHandler) GetVocabulary(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.vocab)
}

// ValuationRequestDTO is the JSON body of POST /api/v1/valuations.
type ValuationRequestDTO struct {
	Name         string   `json:"name"`
	Phone        string   `json:"phone"`
	Area         string   `json:"area"`
	PropertyType string   `json:"property_type"`
	Size         float64  `json:"size"`
	Furnishing   string   `json:"furnishing"`
	View         string   `json:"view"`
	Amenities    []string `json:"amenities"`
	Age          string   `json:"age"`
}

// ValuationResponse is a recorded lead plus display-ready amounts.
type ValuationResponse struct {
	*models.Lead
	Formatted FormattedAmounts `json:"formatted"`
}

type FormattedAmounts struct {
	Total       string `json:"total"`
	Low         string `json:"low"`
	High        string `json:"high"`
	RatePerUnit string `json:"rate_per_unit"`
}

// CreateValuation handles POST /api/v1/valuations.
func (h *ValuationHandler) CreateValuation(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r.Context(), h.logger)

	var dto ValuationRequestDTO
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&dto); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	lead, err := h.estimate(services.RawSubmission{
		Name:         dto.Name,
		Phone:        dto.Phone,
		Area:         dto.Area,
		PropertyType: dto.PropertyType,
		Size:         strconv.FormatFloat(dto.Size, 'f', -1, 64),
		Furnishing:   dto.Furnishing,
		View:         dto.View,
		Amenities:    dto.Amenities,
		Age:          dto.Age,
	})
	if err != nil {
		status := statusFor(err)
		logger.Warn("[http] Valuation rejected (%d): %v", status, err)
		WriteJSONError(w, status, publicMessage(r, err, status))
		return
	}

	cur := h.svc.Display().Currency
	RespondWithJSON(w, http.StatusCreated, ValuationResponse{
		Lead: lead,
		Formatted: FormattedAmounts{
			Total:       report.FormatAmount(lead.Result.Total, cur),
			Low:         report.FormatAmount(lead.Result.Low, cur),
			High:        report.FormatAmount(lead.Result.High, cur),
			RatePerUnit: report.FormatAmount(lead.Result.RatePerUnit, cur),
		},
	})
}

func (h *ValuationHandler) estimate(raw services.RawSubmission) (*models.Lead, error) {
	sub, err := h.cleaner.Clean(raw)
	if err != nil {
		return nil, err
	}
	return h.svc.Estimate(sub)
}

func (h *ValuationHandler) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		loggerFromContext(r.Context(), h.logger).Error("[http] Render %s: %v", name, err)
	}
}

func rawFromForm(r *http.Request) (services.RawSubmission, error) {
	if err := r.ParseForm(); err != nil {
		return services.RawSubmission{}, err
	}
	return services.RawSubmission{
		Name:         r.PostFormValue("name"),
		Phone:        r.PostFormValue("phone"),
		Area:         r.PostFormValue("area"),
		PropertyType: r.PostFormValue("property_type"),
		Size:         r.PostFormValue("size"),
		Furnishing:   r.PostFormValue("furnishing"),
		View:         r.PostFormValue("view"),
		Amenities:    r.PostForm["amenities"],
		Age:          r.PostFormValue("age"),
	}, nil
}
