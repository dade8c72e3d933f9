// Package health answers general health questions through the model. Every
// answer is educational information, never medical advice.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/abhisek/studentai/internal/filestore"
	"github.com/abhisek/studentai/internal/llm"
	"github.com/abhisek/studentai/internal/logger"
	"github.com/abhisek/studentai/internal/translate"
)

// historyLimit is how many symptom analyses the history keeps.
const historyLimit = 100

var ErrMissingInput = errors.New("a description is required")

const (
	webMDSearch = "https://www.webmd.com/search/search_results/default.aspx?query="
	mayoSearch  = "https://www.mayoclinic.org/search/search-results?q="
	drugsSearch = "https://www.drugs.com/search.php?searchterm="
)

// Categories maps a wellness category to the phrase used in the prompt.
var Categories = map[string]string{
	"general":   "general wellness and healthy living",
	"nutrition": "nutrition and healthy eating",
	"exercise":  "exercise and physical fitness",
	"mental":    "mental health and stress management",
	"sleep":     "sleep hygiene and better sleep",
	"hydration": "proper hydration and water intake",
}

// CrisisResources are shown with every mental health answer.
var CrisisResources = map[string]string{
	"crisis_text":     "Text HOME to 741741",
	"suicide_hotline": "988",
	"online_therapy":  "BetterHelp, Talkspace",
}

// Service is the health assistant.
type Service struct {
	provider   llm.Provider
	translator translate.Translator
	history    *filestore.JSONList[HistoryEntry]
	reminders  *filestore.Collection[Reminder]
	log        *logger.Logger
	now        func() time.Time
}

// Paths locates the health files.
type Paths struct {
	History   string
	Reminders string
}

func NewService(provider llm.Provider, translator translate.Translator, paths Paths, ids filestore.IDAllocator, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("service", "health")
	return &Service{
		provider:   provider,
		translator: translator,
		history:    filestore.NewJSONList[HistoryEntry](paths.History, historyLimit, log),
		reminders:  filestore.NewCollection[Reminder](paths.Reminders, ids, log),
		log:        log,
		now:        time.Now,
	}
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrMissingInput
	}
	return nil
}

// SymptomInput describes what the student feels. Age 0 and an empty
// gender are left out of the prompt.
type SymptomInput struct {
	Symptoms string
	Age      int
	Gender   string
}

// Analysis is the model's reading of a set of symptoms.
type Analysis struct {
	Analysis string `json:"analysis"`
	WebMDURL string `json:"webmd_url"`
}

// AnalyzeSymptoms explains possible causes and warning signs and records
// the analysis in the history.
func (s *Service) AnalyzeSymptoms(ctx context.Context, in SymptomInput) (*Analysis, error) {
	if err := required(in.Symptoms); err != nil {
		return nil, err
	}
	var who strings.Builder
	if in.Age > 0 {
		fmt.Fprintf(&who, ", age %d", in.Age)
	}
	if g := strings.TrimSpace(in.Gender); g != "" {
		fmt.Fprintf(&who, ", %s", g)
	}

	text, err := llm.Complete(ctx, s.provider, "health.symptoms", fmt.Sprintf(`As a health information assistant, analyze these symptoms%s:

Symptoms: %s

Provide:
1. Possible conditions (general information only)
2. Common causes
3. When to see a doctor (warning signs)
4. Home care recommendations
5. Prevention tips

IMPORTANT DISCLAIMER: This is educational information only, not medical advice. Always consult healthcare professionals for medical concerns, especially if symptoms are severe or persistent.`, who.String(), in.Symptoms))
	if err != nil {
		return nil, err
	}

	s.record(HistoryEntry{
		Type:      "symptom_analysis",
		Symptoms:  in.Symptoms,
		Analysis:  text,
		Timestamp: s.now().Format(time.RFC3339),
	})
	return &Analysis{Analysis: text, WebMDURL: webMDSearch + url.QueryEscape(in.Symptoms)}, nil
}

// MedicalInfo is a general explainer plus reference links.
type MedicalInfo struct {
	Info     string `json:"info"`
	Query    string `json:"query"`
	WebMDURL string `json:"webmd_url"`
	MayoURL  string `json:"mayo_url"`
}

// SearchInfo explains a condition. When translateTo is set the query is
// translated first; a failed translation keeps the original query.
func (s *Service) SearchInfo(ctx context.Context, query, translateTo string) (*MedicalInfo, error) {
	if err := required(query); err != nil {
		return nil, err
	}
	if s.translator != nil && strings.TrimSpace(translateTo) != "" {
		if out, err := s.translator.Translate(ctx, query, translateTo); err != nil {
			s.log.Warn("translation failed, using original query", "target", translateTo, "error", err)
		} else {
			query = out
		}
	}

	text, err := llm.Complete(ctx, s.provider, "health.search", fmt.Sprintf(`Provide comprehensive health information about: %s

Include:
1. Overview and definition
2. Common symptoms or characteristics
3. Causes and risk factors
4. Treatment options (general information)
5. Prevention and lifestyle recommendations
6. When to seek medical help

Provide evidence-based, reliable information. Include disclaimer about consulting healthcare professionals.`, query))
	if err != nil {
		return nil, err
	}
	q := url.QueryEscape(query)
	return &MedicalInfo{Info: text, Query: query, WebMDURL: webMDSearch + q, MayoURL: mayoSearch + q}, nil
}

// WellnessTips returns ten tips for the category and the category actually
// used; unknown categories get general tips.
func (s *Service) WellnessTips(ctx context.Context, category string) (string, string, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	topic, ok := Categories[category]
	if !ok {
		category = "general"
		topic = Categories[category]
	}
	text, err := llm.Complete(ctx, s.provider, "health.wellness", fmt.Sprintf(`Provide 10 practical, evidence-based tips for %s.

Format each tip as:
Tip [number]: [brief title]
[detailed explanation in 2-3 sentences]

Focus on actionable, easy-to-implement advice.`, topic))
	if err != nil {
		return "", "", err
	}
	return text, category, nil
}

// FirstAid returns step-by-step instructions for an emergency.
func (s *Service) FirstAid(ctx context.Context, emergency string) (string, error) {
	if err := required(emergency); err != nil {
		return "", err
	}
	return llm.Complete(ctx, s.provider, "health.first-aid", fmt.Sprintf(`Provide clear, step-by-step first aid instructions for: %s

Format:
1. Immediate actions (what to do first)
2. Step-by-step procedure
3. What NOT to do (common mistakes)
4. When to call emergency services
5. Follow-up care

CRITICAL: Start with "CALL EMERGENCY SERVICES IMMEDIATELY IF:" and list life-threatening signs.

Keep instructions clear, numbered, and easy to follow in an emergency.`, emergency))
}

// MedicationInfo is a general medication explainer.
type MedicationInfo struct {
	Info       string `json:"info"`
	Medication string `json:"medication"`
	DrugsURL   string `json:"drugs_url"`
}

func (s *Service) MedicationInfo(ctx context.Context, name string) (*MedicationInfo, error) {
	if err := required(name); err != nil {
		return nil, err
	}
	text, err := llm.Complete(ctx, s.provider, "health.medication", fmt.Sprintf(`Provide general information about the medication: %s

Include:
1. What it's used for (indications)
2. How it typically works
3. Common side effects
4. General precautions
5. Important interactions to be aware of

IMPORTANT: This is general educational information. Always follow your doctor's prescription and instructions. Never use this to self-medicate.`, name))
	if err != nil {
		return nil, err
	}
	return &MedicationInfo{Info: text, Medication: name, DrugsURL: drugsSearch + url.QueryEscape(name)}, nil
}

// Support is a mental health answer with crisis contacts.
type Support struct {
	Support   string            `json:"support"`
	Concern   string            `json:"concern"`
	Resources map[string]string `json:"resources"`
}

func (s *Service) MentalHealthSupport(ctx context.Context, concern string) (*Support, error) {
	if err := required(concern); err != nil {
		return nil, err
	}
	text, err := llm.Complete(ctx, s.provider, "health.mental", fmt.Sprintf(`Provide supportive information about: %s

Include:
1. Understanding the concern (validation and normalization)
2. Coping strategies and techniques
3. Self-care recommendations
4. When to seek professional help
5. Resources and support options

Be empathetic, non-judgmental, and encouraging. Emphasize that seeking help is a sign of strength.`, concern))
	if err != nil {
		return nil, err
	}
	return &Support{Support: text, Concern: concern, Resources: CrisisResources}, nil
}
