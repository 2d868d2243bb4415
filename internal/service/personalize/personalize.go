// Package personalize renders reminder messages and subjects from per-language
// template tables. Variant A is informative, variant B urgency-framed.
package personalize

import (
	"fmt"
	"strings"

	"github.com/Domenick1991/healthtrip/internal/domain"
	"golang.org/x/text/language"
)

// supported is ordered to match codes.
var (
	supported = []language.Tag{language.Turkish, language.English, language.Arabic, language.German}
	codes     = []string{"tr", "en", "ar", "de"}
)

type Input struct {
	Type            domain.ReminderType
	Variant         string
	Language        string
	RecipientName   string
	TreatmentType   string
	ReferenceNumber string
}

type Renderer struct {
	defaultLang string
	matcher     language.Matcher
}

// NewRenderer falls back to defaultLanguage for unknown tags; an unsupported
// default falls back to Turkish.
func NewRenderer(defaultLanguage string) *Renderer {
	r := &Renderer{defaultLang: codes[0], matcher: language.NewMatcher(supported)}
	if code, ok := r.match(defaultLanguage); ok {
		r.defaultLang = code
	}
	return r
}

func (r *Renderer) DefaultLanguage() string {
	return r.defaultLang
}

// Language maps a BCP 47 tag such as "en-GB" to a supported template code.
func (r *Renderer) Language(tag string) string {
	if code, ok := r.match(tag); ok {
		return code
	}
	return r.defaultLang
}

func (r *Renderer) match(tag string) (string, bool) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "", false
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return "", false
	}
	_, index, confidence := r.matcher.Match(parsed)
	if confidence == language.No {
		return "", false
	}
	return codes[index], true
}

// Message renders the body. Missing name and treatment use per-language
// placeholders; a missing reference number renders empty.
func (r *Renderer) Message(in Input) string {
	lang := r.Language(in.Language)
	name := orDefault(in.RecipientName, defaultNames[lang])
	treatment := orDefault(in.TreatmentType, defaultTreatments[lang])

	switch in.Type {
	case domain.ReminderQuotePending:
		return fmt.Sprintf(pick(quotePending[lang], in.Variant), name, treatment)
	case domain.ReminderQuoteExpiring:
		return fmt.Sprintf(pick(quoteExpiring[lang], in.Variant), name, treatment, strings.TrimSpace(in.ReferenceNumber))
	case domain.ReminderLeadFollowUp:
		return fmt.Sprintf(leadFollowUp[lang], name)
	}
	return defaultMessages[lang]
}

// Subject renders the subject line addressed to the recipient's first name.
func (r *Renderer) Subject(reminderType domain.ReminderType, recipientName, lang string) string {
	lang = r.Language(lang)
	name := defaultNames[lang]
	if fields := strings.Fields(recipientName); len(fields) > 0 {
		name = fields[0]
	}

	table := subjects[lang]
	tmpl, ok := table[reminderType]
	if !ok {
		tmpl = table[domain.ReminderLeadFollowUp]
	}
	return fmt.Sprintf(tmpl, name)
}

func pick(pair variantPair, variant string) string {
	if variant == domain.VariantB {
		return pair.b
	}
	return pair.a
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
