package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultFormID is stored when the payload has no _form_id.
	DefaultFormID = "unknown-form"
	// DefaultFormType is stored when the payload has no _form_type.
	DefaultFormType = "other"

	factorsKey = "_lead_score_factors"
)

// Column widths of the submissions table. Longer values are cut to fit.
const (
	maxFormIDLen   = 255
	maxFormTypeLen = 50
	maxContactLen  = 255
	maxPhoneLen    = 50
	maxUTMLen      = 255
)

var (
	emailAliases = []string{"email", "Email", "EMAIL"}
	nameAliases  = []string{"name", "Name", "first_name", "firstName", "full_name", "fullName"}
	phoneAliases = []string{"phone", "Phone", "telephone", "mobile", "cell"}
)

// Contact holds the canonical contact fields. Nil means not supplied.
type Contact struct {
	Email *string
	Name  *string
	Phone *string
}

// UTM is one set of campaign parameters.
type UTM struct {
	Source   *string
	Medium   *string
	Campaign *string
	Term     *string
	Content  *string
}

// Attribution holds first-touch and last-touch campaign parameters.
type Attribution struct {
	Initial UTM
	Recent  UTM
}

// EngagementFactors are the behavioral signals used for scoring.
type EngagementFactors struct {
	SessionCount           int
	EngagedDurationSeconds int
	PagesVisited           int
	HasUTMSource           bool
	FormComplexity         int
}

// DefaultEngagement returns the factors assumed when nothing is supplied.
func DefaultEngagement() EngagementFactors {
	return EngagementFactors{
		SessionCount:           1,
		EngagedDurationSeconds: 0,
		PagesVisited:           1,
		FormComplexity:         1,
	}
}

// FormMetadata describes the form and page a submission came from.
type FormMetadata struct {
	FormID      string
	FormType    string
	URL         string
	Path        string
	Title       string
	PageJourney *string
}

// NormalizeContact picks the first non-empty alias for each contact field.
func NormalizeContact(p Payload) Contact {
	return Contact{
		Email: firstText(p, emailAliases, maxContactLen),
		Name:  firstText(p, nameAliases, maxContactLen),
		Phone: firstText(p, phoneAliases, maxPhoneLen),
	}
}

// NormalizeAttribution reads utm_<f>_initial (falling back to utm_<f>) and utm_<f>.
func NormalizeAttribution(p Payload) Attribution {
	utm := func(name string) (initial, recent *string) {
		recent = textPtr(p, "utm_"+name, maxUTMLen)
		initial = textPtr(p, "utm_"+name+"_initial", maxUTMLen)
		if initial == nil {
			initial = recent
		}
		return initial, recent
	}

	var a Attribution
	a.Initial.Source, a.Recent.Source = utm("source")
	a.Initial.Medium, a.Recent.Medium = utm("medium")
	a.Initial.Campaign, a.Recent.Campaign = utm("campaign")
	a.Initial.Term, a.Recent.Term = utm("term")
	a.Initial.Content, a.Recent.Content = utm("content")
	return a
}

// ExtractEngagement reads the scoring factors. Each numeric factor is taken
// from _lead_score_factors first, then from the top-level payload, then the
// default. Unparseable values fall through; results are clamped to each
// factor's minimum.
func ExtractEngagement(p Payload) EngagementFactors {
	factors, _ := p.Object(factorsKey)
	def := DefaultEngagement()

	lookup := func(keys ...string) (int, bool) {
		for _, key := range keys {
			if v, ok := factors[key]; ok {
				if n, ok := asInt(v); ok {
					return n, true
				}
			}
		}
		for _, key := range keys {
			if v, ok := p.Get(key); ok {
				if n, ok := asInt(v); ok {
					return n, true
				}
			}
		}
		return 0, false
	}

	out := def
	if n, ok := lookup("session_count"); ok {
		out.SessionCount = n
	}
	if n, ok := lookup("engaged_duration_seconds", "engaged_duration"); ok {
		out.EngagedDurationSeconds = n
	}
	if n, ok := lookup("pages_visited"); ok {
		out.PagesVisited = n
	}
	if n, ok := lookup("form_complexity", "_form_field_count"); ok {
		out.FormComplexity = n
	}

	out.SessionCount = max(out.SessionCount, 1)
	out.EngagedDurationSeconds = max(out.EngagedDurationSeconds, 0)
	out.PagesVisited = max(out.PagesVisited, 1)
	out.FormComplexity = max(out.FormComplexity, 1)

	if v, ok := factors["has_utm_source"]; ok {
		if b, ok := asBool(v); ok {
			out.HasUTMSource = b
			return out
		}
	}
	out.HasUTMSource = textPtr(p, "utm_source", 0) != nil
	return out
}

// ExtractFormMetadata reads the underscore-prefixed form fields.
func ExtractFormMetadata(p Payload) FormMetadata {
	text := func(key, fallback string, limit int) string {
		if v, ok := p.String(key); ok {
			return truncateRunes(v, limit)
		}
		return fallback
	}

	return FormMetadata{
		FormID:      text("_form_id", DefaultFormID, maxFormIDLen),
		FormType:    text("_form_type", DefaultFormType, maxFormTypeLen),
		URL:         text("_form_url", "", 0),
		Path:        text("_form_path", "", 0),
		Title:       text("_form_title", "", 0),
		PageJourney: textPtr(p, "page_journey", 0),
	}
}

func firstText(p Payload, keys []string, limit int) *string {
	for _, key := range keys {
		if v := textPtr(p, key, limit); v != nil {
			return v
		}
	}
	return nil
}

// textPtr returns the text under key cut to limit runes. Zero means no limit.
func textPtr(p Payload, key string, limit int) *string {
	v, ok := p.String(key)
	if !ok {
		return nil
	}
	v = truncateRunes(v, limit)
	return &v
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

func asInt(value any) (int, bool) {
	var f float64
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return clampInt(float64(n)), true
		}
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = v
	case string:
		trimmed := strings.TrimSpace(v)
		if n, err := strconv.Atoi(trimmed); err == nil {
			return n, true
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return clampInt(math.Trunc(f)), true
}

func clampInt(f float64) int {
	const limit = math.MaxInt32
	switch {
	case f > limit:
		return limit
	case f < -limit:
		return -limit
	default:
		return int(f)
	}
}

func asBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return b, err == nil
	default:
		return false, false
	}
}
