package template

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lexhaven/reminder-gateway/internal/model"
	"github.com/lexhaven/reminder-gateway/pkg/logger"
)

// DefaultTemplateKey is the fallback used when a reminder references an
// unknown template key.
const DefaultTemplateKey = "GENERIC"

const previewBodyLen = 200

var placeholderPattern = regexp.MustCompile(`\[\[([A-Za-z0-9_]+)\]\]`)

// htmlEscaper covers the characters that matter inside the HTML envelope.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// Registry holds the merged template set for the process lifetime. It is
// populated once at startup and read-only afterwards, so it needs no
// synchronization.
type Registry struct {
	orgName   string
	templates map[string]model.Template
	builtIns  map[string]bool
}

// NewRegistry builds the registry from the built-in set plus an optional JSON
// overrides payload (a list of {key,label,description,subject,body}). An
// override with a built-in's key replaces it. A malformed payload is logged
// and ignored; the registry never fails to construct.
func NewRegistry(orgName string, overridesJSON string) *Registry {
	r := &Registry{
		orgName:   orgName,
		templates: make(map[string]model.Template, len(builtInTemplates)),
		builtIns:  make(map[string]bool, len(builtInTemplates)),
	}
	for _, t := range builtInTemplates {
		r.templates[t.Key] = t
		r.builtIns[t.Key] = true
	}

	if strings.TrimSpace(overridesJSON) == "" {
		return r
	}

	var overrides []model.Template
	if err := json.Unmarshal([]byte(overridesJSON), &overrides); err != nil {
		logger.Warn("template overrides are malformed, using built-ins only", "error", err)
		return r
	}
	for _, t := range overrides {
		key := strings.ToUpper(strings.TrimSpace(t.Key))
		if key == "" {
			logger.Warn("skipping template override with empty key", "label", t.Label)
			continue
		}
		t.Key = key
		r.templates[key] = t
	}
	return r
}

// OrgName is the configured sender-organization name rendered into messages.
func (r *Registry) OrgName() string { return r.orgName }

// GetAllTemplates returns the merged key -> template mapping. The returned map
// is a copy; callers may not mutate registry state.
func (r *Registry) GetAllTemplates() map[string]model.Template {
	out := make(map[string]model.Template, len(r.templates))
	for k, v := range r.templates {
		out[k] = v
	}
	return out
}

// Resolve returns the template for key, falling back to the GENERIC default
// when the key is unknown. The second result reports whether the key matched.
func (r *Registry) Resolve(key string) (model.Template, bool) {
	if t, ok := r.templates[strings.ToUpper(strings.TrimSpace(key))]; ok {
		return t, true
	}
	return r.templates[DefaultTemplateKey], false
}

// Render substitutes every [[identifier]] token in pattern with the
// HTML-escaped value of fields[identifier]. Tokens without a matching field
// are left verbatim so missing data stays visible in the sent message.
// Substitution is a single pass: values containing [[..]]-shaped text are not
// re-substituted.
func Render(pattern string, fields map[string]string) string {
	if pattern == "" {
		return ""
	}
	return placeholderPattern.ReplaceAllStringFunc(pattern, func(match string) string {
		name := match[2 : len(match)-2]
		value, ok := fields[name]
		if !ok {
			return match
		}
		return htmlEscaper.Replace(value)
	})
}

// WrapEnvelope embeds bodyHTML in the fixed email shell. Pure function.
func (r *Registry) WrapEnvelope(bodyHTML string) string {
	org := htmlEscaper.Replace(r.orgName)
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8">`)
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1.0"></head>`)
	b.WriteString(`<body style="margin:0;padding:0;background:#f4f4f5;font-family:Arial,Helvetica,sans-serif;">`)
	b.WriteString(`<div style="max-width:600px;margin:0 auto;padding:24px;">`)
	b.WriteString(`<div style="padding:16px 0;border-bottom:2px solid #1f2937;font-size:18px;font-weight:bold;">`)
	b.WriteString(org)
	b.WriteString(`</div><div style="background:#ffffff;padding:24px;font-size:14px;line-height:1.6;">`)
	b.WriteString(bodyHTML)
	b.WriteString(`</div><div style="padding:16px 0;font-size:11px;color:#6b7280;">`)
	b.WriteString(`This message was sent by ` + org + `. Please do not reply to this email.`)
	b.WriteString(`</div></div></body></html>`)
	return b.String()
}

// Previews returns the display form of every template, sorted by key. Body
// placeholders are replaced with human-readable names and the body is
// truncated; this path never feeds a real send.
func (r *Registry) Previews() []model.TemplatePreview {
	out := make([]model.TemplatePreview, 0, len(r.templates))
	for _, t := range r.templates {
		body := placeholderPattern.ReplaceAllStringFunc(t.Body, func(match string) string {
			return humanizePlaceholder(match[2 : len(match)-2])
		})
		if len(body) > previewBodyLen {
			cut := previewBodyLen
			for cut > 0 && !utf8.RuneStart(body[cut]) {
				cut--
			}
			body = body[:cut] + "..."
		}
		out = append(out, model.TemplatePreview{
			Key:         t.Key,
			Label:       t.Label,
			Description: t.Description,
			Subject:     t.Subject,
			BodyPreview: body,
			BuiltIn:     r.builtIns[t.Key],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// humanizePlaceholder turns "client_name" into "Client Name".
func humanizePlaceholder(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
