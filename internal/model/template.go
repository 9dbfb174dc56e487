package model

// Template is a named rendering unit for reminder messages. Subject and Body
// may contain [[placeholder]] tokens substituted at render time.
type Template struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

// TemplatePreview is the read-only display form served to the admin UI.
// BodyPreview has placeholders replaced by human-readable names and is
// truncated; it is never sent anywhere.
type TemplatePreview struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
	BodyPreview string `json:"body_preview"`
	BuiltIn     bool   `json:"built_in"`
}
