package template

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_SubstitutesFields(t *testing.T) {
	out := Render("Dear [[recipient_name]], see you on [[scheduled_date]].", map[string]string{
		"recipient_name": "Jane Doe",
		"scheduled_date": "Monday, 2 March 2026 at 10:00",
	})
	assert.Equal(t, "Dear Jane Doe, see you on Monday, 2 March 2026 at 10:00.", out)
}

func TestRender_EscapesHTMLInValues(t *testing.T) {
	out := Render("Hello [[name]]", map[string]string{
		"name": `<b>O'Brien & "Sons"</b>`,
	})
	assert.Equal(t, `Hello &lt;b&gt;O'Brien &amp; &quot;Sons&quot;&lt;/b&gt;`, out)
}

func TestRender_MissingKeyLeftVerbatim(t *testing.T) {
	out := Render("Case [[case_number]] at [[court_name]]", map[string]string{
		"case_number": "A-102",
	})
	assert.Equal(t, "Case A-102 at [[court_name]]", out)
}

func TestRender_SinglePass(t *testing.T) {
	// A value that looks like a token must not be substituted again.
	out := Render("Hi [[a]]", map[string]string{
		"a": "[[b]]",
		"b": "nope",
	})
	assert.Equal(t, "Hi [[b]]", out)
}

func TestRender_EmptyPattern(t *testing.T) {
	assert.Equal(t, "", Render("", map[string]string{"a": "b"}))
}

func TestRender_NonIdentifierTokensUntouched(t *testing.T) {
	out := Render("[[has space]] and [[ok_1]]", map[string]string{
		"has space": "x",
		"ok_1":      "y",
	})
	assert.Equal(t, "[[has space]] and y", out)
}

func TestNewRegistry_BuiltInsPresent(t *testing.T) {
	r := NewRegistry("Lexhaven Legal", "")
	all := r.GetAllTemplates()
	for _, key := range []string{"GENERIC", "APPOINTMENT_REMINDER", "COURT_DATE", "DOCUMENT_SIGNING", "PAYMENT_DUE"} {
		_, ok := all[key]
		assert.True(t, ok, "missing built-in %s", key)
	}
}

func TestNewRegistry_OverrideReplacesBuiltIn(t *testing.T) {
	overrides := `[{"key":"generic","label":"Custom","subject":"Hi [[recipient_name]]","body":"custom body"}]`
	r := NewRegistry("Lexhaven Legal", overrides)

	tpl, ok := r.Resolve("GENERIC")
	require.True(t, ok)
	assert.Equal(t, "Custom", tpl.Label)
	assert.Equal(t, "custom body", tpl.Body)
}

func TestNewRegistry_OverrideAddsNewKey(t *testing.T) {
	overrides := `[{"key":"CLOSING_LETTER","label":"Closing letter","subject":"s","body":"b"}]`
	r := NewRegistry("Lexhaven Legal", overrides)

	tpl, ok := r.Resolve("closing_letter")
	assert.True(t, ok)
	assert.Equal(t, "CLOSING_LETTER", tpl.Key)
}

func TestNewRegistry_MalformedOverridesIgnored(t *testing.T) {
	r := NewRegistry("Lexhaven Legal", "{not json")
	tpl, ok := r.Resolve("GENERIC")
	assert.True(t, ok)
	assert.Equal(t, "General reminder", tpl.Label)
}

func TestResolve_UnknownKeyFallsBack(t *testing.T) {
	r := NewRegistry("Lexhaven Legal", "")
	tpl, ok := r.Resolve("NO_SUCH_TEMPLATE")
	assert.False(t, ok)
	assert.Equal(t, DefaultTemplateKey, tpl.Key)
}

func TestWrapEnvelope_ContainsBodyAndOrg(t *testing.T) {
	r := NewRegistry("Smith & Partners", "")
	out := r.WrapEnvelope("<p>hello</p>")

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<p>hello</p>")
	// Org name is escaped in the header and footer.
	assert.Contains(t, out, "Smith &amp; Partners")
	assert.NotContains(t, out, "Smith & Partners<")
}

func TestPreviews_SortedAndHumanized(t *testing.T) {
	r := NewRegistry("Lexhaven Legal", "")
	previews := r.Previews()
	require.Len(t, previews, 5)

	for i := 1; i < len(previews); i++ {
		assert.Less(t, previews[i-1].Key, previews[i].Key)
	}

	var generic string
	for _, p := range previews {
		assert.True(t, p.BuiltIn)
		if p.Key == "GENERIC" {
			generic = p.BodyPreview
		}
	}
	assert.Contains(t, generic, "Recipient Name")
	assert.NotContains(t, generic, "[[")
}

func TestPreviews_TruncatesOnRuneBoundary(t *testing.T) {
	// A two-byte rune straddling the preview limit must not be split.
	body := strings.Repeat("x", 199) + strings.Repeat("é", 30)
	overrides := `[{"key":"LONG_BODY","label":"Long","subject":"s","body":"` + body + `"}]`
	r := NewRegistry("Lexhaven Legal", overrides)

	for _, p := range r.Previews() {
		if p.Key != "LONG_BODY" {
			continue
		}
		assert.True(t, utf8.ValidString(p.BodyPreview))
		assert.Equal(t, strings.Repeat("x", 199)+"...", p.BodyPreview)
		return
	}
	t.Fatal("override preview not found")
}

func TestPreviews_MarksOverridesNotBuiltIn(t *testing.T) {
	overrides := `[{"key":"CLOSING_LETTER","label":"Closing letter","subject":"s","body":"b"}]`
	r := NewRegistry("Lexhaven Legal", overrides)

	for _, p := range r.Previews() {
		if p.Key == "CLOSING_LETTER" {
			assert.False(t, p.BuiltIn)
			return
		}
	}
	t.Fatal("override preview not found")
}
