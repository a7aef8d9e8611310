package textutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain text", "hello world", "hello world"},
		{"tags removed", "<p>hello <b>world</b></p>", "hello world"},
		{"entities decoded", "Fish &amp; Chips &gt; Burgers", "Fish & Chips > Burgers"},
		{
			"script and style dropped",
			`<script>var x = "<p>not text</p>";</script><style>p { color: red }</style>Visible`,
			"Visible",
		},
		{
			"paragraph breaks preserved",
			"First paragraph.\n\nSecond   paragraph.",
			"First paragraph.\n\nSecond paragraph.",
		},
		{
			"blank line runs collapse to one break",
			"a\n\n\n\nb",
			"a\n\nb",
		},
		{
			"single newlines become spaces",
			"line one\nline two",
			"line one line two",
		},
		{
			"windows newlines",
			"a\r\n\r\nb",
			"a\n\nb",
		},
		{
			"multiline script",
			"before<script type=\"text/javascript\">\nalert('hi');\n</script>after",
			"before after",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripHTML(tt.in))
		})
	}
}

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2023-01-25T12:27:49-05:00")
	require.True(t, ok)
	assert.Equal(t, 2023, got.Year())
	assert.Equal(t, time.January, got.Month())

	got, ok = ParseDate("2024-06-01")
	require.True(t, ok)
	assert.Equal(t, 1, got.Day())

	_, ok = ParseDate("not a date")
	assert.False(t, ok)

	_, ok = ParseDate("")
	assert.False(t, ok)

	_, ok = ParseDate("   ")
	assert.False(t, ok)
}

func TestNormalizeForDeduplication(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Senior Engineer - Backend (Remote)", "senior engineer backend remote"},
		{"ACME, Inc.", "acme inc"},
		{"C++ Developer", "c developer"},
		{"  spaced   out  ", "spaced out"},
		{"[Urgent!] DevOps/SRE #3", "urgent devops sre 3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeForDeduplication(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeForDeduplicationStableAcrossSources(t *testing.T) {
	a := NormalizeForDeduplication("Backend Engineer (Remote) " + "Globex")
	b := NormalizeForDeduplication("backend engineer remote" + " globex")
	assert.Equal(t, a, b)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b", CleanText("a  b"))
	assert.Equal(t, "one two", CleanText("  one \n\t two  "))
	assert.Equal(t, "", CleanText("   "))
}
