package pipeline

import "testing"

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "bare object",
			raw:  `{"a": 1}`,
			want: `{"a": 1}`,
		},
		{
			name: "json fence",
			raw:  "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "plain fence",
			raw:  "```\n[\"CO1\"]\n```",
			want: `["CO1"]`,
		},
		{
			name: "prose around object",
			raw:  "Here are your picks:\n{\"recommendations\": []}\nHope that helps!",
			want: `{"recommendations": []}`,
		},
		{
			name: "prose around array",
			raw:  "Sure! [\"CO1\", \"CO2\"] there you go",
			want: `["CO1", "CO2"]`,
		},
		{
			name: "whitespace",
			raw:  "  \n {\"a\": 1} \n ",
			want: `{"a": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDecodeObject(t *testing.T) {
	obj, err := decodeObject("```json\n{\"email_subject\": \"Hi!\"}\n```")
	if err != nil {
		t.Fatalf("decodeObject failed: %v", err)
	}
	if got := stringValue(obj, "email_subject"); got != "Hi!" {
		t.Errorf("email_subject = %q, want %q", got, "Hi!")
	}

	if _, err := decodeObject("this is not json at all"); err == nil {
		t.Error("expected error for non-JSON input")
	}
}

func TestStringList(t *testing.T) {
	obj := map[string]any{
		"good":  []any{"a", " b ", ""},
		"mixed": []any{"a", 1.0, true},
		"wrong": "not a list",
	}

	if got := stringList(obj, "good"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("stringList(good) = %v", got)
	}
	if got := stringList(obj, "mixed"); len(got) != 1 || got[0] != "a" {
		t.Errorf("stringList(mixed) = %v", got)
	}
	if got := stringList(obj, "wrong"); got != nil {
		t.Errorf("stringList(wrong) = %v, want nil", got)
	}
	if got := stringList(obj, "missing"); got != nil {
		t.Errorf("stringList(missing) = %v, want nil", got)
	}
}

func TestSafeFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"number", 42.5, 42.5},
		{"dollar string", "$1,234.56", 1234.56},
		{"percent string", "59.94%", 59.94},
		{"quoted", `"120"`, 120},
		{"garbage", "lots", 0},
		{"nil", nil, 0},
		{"bool", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := safeFloat(tt.in); got != tt.want {
				t.Errorf("safeFloat(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
