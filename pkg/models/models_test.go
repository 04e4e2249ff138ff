package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func floatPtr(f float64) *float64 {
	return &f
}

func TestLastMod_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  LastMod
	}{
		{"bool true", "lastmod: true", LastMod{Today: true}},
		{"bool false", "lastmod: false", LastMod{}},
		{"date string", "lastmod: 2024-01-31", LastMod{Value: "2024-01-31"}},
		{"quoted string", `lastmod: "2024-01-31T10:00:00Z"`, LastMod{Value: "2024-01-31T10:00:00Z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got struct {
				LastMod LastMod `yaml:"lastmod"`
			}
			require.NoError(t, yaml.Unmarshal([]byte(tt.input), &got))
			assert.Equal(t, tt.want, got.LastMod)
		})
	}
}

func TestLastMod_Resolve(t *testing.T) {
	now := time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-09", LastMod{Today: true}.Resolve(now))
	assert.Equal(t, "2020-01-01", LastMod{Value: "2020-01-01"}.Resolve(now))
	assert.Equal(t, "", LastMod{}.Resolve(now))
	assert.False(t, LastMod{}.IsSet())

	// The date is taken in UTC whatever the clock's zone
	ahead := time.Date(2024, 5, 17, 1, 0, 0, 0, time.FixedZone("UTC+14", 14*3600))
	assert.Equal(t, "2024-05-16", LastMod{Today: true}.Resolve(ahead))
}

func TestPageRef_UnmarshalYAML(t *testing.T) {
	input := `
- /
- /about
- path: /contact
  priority: 0.3
  changefreq: weekly
  lastmod: true
  image: /img/contact.png
`
	var refs []PageRef
	require.NoError(t, yaml.Unmarshal([]byte(input), &refs))
	require.Len(t, refs, 3)

	assert.Equal(t, PageRef{Path: "/"}, refs[0])
	assert.False(t, refs[1].HasOverrides())

	assert.Equal(t, "/contact", refs[2].Path)
	assert.True(t, refs[2].HasOverrides())
	assert.Equal(t, 0.3, *refs[2].Priority)
	assert.Equal(t, ChangeFreqWeekly, refs[2].ChangeFreq)
	assert.True(t, refs[2].LastMod.Today)
	assert.Equal(t, map[string]Value{"image": String("/img/contact.png")}, refs[2].Extra)
}

func TestPageRef_UnmarshalYAML_StructuredExtra(t *testing.T) {
	input := `
- path: /about
  links:
    - lang: de
      url: https://mysite.com/de/about
    - lang: fr
      url: https://mysite.com/fr/about
  img:
    url: /img/team.png
    caption: The team
`
	var refs []PageRef
	require.NoError(t, yaml.Unmarshal([]byte(input), &refs))
	require.Len(t, refs, 1)

	assert.Equal(t, List(
		Map(Field{"lang", String("de")}, Field{"url", String("https://mysite.com/de/about")}),
		Map(Field{"lang", String("fr")}, Field{"url", String("https://mysite.com/fr/about")}),
	), refs[0].Extra[FieldLinks])
	assert.Equal(t, "The team", refs[0].Extra[FieldImages].GetString("caption"))
	assert.NoError(t, refs[0].Validate())
}

func TestPageRef_UnmarshalYAML_Errors(t *testing.T) {
	var refs []PageRef
	assert.Error(t, yaml.Unmarshal([]byte("- priority: 0.5"), &refs))
	assert.Error(t, yaml.Unmarshal([]byte("- [a, b]"), &refs))
}

func TestPathOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    PathOptions
		wantErr string
	}{
		{"empty", PathOptions{}, ""},
		{"valid", PathOptions{ChangeFreq: ChangeFreqDaily, Priority: floatPtr(0.8)}, ""},
		{"bad changefreq", PathOptions{ChangeFreq: "sometimes"}, "invalid changefreq"},
		{"priority too high", PathOptions{Priority: floatPtr(1.5)}, "out of range"},
		{"priority negative", PathOptions{Priority: floatPtr(-0.1)}, "out of range"},
		{"reserved extra", PathOptions{Extra: map[string]Value{"loc": String("x")}}, "cannot be overridden"},
		{"bad extra name", PathOptions{Extra: map[string]Value{"1bad": String("x")}}, "not a valid XML element name"},
		{"bad nested name", PathOptions{Extra: map[string]Value{"meta": Map(Field{"2x", String("y")})}}, "not a valid XML element name"},
		{"link", PathOptions{Extra: map[string]Value{FieldLinks: Map(Field{"hreflang", String("de")}, Field{"url", String("/de")})}}, ""},
		{"link without url", PathOptions{Extra: map[string]Value{FieldLinks: List(Map(Field{"lang", String("de")}))}}, "has no url"},
		{"link without lang", PathOptions{Extra: map[string]Value{FieldLinks: List(Map(Field{"url", String("/de")}))}}, "has no lang"},
		{"link scalar", PathOptions{Extra: map[string]Value{FieldLinks: String("/de")}}, "must be a mapping"},
		{"image url", PathOptions{Extra: map[string]Value{FieldImages: String("/a.png")}}, ""},
		{"image without url", PathOptions{Extra: map[string]Value{FieldImages: Map(Field{"caption", String("x")})}}, "must be a URL"},
		{"video scalar", PathOptions{Extra: map[string]Value{FieldVideo: String("x")}}, "must be a mapping"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValue_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Value
	}{
		{"scalar", "v: hello", String("hello")},
		{"number", "v: 42", String("42")},
		{"null", "v: ~", String("")},
		{"list", "v: [a, b]", List(String("a"), String("b"))},
		{"ordered map", "v: {z: 1, a: 2}", Map(Field{"z", String("1")}, Field{"a", String("2")})},
		{"nested", "v: {publication: {name: Daily}}", Map(Field{"publication", Map(Field{"name", String("Daily")})})},
		{"alias", "x: &x {a: 1}\nv: *x", Map(Field{"a", String("1")})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got struct {
				V Value `yaml:"v"`
			}
			require.NoError(t, yaml.Unmarshal([]byte(tt.input), &got))
			assert.Equal(t, tt.want, got.V)
		})
	}
}

func TestValue_Accessors(t *testing.T) {
	v := Map(Field{"url", String("/a")}, Field{"tags", List(String("x"))})
	assert.Equal(t, "/a", v.GetString("url"))
	assert.Equal(t, "", v.GetString("tags"))
	assert.Equal(t, "", v.GetString("missing"))
	assert.Equal(t, []Value{v}, v.Items())
	assert.Equal(t, []Value{String("x")}, List(String("x")).Items())

	out, err := yaml.Marshal(map[string]Value{"v": v})
	require.NoError(t, err)
	var back map[string]Value
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, v, back["v"])
}

func TestPathOptions_Merge(t *testing.T) {
	global := PathOptions{
		LastMod:    LastMod{Today: true},
		ChangeFreq: ChangeFreqMonthly,
		Extra:      map[string]Value{"a": String("global"), "b": String("global")},
	}
	entry := PathOptions{
		LastMod:  LastMod{Value: "2020-01-01"},
		Priority: floatPtr(0.2),
		Extra:    map[string]Value{"b": String("entry")},
	}

	merged := global.Merge(entry)
	assert.Equal(t, LastMod{Value: "2020-01-01"}, merged.LastMod)
	assert.Equal(t, ChangeFreqMonthly, merged.ChangeFreq)
	assert.Equal(t, 0.2, *merged.Priority)
	assert.Equal(t, map[string]Value{"a": String("global"), "b": String("entry")}, merged.Extra)
	assert.Equal(t, []string{"a", "b"}, merged.ExtraNames())

	// Inputs are untouched
	assert.Equal(t, String("global"), global.Extra["b"])
	assert.Nil(t, global.Priority)
}
