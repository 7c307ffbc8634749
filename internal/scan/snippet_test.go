package scan

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestMakeSnippet_ShortContentUnchanged(t *testing.T) {
	for _, n := range []int{0, 1, 1500, 3000} {
		s := strings.Repeat("a", n)
		assert.Equal(t, s, MakeSnippet(s, 1500, 1500), "len=%d", n)
	}
}

func TestMakeSnippet_Truncates(t *testing.T) {
	s := strings.Repeat("h", 1500) + strings.Repeat("m", 10) + strings.Repeat("t", 1500)
	got := MakeSnippet(s, 1500, 1500)

	assert.Len(t, got, 1500+len(TruncationMarker)+1500)
	assert.True(t, strings.HasPrefix(got, strings.Repeat("h", 1500)+TruncationMarker))
	assert.True(t, strings.HasSuffix(got, TruncationMarker+strings.Repeat("t", 1500)))
	assert.NotContains(t, got, "m")
}

func TestMakeSnippet_AsymmetricWindow(t *testing.T) {
	got := MakeSnippet("0123456789", 2, 3)
	assert.Equal(t, "01"+TruncationMarker+"789", got)
}

func TestMakeSnippet_CountsCharactersNotBytes(t *testing.T) {
	korean := strings.Repeat("가", 2000)
	assert.Equal(t, korean, MakeSnippet(korean, 1500, 1500))

	mixed := "a" + strings.Repeat("한", 1200)
	assert.Equal(t, mixed, MakeSnippet(mixed, 1500, 1500))
}

func TestMakeSnippet_TruncatesOnRuneBoundaries(t *testing.T) {
	s := strings.Repeat("머", 1500) + "중간" + strings.Repeat("끝", 1500)
	got := MakeSnippet(s, 1500, 1500)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 3000+utf8.RuneCountInString(TruncationMarker), utf8.RuneCountInString(got))
	assert.True(t, strings.HasPrefix(got, strings.Repeat("머", 1500)+TruncationMarker))
	assert.True(t, strings.HasSuffix(got, TruncationMarker+strings.Repeat("끝", 1500)))
	assert.NotContains(t, got, "중간")
}
