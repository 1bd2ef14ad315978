package input

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims", "  1  ", "1"},
		{"strips markup", `<b>"Tarkwa's"</b>`, "bTarkwas/b"},
		{"empty", "   ", ""},
		{"keeps hash", "#", "#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitize_CapsLength(t *testing.T) {
	long := strings.Repeat("é", 250)
	got := Sanitize(long)
	assert.Equal(t, MaxInputLength, len([]rune(got)))
}

func TestMSISDN(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"233241234567", true},
		{"+233 24 123 4567", true},
		{"233-50-123-4567", true},
		{"0241234567", false},
		{"233141234567", false},
		{"23324123456", false},
		{"2332412345678", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidMSISDN(NormalizeMSISDN(tt.in)))
		})
	}
}

func TestUserID(t *testing.T) {
	assert.Equal(t, DefaultUserID, UserID(""))
	assert.Equal(t, DefaultUserID, UserID("  "))
	assert.Equal(t, "gateway-7", UserID("gateway-7"))
}

func TestIsDialString(t *testing.T) {
	assert.True(t, IsDialString("*920*55#"))
	assert.True(t, IsDialString("*415#"))
	assert.False(t, IsDialString("#"))
	assert.False(t, IsDialString("1"))
	assert.False(t, IsDialString("*abc#"))
	assert.False(t, IsDialString(""))
}
