package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/course-portal/internal/apperr"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Intro to HTML", "Intro to HTML"},
		{"trim", "  padded \n", "padded"},
		{"tags", "<b>bold</b> move", "bold move"},
		{"script", `<script type="text/javascript">alert(1)</script>hi`, "alert(1)hi"},
		{"quoted gt inside tag", `<a title="x>y">link</a>`, "link"},
		{"comment", "a<!-- hidden -->b", "ab"},
		{"lone lt kept and escaped", "a < b", "a &lt; b"},
		{"quotes", `Tom's "quote"`, "Tom&#039;s &quot;quote&quot;"},
		{"ampersand", "Q&A", "Q&amp;A"},
		{"unterminated tag", "safe<div class", "safe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitizePtr(t *testing.T) {
	assert.Nil(t, SanitizePtr(nil))
	in := " <i>x</i> "
	assert.Equal(t, "x", *SanitizePtr(&in))
}

func TestCleanList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, CleanList([]string{" a ", "", "  ", "b"}))
	assert.Equal(t, []string{}, CleanList(nil))
}

func TestIsEmailAndURL(t *testing.T) {
	v := DefaultValidator()
	assert.True(t, v.IsEmail("student@uni.edu"))
	assert.False(t, v.IsEmail("student@"))
	assert.False(t, v.IsEmail(""))

	assert.True(t, v.IsURL("https://example.com/files/brief.pdf"))
	assert.False(t, v.IsURL("example"))
	assert.False(t, v.IsURL(""))
}

type createInput struct {
	Title   string   `json:"title" validate:"required"`
	DueDate string   `json:"due_date" validate:"required,ymd"`
	Email   string   `json:"email" validate:"omitempty,email"`
	Files   []string `json:"files" validate:"dive,url"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, NewValidator().Validate(createInput{Title: "T", DueDate: "2025-02-15", Files: []string{"https://a.test/x"}}))

	err := NewValidator().Validate(createInput{DueDate: "2025-02-15"})
	require.Error(t, err)
	ae := apperr.From(err)
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	assert.Equal(t, "missing required field: title", ae.Message)

	err = NewValidator().Validate(createInput{Title: "T", DueDate: "15-02-2025"})
	ae = apperr.From(err)
	assert.Equal(t, "due_date must be a date in YYYY-MM-DD format", ae.Message)

	err = NewValidator().Validate(createInput{Title: "T", DueDate: "2025-02-15", Email: "nope"})
	ae = apperr.From(err)
	assert.Equal(t, "email must be a valid email address", ae.Message)

	err = NewValidator().Validate(createInput{Title: "T", DueDate: "2025-02-15", Files: []string{"https://a.test/x", "nope"}})
	ae = apperr.From(err)
	require.Len(t, ae.Fields, 1)
	assert.Equal(t, "files[1]", ae.Fields[0].Field)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "battery staple"))

	// out of range cost falls back to the default instead of failing
	hash, err = HashPassword("pw", 99)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "pw"))

	_, err = HashPassword(strings.Repeat("x", MaxPasswordBytes+1), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", "S1001", 5)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), tok.Exp, 5*time.Second)

	sub, err := ParseAccessToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "S1001", sub)

	_, err = ParseAccessToken("other-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessToken_RejectsExpiredAndForeignAlg(t *testing.T) {
	expired, err := NewAccessToken("secret", "S1", -1)
	require.NoError(t, err)
	_, err = ParseAccessToken("secret", expired.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "S1"})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseAccessToken("secret", raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
