package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string {
	return &s
}

func validRow() RawRow {
	return RawRow{
		UserID: strp("u-1"),
		Name:   strp("Ada Lovelace"),
		Email:  strp("ada@example.com"),
	}
}

func TestValidateAcceptsCompleteRow(t *testing.T) {
	row := validRow()
	row.ProfileImageURL = strp("https://img.example.com/ada.png")

	outcome := Validate(row, 0)

	require.True(t, outcome.Valid())
	assert.Equal(t, "u-1", outcome.Record.UserID)
	assert.Equal(t, "Ada Lovelace", outcome.Record.Name)
	assert.Equal(t, "ada@example.com", outcome.Record.Email)
	assert.Equal(t, "https://img.example.com/ada.png", outcome.Record.ProfileImageURL)
	assert.Empty(t, outcome.Diagnostic)
}

func TestValidateAcceptsRowWithoutImageURL(t *testing.T) {
	outcome := Validate(validRow(), 3)

	require.True(t, outcome.Valid())
	assert.Empty(t, outcome.Record.ProfileImageURL)
}

func TestValidateNumericUserID(t *testing.T) {
	// Numeric cells arrive stringified from the decode boundary.
	row := validRow()
	row.UserID = strp("1042")

	outcome := Validate(row, 0)

	require.True(t, outcome.Valid())
	assert.Equal(t, "1042", outcome.Record.UserID)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*RawRow)
		index    int
		expected string
	}{
		{
			name:     "empty row",
			mutate:   func(r *RawRow) { *r = RawRow{} },
			index:    0,
			expected: "Row 2: Empty row",
		},
		{
			name: "all cells blank",
			mutate: func(r *RawRow) {
				*r = RawRow{UserID: strp(""), Name: strp(""), Email: strp(""), ProfileImageURL: strp("")}
			},
			index:    4,
			expected: "Row 6: Empty row",
		},
		{
			name:     "missing userId",
			mutate:   func(r *RawRow) { r.UserID = nil },
			index:    0,
			expected: "Row 2: Missing or invalid 'userId'",
		},
		{
			name:     "blank userId",
			mutate:   func(r *RawRow) { r.UserID = strp("") },
			index:    1,
			expected: "Row 3: Missing or invalid 'userId'",
		},
		{
			name:     "missing name",
			mutate:   func(r *RawRow) { r.Name = nil },
			index:    0,
			expected: "Row 2: Missing or invalid 'name'",
		},
		{
			name:     "blank name",
			mutate:   func(r *RawRow) { r.Name = strp("") },
			index:    2,
			expected: "Row 4: Missing or invalid 'name'",
		},
		{
			name:     "missing email",
			mutate:   func(r *RawRow) { r.Email = nil },
			index:    0,
			expected: "Row 2: Invalid 'email'",
		},
		{
			name:     "email without tld",
			mutate:   func(r *RawRow) { r.Email = strp("foo@bar") },
			index:    0,
			expected: "Row 2: Invalid 'email'",
		},
		{
			name:     "email with spaces",
			mutate:   func(r *RawRow) { r.Email = strp("foo bar@baz.com") },
			index:    0,
			expected: "Row 2: Invalid 'email'",
		},
		{
			name:     "email with double at",
			mutate:   func(r *RawRow) { r.Email = strp("foo@@bar.com") },
			index:    0,
			expected: "Row 2: Invalid 'email'",
		},
		{
			name:     "non-http image url",
			mutate:   func(r *RawRow) { r.ProfileImageURL = strp("ftp://x.com") },
			index:    0,
			expected: "Row 2: Invalid 'profileImageUrl'",
		},
		{
			name:     "image url with spaces",
			mutate:   func(r *RawRow) { r.ProfileImageURL = strp("https://x.com/a b.png") },
			index:    0,
			expected: "Row 2: Invalid 'profileImageUrl'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			tt.mutate(&row)

			outcome := Validate(row, tt.index)

			require.False(t, outcome.Valid())
			assert.Nil(t, outcome.Record)
			assert.Equal(t, tt.expected, outcome.Diagnostic)
		})
	}
}

func TestValidateEmailPasses(t *testing.T) {
	for _, email := range []string{"foo@bar.com", "a.b@c.d.io", "x+y@domain.co"} {
		row := validRow()
		row.Email = strp(email)

		assert.True(t, Validate(row, 0).Valid(), "email %q should pass", email)
	}
}

func TestValidateCheckOrder(t *testing.T) {
	// The first failing check wins: a row missing both userId and email
	// reports the userId problem.
	row := RawRow{Name: strp("x")}

	outcome := Validate(row, 0)

	require.False(t, outcome.Valid())
	assert.Equal(t, "Row 2: Missing or invalid 'userId'", outcome.Diagnostic)
}

func TestValidateFirstDataRowReportsAsRowTwo(t *testing.T) {
	outcome := Validate(RawRow{}, 0)

	assert.Contains(t, outcome.Diagnostic, "Row 2:")
}

func TestValidateAllPreservesOrderAndSplits(t *testing.T) {
	good := validRow()
	bad := validRow()
	bad.Email = strp("nope")

	users, diagnostics := ValidateAll([]RawRow{good, bad, good, {}})

	require.Len(t, users, 2)
	require.Len(t, diagnostics, 2)
	assert.Equal(t, "Row 3: Invalid 'email'", diagnostics[0])
	assert.Equal(t, "Row 5: Empty row", diagnostics[1])
}

func TestValidateAllEmptyInput(t *testing.T) {
	users, diagnostics := ValidateAll(nil)

	assert.Empty(t, users)
	assert.Empty(t, diagnostics)
}
