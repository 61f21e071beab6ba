package importer

import (
	"fmt"
	"regexp"
)

// Patterns match the original import contract: a minimal local@domain.tld
// shape for email, and an http(s) scheme followed by anything non-blank for
// the optional image URL.
var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s]+$`)
	urlPattern   = regexp.MustCompile(`^https?://[^\s]+$`)
)

// Outcome is the result of validating a single row. Exactly one Outcome
// exists per input row and outcomes preserve input order.
type Outcome struct {
	// Index is the 0-based position of the row within the data rows
	Index int
	// Record holds the validated row; nil when the row was rejected
	Record *UserRecord
	// Diagnostic is the human-readable rejection reason; "" when valid
	Diagnostic string
}

// Valid reports whether the row passed all checks.
func (o Outcome) Valid() bool {
	return o.Record != nil
}

// Validate checks one raw row against the fixed schema and returns exactly
// one Outcome. Checks short-circuit: the first failing check determines the
// reported reason.
//
// Diagnostics reference the spreadsheet row as displayed in the file: data
// row 0 is spreadsheet row 2, accounting for the header row and 1-based
// numbering.
func Validate(row RawRow, index int) Outcome {
	if row.IsEmpty() {
		return invalid(index, "Empty row")
	}

	if row.UserID == nil || *row.UserID == "" {
		return invalid(index, "Missing or invalid 'userId'")
	}

	if row.Name == nil || *row.Name == "" {
		return invalid(index, "Missing or invalid 'name'")
	}

	if row.Email == nil || !emailPattern.MatchString(*row.Email) {
		return invalid(index, "Invalid 'email'")
	}

	// Optional column: only checked when present and non-blank.
	if row.ProfileImageURL != nil && *row.ProfileImageURL != "" {
		if !urlPattern.MatchString(*row.ProfileImageURL) {
			return invalid(index, "Invalid 'profileImageUrl'")
		}
	}

	record := &UserRecord{
		UserID: *row.UserID,
		Name:   *row.Name,
		Email:  *row.Email,
	}
	if row.ProfileImageURL != nil {
		record.ProfileImageURL = *row.ProfileImageURL
	}

	return Outcome{Index: index, Record: record}
}

// ValidateAll validates every row in order and splits the outcomes into
// valid records and rejection diagnostics. Both slices preserve input order;
// no row blocks another.
func ValidateAll(rows []RawRow) (users []UserRecord, diagnostics []string) {
	for i, row := range rows {
		outcome := Validate(row, i)
		if outcome.Valid() {
			users = append(users, *outcome.Record)
		} else {
			diagnostics = append(diagnostics, outcome.Diagnostic)
		}
	}
	return users, diagnostics
}

func invalid(index int, reason string) Outcome {
	return Outcome{
		Index:      index,
		Diagnostic: fmt.Sprintf("Row %d: %s", index+2, reason),
	}
}
