// Package importer implements the row validation and batch partitioning core
// of the import pipeline. Everything in this package is pure: no I/O, no
// side effects, deterministic results.
package importer

// Column names of the expected sheet layout, in physical order.
const (
	ColumnUserID          = "userId"
	ColumnName            = "name"
	ColumnEmail           = "email"
	ColumnProfileImageURL = "profileImageUrl"
)

// Columns is the fixed column order of the source sheet.
var Columns = []string{ColumnUserID, ColumnName, ColumnEmail, ColumnProfileImageURL}

// RawRow is one decoded sheet row prior to validation. Fields are pointers:
// nil means the cell was absent from the row. Numeric cells arrive as their
// decimal string rendering, which is why UserID needs no separate numeric
// representation here; the decode boundary has already stringified it.
type RawRow struct {
	UserID          *string
	Name            *string
	Email           *string
	ProfileImageURL *string
}

// IsEmpty reports whether every cell in the row is absent or blank.
func (r RawRow) IsEmpty() bool {
	for _, cell := range []*string{r.UserID, r.Name, r.Email, r.ProfileImageURL} {
		if cell != nil && *cell != "" {
			return false
		}
	}
	return true
}

// UserRecord is a row that has passed all validation checks.
type UserRecord struct {
	UserID          string
	Name            string
	Email           string
	ProfileImageURL string // empty when the optional column was absent
}

// WriteItem is the store-ready representation of a UserRecord. All fields are
// strings; the attributevalue tags define the table's attribute names.
type WriteItem struct {
	UserID          string `dynamodbav:"userId" json:"userId"`
	Name            string `dynamodbav:"name" json:"name"`
	Email           string `dynamodbav:"email" json:"email"`
	ProfileImageURL string `dynamodbav:"profileImageUrl,omitempty" json:"profileImageUrl,omitempty"`
}

// Item converts a validated record into its store-ready form.
func (u UserRecord) Item() WriteItem {
	return WriteItem{
		UserID:          u.UserID,
		Name:            u.Name,
		Email:           u.Email,
		ProfileImageURL: u.ProfileImageURL,
	}
}

// Items converts a slice of validated records, preserving order.
func Items(users []UserRecord) []WriteItem {
	if len(users) == 0 {
		return nil
	}
	items := make([]WriteItem, len(users))
	for i, u := range users {
		items[i] = u.Item()
	}
	return items
}
