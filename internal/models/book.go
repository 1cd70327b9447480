package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ReadingStatus is where a book stands in its owner's reading.
type ReadingStatus string

const (
	ReadingStatusWantToRead ReadingStatus = "want_to_read"
	ReadingStatusReading    ReadingStatus = "reading"
	ReadingStatusRead       ReadingStatus = "read"
	ReadingStatusAbandoned  ReadingStatus = "abandoned"
)

// StringList is a []string persisted as a JSON text column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("StringList: unsupported source type %T", src)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(l))
}

// Book is one entry in a principal's reading catalog.
type Book struct {
	BaseModel
	OwnerID       uint          `gorm:"not null;index:idx_books_owner_year" json:"ownerId"`
	Title         string        `gorm:"type:varchar(255);not null;index" json:"title"`
	Authors       StringList    `gorm:"type:text;not null" json:"authors"`
	ISBN          *string       `gorm:"type:varchar(32)" json:"isbn,omitempty"`
	Publisher     string        `gorm:"type:varchar(255)" json:"publisher,omitempty"`
	PublishedYear *int          `json:"publishedYear,omitempty"`
	Genres        StringList    `gorm:"type:text" json:"genres"`
	Pages         *int          `json:"pages,omitempty"`
	Synopsis      string        `gorm:"type:text" json:"synopsis,omitempty"`
	CoverURL      string        `gorm:"type:varchar(512)" json:"coverUrl"`
	ReadingYear   int           `gorm:"not null;index:idx_books_owner_year" json:"readingYear"`
	ReadingStatus ReadingStatus `gorm:"type:varchar(20);not null;default:'want_to_read'" json:"readingStatus"`
	IsFavorite    bool          `gorm:"not null;default:false" json:"isFavorite"`
	Rating        *float64      `json:"rating,omitempty"`
}

// YearShelf groups a principal's books by reading year.
type YearShelf struct {
	Year  int    `json:"year"`
	Books []Book `json:"books"`
}
