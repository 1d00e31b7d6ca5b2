package database

import "time"

// User is an account.
type User struct {
	ID           string  `gorm:"primaryKey;size:36"`
	Email        string  `gorm:"uniqueIndex;size:255;not null"`
	Name         *string `gorm:"size:255"`
	PasswordHash string  `gorm:"size:255;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CVs          []CV `gorm:"constraint:OnDelete:CASCADE"`
}

// CV is one résumé owned by a user. Data holds the CV content as JSON text.
// Slugs are unique per owner.
type CV struct {
	ID         string  `gorm:"primaryKey;size:36"`
	UserID     string  `gorm:"size:36;not null;uniqueIndex:idx_cvs_user_slug,priority:1"`
	Title      string  `gorm:"size:255;not null"`
	Slug       string  `gorm:"size:255;not null;uniqueIndex:idx_cvs_user_slug,priority:2"`
	Template   string  `gorm:"size:32;not null"`
	Data       string  `gorm:"type:text;not null"`
	IsPublic   bool    `gorm:"not null;default:false"`
	PublicSlug *string `gorm:"size:255;uniqueIndex"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName keeps the table name stable regardless of GORM pluralisation rules.
func (CV) TableName() string { return "cvs" }

// Export statuses.
const (
	ExportPending   = "pending"
	ExportCompleted = "completed"
	ExportFailed    = "failed"
)

// Export tracks one rendering of a CV into an image file.
type Export struct {
	ID        string `gorm:"primaryKey;size:36"`
	CVID      string `gorm:"size:36;not null;index"`
	UserID    string `gorm:"size:36;not null;index"`
	Format    string `gorm:"size:8;not null"`
	Template  string `gorm:"size:32;not null"`
	Status    string `gorm:"size:16;not null"`
	ObjectKey string `gorm:"size:512"`
	Filename  string `gorm:"size:64"`
	Error     string `gorm:"size:1024"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
