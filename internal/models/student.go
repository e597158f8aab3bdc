package models

import "time"

// Academic levels recognised by the platform.
const (
	NiveauL1       = "L1"
	NiveauL2       = "L2"
	NiveauL3       = "L3"
	NiveauM1       = "M1"
	NiveauM2       = "M2"
	NiveauDoctorat = "Doctorat"
)

// Track is the programme of study a student is enrolled in (filiere).
type Track struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"size:1024" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Student carries the academic profile of a learner. Credentials live on the
// associated User row; the admin student service creates both inside one
// transaction together with a zero-valued ActivityProfile.
type Student struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UserID             uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	User               User       `json:"user"`
	TrackID            *uint      `gorm:"index" json:"track_id,omitempty"`
	Track              *Track     `json:"track,omitempty"`
	Niveau             string     `gorm:"size:16;not null" json:"niveau"`
	Promotion          int        `gorm:"not null" json:"promotion"`
	AcademicEmail      string     `gorm:"size:255" json:"academic_email"`
	InscriptionDate    time.Time  `json:"inscription_date"`
	ExpectedGraduation *time.Time `json:"expected_graduation,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
