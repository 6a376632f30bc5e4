package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExamBoard string

const (
	ExamBoardIGCSE ExamBoard = "IGCSE"
	ExamBoardIAL   ExamBoard = "IAL"
)

type Season string

const (
	SeasonWinter Season = "Winter"
	SeasonSummer Season = "Summer"
	SeasonSpring Season = "Spring"
	SeasonFall   Season = "Fall"
)

type PaperKind string

const (
	PaperKindQuestionPaper PaperKind = "Question Paper"
	PaperKindMarkScheme    PaperKind = "Mark Scheme"
)

var (
	ExamBoards = []ExamBoard{ExamBoardIGCSE, ExamBoardIAL}
	Seasons    = []Season{SeasonWinter, SeasonSummer, SeasonSpring, SeasonFall}
	PaperKinds = []PaperKind{PaperKindQuestionPaper, PaperKindMarkScheme}
)

// MinPaperYear is the earliest year a paper may be catalogued for.
const MinPaperYear = 2000

type Paper struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid"`
	Title       string    `json:"title" gorm:"not null;size:200"`
	Type        ExamBoard `json:"type" gorm:"not null;size:10;index:idx_papers_type_year_subject,priority:1;index:idx_papers_type_subject,priority:1"`
	Subject     string    `json:"subject" gorm:"not null;size:100;index:idx_papers_type_year_subject,priority:3;index:idx_papers_subject_year,priority:1;index:idx_papers_type_subject,priority:2"`
	Year        int       `json:"year" gorm:"not null;index:idx_papers_type_year_subject,priority:2;index:idx_papers_subject_year,priority:2"`
	Season      Season    `json:"season" gorm:"not null;size:10"`
	PaperType   PaperKind `json:"paperType" gorm:"column:paper_type;not null;size:20"`
	DriveLink   string    `json:"driveLink" gorm:"column:drive_link;not null;size:1000"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`

	// Metadata
	AddedByID string    `json:"-" gorm:"column:added_by;type:uuid;not null;index"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	AddedBy *AdminRef `json:"addedBy,omitempty" gorm:"foreignKey:AddedByID;references:ID"`
}

func (Paper) TableName() string {
	return "papers"
}

// BeforeCreate assigns the identifier when the caller has not.
func (p *Paper) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// CountByKey is one bucket of a grouped count. The JSON keys mirror the
// console's aggregate format.
type CountByKey struct {
	Key   interface{} `json:"_id"`
	Count int64       `json:"count"`
}

type PaperStats struct {
	TotalPapers     int64        `json:"totalPapers"`
	PapersByType    []CountByKey `json:"papersByType"`
	PapersByYear    []CountByKey `json:"papersByYear"`
	PapersBySubject []CountByKey `json:"papersBySubject"`
}
