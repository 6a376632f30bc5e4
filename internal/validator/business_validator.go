package validator

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/paperlords/admin-service/internal/models"
)

// driveLinkPattern is the allow-list of hosting services a paper may link to
var driveLinkPattern = regexp.MustCompile(`^https?://(drive\.google\.com|www\.dropbox\.com|drive\.proton\.me)`)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
	now      func() time.Time
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(jsonTagName)

	bv := &BusinessValidator{validate: validate, now: time.Now}
	bv.registerBusinessRules()

	return bv
}

// WithClock overrides the clock used for the year range check
func (bv *BusinessValidator) WithClock(now func() time.Time) *BusinessValidator {
	bv.now = now
	return bv
}

// MaxPaperYear is the latest year accepted at the current time
func (bv *BusinessValidator) MaxPaperYear() int {
	return bv.now().Year() + 1
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidatePaper checks every field constraint of a new paper record,
// including its creator reference. It does not touch storage.
func (bv *BusinessValidator) ValidatePaper(p *models.Paper) ValidationErrors {
	errors := bv.ValidatePaperFields(p)
	if strings.TrimSpace(p.AddedByID) == "" {
		errors = append(errors, ValidationError{
			Field:   "addedBy",
			Message: "is required",
			Rule:    "required",
		})
	}
	return errors
}

// ValidatePaperFields checks the editable fields only. Updates use it: the
// creator is write-once and may reference an admin that no longer exists.
func (bv *BusinessValidator) ValidatePaperFields(p *models.Paper) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.checkField("title", p.Title, "required,max=200")...)
	errors = append(errors, bv.checkField("type", string(p.Type), "required,exam_board")...)
	errors = append(errors, bv.checkField("subject", p.Subject, "required,max=100")...)
	errors = append(errors, bv.checkField("year", p.Year, "required,paper_year")...)
	errors = append(errors, bv.checkField("season", string(p.Season), "required,season")...)
	errors = append(errors, bv.checkField("paperType", string(p.PaperType), "required,paper_kind")...)
	errors = append(errors, bv.checkField("driveLink", p.DriveLink, "required,drive_link")...)
	if p.Description != nil {
		errors = append(errors, bv.checkField("description", *p.Description, "max=2000")...)
	}

	return errors
}

// ValidateAdminRegister validates an admin registration request
func (bv *BusinessValidator) ValidateAdminRegister(req *AdminRegisterRequest) ValidationErrors {
	return bv.Validate(req)
}

// NormalizePaper trims free-text fields and upper-cases the exam board in place
func NormalizePaper(p *models.Paper) {
	p.Title = strings.TrimSpace(p.Title)
	p.Subject = strings.TrimSpace(p.Subject)
	p.Type = models.ExamBoard(strings.ToUpper(strings.TrimSpace(string(p.Type))))
	p.DriveLink = strings.TrimSpace(p.DriveLink)
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		p.Description = &desc
	}
}

// IsDriveLink reports whether a link points to an allow-listed drive service
func IsDriveLink(link string) bool {
	return driveLinkPattern.MatchString(link)
}

func (bv *BusinessValidator) checkField(field string, value interface{}, tag string) ValidationErrors {
	err := bv.validate.Var(value, tag)
	if err == nil {
		return nil
	}

	out := ToValidationErrors(err)
	for i := range out {
		out[i].Field = field
		if out[i].Rule == "paper_year" {
			out[i].Message = fmt.Sprintf("must be between %d and %d", models.MinPaperYear, bv.MaxPaperYear())
		}
	}
	return out
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	bv.validate.RegisterValidation("exam_board", func(fl validator.FieldLevel) bool {
		board := models.ExamBoard(fl.Field().String())
		for _, valid := range models.ExamBoards {
			if board == valid {
				return true
			}
		}
		return false
	})

	bv.validate.RegisterValidation("season", func(fl validator.FieldLevel) bool {
		season := models.Season(fl.Field().String())
		for _, valid := range models.Seasons {
			if season == valid {
				return true
			}
		}
		return false
	})

	bv.validate.RegisterValidation("paper_kind", func(fl validator.FieldLevel) bool {
		kind := models.PaperKind(fl.Field().String())
		for _, valid := range models.PaperKinds {
			if kind == valid {
				return true
			}
		}
		return false
	})

	// Upper bound moves with the calendar: next year's papers may be listed early
	bv.validate.RegisterValidation("paper_year", func(fl validator.FieldLevel) bool {
		year := int(fl.Field().Int())
		return year >= models.MinPaperYear && year <= bv.MaxPaperYear()
	})

	bv.validate.RegisterValidation("drive_link", func(fl validator.FieldLevel) bool {
		return IsDriveLink(fl.Field().String())
	})

	bv.validate.RegisterValidation("admin_role", func(fl validator.FieldLevel) bool {
		role := models.AdminRole(fl.Field().String())
		return role == models.RoleAdmin || role == models.RoleSuperAdmin
	})
}
