package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/respondent-registry-api/internal/models"
)

// RespondentRow is the relational mapping of a respondent.
type RespondentRow struct {
	ID             string         `gorm:"primaryKey;size:36"`
	Name           string         `gorm:"size:255;not null"`
	PlaceOfBirth   string         `gorm:"column:pob;size:255"`
	DateOfBirth    datatypes.Date `gorm:"column:dob;not null"`
	Gender         string         `gorm:"size:16"`
	Address        string         `gorm:"size:512"`
	Semester       int
	Phone          string    `gorm:"size:32;uniqueIndex;not null"`
	Email          string    `gorm:"size:255"`
	Height         float64   `gorm:"not null"`
	Weight         float64   `gorm:"not null"`
	MedicalHistory string    `gorm:"column:medical_history;type:text"`
	CreatedAt      time.Time `gorm:"index;not null"`
}

// TableName pins the table to the respondent collection name.
func (RespondentRow) TableName() string {
	return RespondentCollection
}

type gormRespondentRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormRespondentRepository constructs a repository backed by GORM. The
// connection should be opened with TranslateError so unique violations surface.
func NewGormRespondentRepository(db *gorm.DB) RespondentRepository {
	return &gormRespondentRepository{db: db, now: time.Now}
}

func (r *gormRespondentRepository) EnsureIndexes(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&RespondentRow{})
}

func (r *gormRespondentRepository) Create(ctx context.Context, respondent *models.Respondent) error {
	row := toRespondentRow(*respondent)
	row.ID = uuid.NewString()
	row.CreatedAt = r.now().UTC()

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return err
	}

	respondent.ID = row.ID
	respondent.CreatedAt = row.CreatedAt
	return nil
}

func (r *gormRespondentRepository) List(ctx context.Context) ([]models.Respondent, error) {
	var rows []RespondentRow
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	respondents := make([]models.Respondent, 0, len(rows))
	for _, row := range rows {
		respondents = append(respondents, row.toModel())
	}
	return respondents, nil
}

func (r *gormRespondentRepository) GetByID(ctx context.Context, id string) (models.Respondent, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *gormRespondentRepository) FindByPhone(ctx context.Context, phone string) (models.Respondent, error) {
	return r.first(ctx, "phone = ?", phone)
}

func (r *gormRespondentRepository) Update(ctx context.Context, id string, respondent models.Respondent) (models.Respondent, error) {
	row := toRespondentRow(respondent)

	result := r.db.WithContext(ctx).
		Model(&RespondentRow{}).
		Where("id = ?", id).
		Select("*").
		Omit("id", "created_at").
		Updates(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return models.Respondent{}, ErrDuplicateKey
		}
		return models.Respondent{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Respondent{}, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *gormRespondentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&RespondentRow{}).Error
}

func (r *gormRespondentRepository) first(ctx context.Context, query string, arg interface{}) (models.Respondent, error) {
	var row RespondentRow
	if err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Respondent{}, ErrNotFound
		}
		return models.Respondent{}, err
	}
	return row.toModel(), nil
}

func toRespondentRow(respondent models.Respondent) RespondentRow {
	return RespondentRow{
		Name:           respondent.Name,
		PlaceOfBirth:   respondent.PlaceOfBirth,
		DateOfBirth:    datatypes.Date(respondent.DateOfBirth.UTC()),
		Gender:         string(respondent.Gender),
		Address:        respondent.Address,
		Semester:       respondent.Semester,
		Phone:          respondent.Phone,
		Email:          respondent.Email,
		Height:         respondent.Height,
		Weight:         respondent.Weight,
		MedicalHistory: respondent.MedicalHistory,
	}
}

func (row RespondentRow) toModel() models.Respondent {
	dob := time.Time(row.DateOfBirth)
	y, m, d := dob.Date()

	return models.Respondent{
		ID:             row.ID,
		Name:           row.Name,
		PlaceOfBirth:   row.PlaceOfBirth,
		DateOfBirth:    time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Gender:         models.Gender(row.Gender),
		Address:        row.Address,
		Semester:       row.Semester,
		Phone:          row.Phone,
		Email:          row.Email,
		Height:         row.Height,
		Weight:         row.Weight,
		MedicalHistory: row.MedicalHistory,
		CreatedAt:      row.CreatedAt.UTC(),
	}
}
