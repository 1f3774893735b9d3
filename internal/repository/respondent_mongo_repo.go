package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/respondent-registry-api/internal/models"
)

// RespondentCollection is the document collection holding respondents.
const RespondentCollection = "respondents"

type respondentDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Name           string             `bson:"name"`
	PlaceOfBirth   string             `bson:"pob,omitempty"`
	DateOfBirth    time.Time          `bson:"dob"`
	Gender         string             `bson:"gender,omitempty"`
	Address        string             `bson:"address,omitempty"`
	Semester       int                `bson:"semester,omitempty"`
	Phone          string             `bson:"phone"`
	Email          string             `bson:"email,omitempty"`
	Height         float64            `bson:"height"`
	Weight         float64            `bson:"weight"`
	MedicalHistory string             `bson:"medicalHistory,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt"`
}

type mongoRespondentRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
	now        func() time.Time
}

// NewMongoRespondentRepository constructs a repository backed by a MongoDB collection.
func NewMongoRespondentRepository(collection *mongo.Collection, timeout time.Duration) RespondentRepository {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &mongoRespondentRepository{
		collection: collection,
		timeout:    timeout,
		now:        time.Now,
	}
}

func (r *mongoRespondentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("respondents_phone_unique"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("respondents_created_at"),
		},
	})
	return err
}

func (r *mongoRespondentRepository) Create(ctx context.Context, respondent *models.Respondent) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	doc := toRespondentDocument(*respondent)
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = r.now().UTC().Truncate(time.Millisecond)

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return err
	}

	respondent.ID = doc.ID.Hex()
	respondent.CreatedAt = doc.CreatedAt
	return nil
}

func (r *mongoRespondentRepository) List(ctx context.Context) ([]models.Respondent, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []respondentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	respondents := make([]models.Respondent, 0, len(docs))
	for _, doc := range docs {
		respondents = append(respondents, doc.toModel())
	}
	return respondents, nil
}

func (r *mongoRespondentRepository) GetByID(ctx context.Context, id string) (models.Respondent, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Respondent{}, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoRespondentRepository) FindByPhone(ctx context.Context, phone string) (models.Respondent, error) {
	return r.findOne(ctx, bson.M{"phone": phone})
}

func (r *mongoRespondentRepository) Update(ctx context.Context, id string, respondent models.Respondent) (models.Respondent, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Respondent{}, ErrNotFound
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	doc := toRespondentDocument(respondent)
	update := bson.M{"$set": bson.M{
		"name":           doc.Name,
		"pob":            doc.PlaceOfBirth,
		"dob":            doc.DateOfBirth,
		"gender":         doc.Gender,
		"address":        doc.Address,
		"semester":       doc.Semester,
		"phone":          doc.Phone,
		"email":          doc.Email,
		"height":         doc.Height,
		"weight":         doc.Weight,
		"medicalHistory": doc.MedicalHistory,
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated respondentDocument
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&updated)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.Respondent{}, ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return models.Respondent{}, ErrDuplicateKey
	case err != nil:
		return models.Respondent{}, err
	}

	return updated.toModel(), nil
}

func (r *mongoRespondentRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

func (r *mongoRespondentRepository) findOne(ctx context.Context, filter bson.M) (models.Respondent, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var doc respondentDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Respondent{}, ErrNotFound
		}
		return models.Respondent{}, err
	}
	return doc.toModel(), nil
}

func (r *mongoRespondentRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, r.timeout)
}

func toRespondentDocument(respondent models.Respondent) respondentDocument {
	return respondentDocument{
		Name:           respondent.Name,
		PlaceOfBirth:   respondent.PlaceOfBirth,
		DateOfBirth:    respondent.DateOfBirth.UTC(),
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

func (d respondentDocument) toModel() models.Respondent {
	return models.Respondent{
		ID:             d.ID.Hex(),
		Name:           d.Name,
		PlaceOfBirth:   d.PlaceOfBirth,
		DateOfBirth:    d.DateOfBirth.UTC(),
		Gender:         models.Gender(d.Gender),
		Address:        d.Address,
		Semester:       d.Semester,
		Phone:          d.Phone,
		Email:          d.Email,
		Height:         d.Height,
		Weight:         d.Weight,
		MedicalHistory: d.MedicalHistory,
		CreatedAt:      d.CreatedAt.UTC(),
	}
}
