package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stwalsh4118/recordbook/internal/database"
	"github.com/stwalsh4118/recordbook/internal/models"
)

// recordDocument is the BSON shape of a record.
type recordDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Name       string             `bson:"name"`
	Phone      string             `bson:"phone"`
	Email      string             `bson:"email"`
	Address    string             `bson:"address"`
	State      string             `bson:"state"`
	District   string             `bson:"district"`
	City       string             `bson:"city"`
	Zipcode    string             `bson:"zipcode"`
	RecordDate time.Time          `bson:"recordDate"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
}

func newRecordDocument(rec *models.Record) recordDocument {
	return recordDocument{
		Name:       rec.Name,
		Phone:      rec.Phone,
		Email:      rec.Email,
		Address:    rec.Address,
		State:      rec.State,
		District:   rec.District,
		City:       rec.City,
		Zipcode:    rec.Zipcode,
		RecordDate: rec.RecordDate,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
}

func (doc recordDocument) toModel() models.Record {
	return models.Record{
		ID:         doc.ID.Hex(),
		Name:       doc.Name,
		Phone:      doc.Phone,
		Email:      doc.Email,
		Address:    doc.Address,
		State:      doc.State,
		District:   doc.District,
		City:       doc.City,
		Zipcode:    doc.Zipcode,
		RecordDate: doc.RecordDate.UTC(),
		CreatedAt:  doc.CreatedAt.UTC(),
		UpdatedAt:  doc.UpdatedAt.UTC(),
	}
}

type mongoRecordRepository struct {
	coll *mongo.Collection
}

// NewMongoRecordRepository creates a RecordRepository backed by MongoDB.
func NewMongoRecordRepository(db *database.Mongo) RecordRepository {
	return &mongoRecordRepository{coll: db.Records()}
}

// containsRegex matches s literally anywhere, ignoring case.
func containsRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func searchFilter(search string) bson.M {
	if search == "" {
		return bson.M{}
	}
	re := containsRegex(search)
	or := make(bson.A, 0, len(SearchFields))
	for _, field := range SearchFields {
		or = append(or, bson.M{field: re})
	}
	return bson.M{"$or": or}
}

func (r *mongoRecordRepository) find(ctx context.Context, filter any, opts *options.FindOptions) ([]models.Record, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer cur.Close(ctx)

	var docs []recordDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	records := make([]models.Record, len(docs))
	for i, doc := range docs {
		records[i] = doc.toModel()
	}
	return records, nil
}

func (r *mongoRecordRepository) List(ctx context.Context, q ListQuery) ([]models.Record, int64, error) {
	filter := searchFilter(q.Search)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count records: %w", err)
	}

	dir := 1
	if q.Descending() {
		dir = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: q.SortField, Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.PageSize))

	records, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *mongoRecordRepository) FindByID(ctx context.Context, id string) (*models.Record, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc recordDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query record %s: %w", id, err)
	}

	rec := doc.toModel()
	return &rec, nil
}

func (r *mongoRecordRepository) FindByField(ctx context.Context, field, value string) ([]models.Record, error) {
	if !IsFilterField(field) {
		return nil, fmt.Errorf("unsupported filter field %q", field)
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{field: containsRegex(value)}, opts)
}

func (r *mongoRecordRepository) FindByDateRange(ctx context.Context, start, end time.Time) ([]models.Record, error) {
	filter := bson.M{"recordDate": bson.M{"$gte": start, "$lte": end}}
	opts := options.Find().SetSort(bson.D{{Key: "recordDate", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *mongoRecordRepository) Create(ctx context.Context, rec *models.Record) error {
	doc := newRecordDocument(rec)
	doc.ID = primitive.NewObjectID()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	rec.ID = doc.ID.Hex()
	return nil
}

func (r *mongoRecordRepository) Replace(ctx context.Context, rec *models.Record) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(rec.ID)
	if err != nil {
		return false, nil
	}

	doc := newRecordDocument(rec)
	doc.ID = oid
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return false, fmt.Errorf("failed to update record %s: %w", rec.ID, err)
	}
	return res.MatchedCount > 0, nil
}

func (r *mongoRecordRepository) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	return res.DeletedCount > 0, nil
}

func (r *mongoRecordRepository) Count(ctx context.Context) (int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return total, nil
}
