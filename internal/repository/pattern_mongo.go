package repository

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ottereview/ottereview-ai/internal/models"
)

// PatternMongo persists and retrieves pattern records across three
// collections, one per record kind:
//
//	pr_patterns       – one doc per (merged PR, functional category)
//	review_patterns   – one doc per submitted review
//	reviewer_patterns – one doc per reviewer, updated in place
//
// Each collection carries an Atlas Vector Search index over "embedding" with
// cosine similarity.
type PatternMongo struct {
	prCol       *mongo.Collection
	reviewCol   *mongo.Collection
	reviewerCol *mongo.Collection
}

// Index names must match the Atlas Search configuration of the database.
const (
	prVectorIndex       = "pr_pattern_index"
	reviewerVectorIndex = "reviewer_pattern_index"
)

// NewPatternStore wires the collections.
func NewPatternStore(db *mongo.Database) *PatternMongo {
	return &PatternMongo{
		prCol:       db.Collection("pr_patterns"),
		reviewCol:   db.Collection("review_patterns"),
		reviewerCol: db.Collection("reviewer_patterns"),
	}
}

// -------------------------- writes ------------------------------------------

// UpsertPRPattern inserts or replaces a PR pattern record.
func (s *PatternMongo) UpsertPRPattern(ctx context.Context, rec models.PatternRecord) error {
	return s.upsert(ctx, s.prCol, rec)
}

// UpsertReviewPattern inserts or replaces a review pattern record.
func (s *PatternMongo) UpsertReviewPattern(ctx context.Context, rec models.PatternRecord) error {
	return s.upsert(ctx, s.reviewCol, rec)
}

// UpsertReviewerPattern inserts or replaces a reviewer expertise record.
func (s *PatternMongo) UpsertReviewerPattern(ctx context.Context, rec models.PatternRecord) error {
	return s.upsert(ctx, s.reviewerCol, rec)
}

func (s *PatternMongo) upsert(ctx context.Context, col *mongo.Collection, rec models.PatternRecord) error {
	_, err := col.ReplaceOne(
		ctx,
		bson.M{"_id": rec.ID},
		rec,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		log.Printf("[Pattern Store] upsert %s into %s failed: %v", rec.ID, col.Name(), err)
	}
	return err
}

// FindReviewerPattern fetches a reviewer's expertise record by id. When the
// document is not found it returns a zero record and found=false with a nil
// error, so callers can decide to create a fresh one.
func (s *PatternMongo) FindReviewerPattern(ctx context.Context, id string) (models.PatternRecord, bool, error) {
	var rec models.PatternRecord
	err := s.reviewerCol.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return models.PatternRecord{}, false, nil
	}
	if err != nil {
		return models.PatternRecord{}, false, err
	}
	return rec, true, nil
}

// -------------------------- vector queries ----------------------------------

// QueryPRPatterns performs a K-NN search over PR pattern embeddings, filtered
// to one repository, ordered by descending similarity.
func (s *PatternMongo) QueryPRPatterns(ctx context.Context, queryVec []float32, repository string, topK int) ([]models.PatternRecord, error) {
	return s.vectorQuery(ctx, s.prCol, prVectorIndex, queryVec, repository, topK)
}

// QueryReviewerPatterns performs a K-NN search over reviewer expertise
// embeddings, filtered to one repository.
func (s *PatternMongo) QueryReviewerPatterns(ctx context.Context, queryVec []float32, repository string, topK int) ([]models.PatternRecord, error) {
	return s.vectorQuery(ctx, s.reviewerCol, reviewerVectorIndex, queryVec, repository, topK)
}

func (s *PatternMongo) vectorQuery(ctx context.Context, col *mongo.Collection, index string, queryVec []float32, repository string, topK int) ([]models.PatternRecord, error) {
	if topK <= 0 {
		topK = 10
	}

	search := bson.D{
		{Key: "index", Value: index},
		{Key: "path", Value: "embedding"},
		{Key: "queryVector", Value: queryVec},
		{Key: "numCandidates", Value: topK * 10},
		{Key: "limit", Value: topK},
	}
	if repository != "" {
		search = append(search, bson.E{Key: "filter", Value: bson.M{"repository": repository}})
	}

	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: search}},
		{{Key: "$addFields", Value: bson.M{
			"similarity": bson.M{"$meta": "vectorSearchScore"},
		}}},
		{{Key: "$project", Value: bson.M{
			"embedding": 0, // omit heavy field
		}}},
	}

	cur, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var recs []models.PatternRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	// An empty result set is normal for a young repository; callers degrade
	// to their fallback tiers.
	return recs, nil
}
