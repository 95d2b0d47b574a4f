package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"census_server/core/domain"
	"census_server/core/port/out"
)

// =============================================================================
// MongoDB Portal Adapter
// =============================================================================

const collectionPortals = "portals"

// PortalAdapter implements out.PortalRepository using MongoDB. Documents are
// keyed by normalized portal URL, so re-running a batch updates in place.
type PortalAdapter struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewPortalAdapter creates a new MongoDB portal adapter.
func NewPortalAdapter(db *mongo.Database) *PortalAdapter {
	return &PortalAdapter{
		db:         db,
		collection: db.Collection(collectionPortals),
	}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *PortalAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "url", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "classification.category", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "location.region", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "processed_at", Value: -1}},
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// =============================================================================
// Single Operations
// =============================================================================

// Upsert saves a portal, replacing any previous census of the same URL.
func (a *PortalAdapter) Upsert(ctx context.Context, portal *domain.Portal) error {
	if portal.ProcessedAt.IsZero() {
		portal.ProcessedAt = time.Now().UTC()
	}

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"url": portal.URL}

	if _, err := a.collection.ReplaceOne(ctx, filter, portal, opts); err != nil {
		return fmt.Errorf("failed to upsert portal: %w", err)
	}
	return nil
}

// GetByURL retrieves a portal by URL. Returns nil when absent.
func (a *PortalAdapter) GetByURL(ctx context.Context, url string) (*domain.Portal, error) {
	var portal domain.Portal
	err := a.collection.FindOne(ctx, bson.M{"url": url}).Decode(&portal)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get portal: %w", err)
	}
	return &portal, nil
}

// Delete removes a portal from the census.
func (a *PortalAdapter) Delete(ctx context.Context, url string) error {
	if _, err := a.collection.DeleteOne(ctx, bson.M{"url": url}); err != nil {
		return fmt.Errorf("failed to delete portal: %w", err)
	}
	return nil
}

// =============================================================================
// Partial Updates
// =============================================================================

// UpdateMetadata sets the surveyed metadata for a portal.
func (a *PortalAdapter) UpdateMetadata(ctx context.Context, url string, meta domain.PortalMetadata) error {
	update := bson.M{"$set": bson.M{
		"metadata":     meta,
		"processed_at": time.Now().UTC(),
	}}
	opts := options.Update().SetUpsert(true)
	if _, err := a.collection.UpdateOne(ctx, bson.M{"url": url}, update, opts); err != nil {
		return fmt.Errorf("failed to update metadata: %w", err)
	}
	return nil
}

// UpdateClassification sets the classification result for a portal.
func (a *PortalAdapter) UpdateClassification(ctx context.Context, url string, result domain.ClassificationResult) error {
	update := bson.M{"$set": bson.M{
		"classification": result,
		"processed_at":   time.Now().UTC(),
	}}
	opts := options.Update().SetUpsert(true)
	if _, err := a.collection.UpdateOne(ctx, bson.M{"url": url}, update, opts); err != nil {
		return fmt.Errorf("failed to update classification: %w", err)
	}
	return nil
}

// UpdateLocation sets the location result for a portal.
func (a *PortalAdapter) UpdateLocation(ctx context.Context, url string, loc domain.PortalLocation) error {
	update := bson.M{"$set": bson.M{
		"location":     loc,
		"processed_at": time.Now().UTC(),
	}}
	opts := options.Update().SetUpsert(true)
	if _, err := a.collection.UpdateOne(ctx, bson.M{"url": url}, update, opts); err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	return nil
}

// MarkFailed records a processing failure without discarding earlier stages.
func (a *PortalAdapter) MarkFailed(ctx context.Context, url string, reason string) error {
	update := bson.M{"$set": bson.M{
		"error":        reason,
		"processed_at": time.Now().UTC(),
	}}
	opts := options.Update().SetUpsert(true)
	if _, err := a.collection.UpdateOne(ctx, bson.M{"url": url}, update, opts); err != nil {
		return fmt.Errorf("failed to mark portal failed: %w", err)
	}
	return nil
}

// =============================================================================
// Query Operations
// =============================================================================

// List returns portals matching the options plus the total matching count.
func (a *PortalAdapter) List(ctx context.Context, opts *out.PortalListOptions) ([]*domain.Portal, int64, error) {
	if opts == nil {
		opts = &out.PortalListOptions{Limit: 50}
	}

	filter := bson.M{}
	if opts.Category != nil {
		filter["classification.category"] = *opts.Category
	}
	if opts.Region != nil {
		filter["location.region"] = *opts.Region
	}
	if opts.Stage != "" {
		filter["classification.stage"] = opts.Stage
	}
	if opts.Since != nil {
		filter["processed_at"] = bson.M{"$gte": *opts.Since}
	}

	total, err := a.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count portals: %w", err)
	}

	findOpts := options.Find().
		SetLimit(int64(opts.Limit)).
		SetSkip(int64(opts.Offset))
	if opts.SortByURL {
		findOpts.SetSort(bson.D{{Key: "url", Value: 1}})
	} else {
		findOpts.SetSort(bson.D{{Key: "processed_at", Value: -1}})
	}

	cursor, err := a.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list portals: %w", err)
	}
	defer cursor.Close(ctx)

	var portals []*domain.Portal
	if err := cursor.All(ctx, &portals); err != nil {
		return nil, 0, fmt.Errorf("failed to decode portals: %w", err)
	}

	return portals, total, nil
}

// =============================================================================
// Stats
// =============================================================================

// CountByCategory aggregates portal counts per classified category.
func (a *PortalAdapter) CountByCategory(ctx context.Context) (map[domain.SiteCategory]int64, error) {
	raw, err := a.groupCount(ctx, "$classification.category")
	if err != nil {
		return nil, err
	}

	result := make(map[domain.SiteCategory]int64, len(raw))
	for k, v := range raw {
		result[domain.SiteCategory(k)] = v
	}
	return result, nil
}

// CountByRegion aggregates portal counts per assigned region.
func (a *PortalAdapter) CountByRegion(ctx context.Context) (map[domain.Region]int64, error) {
	raw, err := a.groupCount(ctx, "$location.region")
	if err != nil {
		return nil, err
	}

	result := make(map[domain.Region]int64, len(raw))
	for k, v := range raw {
		result[domain.Region(k)] = v
	}
	return result, nil
}

func (a *PortalAdapter) groupCount(ctx context.Context, field string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   field,
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := a.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate: %w", err)
	}
	defer cursor.Close(ctx)

	result := make(map[string]int64)
	for cursor.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode aggregate row: %w", err)
		}
		if row.ID == "" {
			continue
		}
		result[row.ID] = row.Count
	}

	return result, cursor.Err()
}
