// repositories/metrics_repository.go
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ledgerworks/partner_ledger/config"
	"github.com/ledgerworks/partner_ledger/models"
)

const metricsCacheTTL = 5 * time.Minute

// MetricsRepository serves partner metrics snapshots, fronted by Redis.
// A nil Redis client disables the cache and every read goes to MongoDB,
// matching how the rest of the service degrades without Redis.
type MetricsRepository struct {
	metrics *mongo.Collection
	cache   *redis.Client
}

// NewMetricsRepository creates a metrics repository over the client and
// optional Redis cache
func NewMetricsRepository(client *mongo.Client, cache *redis.Client) *MetricsRepository {
	return &MetricsRepository{
		metrics: client.Database(config.DatabaseName()).Collection("partner_metrics"),
		cache:   cache,
	}
}

func metricsCacheKey(partnerID primitive.ObjectID) string {
	return "partner_metrics:" + partnerID.Hex()
}

// SnapshotByPartner returns the latest snapshot for a partner
func (r *MetricsRepository) SnapshotByPartner(ctx context.Context, partnerID primitive.ObjectID) (*models.PartnerMetricsSnapshot, error) {
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, metricsCacheKey(partnerID)).Result()
		if err == nil {
			var snapshot models.PartnerMetricsSnapshot
			if jsonErr := json.Unmarshal([]byte(cached), &snapshot); jsonErr == nil {
				return &snapshot, nil
			}
		} else if err != redis.Nil {
			log.Printf("Warning: metrics cache read failed for %s: %v", partnerID.Hex(), err)
		}
	}

	var snapshot models.PartnerMetricsSnapshot
	err := r.metrics.FindOne(ctx, bson.M{"partnerId": partnerID}).Decode(&snapshot)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: no metrics snapshot for partner %s", models.ErrNotFound, partnerID.Hex())
		}
		return nil, err
	}

	if r.cache != nil {
		if data, jsonErr := json.Marshal(snapshot); jsonErr == nil {
			if err := r.cache.Set(ctx, metricsCacheKey(partnerID), data, metricsCacheTTL).Err(); err != nil {
				log.Printf("Warning: metrics cache write failed for %s: %v", partnerID.Hex(), err)
			}
		}
	}

	return &snapshot, nil
}

// UpsertSnapshot stores a refreshed snapshot from the metrics
// collaborator and invalidates the cache
func (r *MetricsRepository) UpsertSnapshot(ctx context.Context, snapshot *models.PartnerMetricsSnapshot) error {
	if snapshot.ComputedAt.IsZero() {
		snapshot.ComputedAt = time.Now()
	}

	filter := bson.M{"partnerId": snapshot.PartnerID}
	update := bson.M{"$set": bson.M{
		"partnerId":          snapshot.PartnerID,
		"activeCompanyCount": snapshot.ActiveCompanyCount,
		"trailingMrr":        snapshot.TrailingMRR,
		"monthsSinceSignup":  snapshot.MonthsSinceSignup,
		"computedAt":         snapshot.ComputedAt,
	}}
	_, err := r.metrics.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert metrics snapshot: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.Del(ctx, metricsCacheKey(snapshot.PartnerID)).Err(); err != nil {
			log.Printf("Warning: metrics cache invalidation failed for %s: %v", snapshot.PartnerID.Hex(), err)
		}
	}
	return nil
}
