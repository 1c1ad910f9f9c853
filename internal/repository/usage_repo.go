package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"valhalla-backend/internal/models"
)

const usageCollection = "usage"

type UsageRepo struct {
	client *firestore.Client
}

func NewUsageRepo(client *firestore.Client) *UsageRepo {
	return &UsageRepo{client: client}
}

// Record appends one usage record and returns its document ID.
func (r *UsageRepo) Record(ctx context.Context, rec models.UsageRecord) (string, error) {
	if rec.ProjectID == "" {
		return "", &InvalidArgumentError{Message: "usage record needs a project id"}
	}
	if rec.Action == "" {
		return "", &InvalidArgumentError{Message: "usage record needs an action"}
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	ref, _, err := r.client.Collection(usageCollection).Add(ctx, rec)
	if err != nil {
		return "", mapStoreErr("record usage", err)
	}
	return ref.ID, nil
}

// Stats aggregates records since the given time. An empty projectID spans
// all projects. The walk is not a snapshot: records landing mid-iteration
// may or may not be counted, which is fine for a display figure.
func (r *UsageRepo) Stats(ctx context.Context, projectID string, since time.Time) (*models.UsageStats, error) {
	q := r.client.Collection(usageCollection).Where("timestamp", ">=", since)
	if projectID != "" {
		q = q.Where("project_id", "==", projectID)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	stats := &models.UsageStats{
		ProjectID: projectID,
		Since:     since,
		Actions:   make(map[string]int),
	}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, mapStoreErr("aggregate usage", err)
		}
		var rec models.UsageRecord
		if err := doc.DataTo(&rec); err != nil {
			return nil, mapStoreErr("decode usage record "+doc.Ref.ID, err)
		}
		stats.TotalRequests++
		stats.TotalCost += rec.EstimatedCost
		stats.Actions[rec.Action]++
	}
	return stats, nil
}
