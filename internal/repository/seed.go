package repository

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"valhalla-backend/internal/models"
)

const (
	workspaceCollection = "workspace"
	workspaceDoc        = "settings"
)

// EnsureSeedData creates the workspace settings document and the default
// project when they are missing. Runs on every boot; existing documents are
// left untouched.
func EnsureSeedData(ctx context.Context, client *firestore.Client) error {
	now := time.Now().UTC()

	ws := client.Collection(workspaceCollection).Doc(workspaceDoc)
	if _, err := ws.Get(ctx); err != nil {
		if status.Code(err) != codes.NotFound {
			return mapStoreErr("read workspace settings", err)
		}
		if _, err := ws.Set(ctx, map[string]interface{}{
			"name":       "valhalla",
			"created_at": now,
			"updated_at": now,
		}); err != nil {
			return mapStoreErr("seed workspace settings", err)
		}
		log.Println("Seeded workspace settings document")
	}

	def := client.Collection(projectsCollection).Doc(models.DefaultProjectID)
	if _, err := def.Get(ctx); err != nil {
		if status.Code(err) != codes.NotFound {
			return mapStoreErr("read default project", err)
		}
		if _, err := def.Set(ctx, models.Project{
			Name:        "General",
			Status:      "Live",
			Description: "Default project for conversations that have no dedicated project",
			CreatedAt:   now,
			UpdatedAt:   now,
		}); err != nil {
			return mapStoreErr("seed default project", err)
		}
		log.Println("Seeded default project")
	}

	return nil
}

// HealthChecker probes the store for the health endpoint.
type HealthChecker struct {
	client *firestore.Client
}

func NewHealthChecker(client *firestore.Client) *HealthChecker {
	return &HealthChecker{client: client}
}

// Check reads the workspace document. A missing document still counts as
// reachable; only transport failures mark the store unhealthy.
func (hc *HealthChecker) Check(ctx context.Context) models.StoreHealth {
	_, err := hc.client.Collection(workspaceCollection).Doc(workspaceDoc).Get(ctx)
	switch {
	case err == nil:
		return models.StoreHealth{Healthy: true, Seeded: true}
	case status.Code(err) == codes.NotFound:
		return models.StoreHealth{Healthy: true, Seeded: false}
	default:
		return models.StoreHealth{Healthy: false, Detail: err.Error()}
	}
}
