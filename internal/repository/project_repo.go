package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"valhalla-backend/internal/models"
)

const projectsCollection = "projects"

type ProjectRepo struct {
	client *firestore.Client
}

func NewProjectRepo(client *firestore.Client) *ProjectRepo {
	return &ProjectRepo{client: client}
}

func (r *ProjectRepo) Get(ctx context.Context, id string) (*models.Project, error) {
	if id == "" {
		return nil, &InvalidArgumentError{Message: "project id is required"}
	}

	doc, err := r.client.Collection(projectsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapStoreErr("get project "+id, err)
	}

	var p models.Project
	if err := doc.DataTo(&p); err != nil {
		return nil, mapStoreErr("decode project "+id, err)
	}
	p.ID = doc.Ref.ID
	return &p, nil
}

func (r *ProjectRepo) List(ctx context.Context) ([]*models.Project, error) {
	iter := r.client.Collection(projectsCollection).OrderBy("name", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var projects []*models.Project
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, mapStoreErr("list projects", err)
		}
		var p models.Project
		if err := doc.DataTo(&p); err != nil {
			return nil, mapStoreErr("decode project "+doc.Ref.ID, err)
		}
		p.ID = doc.Ref.ID
		projects = append(projects, &p)
	}
	return projects, nil
}

// UpdateStatus merges a new status and optional metadata entries into the
// project document and returns the refreshed project.
func (r *ProjectRepo) UpdateStatus(ctx context.Context, id, newStatus string, updates map[string]string) (*models.Project, error) {
	if id == "" {
		return nil, &InvalidArgumentError{Message: "project id is required"}
	}
	if newStatus == "" {
		return nil, &InvalidArgumentError{Message: "status is required"}
	}

	fields := []firestore.Update{
		{Path: "status", Value: newStatus},
		{Path: "updated_at", Value: time.Now().UTC()},
	}
	for k, v := range updates {
		fields = append(fields, firestore.Update{FieldPath: firestore.FieldPath{"metadata", k}, Value: v})
	}

	if _, err := r.client.Collection(projectsCollection).Doc(id).Update(ctx, fields); err != nil {
		return nil, mapStoreErr("update project "+id, err)
	}
	return r.Get(ctx, id)
}
