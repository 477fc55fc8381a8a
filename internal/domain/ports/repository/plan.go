package repository

import (
	"context"

	"fitness-ai-planner/internal/domain/model"
)

// PlanRepository persists materialized plan groups and their day entries.
type PlanRepository interface {
	// SaveGroup inserts the group and all entries atomically.
	SaveGroup(ctx context.Context, tx Tx, group *model.PlanGroup, entries []*model.PlanEntry) error
	FindGroupByID(ctx context.Context, tx Tx, id string) (*model.PlanGroup, error)
	ListEntriesByGroup(ctx context.Context, tx Tx, groupID string) ([]*model.PlanEntry, error)
	ListGroupsByUser(ctx context.Context, tx Tx, userID string) ([]*model.PlanGroup, error)
	DeleteGroup(ctx context.Context, tx Tx, id, userID string) error
}
