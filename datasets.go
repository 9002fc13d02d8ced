package luminar

import (
	"context"

	"go.uber.org/zap"

	"github.com/luminar-ai/luminar-go/api"
	"github.com/luminar-ai/luminar-go/types"
)

// DatasetManager manages evaluation datasets. Unlike telemetry, dataset
// operations are synchronous: callers typically need the stored record
// (and its server-assigned ID) before continuing.
type DatasetManager struct {
	api    *api.Client
	logger *zap.Logger
}

// Create creates a dataset and returns the stored record.
func (m *DatasetManager) Create(ctx context.Context, dataset *types.Dataset) (*types.Dataset, error) {
	if dataset == nil || dataset.Name == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "dataset name is required")
	}
	return m.api.CreateDataset(ctx, dataset)
}

// CreateItem adds an item to an existing dataset.
func (m *DatasetManager) CreateItem(ctx context.Context, item *types.DatasetItem) (*types.DatasetItem, error) {
	if item == nil || item.DatasetName == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "dataset item requires a dataset name")
	}
	return m.api.CreateDatasetItem(ctx, item)
}
