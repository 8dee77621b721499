// Package controller provides output adapters for displaying branch coverage results.
package controller

import (
	"context"

	m "github.com/opencollective/deep-cover/internal/model"
)

// UI defines the interface for displaying coverage reports and source inventories.
// Implementations can use different output methods (simple text, files, etc).
type UI interface {
	Start(ctx context.Context) error
	Close(ctx context.Context)
	DisplayInventory(ctx context.Context, paths []m.Path, err error) error
	DisplayReports(ctx context.Context, reports []m.FileReport, err error) error
	DisplayReportDiff(ctx context.Context, diff string)
}
