package publish

import (
	"context"
	"frameshot/internal/device"
	"frameshot/internal/metrics"
	"frameshot/internal/report"
	"slices"

	"golang.org/x/xerrors"
)

type GalleryManager struct {
	reporter report.Reporter
	metrics  *metrics.Recorder
}

func NewGalleryManager(reporter report.Reporter, recorder *metrics.Recorder) *GalleryManager {
	return &GalleryManager{
		reporter: reporter,
		metrics:  recorder,
	}
}

// SelectEvictions returns the items that fall outside the maxItems newest ones.
// Items with equal dates keep the order the device reported them in.
func SelectEvictions(items []device.ArtItem, maxItems int) []device.ArtItem {
	if maxItems <= 0 || len(items) <= maxItems {
		return nil
	}
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b device.ArtItem) int {
		return b.Date.Compare(a.Date)
	})
	return sorted[maxItems:]
}

// Trim deletes the oldest items so that at most maxItems remain. The item
// uploaded in this run is treated like any other.
func (g *GalleryManager) Trim(ctx context.Context, session *Session, maxItems int) ([]device.ArtItem, error) {
	client, err := session.Client()
	if err != nil {
		return nil, err
	}

	g.reporter.Info("checking number of items on device")
	items, err := client.AvailableArt(ctx)
	if err != nil {
		return nil, GalleryError(xerrors.Errorf("failed to list items: %w", err))
	}
	g.metrics.SetGalleryItems(len(items))
	g.reporter.Info("items on device", "count", len(items), "max", maxItems)

	evicted := SelectEvictions(items, maxItems)
	if len(evicted) == 0 {
		return nil, nil
	}

	g.reporter.Warning("max items reached, deleting items", "count", len(evicted))
	ids := make([]string, 0, len(evicted))
	for _, item := range evicted {
		ids = append(ids, item.ID)
	}
	if err := client.DeleteArt(ctx, ids); err != nil {
		return nil, GalleryError(xerrors.Errorf("failed to delete %d items: %w", len(ids), err))
	}
	g.metrics.AddEvicted(len(ids))
	g.reporter.Success("deleted items", "ids", ids)

	return evicted, nil
}
