package pack

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/llaa33219/plakker-web-sub000/store"
)

// Sweep deletes stored objects that belong to no saved pack.
// Objects younger than the grace period are skipped, their commit may still be running.
func (p *packService) Sweep(ctx context.Context) error {
	before := time.Now().Add(-p.conf.SweepGrace)
	known := map[string]bool{}
	var orphans []string
	for _, prefix := range []string{store.ThumbnailPrefix, store.ImagePrefix} {
		err := p.store.List(ctx, prefix, func(obj store.ObjectInfo) error {
			if obj.LastModified.After(before) {
				return nil
			}
			packId, ok := store.PackIdFromKey(obj.Key)
			if !ok {
				return nil
			}
			exists, seen := known[packId]
			if !seen {
				var err error
				if exists, err = p.repo.Exists(ctx, packId); err != nil {
					return err
				}
				known[packId] = exists
			}
			if !exists {
				orphans = append(orphans, obj.Key)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	if len(orphans) == 0 {
		return nil
	}
	log.Info("removing orphaned objects", zap.Int("count", len(orphans)))
	return p.store.Delete(ctx, orphans...)
}
