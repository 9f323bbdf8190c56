package pack

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/golang/snappy"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/llaa33219/plakker-web-sub000/domain"
)

const listSnapshotKey = "packs:list"

func (p *packService) Search(ctx context.Context, query string) (packs []domain.Pack, err error) {
	all, err := p.listPacks(ctx)
	if err != nil {
		return
	}
	query = strings.ToLower(strings.TrimSpace(query))
	packs = make([]domain.Pack, 0, len(all))
	for _, pack := range all {
		if query == "" ||
			strings.Contains(strings.ToLower(pack.Title), query) ||
			strings.Contains(strings.ToLower(pack.Creator), query) {
			packs = append(packs, pack)
		}
	}
	sort.SliceStable(packs, func(i, j int) bool {
		return packs[i].CreatedAt.After(packs[j].CreatedAt)
	})
	return packs, nil
}

// listPacks serves the listing from a short lived snappy compressed snapshot in redis
func (p *packService) listPacks(ctx context.Context) ([]domain.Pack, error) {
	if packs, ok := p.readSnapshot(ctx); ok {
		return packs, nil
	}
	packs, err := p.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(packs)
	if err != nil {
		return nil, err
	}
	if err = p.redis.Set(ctx, listSnapshotKey, snappy.Encode(nil, data), p.conf.ListCacheTTL).Err(); err != nil {
		log.Warn("can't store list snapshot", zap.Error(err))
	}
	return packs, nil
}

func (p *packService) readSnapshot(ctx context.Context) (packs []domain.Pack, ok bool) {
	compressed, err := p.redis.Get(ctx, listSnapshotKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn("can't read list snapshot", zap.Error(err))
		}
		return nil, false
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		log.Warn("broken list snapshot", zap.Error(err))
		return nil, false
	}
	if err = json.Unmarshal(data, &packs); err != nil {
		log.Warn("broken list snapshot", zap.Error(err))
		return nil, false
	}
	return packs, true
}

func (p *packService) invalidateList(ctx context.Context) {
	if err := p.redis.Del(ctx, listSnapshotKey).Err(); err != nil {
		log.Warn("can't drop list snapshot", zap.Error(err))
	}
}
