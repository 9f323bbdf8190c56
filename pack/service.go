package pack

import (
	"context"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"github.com/anyproto/any-sync/app/ocache"
	"github.com/anyproto/any-sync/util/periodicsync"
	"github.com/redis/go-redis/v9"

	"github.com/llaa33219/plakker-web-sub000/domain"
	"github.com/llaa33219/plakker-web-sub000/imagenorm"
	"github.com/llaa33219/plakker-web-sub000/moderation"
	"github.com/llaa33219/plakker-web-sub000/pack/packrepo"
	"github.com/llaa33219/plakker-web-sub000/quota"
	"github.com/llaa33219/plakker-web-sub000/redisprovider"
	"github.com/llaa33219/plakker-web-sub000/store"
)

const CName = "pack.service"

var log = logger.NewNamed(CName)

func New() Service {
	return new(packService)
}

type Service interface {
	// Submit runs the whole submission pipeline and persists the pack when enough images pass
	Submit(ctx context.Context, sub Submission) (res Result, err error)
	// UploadLimit reports the client's quota without consuming it
	UploadLimit(ctx context.Context, clientId string) quota.Admission
	Get(ctx context.Context, id string) (pack domain.Pack, err error)
	// Search returns packs whose title or creator contains the query, newest first
	Search(ctx context.Context, query string) (packs []domain.Pack, err error)
	app.ComponentRunnable
}

type packService struct {
	conf       Config
	quota      quota.Tracker
	moderation moderation.Client
	normalizer imagenorm.Normalizer
	store      store.Store
	repo       packrepo.PackRepo
	redis      redis.UniversalClient
	packCache  ocache.OCache
	ticker     periodicsync.PeriodicSync
}

func (p *packService) Init(a *app.App) (err error) {
	p.conf = a.MustComponent("config").(configGetter).GetPack().withDefaults()
	p.quota = a.MustComponent(quota.CName).(quota.Tracker)
	p.moderation = a.MustComponent(moderation.CName).(moderation.Client)
	p.normalizer = a.MustComponent(imagenorm.CName).(imagenorm.Normalizer)
	p.store = a.MustComponent(store.CName).(store.Store)
	p.repo = a.MustComponent(packrepo.CName).(packrepo.PackRepo)
	p.redis = a.MustComponent(redisprovider.CName).(redisprovider.RedisProvider).Redis()
	p.packCache = ocache.New(p.loadPack, ocache.WithLogger(log.Sugar()), ocache.WithGCPeriod(time.Minute), ocache.WithTTL(10*time.Minute))
	if p.conf.SweepPeriod > 0 {
		p.ticker = periodicsync.NewPeriodicSync(p.conf.SweepPeriod, 0, p.Sweep, log)
	}
	return nil
}

func (p *packService) Name() (name string) {
	return CName
}

func (p *packService) Run(ctx context.Context) (err error) {
	if p.ticker != nil {
		p.ticker.Run()
	}
	return
}

func (p *packService) UploadLimit(ctx context.Context, clientId string) quota.Admission {
	return p.quota.CheckAdmission(ctx, clientId, p.quota.DailyLimit())
}

func (p *packService) Get(ctx context.Context, id string) (pack domain.Pack, err error) {
	obj, err := p.packCache.Get(ctx, id)
	if err != nil {
		return
	}
	return obj.(*packObject).pack, nil
}

func (p *packService) Close(ctx context.Context) (err error) {
	if p.ticker != nil {
		p.ticker.Close()
	}
	return p.packCache.Close()
}

type packObject struct {
	pack domain.Pack
}

func (p *packObject) Close() (err error) {
	return nil
}

// saved packs never change
func (p *packObject) TryClose(objectTTL time.Duration) (res bool, err error) {
	return true, nil
}

func (p *packService) loadPack(ctx context.Context, id string) (object ocache.Object, err error) {
	pack, err := p.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &packObject{pack: pack}, nil
}
