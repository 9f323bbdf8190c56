package quota

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/llaa33219/plakker-web-sub000/redisprovider"
)

const CName = "pack.quota"

var log = logger.NewNamed(CName)

const (
	bucketTTL  = 24 * time.Hour
	dateLayout = "2006-01-02"
)

// incrScript increments the counter and sets the expiry only when the key was just created
var incrScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

func New() Tracker {
	return new(tracker)
}

type configGetter interface {
	GetQuota() Config
}

type Config struct {
	DailyLimit int    `yaml:"dailyLimit"`
	Salt       string `yaml:"salt"`
}

type Admission struct {
	Allowed      bool `json:"allowed"`
	CurrentCount int  `json:"currentCount"`
	Limit        int  `json:"limit"`
	Remaining    int  `json:"remaining"`
}

// Tracker counts successful submissions per client and UTC day.
// Backend failures never block a client: CheckAdmission fails open and CommitIncrement no-ops.
type Tracker interface {
	// DailyLimit returns the configured limit, zero or less means unlimited
	DailyLimit() int
	CheckAdmission(ctx context.Context, clientId string, dailyLimit int) Admission
	CommitIncrement(ctx context.Context, clientId string)
	app.Component
}

type tracker struct {
	conf   Config
	client redis.UniversalClient
	now    func() time.Time
}

func (t *tracker) Init(a *app.App) (err error) {
	t.conf = a.MustComponent("config").(configGetter).GetQuota()
	if t.conf.Salt == "" {
		log.Warn("quota salt is empty, client identities are hashed unsalted")
	}
	t.client = a.MustComponent(redisprovider.CName).(redisprovider.RedisProvider).Redis()
	if t.now == nil {
		t.now = time.Now
	}
	return
}

func (t *tracker) Name() (name string) {
	return CName
}

func (t *tracker) DailyLimit() int {
	return t.conf.DailyLimit
}

func (t *tracker) CheckAdmission(ctx context.Context, clientId string, dailyLimit int) (adm Admission) {
	adm = Admission{Allowed: true, Limit: dailyLimit, Remaining: dailyLimit}
	if dailyLimit <= 0 {
		adm.Remaining = 0
		return
	}
	count, err := t.client.Get(ctx, t.bucketKey(clientId)).Int()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn("quota check failed, admitting", zap.Error(err))
		}
		return
	}
	adm.CurrentCount = count
	adm.Remaining = max(dailyLimit-count, 0)
	adm.Allowed = count < dailyLimit
	return
}

func (t *tracker) CommitIncrement(ctx context.Context, clientId string) {
	if err := incrScript.Run(ctx, t.client, []string{t.bucketKey(clientId)}, bucketTTL.Milliseconds()).Err(); err != nil {
		log.Warn("quota increment failed", zap.Error(err))
	}
}

func (t *tracker) bucketKey(clientId string) string {
	return "quota:" + t.hashIdentity(clientId) + ":" + t.now().UTC().Format(dateLayout)
}

func (t *tracker) hashIdentity(clientId string) string {
	sum := sha256.Sum256([]byte(t.conf.Salt + "|" + clientId))
	return hex.EncodeToString(sum[:])
}
