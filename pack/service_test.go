package pack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/anyproto/any-sync/app"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llaa33219/plakker-web-sub000/domain"
	"github.com/llaa33219/plakker-web-sub000/imagenorm"
	"github.com/llaa33219/plakker-web-sub000/moderation"
	"github.com/llaa33219/plakker-web-sub000/pack/packrepo"
	"github.com/llaa33219/plakker-web-sub000/quota"
	"github.com/llaa33219/plakker-web-sub000/redisprovider"
	"github.com/llaa33219/plakker-web-sub000/store"
)

var ctx = context.Background()

func TestPackService_Submit(t *testing.T) {
	t.Run("all approved", func(t *testing.T) {
		fx := newFixture(t)
		res, err := fx.Submit(ctx, newSubmission(3))
		require.NoError(t, err)

		pack := res.Pack
		assert.Equal(t, "Cats", pack.Title)
		assert.Equal(t, "Al", pack.Creator)
		assert.Equal(t, domain.Validation{TotalSubmitted: 3, Approved: 3, RejectedItems: []domain.RejectedItem{}}, pack.Validation)
		assert.Equal(t, store.ThumbnailKey(pack.Id), pack.Thumbnail)
		assert.Equal(t, []string{store.ImageKey(pack.Id, 0), store.ImageKey(pack.Id, 1), store.ImageKey(pack.Id, 2)}, pack.Images)
		assert.Equal(t, "Pack uploaded: 3 of 3 images approved", res.Message)

		assert.Equal(t, "200x200:thumb", fx.store.content(pack.Thumbnail))
		assert.Equal(t, "150x150:img-1", fx.store.content(pack.Images[1]))
		assert.Len(t, fx.store.keys(), 4)

		saved, err := fx.repo.Get(ctx, pack.Id)
		require.NoError(t, err)
		assert.Equal(t, pack, saved)
		assert.Equal(t, 1, fx.quota.count("1.2.3.4"))
	})
	t.Run("below minimum after moderation", func(t *testing.T) {
		fx := newFixture(t)
		fx.moderation.reject("img-2")
		_, err := fx.Submit(ctx, newSubmission(3))
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		require.NotNil(t, vErr.Validation)
		assert.Equal(t, 2, vErr.Validation.Approved)
		assert.Equal(t, 1, vErr.Validation.Rejected)
		assert.Equal(t, []domain.RejectedItem{{FileName: "img-2.png", Reason: moderation.ReasonRejected}}, vErr.Validation.RejectedItems)

		assert.Empty(t, fx.store.keys())
		assert.Empty(t, fx.repo.ids())
		assert.Equal(t, 0, fx.quota.count("1.2.3.4"))
	})
	t.Run("quota exceeded", func(t *testing.T) {
		fx := newFixture(t)
		fx.quota.set("1.2.3.4", 5)
		_, err := fx.Submit(ctx, newSubmission(3))
		var aErr *AdmissionError
		require.ErrorAs(t, err, &aErr)
		assert.Equal(t, quota.Admission{Allowed: false, CurrentCount: 5, Limit: 5, Remaining: 0}, aErr.Admission)
		assert.Equal(t, int32(0), fx.moderation.calls.Load())
		assert.Empty(t, fx.store.keys())
	})
	t.Run("moderation not configured", func(t *testing.T) {
		fx := newFixture(t)
		fx.moderation.configured = false
		_, err := fx.Submit(ctx, newSubmission(3))
		assert.ErrorIs(t, err, ErrNotConfigured)
		assert.Equal(t, 0, fx.quota.checked())
		assert.Equal(t, int32(0), fx.moderation.calls.Load())
		assert.Empty(t, fx.store.keys())
	})
	t.Run("thumbnail rejected", func(t *testing.T) {
		fx := newFixture(t)
		fx.moderation.reject("thumb")
		_, err := fx.Submit(ctx, newSubmission(3))
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Nil(t, vErr.Validation)
		assert.Contains(t, vErr.Error(), "thumbnail")
		assert.Equal(t, int32(1), fx.moderation.calls.Load())
		assert.Empty(t, fx.store.keys())
		assert.Equal(t, 0, fx.quota.count("1.2.3.4"))
	})
	t.Run("dense indices", func(t *testing.T) {
		fx := newFixture(t)
		fx.moderation.reject("img-1", "img-3")
		res, err := fx.Submit(ctx, newSubmission(5))
		require.NoError(t, err)
		pack := res.Pack
		require.Len(t, pack.Images, 3)
		assert.Equal(t, "150x150:img-0", fx.store.content(store.ImageKey(pack.Id, 0)))
		assert.Equal(t, "150x150:img-2", fx.store.content(store.ImageKey(pack.Id, 1)))
		assert.Equal(t, "150x150:img-4", fx.store.content(store.ImageKey(pack.Id, 2)))
		assert.Equal(t, []domain.RejectedItem{
			{FileName: "img-1.png", Reason: moderation.ReasonRejected},
			{FileName: "img-3.png", Reason: moderation.ReasonRejected},
		}, pack.Validation.RejectedItems)
		assert.Equal(t, "Pack uploaded: 3 of 5 images approved", res.Message)
	})
	t.Run("normalization failure rejects the item", func(t *testing.T) {
		fx := newFixture(t)
		fx.normalizer.fail("img-0")
		res, err := fx.Submit(ctx, newSubmission(4))
		require.NoError(t, err)
		assert.Equal(t, 3, res.Pack.Validation.Approved)
		require.Len(t, res.Pack.Validation.RejectedItems, 1)
		assert.Equal(t, "img-0.png", res.Pack.Validation.RejectedItems[0].FileName)
		assert.Contains(t, res.Pack.Validation.RejectedItems[0].Reason, "could not be processed")
	})
	t.Run("sanitizes fields", func(t *testing.T) {
		fx := newFixture(t)
		sub := newSubmission(3)
		sub.Title = "  <b>Cats</b>   and\tdogs "
		sub.CreatorLink = "example.com"
		res, err := fx.Submit(ctx, sub)
		require.NoError(t, err)
		assert.Equal(t, "＜b＞Cats＜/b＞ and dogs", res.Pack.Title)
		assert.Equal(t, "https://example.com/", res.Pack.CreatorLink)

		sub.CreatorLink = "javascript:alert(1)"
		res, err = fx.Submit(ctx, sub)
		require.NoError(t, err)
		assert.Empty(t, res.Pack.CreatorLink)
	})
	t.Run("store failure removes written objects", func(t *testing.T) {
		fx := newFixture(t)
		fx.store.failOn = func(key string) bool { return strings.HasSuffix(key, "_1") }
		_, err := fx.Submit(ctx, newSubmission(3))
		require.Error(t, err)
		var vErr *ValidationError
		assert.False(t, errors.As(err, &vErr))
		assert.Empty(t, fx.store.keys())
		assert.Empty(t, fx.repo.ids())
		assert.Equal(t, 0, fx.quota.count("1.2.3.4"))
	})
	t.Run("save failure removes written objects", func(t *testing.T) {
		fx := newFixture(t)
		fx.repo.saveErr = errors.New("db is down")
		_, err := fx.Submit(ctx, newSubmission(3))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db is down")
		assert.Empty(t, fx.store.keys())
		assert.Equal(t, 0, fx.quota.count("1.2.3.4"))
	})
	t.Run("keeps order under concurrency", func(t *testing.T) {
		fx := newFixture(t)
		fx.moderation.jitter = true
		res, err := fx.Submit(ctx, newSubmission(12))
		require.NoError(t, err)
		require.Len(t, res.Pack.Images, 12)
		for i, key := range res.Pack.Images {
			assert.Equal(t, fmt.Sprintf("150x150:img-%d", i), fx.store.content(key))
		}
		assert.LessOrEqual(t, fx.moderation.maxInFlight.Load(), int32(3))
	})
	t.Run("client disconnect during commit", func(t *testing.T) {
		fx := newFixture(t)
		reqCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		fx.store.onPut = func(key string) { cancel() }
		res, err := fx.Submit(reqCtx, newSubmission(3))
		require.NoError(t, err)
		assert.Len(t, res.Pack.Images, 3)
		assert.Contains(t, fx.repo.ids(), res.Pack.Id)
		assert.Equal(t, 1, fx.quota.count("1.2.3.4"))
	})
	t.Run("unique ids", func(t *testing.T) {
		fx := newFixture(t)
		first, err := fx.Submit(ctx, newSubmission(3))
		require.NoError(t, err)
		second, err := fx.Submit(ctx, newSubmission(3))
		require.NoError(t, err)
		assert.NotEqual(t, first.Pack.Id, second.Pack.Id)
		assert.Equal(t, 2, fx.quota.count("1.2.3.4"))
	})
}

func TestPackService_Submit_validation(t *testing.T) {
	for name, mutate := range map[string]func(sub *Submission){
		"empty title":        func(sub *Submission) { sub.Title = "   " },
		"short title":        func(sub *Submission) { sub.Title = "A" },
		"short creator":      func(sub *Submission) { sub.Creator = "B" },
		"missing thumbnail":  func(sub *Submission) { sub.Thumbnail = File{} },
		"too few images":     func(sub *Submission) { sub.Images = sub.Images[:2] },
		"too many images":    func(sub *Submission) { sub.Images = newSubmission(31).Images },
		"bad image type":     func(sub *Submission) { sub.Images[1].MediaType = "application/pdf" },
		"bad thumbnail type": func(sub *Submission) { sub.Thumbnail.MediaType = "text/plain" },
	} {
		t.Run(name, func(t *testing.T) {
			fx := newFixture(t)
			sub := newSubmission(3)
			mutate(&sub)
			_, err := fx.Submit(ctx, sub)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Nil(t, vErr.Validation)
			assert.Equal(t, int32(0), fx.moderation.calls.Load())
			assert.Empty(t, fx.store.keys())
		})
	}
	t.Run("media type parameters", func(t *testing.T) {
		fx := newFixture(t)
		sub := newSubmission(3)
		sub.Images[0].MediaType = "image/PNG; name=a.png"
		_, err := fx.Submit(ctx, sub)
		require.NoError(t, err)
	})
}

func TestPackService_UploadLimit(t *testing.T) {
	fx := newFixture(t)
	fx.quota.set("1.2.3.4", 2)
	for range 2 {
		assert.Equal(t, quota.Admission{Allowed: true, CurrentCount: 2, Limit: 5, Remaining: 3}, fx.UploadLimit(ctx, "1.2.3.4"))
	}
	assert.Equal(t, 2, fx.quota.count("1.2.3.4"))
}

func TestPackService_Get(t *testing.T) {
	fx := newFixture(t)
	pack := domain.Pack{Id: "p1", Title: "Cats", Creator: "Al", CreatedAt: time.Now().UTC()}
	require.NoError(t, fx.repo.Save(ctx, pack))

	for range 3 {
		got, err := fx.Get(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, pack, got)
	}
	assert.Equal(t, int32(1), fx.repo.gets.Load())

	_, err := fx.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPackService_Search(t *testing.T) {
	fx := newFixture(t)
	now := time.Now().UTC().Truncate(time.Millisecond)
	for i, p := range []domain.Pack{
		{Id: "p1", Title: "Cats", Creator: "Al"},
		{Id: "p2", Title: "Dogs", Creator: "Catherine"},
		{Id: "p3", Title: "Birds", Creator: "Bo"},
	} {
		p.CreatedAt = now.Add(time.Duration(i) * time.Minute)
		require.NoError(t, fx.repo.Save(ctx, p))
	}

	packs, err := fx.Search(ctx, " CAT ")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1"}, packIds(packs))
	assert.True(t, fx.mr.Exists(listSnapshotKey))

	packs, err = fx.Search(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p2", "p1"}, packIds(packs))
	assert.Equal(t, int32(1), fx.repo.lists.Load())

	t.Run("commit drops the snapshot", func(t *testing.T) {
		_, err := fx.Submit(ctx, newSubmission(3))
		require.NoError(t, err)
		assert.False(t, fx.mr.Exists(listSnapshotKey))
		packs, err := fx.Search(ctx, "")
		require.NoError(t, err)
		assert.Len(t, packs, 4)
		assert.Equal(t, int32(2), fx.repo.lists.Load())
	})
	t.Run("broken snapshot", func(t *testing.T) {
		require.NoError(t, fx.mr.Set(listSnapshotKey, "garbage"))
		packs, err := fx.Search(ctx, "birds")
		require.NoError(t, err)
		assert.Equal(t, []string{"p3"}, packIds(packs))
	})
}

func TestPackService_Sweep(t *testing.T) {
	fx := newFixture(t)
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, fx.repo.Save(ctx, domain.Pack{Id: "kept"}))
	fx.store.add(store.ThumbnailKey("kept"), old)
	fx.store.add(store.ImageKey("kept", 0), old)
	fx.store.add(store.ThumbnailKey("gone"), old)
	fx.store.add(store.ImageKey("gone", 0), old)
	fx.store.add(store.ImageKey("gone", 1), old)
	fx.store.add(store.ImageKey("fresh", 0), time.Now())
	fx.store.add("other/file", old)

	require.NoError(t, fx.Sweep(ctx))
	assert.Equal(t, []string{
		store.ImageKey("fresh", 0),
		store.ImageKey("kept", 0),
		"other/file",
		store.ThumbnailKey("kept"),
	}, fx.store.keys())

	t.Run("repo failure", func(t *testing.T) {
		fx.store.add(store.ThumbnailKey("unknown"), old)
		fx.repo.existsErr = errors.New("db is down")
		assert.Error(t, fx.Sweep(ctx))
		assert.Contains(t, fx.store.keys(), store.ThumbnailKey("unknown"))
	})
}

func packIds(packs []domain.Pack) (ids []string) {
	for _, p := range packs {
		ids = append(ids, p.Id)
	}
	return
}

func newSubmission(images int) Submission {
	sub := Submission{
		ClientId:  "1.2.3.4",
		Title:     "Cats",
		Creator:   "Al",
		Thumbnail: File{FileName: "thumb.png", MediaType: "image/png", Data: []byte("thumb")},
	}
	for i := range images {
		sub.Images = append(sub.Images, File{
			FileName:  fmt.Sprintf("img-%d.png", i),
			MediaType: "image/png",
			Data:      []byte(fmt.Sprintf("img-%d", i)),
		})
	}
	return sub
}

type fixture struct {
	*packService
	a          *app.App
	mr         *miniredis.Miniredis
	quota      *fakeQuota
	moderation *fakeModeration
	normalizer *fakeNormalizer
	store      *fakeStore
	repo       *fakeRepo
}

func newFixture(t *testing.T) *fixture {
	mr := miniredis.RunT(t)
	fx := &fixture{
		packService: New().(*packService),
		a:           new(app.App),
		mr:          mr,
		quota:       &fakeQuota{limit: 5, counts: map[string]int{}},
		moderation:  &fakeModeration{configured: true, rejected: map[string]bool{}},
		normalizer:  &fakeNormalizer{failing: map[string]bool{}},
		store:       &fakeStore{objects: map[string]fakeObject{}},
		repo:        &fakeRepo{packs: map[string]domain.Pack{}},
	}
	fx.a.Register(&testConfig{conf: Config{SweepPeriod: -1}}).
		Register(&testRedis{client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}).
		Register(fx.quota).
		Register(fx.moderation).
		Register(fx.normalizer).
		Register(fx.store).
		Register(fx.repo).
		Register(fx.packService)
	require.NoError(t, fx.a.Start(ctx))
	t.Cleanup(func() {
		require.NoError(t, fx.a.Close(ctx))
	})
	return fx
}

type testConfig struct {
	conf Config
}

func (c *testConfig) Init(a *app.App) (err error) { return }
func (c *testConfig) Name() (name string)         { return "config" }
func (c *testConfig) GetPack() Config             { return c.conf }

type testRedis struct {
	client *redis.Client
}

func (r *testRedis) Init(a *app.App) (err error)       { return }
func (r *testRedis) Name() (name string)                { return redisprovider.CName }
func (r *testRedis) Run(ctx context.Context) (err error) { return }
func (r *testRedis) Close(ctx context.Context) error    { return r.client.Close() }
func (r *testRedis) Redis() redis.UniversalClient       { return r.client }

type fakeQuota struct {
	mu     sync.Mutex
	limit  int
	counts map[string]int
	checks int
}

func (q *fakeQuota) Init(a *app.App) (err error) { return }
func (q *fakeQuota) Name() (name string)         { return quota.CName }
func (q *fakeQuota) DailyLimit() int             { return q.limit }

func (q *fakeQuota) CheckAdmission(ctx context.Context, clientId string, dailyLimit int) quota.Admission {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.checks++
	count := q.counts[clientId]
	return quota.Admission{
		Allowed:      count < dailyLimit,
		CurrentCount: count,
		Limit:        dailyLimit,
		Remaining:    max(dailyLimit-count, 0),
	}
}

func (q *fakeQuota) CommitIncrement(ctx context.Context, clientId string) {
	if ctx.Err() != nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.counts[clientId]++
}

func (q *fakeQuota) set(clientId string, count int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.counts[clientId] = count
}

func (q *fakeQuota) count(clientId string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.counts[clientId]
}

func (q *fakeQuota) checked() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.checks
}

type fakeModeration struct {
	configured  bool
	jitter      bool
	rejected    map[string]bool
	calls       atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (m *fakeModeration) Init(a *app.App) (err error) { return }
func (m *fakeModeration) Name() (name string)         { return moderation.CName }
func (m *fakeModeration) Configured() bool            { return m.configured }
func (m *fakeModeration) Concurrency() int            { return 3 }

func (m *fakeModeration) reject(data ...string) {
	for _, d := range data {
		m.rejected[d] = true
	}
}

func (m *fakeModeration) Classify(ctx context.Context, image []byte, mediaType, label string) domain.Verdict {
	m.calls.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		cur := m.maxInFlight.Load()
		if n <= cur || m.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	if m.jitter {
		time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
	}
	if m.rejected[string(image)] {
		return domain.Rejected(moderation.ReasonRejected)
	}
	return domain.Approved(moderation.ReasonApproved)
}

type fakeNormalizer struct {
	failing map[string]bool
}

func (n *fakeNormalizer) Init(a *app.App) (err error) { return }
func (n *fakeNormalizer) Name() (name string)         { return imagenorm.CName }

func (n *fakeNormalizer) fail(data string) {
	n.failing[data] = true
}

func (n *fakeNormalizer) Normalize(data []byte, width, height int) (imagenorm.Image, error) {
	if n.failing[string(data)] {
		return imagenorm.Image{}, imagenorm.ErrUnsupported
	}
	return imagenorm.Image{
		Data:      append([]byte(fmt.Sprintf("%dx%d:", width, height)), data...),
		MediaType: "image/png",
	}, nil
}

type fakeObject struct {
	data     []byte
	modified time.Time
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	failOn  func(key string) bool
	onPut   func(key string)
}

func (s *fakeStore) Init(a *app.App) (err error) { return }
func (s *fakeStore) Name() (name string)         { return store.CName }

func (s *fakeStore) Put(ctx context.Context, file store.File) (ref string, err error) {
	if s.failOn != nil && s.failOn(file.Name) {
		return "", errors.New("bucket is unavailable")
	}
	if s.onPut != nil {
		s.onPut(file.Name)
	}
	if err = ctx.Err(); err != nil {
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[file.Name] = fakeObject{data: data, modified: time.Now()}
	return file.Name, nil
}

func (s *fakeStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(string(obj.data))), nil
}

func (s *fakeStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.objects, k)
	}
	return nil
}

func (s *fakeStore) DeletePath(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.objects {
		if strings.HasPrefix(k, path) {
			delete(s.objects, k)
		}
	}
	return nil
}

func (s *fakeStore) List(ctx context.Context, prefix string, do func(obj store.ObjectInfo) error) error {
	s.mu.Lock()
	var objects []store.ObjectInfo
	for k, obj := range s.objects {
		if strings.HasPrefix(k, prefix) {
			objects = append(objects, store.ObjectInfo{Key: k, Size: int64(len(obj.data)), LastModified: obj.modified})
		}
	}
	s.mu.Unlock()
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	for _, obj := range objects {
		if err := do(obj); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeStore) add(key string, modified time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = fakeObject{data: []byte(key), modified: modified}
}

func (s *fakeStore) content(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.objects[key].data)
}

func (s *fakeStore) keys() (keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return
}

type fakeRepo struct {
	mu        sync.Mutex
	packs     map[string]domain.Pack
	saveErr   error
	existsErr error
	gets      atomic.Int32
	lists     atomic.Int32
}

func (r *fakeRepo) Init(a *app.App) (err error)          { return }
func (r *fakeRepo) Name() (name string)                  { return packrepo.CName }
func (r *fakeRepo) Run(ctx context.Context) (err error)   { return }
func (r *fakeRepo) Close(ctx context.Context) (err error) { return }

func (r *fakeRepo) Save(ctx context.Context, pack domain.Pack) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if _, ok := r.packs[pack.Id]; ok {
		return packrepo.ErrDuplicate
	}
	r.packs[pack.Id] = pack
	return nil
}

func (r *fakeRepo) Get(ctx context.Context, id string) (pack domain.Pack, err error) {
	r.gets.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	pack, ok := r.packs[id]
	if !ok {
		return pack, packrepo.ErrNotFound
	}
	return pack, nil
}

func (r *fakeRepo) Exists(ctx context.Context, id string) (ok bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existsErr != nil {
		return false, r.existsErr
	}
	_, ok = r.packs[id]
	return ok, nil
}

func (r *fakeRepo) List(ctx context.Context) (packs []domain.Pack, err error) {
	r.lists.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.packs {
		packs = append(packs, p)
	}
	return packs, nil
}

func (r *fakeRepo) ids() (ids []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.packs {
		ids = append(ids, id)
	}
	return
}
