package packrepo

import (
	"context"
	"errors"

	"github.com/anyproto/any-sync/app"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/llaa33219/plakker-web-sub000/db"
	"github.com/llaa33219/plakker-web-sub000/domain"
)

const CName = "pack.repo"

var (
	ErrNotFound  = errors.New("pack not found")
	ErrDuplicate = errors.New("pack already exists")
)

func New() PackRepo {
	return new(packRepo)
}

type PackRepo interface {
	Save(ctx context.Context, pack domain.Pack) (err error)
	Get(ctx context.Context, id string) (pack domain.Pack, err error)
	Exists(ctx context.Context, id string) (ok bool, err error)
	// List returns all packs, newest first
	List(ctx context.Context) (packs []domain.Pack, err error)
	app.ComponentRunnable
}

var packIndexes = []mongo.IndexModel{
	{
		Keys: bson.D{
			{"createdAt", -1},
		},
	},
}

type packRepo struct {
	db       db.Database
	packColl *mongo.Collection
}

func (p *packRepo) Name() (name string) {
	return CName
}

func (p *packRepo) Init(a *app.App) (err error) {
	p.db = a.MustComponent(db.CName).(db.Database)
	p.packColl = p.db.Db().Collection("packs")
	return
}

func (p *packRepo) Run(ctx context.Context) (err error) {
	return ensureIndexes(ctx, p.packColl, packIndexes...)
}

func ensureIndexes(ctx context.Context, coll *mongo.Collection, indexes ...mongo.IndexModel) (err error) {
	existingIndexes, err := coll.Indexes().ListSpecifications(ctx)
	if err != nil {
		return
	}
	if len(existingIndexes) <= 1 {
		_, err = coll.Indexes().CreateMany(ctx, indexes)
	}
	return
}

func (p *packRepo) Save(ctx context.Context, pack domain.Pack) (err error) {
	if _, err = p.packColl.InsertOne(ctx, pack); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return
	}
	return
}

func (p *packRepo) Get(ctx context.Context, id string) (pack domain.Pack, err error) {
	if err = p.packColl.FindOne(ctx, bson.D{{"_id", id}}).Decode(&pack); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Pack{}, ErrNotFound
		}
		return
	}
	return
}

func (p *packRepo) Exists(ctx context.Context, id string) (ok bool, err error) {
	count, err := p.packColl.CountDocuments(ctx, bson.D{{"_id", id}}, options.Count().SetLimit(1))
	if err != nil {
		return
	}
	return count > 0, nil
}

func (p *packRepo) List(ctx context.Context) (packs []domain.Pack, err error) {
	cur, err := p.packColl.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{"createdAt", -1}}))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cur.Close(ctx)
	}()
	for cur.Next(ctx) {
		var pack domain.Pack
		if err = cur.Decode(&pack); err != nil {
			return nil, err
		}
		packs = append(packs, pack)
	}
	return packs, cur.Err()
}

func (p *packRepo) Close(ctx context.Context) (err error) {
	return
}
