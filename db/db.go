package db

import (
	"context"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const CName = "pack.db"

var log = logger.NewNamed(CName)

func New() Database {
	return new(database)
}

type configGetter interface {
	GetMongo() Mongo
}

type Mongo struct {
	Connect  string `yaml:"connect"`
	Database string `yaml:"database"`
}

type Database interface {
	Db() *mongo.Database
	app.ComponentRunnable
}

type database struct {
	conf   Mongo
	client *mongo.Client
	db     *mongo.Database
}

func (d *database) Init(a *app.App) (err error) {
	d.conf = a.MustComponent("config").(configGetter).GetMongo()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if d.client, err = mongo.Connect(ctx, options.Client().ApplyURI(d.conf.Connect)); err != nil {
		return
	}
	d.db = d.client.Database(d.conf.Database)
	return
}

func (d *database) Name() (name string) {
	return CName
}

func (d *database) Run(ctx context.Context) (err error) {
	if err = d.client.Ping(ctx, nil); err != nil {
		return
	}
	log.Info("mongo connected", zap.String("database", d.conf.Database))
	return
}

func (d *database) Db() *mongo.Database {
	return d.db
}

func (d *database) Close(ctx context.Context) (err error) {
	if d.client != nil {
		return d.client.Disconnect(ctx)
	}
	return
}
