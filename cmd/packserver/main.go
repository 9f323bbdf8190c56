package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"go.uber.org/zap"

	"github.com/llaa33219/plakker-web-sub000/config"
	"github.com/llaa33219/plakker-web-sub000/db"
	"github.com/llaa33219/plakker-web-sub000/gateway"
	"github.com/llaa33219/plakker-web-sub000/imagenorm"
	"github.com/llaa33219/plakker-web-sub000/moderation"
	"github.com/llaa33219/plakker-web-sub000/pack"
	"github.com/llaa33219/plakker-web-sub000/pack/packrepo"
	"github.com/llaa33219/plakker-web-sub000/quota"
	"github.com/llaa33219/plakker-web-sub000/redisprovider"
	"github.com/llaa33219/plakker-web-sub000/store"
)

// set by govvv
var (
	GitCommit, GitBranch, GitState, GitSummary, BuildDate string
)

var log = logger.NewNamed("main")

var (
	flagConfigFile = flag.String("c", "etc/packserver.yml", "path to config file")
	flagVersion    = flag.Bool("v", false, "show version and exit")
	flagHelp       = flag.Bool("h", false, "show help and exit")
)

func main() {
	flag.Parse()

	if *flagVersion {
		fmt.Println(GitSummary)
		fmt.Printf("commit: %s, branch: %s, state: %s, built: %s\n", GitCommit, GitBranch, GitState, BuildDate)
		return
	}
	if *flagHelp {
		flag.PrintDefaults()
		return
	}

	ctx := context.Background()
	a := new(app.App)

	conf, err := config.NewFromFile(*flagConfigFile)
	if err != nil {
		log.Fatal("can't open config file", zap.Error(err))
	}
	conf.Log.ApplyGlobal()

	a.Register(conf)
	Bootstrap(a)

	if err = a.Start(ctx); err != nil {
		log.Fatal("can't start app", zap.Error(err))
	}
	log.Info("app started", zap.String("version", GitSummary))

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	sig := <-exit
	log.Info("received exit signal, stop app...", zap.String("signal", fmt.Sprint(sig)))

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err = a.Close(ctx); err != nil {
		log.Fatal("close error", zap.Error(err))
	} else {
		log.Info("goodbye!")
	}
	time.Sleep(time.Second / 3)
}

func Bootstrap(a *app.App) {
	a.Register(db.New()).
		Register(redisprovider.New()).
		Register(store.New()).
		Register(quota.New()).
		Register(moderation.New()).
		Register(imagenorm.New()).
		Register(packrepo.New()).
		Register(pack.New()).
		Register(gateway.New())
}
