package gateway

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"net/http"
	"strings"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sebest/xff"
	"go.uber.org/zap"

	"github.com/llaa33219/plakker-web-sub000/gateway/gatewayconfig"
	"github.com/llaa33219/plakker-web-sub000/pack"
	"github.com/llaa33219/plakker-web-sub000/store"
)

func New() Gateway {
	return new(gateway)
}

const CName = "pack.gateway"

var log = logger.NewNamed(CName)

type Gateway interface {
	app.ComponentRunnable
}

type gateway struct {
	router *chi.Mux
	server *http.Server
	pack   pack.Service
	store  store.Store
	config gatewayconfig.Config
	// proxies whose forwarded header is trusted on top of loopback and private peers
	proxies []netip.Prefix
}

func (g *gateway) Name() (name string) {
	return CName
}

func (g *gateway) Init(a *app.App) (err error) {
	g.pack = a.MustComponent(pack.CName).(pack.Service)
	g.store = a.MustComponent(store.CName).(store.Store)
	g.config = a.MustComponent("config").(gatewayconfig.ConfigGetter).GetGateway().WithDefaults()
	if g.proxies, err = parseProxies(g.config.TrustedProxies); err != nil {
		return
	}

	g.router = chi.NewRouter()
	g.router.Use(middleware.Recoverer, g.clientAddr, logRequests)
	g.router.Route("/api", func(r chi.Router) {
		r.Post("/upload", g.uploadHandler)
		r.Get("/upload-limit", g.uploadLimitHandler)
		r.Get("/packs", g.searchHandler)
		r.Get("/packs/{id}", g.packHandler)
		r.Get("/images/*", g.imageHandler)
	})
	g.server = &http.Server{Addr: g.config.Addr, Handler: g.router}
	return
}

func (g *gateway) Run(ctx context.Context) (err error) {
	var errCh = make(chan error)
	go func() {
		errCh <- g.server.ListenAndServe()
	}()
	select {
	case err = <-errCh:
		return err
	case <-time.After(200 * time.Millisecond):
		log.Info("gateway server started", zap.String("addr", g.config.Addr))
		return
	}
}

// clientAddr replaces RemoteAddr with the bare client ip, the quota is keyed by it
func (g *gateway) clientAddr(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raddr string
		if g.config.TrustAnyForward {
			raddr = strings.TrimSpace(strings.Split(r.Header.Get("X-Forwarded-For"), ",")[0])
		} else {
			raddr = xff.GetRemoteAddrIfAllowed(r, g.trustedProxy)
		}
		if raddr == "" {
			raddr = r.RemoteAddr
		}
		if host, _, err := net.SplitHostPort(raddr); err == nil {
			raddr = host
		}
		r.RemoteAddr = raddr
		next.ServeHTTP(w, r)
	})
}

// trustedProxy reports whether the peer may set X-Forwarded-For
func (g *gateway) trustedProxy(sip string) bool {
	addr, err := netip.ParseAddr(sip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsPrivate() {
		return true
	}
	for _, p := range g.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func parseProxies(proxies []string) (prefixes []netip.Prefix, err error) {
	for _, s := range proxies {
		if addr, aErr := netip.ParseAddr(s); aErr == nil {
			prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
			continue
		}
		prefix, pErr := netip.ParsePrefix(s)
		if pErr != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", s, pErr)
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes, nil
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.String("client", r.RemoteAddr),
			zap.Duration("dur", time.Since(start)),
		)
	})
}

func (g *gateway) Close(ctx context.Context) (err error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return g.server.Shutdown(ctx)
}
