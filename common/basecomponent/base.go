// Copyright 2017 New Vector Ltd
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
//
// Modifications copyright (C) 2020 Finogeeks Co., Ltd

package basecomponent

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/watcha-fr/synapse-sub000/cache"
	"github.com/watcha-fr/synapse-sub000/common"
	"github.com/watcha-fr/synapse-sub000/common/config"
	"github.com/watcha-fr/synapse-sub000/common/lifecycle"
	"github.com/watcha-fr/synapse-sub000/external/keycloak"
	"github.com/watcha-fr/synapse-sub000/external/matrix"
	"github.com/watcha-fr/synapse-sub000/external/nextcloud"
	"github.com/watcha-fr/synapse-sub000/model/types"
	"github.com/watcha-fr/synapse-sub000/skunkworks/log"
	mon "github.com/watcha-fr/synapse-sub000/skunkworks/monitor/go-client/monitor"
	"github.com/watcha-fr/synapse-sub000/skunkworks/util/id"
	_ "github.com/watcha-fr/synapse-sub000/storage/implements"
	"github.com/watcha-fr/synapse-sub000/storage/model"
)

const shutdownTimeout = 10 * time.Second

// BaseWatcha is a base for creating the watcha process. It sets up logging,
// tracing and metrics, and exposes methods for creating the clients of the
// remote services. Errors are logged then the process exits, so all
// methods should only be used during start up.
// Must be closed when shutting down.
type BaseWatcha struct {
	ComponentName string
	tracerCloser  io.Closer

	// APIMux should be used to register new api endpoints
	APIMux *mux.Router
	Cfg    *config.Watcha
}

// NewBaseWatcha creates a new instance to be used by a component.
// The componentName is used for logging purposes, and should be a friendly name
// of the component running, e.g. "WatchaNextcloud"
func NewBaseWatcha(cfg *config.Watcha, componentName string) *BaseWatcha {
	log.Setup(cfg.LogConfig())

	//add pid-file
	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir, _ = filepath.Abs(filepath.Dir("."))
		logDir = logDir + "/log"
	}
	_ = os.Mkdir(logDir, os.ModePerm)
	if f, err := os.OpenFile(filepath.Join(logDir, componentName+".pid"), os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644); err == nil {
		f.WriteString(strconv.Itoa(os.Getpid())) // faster than fmt.Sprintf
		f.Close()
	}

	mon.Setup(cfg.Listen.MetricsAddress != "", prometheus.DefaultRegisterer)

	if err := id.Setup(cfg.Matrix.InstanceID); err != nil {
		log.Fatalf("invalid matrix.instance_id %d err:%v", cfg.Matrix.InstanceID, err)
	}

	closer, err := cfg.SetupTracing()
	if err != nil {
		log.Errorf("failed to start opentracing err:%v", err)
	}

	return &BaseWatcha{
		ComponentName: componentName,
		tracerCloser:  closer,
		Cfg:           cfg,
		APIMux:        mux.NewRouter(),
	}
}

// Close implements io.Closer
func (b *BaseWatcha) Close() error {
	if b.tracerCloser == nil {
		return nil
	}
	return b.tracerCloser.Close()
}

// CreateNextcloudDB creates the binding store. Should only be called once per
// component.
func (b *BaseWatcha) CreateNextcloudDB() model.NextcloudDatabase {
	db, err := common.GetDBInstance("nextcloud", b.Cfg)
	if err != nil {
		log.Fatalf("failed to connect to nextcloud db err:%v", err)
	}

	return db.(model.NextcloudDatabase)
}

// PrepareCache returns the redis cache when uris are configured, a process
// local cache otherwise.
func (b *BaseWatcha) PrepareCache() cache.AccountCache {
	if len(b.Cfg.Redis.Uris) == 0 {
		log.Infof("no redis configured, external accounts are cached in process")
		return cache.NewLocalCache(b.Cfg.Redis.TTLSeconds)
	}

	rc := &cache.RedisCache{}
	if err := rc.Prepare(b.Cfg.Redis.Uris, b.Cfg.Redis.TTLSeconds); err != nil {
		log.Fatalf("failed to connect to redis cache err:%v", err)
	}
	lifecycle.BeforeShutdown("redis", rc.Close)
	return rc
}

func (b *BaseWatcha) CreateKeycloakClient() *keycloak.Client {
	kc := b.Cfg.Keycloak
	return keycloak.NewClient(kc.URL, kc.Realm, kc.ClientID, kc.ClientSecret, kc.TimeoutSeconds)
}

func (b *BaseWatcha) CreateNextcloudClient() *nextcloud.Client {
	nc := b.Cfg.Nextcloud
	return nextcloud.NewClient(nc.URL, nc.Username, nc.Password, nc.TimeoutSeconds, nc.SharePermissions)
}

// ServiceRequester is the account used when no chat user is behind a call.
func (b *BaseWatcha) ServiceRequester() *types.Requester {
	return &types.Requester{
		UserID:      b.Cfg.Matrix.ServiceUserID,
		AccessToken: b.Cfg.Matrix.ServiceAccessToken,
	}
}

func (b *BaseWatcha) CreateMatrixClient() *matrix.Client {
	return matrix.NewClient(b.Cfg.Matrix.HomeserverURL, b.ServiceRequester(), b.Cfg.Matrix.TimeoutSeconds)
}

// CreateRpcClient returns nil when nats is not configured.
func (b *BaseWatcha) CreateRpcClient() *common.RpcClient {
	if b.Cfg.Nats.Uri == "" {
		return nil
	}
	rpcClient := common.NewRpcClient(b.Cfg.Nats.Uri)
	if err := rpcClient.Start(); err != nil {
		log.Fatalf("failed to connect to nats %s err:%v", b.Cfg.Nats.Uri, err)
	}
	lifecycle.BeforeShutdown("nats", func() error {
		rpcClient.Close()
		return nil
	})
	return rpcClient
}

// SetupAndServeHTTP serves the endpoints registered on APIMux in the
// background. The server is shut down with the lifecycle.
func (b *BaseWatcha) SetupAndServeHTTP(addr string) {
	b.serve("api", addr, common.WrapHandlerInCORS(b.APIMux))
}

// SetupAndServeMetrics serves prometheus metrics under /metrics when a
// metrics address is configured.
func (b *BaseWatcha) SetupAndServeMetrics(addr string) {
	if addr == "" {
		return
	}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	b.serve("metrics", addr, metricsMux)
}

func (b *BaseWatcha) serve(name, addr string, h http.Handler) {
	server := &http.Server{Addr: addr, Handler: h}

	go func() {
		log.Infof("Starting %s %s server on %s", b.ComponentName, name, addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to serve %s http, err:%v", name, err)
		}
		log.Infof("Stopped %s %s server on %s", b.ComponentName, name, addr)
	}()

	lifecycle.BeforeShutdown("http_"+name, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(ctx)
	})
}
