// Copyright 2017 Vector Creations Ltd
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

package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/watcha-fr/synapse-sub000/binding"
	"github.com/watcha-fr/synapse-sub000/clientapi/consumer"
	"github.com/watcha-fr/synapse-sub000/clientapi/routing"
	"github.com/watcha-fr/synapse-sub000/common/basecomponent"
	"github.com/watcha-fr/synapse-sub000/common/jsonerror"
	"github.com/watcha-fr/synapse-sub000/common/lifecycle"
	"github.com/watcha-fr/synapse-sub000/external/keycloak"
	"github.com/watcha-fr/synapse-sub000/model"
	util "github.com/watcha-fr/synapse-sub000/skunkworks/gomatrixutil"
	"github.com/watcha-fr/synapse-sub000/skunkworks/log"
)

const componentName = "watcha-nextcloud"

func notFound(w http.ResponseWriter, req *http.Request) {
	util.MakeJSONAPI(util.NewJSONRequestHandler(func(req *http.Request) util.JSONResponse {
		return util.JSONResponse{
			Code: http.StatusNotFound,
			JSON: jsonerror.NotFound("Unrecognized request"),
		}
	})).ServeHTTP(w, req)
}

func waitForSignal() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	s := <-sig
	log.Infof("received %s, shutting down", s)
}

func main() {
	cfg := basecomponent.ParseFlags()
	base := basecomponent.NewBaseWatcha(cfg, componentName)
	defer base.Close() // nolint: errcheck
	base.APIMux.NotFoundHandler = http.HandlerFunc(notFound)

	log.Infof("starting %s version %s", componentName, model.ServerVersion)

	store := base.CreateNextcloudDB()
	accounts := base.PrepareCache()
	keycloakClient := base.CreateKeycloakClient()
	nextcloudClient := base.CreateNextcloudClient()
	matrixClient := base.CreateMatrixClient()

	handler := binding.NewHandler(
		binding.Settings{
			ExternalAuthenticationForPartners: cfg.Settings.ExternalAuthenticationForPartners,
			Service:                           base.ServiceRequester(),
		},
		store,
		nextcloudClient,
		matrixClient,
		keycloak.NewDirectory(keycloakClient, accounts, cfg.Matrix.ServerName),
	)

	routing.Setup(base.APIMux, cfg, handler, matrixClient, keycloakClient, accounts)

	if rpcClient := base.CreateRpcClient(); rpcClient != nil {
		if err := consumer.NewHookConsumer(cfg, rpcClient, handler).Start(); err != nil {
			log.Fatalf("failed to subscribe hook subjects err:%v", err)
		}
	}

	base.SetupAndServeMetrics(cfg.Listen.MetricsAddress)
	base.SetupAndServeHTTP(cfg.Listen.Address)

	if err := lifecycle.RunAfterStartup(); err != nil {
		log.Fatalf("startup failed err:%v", err)
	}

	waitForSignal()
	if err := lifecycle.RunBeforeShutdown(); err != nil {
		log.Errorf("shutdown incomplete err:%v", err)
	}
}
