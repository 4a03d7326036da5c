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
	"flag"
	"log"

	"github.com/joho/godotenv"
	"github.com/watcha-fr/synapse-sub000/common/config"
)

var (
	configPath = flag.String("config", "watcha.yaml", "The path to the config file.")
	envPath    = flag.String("env", "", "An optional .env file holding the secrets of the config file.")
)

// ParseFlags parses the commandline flags and uses them to create a config.
func ParseFlags() *config.Watcha {
	flag.Parse()

	if *configPath == "" {
		log.Fatal("--config must be supplied")
	}

	if *envPath != "" {
		if err := godotenv.Load(*envPath); err != nil {
			log.Fatalf("Invalid env file: %s", err)
		}
	}

	if err := config.Load(*configPath); err != nil {
		log.Fatalf("Invalid config file: %s", err)
	}
	return config.GetConfig()
}
