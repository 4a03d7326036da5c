// Copyright (C) 2020 Finogeeks Co., Ltd
//
// This program is free software: you can redistribute it and/or  modify
// it under the terms of the GNU Affero General Public License, version 3,
// as published by the Free Software Foundation.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
version: 0
matrix:
  server_name: watcha.example.org
  homeserver_url: https://matrix.watcha.example.org
  service_user_id: "@watcha:watcha.example.org"
  service_access_token: from-file
keycloak:
  url: https://keycloak.watcha.example.org/auth
  realm: watcha
  client_id: synapse
  client_secret: s3cret
nextcloud:
  url: https://cloud.watcha.example.org
  username: admin
  password: admin-pass
watcha:
  external_authentication_for_partners: true
  hook_secret: hook
database:
  addresses: postgres://watcha@localhost/watcha?sslmode=disable
redis:
  uris: ["redis://localhost:6379/0"]
`

func noEnv(string) string { return "" }

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig([]byte(testConfig), noEnv)
	require.NoError(t, err)

	assert.Equal(t, "watcha.example.org", cfg.Matrix.ServerName)
	assert.True(t, cfg.Settings.ExternalAuthenticationForPartners)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, int64(15), cfg.Nextcloud.TimeoutSeconds)
	assert.Equal(t, int64(15), cfg.Keycloak.TimeoutSeconds)
	assert.Equal(t, 31, cfg.Nextcloud.SharePermissions)
	assert.Equal(t, "watcha.membership", cfg.Nats.MembershipSubject)
	assert.Equal(t, ":8090", cfg.Listen.Address)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "info", cfg.LogConfig().Level)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	env := map[string]string{
		"NEXTCLOUD_PASSWORD":          "from-env",
		"MATRIX_SERVICE_ACCESS_TOKEN": "token-env",
	}
	cfg, err := loadConfig([]byte(testConfig), func(k string) string { return env[k] })
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Nextcloud.Password)
	assert.Equal(t, "token-env", cfg.Matrix.ServiceAccessToken)
	assert.Equal(t, "s3cret", cfg.Keycloak.ClientSecret)
}

func TestLoadConfigProblems(t *testing.T) {
	_, err := loadConfig([]byte("version: 0\ndatabase:\n  driver: mysql\n"), noEnv)
	require.Error(t, err)

	cfgErr, ok := err.(Error)
	require.True(t, ok)
	assert.Contains(t, cfgErr.Problems, `missing config key "nextcloud.url"`)
	assert.Contains(t, cfgErr.Problems, `unsupported database.driver "mysql"`)
}

func TestLoadConfigBadVersion(t *testing.T) {
	_, err := loadConfig([]byte("version: 3\n"), noEnv)
	assert.EqualError(t, err, "unknown config version 3, expected 0")
}

func TestLoadConfigInvalidURL(t *testing.T) {
	data := testConfig + "\n"
	cfg, err := loadConfig([]byte(data), noEnv)
	require.NoError(t, err)
	cfg.Nextcloud.URL = "cloud.watcha.example.org"
	err = cfg.check()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid url for config key "nextcloud.url"`)
}
