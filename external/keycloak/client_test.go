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

package keycloak

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watcha-fr/synapse-sub000/external/remote"
	"github.com/watcha-fr/synapse-sub000/model/types"
)

// fakeKeycloak issues tokens "token-1", "token-2"... and only accepts the
// token currently marked valid.
type fakeKeycloak struct {
	t           *testing.T
	mu          sync.Mutex
	tokenCalls  int
	adminCalls  int
	validToken  string
	rejectAll   bool
	adminHandle func(w http.ResponseWriter, req *http.Request)
}

func (f *fakeKeycloak) revoke(valid string) {
	f.mu.Lock()
	f.validToken = valid
	f.mu.Unlock()
}

func (f *fakeKeycloak) calls() (token, admin int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenCalls, f.adminCalls
}

func (f *fakeKeycloak) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if req.URL.Path == "/realms/watcha/protocol/openid-connect/token" {
		f.tokenCalls++
		assert.NoError(f.t, req.ParseForm())
		assert.Equal(f.t, "client_credentials", req.PostForm.Get("grant_type"))
		assert.Equal(f.t, "synapse", req.PostForm.Get("client_id"))
		if req.PostForm.Get("client_secret") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"unauthorized_client","error_description":"Invalid client secret"}`))
			return
		}
		token := "token-" + strconv.Itoa(f.tokenCalls)
		if f.validToken == "" {
			f.validToken = token
		}
		w.Write([]byte(`{"access_token":"` + token + `","expires_in":300}`))
		return
	}

	f.adminCalls++
	assert.True(f.t, strings.HasPrefix(req.URL.Path, "/admin/realms/watcha/"))
	if f.rejectAll || req.Header.Get("Authorization") != "Bearer "+f.validToken {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	f.adminHandle(w, req)
}

func newTestClient(t *testing.T, fake *fakeKeycloak, secret string) *Client {
	fake.t = t
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "watcha", "synapse", secret, 5)
}

func TestTokenIsCached(t *testing.T) {
	fake := &fakeKeycloak{adminHandle: func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}}
	c := newTestClient(t, fake, "secret")

	require.NoError(t, c.DeleteUser(context.Background(), "id-1"))
	require.NoError(t, c.DeleteUser(context.Background(), "id-2"))
	tokenCalls, adminCalls := fake.calls()
	assert.Equal(t, 1, tokenCalls)
	assert.Equal(t, 2, adminCalls)
}

func TestStaleTokenIsRefreshedOnce(t *testing.T) {
	fake := &fakeKeycloak{adminHandle: func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}}
	c := newTestClient(t, fake, "secret")
	require.NoError(t, c.DeleteUser(context.Background(), "id-1"))

	// the server revokes token-1
	fake.revoke("token-2")
	require.NoError(t, c.DeleteUser(context.Background(), "id-2"))
	tokenCalls, adminCalls := fake.calls()
	assert.Equal(t, 2, tokenCalls)
	assert.Equal(t, 3, adminCalls)
}

func TestUnauthorizedIsRetriedExactlyOnce(t *testing.T) {
	fake := &fakeKeycloak{rejectAll: true}
	c := newTestClient(t, fake, "secret")

	err := c.DeleteUser(context.Background(), "id-1")
	assert.True(t, remote.Is(err, remote.InsufficientPrivilege))
	tokenCalls, adminCalls := fake.calls()
	assert.Equal(t, 2, tokenCalls)
	assert.Equal(t, 2, adminCalls)
}

func TestTokenFailure(t *testing.T) {
	fake := &fakeKeycloak{}
	c := newTestClient(t, fake, "wrong")

	_, err := c.Token(context.Background())
	var remoteErr *remote.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, remote.InsufficientPrivilege, remoteErr.Outcome)
	assert.Equal(t, "Invalid client secret", remoteErr.Message)
	_, adminCalls := fake.calls()
	assert.Equal(t, 0, adminCalls)
}

func TestAddUserConflict(t *testing.T) {
	fake := &fakeKeycloak{adminHandle: func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodPost, req.Method)
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"errorMessage":"User exists with same username"}`))
	}}
	c := newTestClient(t, fake, "secret")

	err := c.AddUser(context.Background(), &User{Username: "alice", Enabled: true})
	assert.True(t, remote.Is(err, remote.Conflict))
	assert.Contains(t, err.Error(), "User exists with same username")
}

func TestGetUserByUsername(t *testing.T) {
	fake := &fakeKeycloak{adminHandle: func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "true", req.URL.Query().Get("exact"))
		switch req.URL.Query().Get("username") {
		case "alice":
			w.Write([]byte(`[{"id":"kc-alice","username":"alice","enabled":true,"attributes":{"is_partner":["true"]}}]`))
		default:
			w.Write([]byte(`[]`))
		}
	}}
	c := newTestClient(t, fake, "secret")

	user, err := c.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "kc-alice", user.ID)
	assert.True(t, user.IsPartner())

	_, err = c.GetUserByUsername(context.Background(), "bob")
	assert.True(t, remote.Is(err, remote.NotFound))
}

type mapCache map[string]*types.ExternalAccount

func (m mapCache) GetExternalAccount(userID string) (*types.ExternalAccount, error) {
	return m[userID], nil
}

func (m mapCache) SetExternalAccount(userID string, account *types.ExternalAccount) error {
	m[userID] = account
	return nil
}

func TestDirectory(t *testing.T) {
	fake := &fakeKeycloak{adminHandle: func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("username") == "alice" {
			w.Write([]byte(`[{"id":"kc-alice","username":"alice","enabled":true}]`))
			return
		}
		w.Write([]byte(`[]`))
	}}
	cache := mapCache{}
	d := NewDirectory(newTestClient(t, fake, "secret"), cache, "example.org")
	ctx := context.Background()

	account, err := d.ExternalAccount(ctx, "@alice:example.org")
	require.NoError(t, err)
	assert.Equal(t, &types.ExternalAccount{Username: "kc-alice"}, account)

	account, err = d.ExternalAccount(ctx, "@alice:example.org")
	require.NoError(t, err)
	assert.Equal(t, "kc-alice", account.Username)
	_, adminCalls := fake.calls()
	assert.Equal(t, 1, adminCalls, "second lookup is served by the cache")

	account, err = d.ExternalAccount(ctx, "@bob:example.org")
	require.NoError(t, err)
	assert.Nil(t, account)

	account, err = d.ExternalAccount(ctx, "@carol:other.org")
	require.NoError(t, err)
	assert.Nil(t, account)
	_, adminCalls = fake.calls()
	assert.Equal(t, 2, adminCalls)
}
