package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/e-learning/api"
	"github.com/irsalhamdi/e-learning/core/auth"
	"github.com/irsalhamdi/e-learning/rate"
	"github.com/irsalhamdi/e-learning/storage"
	"github.com/sirupsen/logrus"
)

const loginBurst = 5

// TestEnv is an API server backed by a seeded in-memory store. Its client
// keeps cookies, so a login carries over to the following requests.
type TestEnv struct {
	*httptest.Server
	Store storage.Storage
}

func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	store := storage.NewMemory()
	if err := storage.Seed(context.Background(), store, log.WithField("test", name)); err != nil {
		return nil, fmt.Errorf("seeding store: %w", err)
	}

	mux := api.APIMux(api.APIConfig{
		Log:     log.WithField("test", name),
		Store:   store,
		Session: scs.New(),
		LoginLimiter: rate.NewLimiter(rate.Config{
			Burst:  loginBurst,
			Every:  time.Minute,
			Expiry: time.Hour,
		}),
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	srv.Client().Jar = jar

	return &TestEnv{Server: srv, Store: store}, nil
}

func Login(srv *httptest.Server, username, password string) error {
	b, err := json.Marshal(auth.Credentials{Username: username, Password: password})
	if err != nil {
		return err
	}

	w, err := srv.Client().Post(srv.URL+"/auth/login", "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		return fmt.Errorf("can't login as %s: status code %s", username, w.Status)
	}
	return nil
}

func Logout(srv *httptest.Server) error {
	w, err := srv.Client().Post(srv.URL+"/auth/logout", "application/json", nil)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusNoContent {
		return fmt.Errorf("can't logout: status code %s", w.Status)
	}
	return nil
}

// Do sends body as JSON, fails t unless the answer has status want and
// decodes the answer into out when out is not nil.
func (env *TestEnv) Do(t *testing.T, method, path string, body interface{}, want int, out interface{}) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}

	r, err := http.NewRequest(method, env.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w, err := env.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != want {
		msg, _ := io.ReadAll(w.Body)
		t.Fatalf("%s %s: want status %d, got %s: %s", method, path, want, w.Status, msg)
	}

	if out != nil {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decoding response: %v", method, path, err)
		}
	}
}

func (env *TestEnv) login(t *testing.T, username string) {
	t.Helper()
	if err := Login(env.Server, username, storage.SeedPassword); err != nil {
		t.Fatal(err)
	}
}

func (env *TestEnv) logout(t *testing.T) {
	t.Helper()
	if err := Logout(env.Server); err != nil {
		t.Fatal(err)
	}
}
