package demo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/douglasgreyling/ring"
	"github.com/douglasgreyling/ring/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newServer(mounts ...config.MountConfig) http.Handler {
	cfg := config.Default()
	cfg.Pipeline.Mounts = mounts
	return ring.New(Handler(cfg, zap.NewNop()))
}

func TestHealthAndEcho(t *testing.T) {
	srv := newServer()

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest("GET", "/echo/gopher?x=1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"gopher","query":{"x":["1"]}}`, w.Body.String())

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest("POST", "/healthz", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStaticMount(t *testing.T) {
	srv := newServer(
		config.MountConfig{Prefix: "/hello", Status: 200, Body: "hi"},
		config.MountConfig{Prefix: "/only-post", Method: "POST", Status: 201, Body: "posted"},
	)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest("GET", "/hello/world", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hi", w.Body.String())
	assert.Equal(t, "world", w.Header().Get("X-Ring-Path"))

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest("GET", "/only-post", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest("POST", "/only-post", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "posted", w.Body.String())
}

func TestDelayedMount(t *testing.T) {
	srv := newServer(config.MountConfig{
		Prefix: "/slow",
		Status: 202,
		Body:   "eventually",
		Delay:  config.Duration(10 * time.Millisecond),
	})

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest("GET", "/slow", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "eventually", w.Body.String())
}

func TestDelayedMountClientGone(t *testing.T) {
	srv := newServer(config.MountConfig{
		Prefix: "/slow",
		Body:   "never",
		Delay:  config.Duration(time.Hour),
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	w := httptest.NewRecorder()
	start := time.Now()
	srv.ServeHTTP(w, httptest.NewRequest("GET", "/slow", nil).WithContext(ctx))
	assert.Less(t, time.Since(start), time.Minute)
	assert.Zero(t, w.Body.Len())
}

func TestAfter(t *testing.T) {
	f := After(time.Millisecond)
	_, err := f.Await(context.Background())
	assert.NoError(t, err)

	f = After(time.Hour)
	assert.True(t, f.Cancel())
	assert.Equal(t, ring.StateCancelled, f.State())
}
