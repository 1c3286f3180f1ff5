package ring

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestContextStartsUnhandled(t *testing.T) {
	c := NewContext(httptest.NewRecorder(), httptest.NewRequest("GET", "/a?b=c", nil))
	assert.True(t, IsAwaiting(c))
	assert.Equal(t, "/a?b=c", c.RequestURL())
	assert.Nil(t, c.RequestBody())
	assert.False(t, c.IsHeaderWritten())
}

func TestContextSetBodyDefaultsStatus(t *testing.T) {
	c := NewContext(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	c.SetBody("hello")
	assert.Equal(t, http.StatusOK, c.Status())

	c = NewContext(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	c.SetStatus(http.StatusNotFound)
	c.SetBody("no such thing")
	assert.Equal(t, http.StatusNotFound, c.Status(), "an explicit status is kept")
	assert.False(t, IsAwaiting(c))
}

func TestContextRequestBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader("payload"))
	c := NewContext(httptest.NewRecorder(), r)
	body, ok := c.RequestBody().(io.Reader)
	require.True(t, ok)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestContextFlush(t *testing.T) {
	tracker := &closeTracker{Reader: strings.NewReader("streamed")}

	tests := []struct {
		name        string
		body        any
		status      int
		contentType string
		want        string
	}{
		{"nil", nil, http.StatusNoContent, "", ""},
		{"bytes", []byte("raw"), http.StatusOK, "", "raw"},
		{"string", "text", http.StatusOK, "text/plain; charset=utf-8", "text"},
		{"reader", tracker, http.StatusOK, "", "streamed"},
		{"json", map[string]int{"n": 1}, http.StatusCreated, "application/json", `{"n":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c := NewContext(w, httptest.NewRequest("GET", "/", nil))
			c.SetStatus(tt.status)
			c.SetBody(tt.body)

			require.NoError(t, c.Flush())
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
			if tt.contentType != "" {
				assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			}
			assert.True(t, c.IsHeaderWritten())

			require.NoError(t, c.Flush())
			assert.Equal(t, tt.want, w.Body.String(), "a second flush writes nothing")
		})
	}
	assert.True(t, tracker.closed)
}

func TestContextFlushEncodeError(t *testing.T) {
	w := httptest.NewRecorder()
	c := NewContext(w, httptest.NewRequest("GET", "/", nil))
	c.SetBody(make(chan int))
	assert.Error(t, c.Flush())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCaptureWriter(t *testing.T) {
	c := NewContext(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	w := c.ResponseWriter()
	w.Header().Set("X-A", "1")
	assert.Empty(t, c.ResponseHeader().Get("X-A"), "headers are merged on WriteHeader")

	_, _ = io.WriteString(w, "hello ")
	_, _ = io.WriteString(w, "world")
	w.WriteHeader(http.StatusTeapot)

	assert.Equal(t, http.StatusOK, c.Status(), "the first write fixes the status")
	assert.Equal(t, "1", c.ResponseHeader().Get("X-A"))
	assert.Equal(t, []byte("hello world"), c.ResponseBody())
}

func TestContextHelpers(t *testing.T) {
	c := NewContext(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	c.JSON(http.StatusAccepted, map[string]bool{"ok": true})
	assert.Equal(t, http.StatusAccepted, c.Status())
	assert.Equal(t, "application/json", c.ResponseHeader().Get("Content-Type"))

	c.String(http.StatusOK, "%d items", 3)
	assert.Equal(t, "3 items", c.ResponseBody())
	assert.Equal(t, "text/plain; charset=utf-8", c.ResponseHeader().Get("Content-Type"))
}
