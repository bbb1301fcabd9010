package logger

import (
	"bytes"
	"log"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestFormatFields(t *testing.T) {
	assert.Equal(t, "", formatFields(nil))
	assert.Equal(t, "{count=3, name=song, ratio=0.50}", formatFields(Fields{"ratio": 0.5, "name": "song", "count": 3}))
}

func TestDebug_Gated(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	SetDebug(false)
	Debug("hidden", nil)
	assert.NotContains(t, buf.String(), "hidden")

	SetDebug(true)
	t.Cleanup(func() { SetDebug(false) })
	Debug("shown", Fields{"k": "v"})
	assert.Contains(t, buf.String(), "[DEBUG] shown {k=v}")
}

func TestWithContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/v1/analyze", nil)
	c.Set("request_id", "abc")
	c.Set("song_name", "Blue Monk")

	fields := WithContext(c)
	assert.Equal(t, "abc", fields["request_id"])
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/api/v1/analyze", fields["path"])
	assert.Equal(t, "Blue Monk", fields["song_name"])
}
