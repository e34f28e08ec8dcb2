package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvService_TypedGetters(t *testing.T) {
	t.Setenv("BT_BOOL", "true")
	t.Setenv("BT_BAD_BOOL", "maybe")
	t.Setenv("BT_INT", "7")
	t.Setenv("BT_DURATION", "250ms")
	t.Setenv("BT_STRING", "value")

	e := &EnvService{}

	assert.True(t, e.GetBool("BT_BOOL", false))
	assert.False(t, e.GetBool("BT_BAD_BOOL", false))
	assert.True(t, e.GetBool("BT_MISSING", true))
	assert.Equal(t, 7, e.GetInt("BT_INT", 1))
	assert.Equal(t, 1, e.GetInt("BT_MISSING", 1))
	assert.Equal(t, 250*time.Millisecond, e.GetDuration("BT_DURATION", time.Second))
	assert.Equal(t, time.Second, e.GetDuration("BT_MISSING", time.Second))
	assert.Equal(t, "value", e.GetWithDefault("BT_STRING", "other"))
	assert.Equal(t, "other", e.GetWithDefault("BT_MISSING", "other"))
}

func TestNewEnvService_LoadsDotEnvFiles(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	assert.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(wd) })
	assert.NoError(t, os.Chdir(dir))

	assert.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BT_FROM_FILE=base\nBT_OVERRIDDEN=base\n"), 0o600))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, ".env.test"), []byte("BT_OVERRIDDEN=test\n"), 0o600))
	t.Setenv("APP_ENV", "test")
	t.Setenv("BT_FROM_FILE", "")
	t.Setenv("BT_OVERRIDDEN", "")
	os.Unsetenv("BT_FROM_FILE")
	os.Unsetenv("BT_OVERRIDDEN")

	e := NewEnvService()

	assert.Equal(t, "base", e.Get("BT_FROM_FILE"))
	assert.Equal(t, "test", e.Get("BT_OVERRIDDEN"))
}
