package validation

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEventType(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		wantErr   bool
	}{
		{"simple", "webhook", false},
		{"field event", "field_name", false},
		{"with dash", "some-event", false},
		{"empty", "", true},
		{"path separator", "a/b", true},
		{"whitespace", "a b", true},
		{"too long", string(make([]byte, 65)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEventType(tt.eventType)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseDateParam(t *testing.T) {
	t.Run("empty is nil", func(t *testing.T) {
		parsed, err := ParseDateParam("", "start")
		require.NoError(t, err)
		assert.Nil(t, parsed)
	})

	t.Run("rfc3339", func(t *testing.T) {
		parsed, err := ParseDateParam("2023-11-14T22:13:20Z", "start")
		require.NoError(t, err)
		require.NotNil(t, parsed)
		assert.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), *parsed)
	})

	t.Run("date only", func(t *testing.T) {
		parsed, err := ParseDateParam("2023-11-14", "start")
		require.NoError(t, err)
		require.NotNil(t, parsed)
		assert.Equal(t, time.Date(2023, 11, 14, 0, 0, 0, 0, time.UTC), *parsed)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseDateParam("tomorrow", "start")
		assert.Error(t, err)
	})
}

func TestValidateDateRange(t *testing.T) {
	early := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateDateRange(nil, nil))
	assert.NoError(t, ValidateDateRange(&early, nil))
	assert.NoError(t, ValidateDateRange(&early, &late))
	assert.Error(t, ValidateDateRange(&late, &early))
}

func TestParseLimitParam(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		limit, err := ParseLimitParam("")
		require.NoError(t, err)
		assert.Equal(t, 100, limit)
	})

	t.Run("explicit", func(t *testing.T) {
		limit, err := ParseLimitParam("25")
		require.NoError(t, err)
		assert.Equal(t, 25, limit)
	})

	t.Run("clamped to max", func(t *testing.T) {
		limit, err := ParseLimitParam("99999")
		require.NoError(t, err)
		assert.Equal(t, 1000, limit)
	})

	t.Run("rejects non-positive", func(t *testing.T) {
		_, err := ParseLimitParam("0")
		assert.Error(t, err)
		_, err = ParseLimitParam("-5")
		assert.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseLimitParam("ten")
		assert.Error(t, err)
	})
}

func TestValidateHTTPRequestSize(t *testing.T) {
	r := httptest.NewRequest("POST", "/webhook", nil)

	r.ContentLength = 512
	assert.NoError(t, ValidateHTTPRequestSize(r, 1024))

	r.ContentLength = 2048
	assert.Error(t, ValidateHTTPRequestSize(r, 1024))

	r.ContentLength = -1
	assert.Error(t, ValidateHTTPRequestSize(r, 1024))
}

func TestValidateRetentionDays(t *testing.T) {
	assert.NoError(t, ValidateRetentionDays(1))
	assert.NoError(t, ValidateRetentionDays(90))
	assert.Error(t, ValidateRetentionDays(0))
	assert.Error(t, ValidateRetentionDays(4000))
}

func TestValidateTimeout(t *testing.T) {
	assert.NoError(t, ValidateTimeout(15, "read timeout"))
	assert.Error(t, ValidateTimeout(0, "read timeout"))
	assert.Error(t, ValidateTimeout(7200, "read timeout"))
}
