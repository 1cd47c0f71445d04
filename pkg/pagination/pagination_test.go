package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 123456789, time.FixedZone("WIB", 7*3600)), ID: uuid.New()}

	token := EncodeCursor(in)
	assert.NotContains(t, token, "=")

	out, err := ParseCursor(token)
	require.NoError(t, err)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.ID, out.ID)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	out, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, out)

	for _, token := range []string{"%%%", EncodeCursor(Cursor{})[:4], "bm8tc2VwYXJhdG9y"} {
		_, err := ParseCursor(token)
		assert.Error(t, err, token)
	}
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
	assert.Equal(t, 7, NormalizeLimit(7))
}

func TestTrim(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]Cursor, 4)
	for i := range rows {
		rows[i] = Cursor{CreatedAt: base.Add(-time.Duration(i) * time.Minute), ID: uuid.New()}
	}
	key := func(c Cursor) Cursor { return c }

	page, next := Trim(rows, 3, key)
	require.Len(t, page, 3)
	require.NotNil(t, next)
	assert.Equal(t, rows[2], *next)

	page, next = Trim(rows[:3], 3, key)
	assert.Len(t, page, 3)
	assert.Nil(t, next)
}
