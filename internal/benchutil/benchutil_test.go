package benchutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/pkg/database"
)

func TestPct(t *testing.T) {
	vs := make([]time.Duration, 100)
	for i := range vs {
		vs[i] = time.Duration(100-i) * time.Millisecond
	}
	assert.Equal(t, 50*time.Millisecond, Pct(vs, 0.50))
	assert.Equal(t, 95*time.Millisecond, Pct(vs, 0.95))
	assert.Equal(t, time.Millisecond, Pct(vs, 0))
	assert.Zero(t, Pct(nil, 0.5))
}

func TestAvgAndEnvInt(t *testing.T) {
	assert.Equal(t, 2*time.Second, Avg([]time.Duration{time.Second, 3 * time.Second}))
	t.Setenv("BENCH_N", "42")
	assert.Equal(t, 42, EnvInt("BENCH_N", 1))
	t.Setenv("BENCH_N", "-1")
	assert.Equal(t, 7, EnvInt("BENCH_N", 7))
}

func TestCleanupUsers_KeepsOtherUsersData(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	mk := func(name string) *model.User {
		u := &model.User{Username: name, PasswordHash: "x"}
		require.NoError(t, db.Create(u).Error)
		return u
	}
	bench, bench2, leo := mk("feedbench_1"), mk("feedbench_2"), mk("leo")
	// "_" 按字面匹配
	mk("feedbenchX")
	now := time.Now()
	benchPost := &model.Post{Text: "bench", PubDate: now, AuthorID: bench.ID}
	realPost := &model.Post{Text: "real", PubDate: now, AuthorID: leo.ID}
	require.NoError(t, db.Create(benchPost).Error)
	require.NoError(t, db.Create(realPost).Error)
	require.NoError(t, db.Create(&model.Comment{Text: "c1", Created: now, AuthorID: leo.ID, PostID: realPost.ID}).Error)
	require.NoError(t, db.Create(&model.Comment{Text: "c2", Created: now, AuthorID: bench.ID, PostID: realPost.ID}).Error)
	require.NoError(t, db.Create(&model.Comment{Text: "c3", Created: now, AuthorID: leo.ID, PostID: benchPost.ID}).Error)
	require.NoError(t, db.Create(&model.Follow{UserID: bench.ID, AuthorID: bench2.ID}).Error)
	require.NoError(t, db.Create(&model.Follow{UserID: leo.ID, AuthorID: bench.ID}).Error)

	require.NoError(t, CleanupUsers(db, "feedbench_"))

	count := func(m interface{}) int64 {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		return n
	}
	assert.EqualValues(t, 2, count(&model.User{}))
	assert.EqualValues(t, 1, count(&model.Post{}))
	assert.EqualValues(t, 0, count(&model.Follow{}))

	var comments []model.Comment
	require.NoError(t, db.Find(&comments).Error)
	require.Len(t, comments, 1)
	assert.Equal(t, "c1", comments[0].Text)

	var left model.Post
	require.NoError(t, db.First(&left).Error)
	assert.Equal(t, realPost.ID, left.ID)
}
