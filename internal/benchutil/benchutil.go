// Package benchutil cmd/*bench 共用的小工具
package benchutil

import (
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
)

func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func MustDo(err error) {
	if err != nil {
		panic(err)
	}
}

// EnvInt 读取正整数环境变量，缺失或非法时返回 def
func EnvInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

// Pct 返回第 p 分位（0~1）
func Pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func Avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range vs {
		sum += v
	}
	return sum / time.Duration(len(vs))
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// CleanupUsers 删除 username 以 prefix 开头的用户及其帖子、评论、关注关系，
// 其它用户的数据不受影响
func CleanupUsers(db *gorm.DB, prefix string) error {
	pattern := likeEscaper.Replace(prefix) + "%"
	return db.Transaction(func(tx *gorm.DB) error {
		users := tx.Model(&model.User{}).Select("id").Where("username LIKE ? ESCAPE '!'", pattern)
		posts := tx.Model(&model.Post{}).Select("id").Where("author_id IN (?)", users)
		if err := tx.Where("author_id IN (?) OR post_id IN (?)", users, posts).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id IN (?) OR author_id IN (?)", users, users).Delete(&model.Follow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id IN (?)", users).Delete(&model.Post{}).Error; err != nil {
			return err
		}
		return tx.Where("username LIKE ? ESCAPE '!'", pattern).Delete(&model.User{}).Error
	})
}
