package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// GetStats 返回当前用户的字数统计概览
func (a *API) GetStats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	summary, err := a.stats.Summary(userID, time.Now().In(time.Local))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取统计数据失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"today":          summary.Today,
		"week":           summary.Week,
		"month":          summary.Month,
		"total":          summary.Total,
		"daily_goal":     summary.DailyGoal,
		"current_streak": summary.CurrentStreak,
		"longest_streak": summary.LongestStreak,
	})
}

// GetBadges 返回徽章目录，并标注当前用户已获得的徽章
func (a *API) GetBadges(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	catalog, err := a.badges.Catalog()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取徽章目录失败")
		return
	}

	earned, err := a.badges.Earned(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取徽章记录失败")
		return
	}

	earnedAt := make(map[uint]time.Time, len(earned))
	for _, item := range earned {
		earnedAt[item.Badge.ID] = item.AwardedAt
	}

	items := make([]gin.H, 0, len(catalog))
	for _, badge := range catalog {
		item := badgeToPayload(badge)
		if at, ok := earnedAt[badge.ID]; ok {
			item["earned"] = true
			item["awarded_at"] = at.Format(time.RFC3339)
		} else {
			item["earned"] = false
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{"badges": items})
}

// GetLeaderboard 返回本周字数排行榜
func (a *API) GetLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	rows, err := a.leaderboard.WeeklyTop(limit, time.Now().In(time.Local))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取排行榜失败")
		return
	}

	items := make([]gin.H, 0, len(rows))
	for rank, row := range rows {
		items = append(items, gin.H{
			"rank":         rank + 1,
			"user_id":      row.UserID,
			"display_name": row.DisplayName,
			"word_count":   row.WordCount,
			"is_pro":       row.IsPro,
		})
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": items})
}
