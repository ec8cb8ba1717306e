package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkstreak/internal/service"
)

type settingPayload struct {
	DailyWordGoal int `json:"daily_word_goal"`
}

// GetSettings 返回当前用户的设置，首次访问时以默认值创建
func (a *API) GetSettings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	setting, err := a.settings.Get(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取设置失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"daily_word_goal": setting.DailyWordGoal})
}

// UpdateSettings 更新每日字数目标
func (a *API) UpdateSettings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	var payload settingPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	setting, err := a.settings.UpdateGoal(userID, payload.DailyWordGoal)
	if err != nil {
		if errors.Is(err, service.ErrGoalOutOfRange) {
			respondError(c, http.StatusBadRequest, "每日目标需在 100 到 5000 之间")
			return
		}
		respondError(c, http.StatusInternalServerError, "保存设置失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"daily_word_goal": setting.DailyWordGoal})
}
