package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkstreak/internal/db"
	"github.com/inkstreak/internal/service"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	contentSanitizer = bluemonday.UGCPolicy()
)

type entryPayload struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	WordCount    int    `json:"word_count"`
	ExerciseType string `json:"exercise_type"`
	Mood         string `json:"mood"`
	PromptText   string `json:"prompt_text"`
	RoomCode     string `json:"room_code"`
}

// SubmitEntry 提交一条写作条目，返回条目与新授予的徽章
func (a *API) SubmitEntry(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	var payload entryPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	result, err := a.entries.Submit(service.SubmitInput{
		UserID:       userID,
		Title:        payload.Title,
		Content:      payload.Content,
		WordCount:    payload.WordCount,
		ExerciseType: db.ExerciseType(payload.ExerciseType),
		Mood:         payload.Mood,
		PromptText:   payload.PromptText,
		RoomCode:     payload.RoomCode,
	})
	if err != nil {
		handleEntryError(c, err)
		return
	}

	badges := make([]gin.H, 0, len(result.NewBadges))
	for _, badge := range result.NewBadges {
		badges = append(badges, badgeToPayload(badge))
	}

	c.JSON(http.StatusCreated, gin.H{
		"entry":      entryToPayload(result.Entry),
		"new_badges": badges,
	})
}

// ListEntries 返回当前用户的条目列表
func (a *API) ListEntries(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := a.entries.List(userID, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取条目列表失败")
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		items = append(items, entryToPayload(entry))
	}

	c.JSON(http.StatusOK, gin.H{"entries": items})
}

// GetEntry 返回单条条目，附带经过清洗的渲染内容
func (a *API) GetEntry(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	entryID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的条目ID")
		return
	}

	entry, err := a.entries.Get(userID, entryID)
	if err != nil {
		handleEntryError(c, err)
		return
	}

	payload := entryToPayload(*entry)
	payload["rendered_content"] = renderEntryContent(entry.Content)

	c.JSON(http.StatusOK, gin.H{"entry": payload})
}

// DeleteEntry 删除条目及其明细行
func (a *API) DeleteEntry(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	entryID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的条目ID")
		return
	}

	if err := a.entries.Delete(userID, entryID); err != nil {
		handleEntryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// renderEntryContent 将 Markdown 渲染为 HTML 并做 XSS 清洗
func renderEntryContent(content string) string {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return ""
	}
	return contentSanitizer.Sanitize(buf.String())
}

func entryToPayload(entry db.WritingEntry) gin.H {
	payload := gin.H{
		"id":            entry.ID,
		"title":         entry.Title,
		"content":       entry.Content,
		"word_count":    entry.WordCount,
		"exercise_type": string(entry.ExerciseType),
		"created_at":    entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.Mood != "" {
		payload["mood"] = entry.Mood
	}
	return payload
}

func badgeToPayload(badge db.Badge) gin.H {
	return gin.H{
		"id":          badge.ID,
		"code":        badge.Code,
		"name":        badge.Name,
		"description": badge.Description,
		"category":    badge.Category,
	}
}

func handleEntryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEntryInvalid):
		respondError(c, http.StatusBadRequest, "条目内容不合法")
	case errors.Is(err, service.ErrEntryNotFound):
		respondError(c, http.StatusNotFound, "条目不存在")
	case errors.Is(err, service.ErrEntryForbidden):
		respondError(c, http.StatusForbidden, "无权操作该条目")
	case errors.Is(err, service.ErrUserNotFound):
		respondError(c, http.StatusUnauthorized, "用户不存在")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
