package db

import "gorm.io/gorm"

// ExerciseType 枚举写作练习类型，决定条目附属的明细表
type ExerciseType string

const (
	ExerciseFreeWriting   ExerciseType = "FREE_WRITING"
	ExerciseJournal       ExerciseType = "JOURNAL"
	ExercisePromptWriting ExerciseType = "PROMPT_WRITING"
	ExerciseCollaborative ExerciseType = "COLLABORATIVE"
)

// KnownExerciseType 判断类型是否为受支持的枚举值
func KnownExerciseType(t ExerciseType) bool {
	switch t {
	case ExerciseFreeWriting, ExerciseJournal, ExercisePromptWriting, ExerciseCollaborative:
		return true
	default:
		return false
	}
}

// WritingEntry 定义了写作条目模型
// 提交后不可修改，仅支持删除；Mood 为可选的心情标签
type WritingEntry struct {
	gorm.Model
	UserID       uint `gorm:"index;not null"`
	User         User
	Title        string
	Content      string       `gorm:"type:text;not null"`
	WordCount    int          `gorm:"not null"`
	ExerciseType ExerciseType `gorm:"not null"`
	Mood         string
}

// FreeWritingEntry 自由写作明细，与条目 1:1 绑定
type FreeWritingEntry struct {
	gorm.Model
	EntryID uint         `gorm:"uniqueIndex;not null"`
	Entry   WritingEntry `gorm:"constraint:OnDelete:CASCADE"`
}

// JournalEntry 日记明细
type JournalEntry struct {
	gorm.Model
	EntryID uint         `gorm:"uniqueIndex;not null"`
	Entry   WritingEntry `gorm:"constraint:OnDelete:CASCADE"`
}

// PromptWritingEntry 题目写作明细，记录使用的题目文本
type PromptWritingEntry struct {
	gorm.Model
	EntryID    uint         `gorm:"uniqueIndex;not null"`
	Entry      WritingEntry `gorm:"constraint:OnDelete:CASCADE"`
	PromptText string
}

// CollaborativeEntry 协作写作明细，记录协作房间编号
type CollaborativeEntry struct {
	gorm.Model
	EntryID  uint         `gorm:"uniqueIndex;not null"`
	Entry    WritingEntry `gorm:"constraint:OnDelete:CASCADE"`
	RoomCode string
}
