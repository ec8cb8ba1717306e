package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inkstreak/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrEntryInvalid 在提交内容校验失败时返回
	ErrEntryInvalid = errors.New("invalid entry submission")
	// ErrEntryNotFound 在指定条目不存在时返回
	ErrEntryNotFound = errors.New("entry not found")
	// ErrEntryForbidden 在操作者不是条目所有者时返回
	ErrEntryForbidden = errors.New("entry does not belong to user")
	// ErrUserNotFound 在提交者无法解析为用户记录时返回
	ErrUserNotFound = errors.New("user not found")
)

// EntryService 负责写作条目的提交、查询与删除
// 提交是一个原子事务：条目 + 类型明细 + 连续记录 + 徽章判定，任一步失败则全部回滚
type EntryService struct {
	db      *gorm.DB
	streaks *StreakService
	badges  *BadgeService
}

// SubmitInput 定义提交条目时的输入对象
// PromptText/RoomCode 仅对相应练习类型生效
type SubmitInput struct {
	UserID       uint
	Title        string
	Content      string
	WordCount    int
	ExerciseType db.ExerciseType
	Mood         string
	PromptText   string
	RoomCode     string
}

// SubmitResult 返回新建条目与本次新授予的徽章
type SubmitResult struct {
	Entry     db.WritingEntry
	NewBadges []db.Badge
}

// NewEntryService 构造 EntryService
func NewEntryService(gdb *gorm.DB) *EntryService {
	return &EntryService{
		db:      gdb,
		streaks: NewStreakService(gdb),
		badges:  NewBadgeService(gdb),
	}
}

// Submit 提交一条写作条目。
// 校验在事务开启前完成并快速失败；事务内依次写入条目、明细行，
// 更新连续记录并判定徽章，返回条目与新授予的徽章。
func (s *EntryService) Submit(input SubmitInput) (*SubmitResult, error) {
	if err := validateSubmitInput(input); err != nil {
		return nil, err
	}

	var user db.User
	if err := s.db.First(&user, input.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	now := time.Now().In(time.Local)
	result := &SubmitResult{}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		entry := db.WritingEntry{
			UserID:       input.UserID,
			Title:        strings.TrimSpace(input.Title),
			Content:      input.Content,
			WordCount:    input.WordCount,
			ExerciseType: input.ExerciseType,
			Mood:         strings.TrimSpace(input.Mood),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("create entry: %w", err)
		}

		if err := createDetail(tx, entry.ID, input); err != nil {
			return err
		}

		streak, err := s.streaks.RecordWritingDay(tx, input.UserID, now)
		if err != nil {
			return err
		}

		newBadges, err := s.badges.EvaluateSubmission(tx, input.UserID, input.WordCount, streak.CurrentStreak, now)
		if err != nil {
			return err
		}

		result.Entry = entry
		result.NewBadges = newBadges
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// Get 返回指定条目，校验所有权
func (s *EntryService) Get(userID, entryID uint) (*db.WritingEntry, error) {
	var entry db.WritingEntry
	if err := s.db.First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}

	if entry.UserID != userID {
		return nil, ErrEntryForbidden
	}

	return &entry, nil
}

// List 返回用户的条目列表，按创建时间倒序分页
func (s *EntryService) List(userID uint, limit, offset int) ([]db.WritingEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var entries []db.WritingEntry
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	return entries, nil
}

// Delete 删除条目及其类型明细行。
// 非所有者的删除请求被拒绝且不产生任何写入；明细与条目在同一事务内删除。
func (s *EntryService) Delete(userID, entryID uint) error {
	entry, err := s.Get(userID, entryID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteDetail(tx, entry); err != nil {
			return err
		}

		if err := tx.Delete(&db.WritingEntry{}, entry.ID).Error; err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
		return nil
	})
}

func validateSubmitInput(input SubmitInput) error {
	if strings.TrimSpace(input.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrEntryInvalid)
	}
	if input.WordCount <= 0 {
		return fmt.Errorf("%w: word count must be positive", ErrEntryInvalid)
	}
	if !db.KnownExerciseType(input.ExerciseType) {
		return fmt.Errorf("%w: unknown exercise type %s", ErrEntryInvalid, input.ExerciseType)
	}
	return nil
}

// createDetail 按练习类型写入 1:1 明细行
func createDetail(tx *gorm.DB, entryID uint, input SubmitInput) error {
	var err error

	switch input.ExerciseType {
	case db.ExerciseFreeWriting:
		err = tx.Create(&db.FreeWritingEntry{EntryID: entryID}).Error
	case db.ExerciseJournal:
		err = tx.Create(&db.JournalEntry{EntryID: entryID}).Error
	case db.ExercisePromptWriting:
		err = tx.Create(&db.PromptWritingEntry{EntryID: entryID, PromptText: strings.TrimSpace(input.PromptText)}).Error
	case db.ExerciseCollaborative:
		err = tx.Create(&db.CollaborativeEntry{EntryID: entryID, RoomCode: strings.TrimSpace(input.RoomCode)}).Error
	default:
		return fmt.Errorf("%w: unknown exercise type %s", ErrEntryInvalid, input.ExerciseType)
	}

	if err != nil {
		return fmt.Errorf("create %s detail: %w", input.ExerciseType, err)
	}
	return nil
}

// deleteDetail 按练习类型删除明细行，与条目删除同事务
func deleteDetail(tx *gorm.DB, entry *db.WritingEntry) error {
	var err error

	switch entry.ExerciseType {
	case db.ExerciseFreeWriting:
		err = tx.Where("entry_id = ?", entry.ID).Delete(&db.FreeWritingEntry{}).Error
	case db.ExerciseJournal:
		err = tx.Where("entry_id = ?", entry.ID).Delete(&db.JournalEntry{}).Error
	case db.ExercisePromptWriting:
		err = tx.Where("entry_id = ?", entry.ID).Delete(&db.PromptWritingEntry{}).Error
	case db.ExerciseCollaborative:
		err = tx.Where("entry_id = ?", entry.ID).Delete(&db.CollaborativeEntry{}).Error
	default:
		return fmt.Errorf("%w: unknown exercise type %s", ErrEntryInvalid, entry.ExerciseType)
	}

	if err != nil {
		return fmt.Errorf("delete %s detail: %w", entry.ExerciseType, err)
	}
	return nil
}
