package service

import (
	"errors"
	"fmt"

	"github.com/inkstreak/internal/db"
	"gorm.io/gorm"
)

const (
	// MinDailyWordGoal 每日目标下限
	MinDailyWordGoal = 100
	// MaxDailyWordGoal 每日目标上限
	MaxDailyWordGoal = 5000
)

// ErrGoalOutOfRange 当每日目标超出 [100, 5000] 时返回
var ErrGoalOutOfRange = errors.New("daily word goal out of range")

// SettingService 负责用户偏好的读取与更新，每个用户一行，惰性创建
type SettingService struct {
	db *gorm.DB
}

// NewSettingService 构造 SettingService
func NewSettingService(gdb *gorm.DB) *SettingService {
	return &SettingService{db: gdb}
}

// Get 返回用户设置，不存在时以默认目标创建
func (s *SettingService) Get(userID uint) (*db.Setting, error) {
	var setting db.Setting
	if err := s.db.Where("user_id = ?", userID).First(&setting).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("get setting: %w", err)
		}

		setting = db.Setting{UserID: userID, DailyWordGoal: db.DefaultDailyWordGoal}
		if err := s.db.Create(&setting).Error; err != nil {
			return nil, fmt.Errorf("create setting: %w", err)
		}
	}

	return &setting, nil
}

// UpdateGoal 更新每日字数目标，越界时拒绝且不写库
func (s *SettingService) UpdateGoal(userID uint, goal int) (*db.Setting, error) {
	if goal < MinDailyWordGoal || goal > MaxDailyWordGoal {
		return nil, fmt.Errorf("%w: %d", ErrGoalOutOfRange, goal)
	}

	setting, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	setting.DailyWordGoal = goal
	if err := s.db.Save(setting).Error; err != nil {
		return nil, fmt.Errorf("update setting: %w", err)
	}

	return setting, nil
}
