package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inkfolio/internal/cache"
	"github.com/inkfolio/internal/db"
	"github.com/inkfolio/internal/logging"
)

// minReadingSeconds 以下的停留视为跳出，不写入阅读时长。
const minReadingSeconds = 5

// defaultViewDedupWindow 限定"同一次阅读"的时长：窗口内的重复渲染只计一次，
// 超窗后同一访客重访同一篇文章算新的浏览。离开信标经常丢失，
// 没有窗口的话 Viewing 状态会永久滞留。
const defaultViewDedupWindow = 30 * time.Minute

// analyticsCacheTTL 控制聚合行读缓存的有效期。
const analyticsCacheTTL = time.Minute

var (
	ErrInvalidView     = errors.New("invalid visitor or post id")
	ErrInvalidPlatform = errors.New("unknown share platform")
)

// sharePlatforms 是允许的分享渠道集合。
var sharePlatforms = map[string]bool{
	"twitter":  true,
	"linkedin": true,
	"facebook": true,
	"reddit":   true,
	"whatsapp": true,
	"copy":     true,
	"native":   true,
}

// viewState 记录某个访客当前正在阅读的文章及开始时间。
type viewState struct {
	postID    uint
	startedAt time.Time
}

// AnalyticsService 负责浏览、阅读时长、分享与点赞的统计逻辑。
// 每个进程持有一个实例，由调用方显式注入，避免包级全局状态。
type AnalyticsService struct {
	db          *gorm.DB
	cache       *cache.Cache
	dedupWindow time.Duration

	mu      sync.Mutex
	viewing map[string]viewState
}

// NewAnalyticsService 创建 AnalyticsService，默认去重窗口为 30 分钟。
// cache 可以为 nil。
func NewAnalyticsService(gdb *gorm.DB, c *cache.Cache) *AnalyticsService {
	return &AnalyticsService{
		db:          gdb,
		cache:       c,
		dedupWindow: defaultViewDedupWindow,
		viewing:     make(map[string]viewState),
	}
}

// WithDedupWindow 允许在测试或特定场景下调整去重窗口。
func (s *AnalyticsService) WithDedupWindow(d time.Duration) *AnalyticsService {
	if d <= 0 {
		return s
	}
	s.dedupWindow = d
	return s
}

// TrackView 记录一次文章浏览。同一访客在去重窗口内重复进入正在阅读的文章
// 不会重复计数，用于吸收前端的重复渲染；超窗重访算新的浏览。
// 浏览事件与聚合计数在同一事务内落库。
func (s *AnalyticsService) TrackView(postID uint, visitorID, userAgent, referrer string, now time.Time) (*db.PostAnalytic, error) {
	if postID == 0 || visitorID == "" {
		return nil, ErrInvalidView
	}

	s.mu.Lock()
	s.expireStaleLocked(now)
	if state, ok := s.viewing[visitorID]; ok && state.postID == postID {
		s.mu.Unlock()
		stats := s.PostAnalytics(postID)
		return &stats, nil
	}
	s.viewing[visitorID] = viewState{postID: postID, startedAt: now}
	s.mu.Unlock()

	var stats db.PostAnalytic

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		var prior int64
		if err := tx.Model(&db.ViewEvent{}).
			Where("post_id = ? AND visitor_id = ?", postID, visitorID).
			Count(&prior).Error; err != nil {
			return err
		}

		event := db.ViewEvent{
			PostID:      postID,
			VisitorID:   visitorID,
			UserAgent:   userAgent,
			Referrer:    referrer,
			ReadingTime: 0,
			CreatedAt:   now,
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		if err := lockAnalyticRow(tx, postID, &stats); err != nil {
			return err
		}

		stats.Views++
		if prior == 0 {
			stats.UniqueViews++
		}

		return tx.Save(&stats).Error
	}); err != nil {
		// 事件没落库就不能占住 Viewing 状态，否则这次浏览会被永久吞掉
		s.mu.Lock()
		if state, ok := s.viewing[visitorID]; ok && state.postID == postID {
			delete(s.viewing, visitorID)
		}
		s.mu.Unlock()
		return nil, err
	}

	s.invalidate(postID)
	return &stats, nil
}

// expireStaleLocked 清掉超出去重窗口的滞留条目。调用方必须持有 mu。
func (s *AnalyticsService) expireStaleLocked(now time.Time) {
	for visitor, state := range s.viewing {
		if now.Sub(state.startedAt) > s.dedupWindow {
			delete(s.viewing, visitor)
		}
	}
}

// TrackReadingTime 将本次阅读的停留秒数回填到最近一条浏览事件上。
// 没有先行 TrackView 时是无操作；不足 5 秒的停留被丢弃。
// 两种情况都不会新建事件行。
func (s *AnalyticsService) TrackReadingTime(postID uint, visitorID string, now time.Time) error {
	if postID == 0 || visitorID == "" {
		return nil
	}

	s.mu.Lock()
	state, ok := s.viewing[visitorID]
	if !ok || state.postID != postID {
		s.mu.Unlock()
		return nil
	}
	delete(s.viewing, visitorID)
	s.mu.Unlock()

	elapsed := int(now.Sub(state.startedAt) / time.Second)
	if elapsed < minReadingSeconds {
		return nil
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		var event db.ViewEvent
		err := tx.Where("post_id = ? AND visitor_id = ?", postID, visitorID).
			Order("created_at desc, id desc").
			First(&event).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		previous := event.ReadingTime
		event.ReadingTime = elapsed
		if err := tx.Save(&event).Error; err != nil {
			return err
		}

		var stats db.PostAnalytic
		if err := lockAnalyticRow(tx, postID, &stats); err != nil {
			return err
		}

		stats.ReadingTime += uint64(elapsed - previous)
		return tx.Save(&stats).Error
	}); err != nil {
		return err
	}

	s.invalidate(postID)
	return nil
}

// TrackShare 记录一次分享动作并累加聚合计数。
func (s *AnalyticsService) TrackShare(postID uint, platform string) error {
	if postID == 0 {
		return ErrInvalidView
	}
	if !sharePlatforms[platform] {
		return ErrInvalidPlatform
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		event := db.ShareEvent{PostID: postID, Platform: platform, CreatedAt: time.Now()}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		var stats db.PostAnalytic
		if err := lockAnalyticRow(tx, postID, &stats); err != nil {
			return err
		}

		stats.Shares++
		return tx.Save(&stats).Error
	}); err != nil {
		return err
	}

	s.invalidate(postID)
	return nil
}

// ToggleLike 原子地增减点赞计数，返回最新值。客户端依靠会话内的
// 已赞集合决定传入的方向；计数不会降到零以下。
func (s *AnalyticsService) ToggleLike(postID uint, like bool) (int64, error) {
	if postID == 0 {
		return 0, ErrInvalidView
	}

	delta := int64(1)
	if !like {
		delta = -1
	}

	var stats db.PostAnalytic
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockAnalyticRow(tx, postID, &stats); err != nil {
			return err
		}

		stats.Likes += delta
		if stats.Likes < 0 {
			stats.Likes = 0
		}
		return tx.Save(&stats).Error
	}); err != nil {
		return 0, err
	}

	s.invalidate(postID)
	return stats.Likes, nil
}

// PostAnalytics 返回指定文章的聚合统计。任何失败都降级为零值对象，
// 下游的比例计算不需要判空。
func (s *AnalyticsService) PostAnalytics(postID uint) db.PostAnalytic {
	zero := db.PostAnalytic{PostID: postID}
	if postID == 0 {
		return zero
	}

	key := analyticsCacheKey(postID)
	if cached, err := s.cache.Get(key); err == nil {
		var stats db.PostAnalytic
		if jsonErr := json.Unmarshal([]byte(cached), &stats); jsonErr == nil {
			return stats
		}
	}

	var stats db.PostAnalytic
	if err := s.db.Where("post_id = ?", postID).First(&stats).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logging.L().Warn("post analytics read failed", zap.Uint("post_id", postID), zap.Error(err))
		}
		return zero
	}

	if encoded, err := json.Marshal(stats); err == nil {
		if err := s.cache.Set(key, encoded, analyticsCacheTTL); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
			logging.L().Warn("analytics cache write failed", zap.Error(err))
		}
	}

	return stats
}

// AllPostAnalytics 返回全部文章的聚合统计，失败时返回空映射。
func (s *AnalyticsService) AllPostAnalytics() map[uint]db.PostAnalytic {
	result := make(map[uint]db.PostAnalytic)

	var rows []db.PostAnalytic
	if err := s.db.Find(&rows).Error; err != nil {
		logging.L().Warn("analytics overview read failed", zap.Error(err))
		return result
	}

	for _, row := range rows {
		result[row.PostID] = row
	}
	return result
}

// PostStatsMap 返回指定文章的统计数据，未找到的文章不会出现在结果中。
func (s *AnalyticsService) PostStatsMap(postIDs []uint) (map[uint]*db.PostAnalytic, error) {
	result := make(map[uint]*db.PostAnalytic, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	var rows []db.PostAnalytic
	if err := s.db.Where("post_id IN ?", postIDs).Find(&rows).Error; err != nil {
		return nil, err
	}

	for i := range rows {
		row := rows[i]
		result[row.PostID] = &row
	}
	return result, nil
}

// lockAnalyticRow 取出并锁定聚合行，不存在时先创建。
func lockAnalyticRow(tx *gorm.DB, postID uint, stats *db.PostAnalytic) error {
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("post_id = ?", postID).
		First(stats)

	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		*stats = db.PostAnalytic{PostID: postID}
		return tx.Create(stats).Error
	case result.Error != nil:
		return result.Error
	}
	return nil
}

func (s *AnalyticsService) invalidate(postID uint) {
	if err := s.cache.Delete(analyticsCacheKey(postID)); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		logging.L().Warn("analytics cache invalidation failed", zap.Error(err))
	}
}

func analyticsCacheKey(postID uint) string {
	return fmt.Sprintf("analytics:post:%d", postID)
}
