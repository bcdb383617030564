package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-feed/internal/config"
	"github.com/bitfantasy/nimo-feed/internal/feed/entity"
	"github.com/bitfantasy/nimo-feed/internal/feed/repository"
	"github.com/xuri/excelize/v2"
)

// FeedService 活动流服务。核心只读：范围解析 → 过滤分页查询 → 引用展开。
type FeedService struct {
	activityRepo *repository.ActivityRepository
	watcherRepo  *repository.WatcherRepository
	scope        *ScopeService
	collector    *ReferenceCollector
	cfg          *config.Config
}

// NewFeedService 创建活动流服务
func NewFeedService(repos *repository.Repositories, scope *ScopeService, collector *ReferenceCollector, cfg *config.Config) *FeedService {
	return &FeedService{
		activityRepo: repos.Activity,
		watcherRepo:  repos.Watcher,
		scope:        scope,
		collector:    collector,
		cfg:          cfg,
	}
}

// ListRequest 活动流查询请求，nil / 空字段不参与过滤
type ListRequest struct {
	ProjectKey        string
	UserID            *int64
	TargetType        string
	TargetID          *int64
	CommentTargetType string
	CommentTargetID   *int64
	SinceID           *int64
	Count             *int
}

func (req *ListRequest) filter() repository.ActivityFilter {
	return repository.ActivityFilter{
		UserID:            req.UserID,
		TargetType:        req.TargetType,
		TargetID:          req.TargetID,
		CommentTargetType: req.CommentTargetType,
		CommentTargetID:   req.CommentTargetID,
	}
}

// FeedPage 活动流一页：活动按 id 倒序，引用按 (type, id) 去重
type FeedPage struct {
	Objects    []entity.Activity  `json:"objects"`
	References []entity.Reference `json:"references"`
}

// ActivityDetail 单条活动响应，附带深展开的引用
type ActivityDetail struct {
	entity.Activity
	References []entity.Reference `json:"references"`
}

// Index 查询活动流
func (s *FeedService) Index(ctx context.Context, viewerID int64, req *ListRequest) (*FeedPage, error) {
	count, err := s.pageSize(req.Count)
	if err != nil {
		return nil, err
	}

	scope, err := s.scope.Resolve(ctx, viewerID, req.ProjectKey)
	if err != nil {
		return nil, err
	}

	var sinceID int64
	if req.SinceID != nil {
		sinceID = *req.SinceID
	}

	activities, err := s.activityRepo.List(ctx, viewerID, scope.ProjectIDs, req.filter(), sinceID, count)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	references, err := s.collector.Expand(ctx, activities)
	if err != nil {
		return nil, fmt.Errorf("expand references: %w", err)
	}

	return &FeedPage{Objects: activities, References: references}, nil
}

// Show 查询单条活动。项目不可达的活动与不存在同样返回 ErrNotFound；
// 项目可达但私有且未订阅返回 ErrForbidden。
func (s *FeedService) Show(ctx context.Context, viewerID int64, projectKey string, id int64) (*ActivityDetail, error) {
	// 给了项目约束就先校验，未命中不泄露存在性
	if projectKey != "" {
		if _, err := s.scope.Resolve(ctx, viewerID, projectKey); err != nil {
			return nil, err
		}
	}

	// 查找范围是请求者的全部项目，与约束无关
	scope, err := s.scope.Resolve(ctx, viewerID, "")
	if err != nil {
		return nil, err
	}

	a, err := s.activityRepo.FindInProjects(ctx, id, scope.ProjectIDs)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find activity: %w", err)
	}

	visible, err := Visible(ctx, a, viewerID, s.watcherRepo.Exists)
	if err != nil {
		return nil, fmt.Errorf("check visibility: %w", err)
	}
	if !visible {
		return nil, ErrForbidden
	}

	references, err := s.collector.ExpandDetail(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("expand references: %w", err)
	}

	return &ActivityDetail{Activity: *a, References: references}, nil
}

func (s *FeedService) pageSize(count *int) (int, error) {
	if count == nil {
		return s.cfg.Feed.DefaultCount, nil
	}
	if *count <= 0 {
		return 0, ErrInvalidCount
	}
	if *count > s.cfg.Feed.MaxCount {
		return s.cfg.Feed.MaxCount, nil
	}
	return *count, nil
}

var exportHeaders = []string{"ID", "时间", "项目", "成员", "动作", "目标类型", "目标ID", "私有"}

// Export 导出活动流为 xlsx，范围与过滤条件与 Index 一致，行数封顶
func (s *FeedService) Export(ctx context.Context, viewerID int64, req *ListRequest) (*excelize.File, string, error) {
	scope, err := s.scope.Resolve(ctx, viewerID, req.ProjectKey)
	if err != nil {
		return nil, "", err
	}

	var sinceID int64
	if req.SinceID != nil {
		sinceID = *req.SinceID
	}

	activities, err := s.activityRepo.List(ctx, viewerID, scope.ProjectIDs, req.filter(), sinceID, s.cfg.Feed.ExportLimit)
	if err != nil {
		return nil, "", fmt.Errorf("list activities: %w", err)
	}

	references, err := s.collector.Expand(ctx, activities)
	if err != nil {
		return nil, "", fmt.Errorf("expand references: %w", err)
	}

	// 引用集合兼作名称索引
	projectNames := map[int64]string{}
	userNames := map[int64]string{}
	for _, ref := range references {
		switch ref.Type {
		case entity.TypeProject:
			projectNames[ref.ID] = ref.Name
		case entity.TypeUser:
			userNames[ref.ID] = ref.Name
		}
	}

	f := excelize.NewFile()
	sheet := "活动"
	f.SetSheetName("Sheet1", sheet)

	// 表头样式: 加粗
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})

	for i, h := range exportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for rowIdx := range activities {
		a := &activities[rowIdx]
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), a.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), a.CreatedAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), projectNames[a.ProjectID])
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), userNames[a.UserID])
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), a.Action)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), a.TargetType)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), a.TargetID)
		if a.IsPrivate {
			f.SetCellValue(sheet, fmt.Sprintf("H%d", row), "是")
		} else {
			f.SetCellValue(sheet, fmt.Sprintf("H%d", row), "否")
		}
	}

	filename := fmt.Sprintf("activities_%s.xlsx", time.Now().Format("20060102_150405"))
	return f, filename, nil
}
