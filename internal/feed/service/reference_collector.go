package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/bitfantasy/nimo-feed/internal/feed/entity"
	"github.com/bitfantasy/nimo-feed/internal/feed/repository"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// presignExpiry 附件下载链接有效期
const presignExpiry = 15 * time.Minute

// showThreadComments show 接口最多展开的线程评论数
const showThreadComments = 50

type refKey struct {
	Type string
	ID   int64
}

// collectState 一次展开过程中的去重与待解析集合
type collectState struct {
	seen    map[refKey]bool
	pending map[string][]int64
	refs    []entity.Reference
}

func newCollectState() *collectState {
	return &collectState{
		seen:    make(map[refKey]bool),
		pending: make(map[string][]int64),
		refs:    []entity.Reference{},
	}
}

// add 记录一个 (type, id) 引用，重复的忽略
func (st *collectState) add(refType string, id int64) {
	if refType == "" || id == 0 {
		return
	}
	k := refKey{Type: refType, ID: id}
	if st.seen[k] {
		return
	}
	st.seen[k] = true
	st.pending[refType] = append(st.pending[refType], id)
}

// take 取走某类型的待解析 id
func (st *collectState) take(refType string) []int64 {
	ids := st.pending[refType]
	delete(st.pending, refType)
	return ids
}

type resolverFunc func(ctx context.Context, st *collectState, ids []int64) error

// resolveOrder 解析顺序：线程引用会追加评论 id，评论与附件引用会追加作者 id，
// 因此线程先于评论、用户最后。
var resolveOrder = []string{
	entity.TypeTask,
	entity.TypeConversation,
	entity.TypeComment,
	entity.TypeProject,
	entity.TypeUpload,
	entity.TypeUser,
}

// ReferenceCollector 把一页活动展开为去重后的引用集合。
// 按类型注册的 resolver 负责取实体并生成摘要，新增实体类型只需注册一个 resolver。
type ReferenceCollector struct {
	repos          *repository.Repositories
	minioClient    *minio.Client
	bucket         string
	recentComments int
	logger         *zap.Logger
	resolvers      map[string]resolverFunc
}

// NewReferenceCollector 创建引用收集器。minioClient 可为 nil，此时附件引用不带下载链接。
func NewReferenceCollector(repos *repository.Repositories, minioClient *minio.Client, bucket string, recentComments int, logger *zap.Logger) *ReferenceCollector {
	c := &ReferenceCollector{
		repos:          repos,
		minioClient:    minioClient,
		bucket:         bucket,
		recentComments: recentComments,
		logger:         logger,
	}
	c.resolvers = map[string]resolverFunc{
		entity.TypeTask:         c.resolveTasks,
		entity.TypeConversation: c.resolveConversations,
		entity.TypeComment:      c.resolveComments,
		entity.TypeProject:      c.resolveProjects,
		entity.TypeUpload:       c.resolveUploads,
		entity.TypeUser:         c.resolveUsers,
	}
	return c
}

// Expand 展开一页活动的引用。已被删除的实体静默跳过，不影响整页响应。
func (c *ReferenceCollector) Expand(ctx context.Context, activities []entity.Activity) ([]entity.Reference, error) {
	st := newCollectState()
	for i := range activities {
		c.collectActivity(st, &activities[i])
	}
	return c.resolve(ctx, st)
}

// ExpandDetail 单条活动的深展开：在 Expand 的基础上附带线程评论（封顶）与附件
func (c *ReferenceCollector) ExpandDetail(ctx context.Context, a *entity.Activity) ([]entity.Reference, error) {
	st := newCollectState()
	c.collectActivity(st, a)

	threadType, threadID := threadOf(a)
	if threadType != "" {
		comments, err := c.repos.Comment.ListByTarget(ctx, threadType, threadID, showThreadComments)
		if err != nil {
			return nil, fmt.Errorf("list thread comments: %w", err)
		}
		for i := range comments {
			st.add(entity.TypeComment, comments[i].ID)
		}

		uploads, err := c.repos.Upload.ListByTarget(ctx, threadType, threadID)
		if err != nil {
			return nil, fmt.Errorf("list uploads: %w", err)
		}
		for i := range uploads {
			st.add(entity.TypeUpload, uploads[i].ID)
		}
	}

	return c.resolve(ctx, st)
}

func (c *ReferenceCollector) collectActivity(st *collectState, a *entity.Activity) {
	st.add(entity.TypeProject, a.ProjectID)
	st.add(entity.TypeUser, a.UserID)
	st.add(a.TargetType, a.TargetID)
	if a.CommentTargetType != nil && a.CommentTargetID != nil {
		st.add(*a.CommentTargetType, *a.CommentTargetID)
	}
}

func (c *ReferenceCollector) resolve(ctx context.Context, st *collectState) ([]entity.Reference, error) {
	for _, kind := range resolveOrder {
		ids := st.take(kind)
		if len(ids) == 0 {
			continue
		}
		if err := c.resolvers[kind](ctx, st, ids); err != nil {
			return nil, err
		}
	}

	// 注册表之外的类型无法物化，丢弃但不阻断请求
	for kind, ids := range st.pending {
		c.logger.Debug("Skipping unresolvable reference kind",
			zap.String("type", kind), zap.Int("count", len(ids)))
	}

	return st.refs, nil
}

func (c *ReferenceCollector) resolveTasks(ctx context.Context, st *collectState, ids []int64) error {
	tasks, err := c.repos.Task.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve tasks: %w", err)
	}
	for i := range tasks {
		t := &tasks[i]
		ref := entity.Reference{
			ID:        t.ID,
			Type:      entity.TypeTask,
			Name:      t.Name,
			Status:    t.Status,
			ProjectID: t.ProjectID,
			UserID:    t.UserID,
			CreatedAt: &t.CreatedAt,
		}
		if err := c.attachThreadComments(ctx, st, entity.TypeTask, t.ID, &ref); err != nil {
			return err
		}
		st.add(entity.TypeUser, t.UserID)
		st.refs = append(st.refs, ref)
	}
	return nil
}

func (c *ReferenceCollector) resolveConversations(ctx context.Context, st *collectState, ids []int64) error {
	convs, err := c.repos.Conversation.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve conversations: %w", err)
	}
	for i := range convs {
		cv := &convs[i]
		ref := entity.Reference{
			ID:        cv.ID,
			Type:      entity.TypeConversation,
			Name:      cv.Name,
			ProjectID: cv.ProjectID,
			UserID:    cv.UserID,
			CreatedAt: &cv.CreatedAt,
		}
		if err := c.attachThreadComments(ctx, st, entity.TypeConversation, cv.ID, &ref); err != nil {
			return err
		}
		st.add(entity.TypeUser, cv.UserID)
		st.refs = append(st.refs, ref)
	}
	return nil
}

// attachThreadComments 给线程引用补上首条与最近评论 id，并把这些评论排入解析队列
func (c *ReferenceCollector) attachThreadComments(ctx context.Context, st *collectState, threadType string, threadID int64, ref *entity.Reference) error {
	firstID, err := c.repos.Comment.FirstCommentID(ctx, threadType, threadID)
	if err != nil {
		return fmt.Errorf("first comment: %w", err)
	}
	recent, err := c.repos.Comment.RecentCommentIDs(ctx, threadType, threadID, c.recentComments)
	if err != nil {
		return fmt.Errorf("recent comments: %w", err)
	}

	ref.FirstCommentID = firstID
	ref.RecentCommentIDs = recent

	if firstID != nil {
		st.add(entity.TypeComment, *firstID)
	}
	for _, id := range recent {
		st.add(entity.TypeComment, id)
	}
	return nil
}

func (c *ReferenceCollector) resolveComments(ctx context.Context, st *collectState, ids []int64) error {
	comments, err := c.repos.Comment.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve comments: %w", err)
	}
	for i := range comments {
		cm := &comments[i]
		st.refs = append(st.refs, entity.Reference{
			ID:         cm.ID,
			Type:       entity.TypeComment,
			Body:       cm.Body,
			ProjectID:  cm.ProjectID,
			UserID:     cm.UserID,
			TargetType: cm.TargetType,
			TargetID:   cm.TargetID,
			CreatedAt:  &cm.CreatedAt,
		})
		st.add(entity.TypeUser, cm.UserID)
	}
	return nil
}

func (c *ReferenceCollector) resolveProjects(ctx context.Context, st *collectState, ids []int64) error {
	projects, err := c.repos.Project.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve projects: %w", err)
	}
	for i := range projects {
		p := &projects[i]
		st.refs = append(st.refs, entity.Reference{
			ID:        p.ID,
			Type:      entity.TypeProject,
			Name:      p.Name,
			Permalink: p.Permalink,
			UserID:    p.OwnerID,
			CreatedAt: &p.CreatedAt,
		})
	}
	return nil
}

func (c *ReferenceCollector) resolveUploads(ctx context.Context, st *collectState, ids []int64) error {
	uploads, err := c.repos.Upload.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve uploads: %w", err)
	}
	for i := range uploads {
		u := &uploads[i]
		st.refs = append(st.refs, entity.Reference{
			ID:          u.ID,
			Type:        entity.TypeUpload,
			Filename:    u.Filename,
			ContentType: u.ContentType,
			Size:        u.Size,
			ProjectID:   u.ProjectID,
			UserID:      u.UserID,
			DownloadURL: c.downloadURL(ctx, u.ObjectKey),
			CreatedAt:   &u.CreatedAt,
		})
		st.add(entity.TypeUser, u.UserID)
	}
	return nil
}

func (c *ReferenceCollector) resolveUsers(ctx context.Context, st *collectState, ids []int64) error {
	users, err := c.repos.User.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve users: %w", err)
	}
	for i := range users {
		u := &users[i]
		st.refs = append(st.refs, entity.Reference{
			ID:        u.ID,
			Type:      entity.TypeUser,
			Name:      u.Name,
			Username:  u.Username,
			AvatarURL: u.AvatarURL,
		})
	}
	return nil
}

// downloadURL 生成附件的预签名下载链接，对象存储未配置或签名失败时为空
func (c *ReferenceCollector) downloadURL(ctx context.Context, objectKey string) string {
	if c.minioClient == nil || objectKey == "" {
		return ""
	}
	u, err := c.minioClient.PresignedGetObject(ctx, c.bucket, objectKey, presignExpiry, url.Values{})
	if err != nil {
		return ""
	}
	return u.String()
}

// threadOf 活动涉及的评论线程，优先取评论目标
func threadOf(a *entity.Activity) (string, int64) {
	if a.CommentTargetType != nil && a.CommentTargetID != nil && isThreadType(*a.CommentTargetType) {
		return *a.CommentTargetType, *a.CommentTargetID
	}
	if isThreadType(a.TargetType) {
		return a.TargetType, a.TargetID
	}
	return "", 0
}

func isThreadType(t string) bool {
	return t == entity.TypeTask || t == entity.TypeConversation
}
