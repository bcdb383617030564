package handler

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-feed/internal/config"
	"github.com/bitfantasy/nimo-feed/internal/feed/entity"
	"github.com/bitfantasy/nimo-feed/internal/feed/repository"
	"github.com/bitfantasy/nimo-feed/internal/feed/service"
	"github.com/bitfantasy/nimo-feed/internal/feed/testutil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupFeedTest(t *testing.T, mutate ...func(*config.Config)) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	cfg := &config.Config{}
	cfg.Feed = config.FeedConfig{
		DefaultCount:   50,
		MaxCount:       50,
		RecentComments: 4,
		ExportLimit:    500,
		ScopeCacheTTL:  time.Minute,
	}
	for _, m := range mutate {
		m(cfg)
	}

	svc := service.NewServices(repos, nil, cfg, zap.NewNop())
	handlers := NewHandlers(svc)

	r := testutil.SetupRouter()
	v1 := testutil.AuthGroup(r, "/api/v1")
	v1.GET("/activities", handlers.Activity.Index)
	v1.GET("/activities/export", handlers.Activity.Export)
	v1.GET("/activities/:id", handlers.Activity.Show)
	v1.GET("/projects/:project_id/activities", handlers.Activity.Index)
	v1.GET("/projects/:project_id/activities/:id", handlers.Activity.Show)
	return r, db
}

// seedFeedFixture 基准数据：用户1是两个项目的成员，用户2只在 borealis，用户3无项目
func seedFeedFixture(t *testing.T, db *gorm.DB) {
	t.Helper()
	testutil.SeedUser(t, db, 1, "Alice")
	testutil.SeedUser(t, db, 2, "Bob")
	testutil.SeedUser(t, db, 3, "Carol")
	testutil.SeedProject(t, db, 100, "apollo", "Apollo", 1, 1)
	testutil.SeedProject(t, db, 200, "borealis", "Borealis", 1, 1, 2)

	db.Create(&entity.Task{ID: 1000, ProjectID: 100, UserID: 1, Name: "Design review", Status: "open"})
	db.Create(&entity.Conversation{ID: 2000, ProjectID: 200, UserID: 2, Name: "Kickoff"})

	for _, a := range []entity.Activity{
		{ID: 10, ProjectID: 100, UserID: 1, TargetType: entity.TypeProject, TargetID: 100},
		{ID: 11, ProjectID: 100, UserID: 2, TargetType: entity.TypeTask, TargetID: 1000},
		{ID: 12, ProjectID: 100, UserID: 1, TargetType: entity.TypeTask, TargetID: 1000},
		{ID: 20, ProjectID: 200, UserID: 1, TargetType: entity.TypeProject, TargetID: 200},
		{ID: 21, ProjectID: 200, UserID: 2, TargetType: entity.TypeConversation, TargetID: 2000},
	} {
		item := a
		testutil.SeedActivity(t, db, &item)
	}
}

func objectIDs(t *testing.T, resp map[string]interface{}) []int64 {
	t.Helper()
	raw, ok := resp["objects"].([]interface{})
	if !ok {
		t.Fatalf("Response has no objects array: %v", resp)
	}
	ids := make([]int64, 0, len(raw))
	for _, item := range raw {
		obj := item.(map[string]interface{})
		ids = append(ids, int64(obj["id"].(float64)))
	}
	return ids
}

func assertObjects(t *testing.T, resp map[string]interface{}, want ...int64) {
	t.Helper()
	ids := objectIDs(t, resp)
	if len(ids) != len(want) {
		t.Fatalf("Expected objects %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("Expected objects %v, got %v", want, ids)
		}
	}
}

func getActivities(t *testing.T, r *gin.Engine, userID int64, query string) (int, map[string]interface{}) {
	t.Helper()
	path := "/api/v1/activities"
	if query != "" {
		path += "?" + query
	}
	w := testutil.DoRequest(r, http.MethodGet, path, nil, testutil.TokenForUser(userID))
	return w.Code, testutil.ParseResponse(w)
}

func TestIndexScoping(t *testing.T) {
	r, db := setupFeedTest(t)
	seedFeedFixture(t, db)

	code, resp := getActivities(t, r, 1, "")
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", code, resp)
	}
	assertObjects(t, resp, 21, 20, 12, 11, 10)

	code, resp = getActivities(t, r, 2, "")
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", code, resp)
	}
	assertObjects(t, resp, 21, 20)

	// 无项目的用户得到空流，不是错误
	code, resp = getActivities(t, r, 3, "")
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", code, resp)
	}
	assertObjects(t, resp)
}

func TestIndexProjectConstraint(t *testing.T) {
	r, db := setupFeedTest(t)
	seedFeedFixture(t, db)

	w := testutil.DoRequest(r, http.MethodGet, "/api/v1/projects/apollo/activities", nil, testutil.TokenForUser(1))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	assertObjects(t, testutil.ParseResponse(w), 12, 11, 10)

	// 数字 id 与 permalink 等价
	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/projects/200/activities", nil, testutil.TokenForUser(1))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	assertObjects(t, testutil.ParseResponse(w), 21, 20)

	// 查询参数形式
	code, resp := getActivities(t, r, 1, "project_id=apollo")
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", code, resp)
	}
	assertObjects(t, resp, 12, 11, 10)

	// 非成员与不存在的项目同样 404
	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/projects/apollo/activities", nil, testutil.TokenForUser(2))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for non-member, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/projects/ghost/activities", nil, testutil.TokenForUser(1))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown project, got %d: %s", w.Code, w.Body.String())
	}
}

func TestIndexFilters(t *testing.T) {
	r, db := setupFeedTest(t)
	seedFeedFixture(t, db)

	code, resp := getActivities(t, r, 1, "user_id=2")
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", code, resp)
	}
	assertObjects(t, resp, 21, 11)

	code, resp = getActivities(t, r, 1, "target_type=Task")
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", code, resp)
	}
	assertObjects(t, resp, 12, 11)

	// 虚构的成员 id 只是查不到结果
	code, resp = getActivities(t, r, 1, "user_id=999")
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", code, resp)
	}
	assertObjects(t, resp)
}

func TestIndexPagination(t *testing.T) {
	r, db := setupFeedTest(t)
	seedFeedFixture(t, db)

	code, resp := getActivities(t, r, 1, "count=2")
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", code, resp)
	}
	assertObjects(t, resp, 21, 20)

	code, resp = getActivities(t, r, 1, "since_id=20&count=2")
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", code, resp)
	}
	assertObjects(t, resp, 12, 11)

	// 翻页期间有新活动写入，旧游标的页不受影响
	testutil.SeedActivity(t, db, &entity.Activity{ID: 30, ProjectID: 100, UserID: 1, TargetType: entity.TypeProject, TargetID: 100})
	code, resp = getActivities(t, r, 1, "since_id=20&count=2")
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", code, resp)
	}
	assertObjects(t, resp, 12, 11)

	code, resp = getActivities(t, r, 1, "count=1")
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", code, resp)
	}
	assertObjects(t, resp, 30)

	code, resp = getActivities(t, r, 1, "count=0")
	if code != http.StatusBadRequest {
		t.Errorf("Expected 400 for count=0, got %d: %v", code, resp)
	}
	code, resp = getActivities(t, r, 1, "count=abc")
	if code != http.StatusBadRequest {
		t.Errorf("Expected 400 for count=abc, got %d: %v", code, resp)
	}
}

func TestIndexCountClamp(t *testing.T) {
	r, db := setupFeedTest(t, func(cfg *config.Config) {
		cfg.Feed.MaxCount = 3
	})
	seedFeedFixture(t, db)

	code, resp := getActivities(t, r, 1, "count=500")
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", code, resp)
	}
	assertObjects(t, resp, 21, 20, 12)
}

func TestIndexPrivacy(t *testing.T) {
	r, db := setupFeedTest(t)
	seedFeedFixture(t, db)

	ct := entity.TypeConversation
	ctID := int64(2000)
	testutil.SeedActivity(t, db, &entity.Activity{
		ID: 30, ProjectID: 200, UserID: 2, TargetType: entity.TypeComment, TargetID: 5000,
		CommentTargetType: &ct, CommentTargetID: &ctID, IsPrivate: true,
	})

	code, resp := getActivities(t, r, 1, "")
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", code, resp)
	}
	assertObjects(t, resp, 21, 20, 12, 11, 10)

	db.Create(&entity.Watcher{WatchableType: entity.TypeConversation, WatchableID: 2000, UserID: 1})

	code, resp = getActivities(t, r, 1, "")
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", code, resp)
	}
	assertObjects(t, resp, 30, 21, 20, 12, 11, 10)
}

func TestIndexReferences(t *testing.T) {
	r, db := setupFeedTest(t)
	seedFeedFixture(t, db)

	for i := int64(1); i <= 6; i++ {
		db.Create(&entity.Comment{
			ID: 5000 + i, ProjectID: 200, UserID: 1 + i%2,
			TargetType: entity.TypeConversation, TargetID: 2000,
			Body: fmt.Sprintf("comment %d", i),
		})
	}

	code, resp := getActivities(t, r, 1, "")
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", code, resp)
	}

	refs, ok := resp["references"].([]interface{})
	if !ok {
		t.Fatalf("Response has no references array: %v", resp)
	}

	seen := map[string]map[string]interface{}{}
	for _, item := range refs {
		ref := item.(map[string]interface{})
		key := fmt.Sprintf("%.0f_%s", ref["id"].(float64), ref["type"].(string))
		if _, dup := seen[key]; dup {
			t.Errorf("Duplicate reference %s", key)
		}
		seen[key] = ref
	}

	for _, key := range []string{"100_Project", "200_Project", "1_User", "2_User", "1000_Task", "2000_Conversation"} {
		if _, ok := seen[key]; !ok {
			t.Errorf("Expected reference %s", key)
		}
	}

	conv := seen["2000_Conversation"]
	if conv == nil {
		t.Fatal("Missing conversation reference")
	}
	if got := conv["first_comment_id"].(float64); int64(got) != 5001 {
		t.Errorf("Expected first_comment_id 5001, got %v", got)
	}
	recent := conv["recent_comment_ids"].([]interface{})
	if len(recent) != 4 {
		t.Fatalf("Expected 4 recent comment ids, got %v", recent)
	}
	if int64(recent[0].(float64)) != 5006 {
		t.Errorf("Expected newest recent comment 5006, got %v", recent[0])
	}
	if _, ok := seen["5006_Comment"]; !ok {
		t.Error("Recent comments should be expanded as references")
	}
}

func TestIndexJSONP(t *testing.T) {
	r, db := setupFeedTest(t)
	seedFeedFixture(t, db)

	w := testutil.DoRequest(r, http.MethodGet, "/api/v1/activities?callback=lolCat&format=js", nil, testutil.TokenForUser(1))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "lolCat(") {
		t.Errorf("Expected JSONP wrapper, got %q", body[:min(len(body), 40)])
	}

	// 只有 format=js 时才包裹
	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/activities?callback=lolCat", nil, testutil.TokenForUser(1))
	if strings.HasPrefix(w.Body.String(), "lolCat(") {
		t.Error("Plain JSON request should not be wrapped")
	}
}

func TestShow(t *testing.T) {
	r, db := setupFeedTest(t)
	seedFeedFixture(t, db)

	w := testutil.DoRequest(r, http.MethodGet, "/api/v1/activities/21", nil, testutil.TokenForUser(1))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if int64(resp["id"].(float64)) != 21 {
		t.Errorf("Expected activity 21, got %v", resp["id"])
	}
	if _, ok := resp["references"].([]interface{}); !ok {
		t.Errorf("Expected references array, got %v", resp["references"])
	}

	// 项目前缀形式
	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/projects/borealis/activities/21", nil, testutil.TokenForUser(1))
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// 不存在与范围之外都按不存在处理
	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/activities/999", nil, testutil.TokenForUser(1))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing activity, got %d", w.Code)
	}
	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/activities/10", nil, testutil.TokenForUser(2))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for out-of-scope activity, got %d", w.Code)
	}
	resp = testutil.ParseResponse(w)
	if errs, ok := resp["errors"].(map[string]interface{}); !ok || errs["type"] != "ObjectNotFound" {
		t.Errorf("Expected ObjectNotFound error, got %v", resp)
	}

	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/activities/abc", nil, testutil.TokenForUser(1))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-numeric id, got %d", w.Code)
	}
}

func TestShowPrivate(t *testing.T) {
	r, db := setupFeedTest(t)
	seedFeedFixture(t, db)

	ct := entity.TypeConversation
	ctID := int64(2000)
	testutil.SeedActivity(t, db, &entity.Activity{
		ID: 30, ProjectID: 200, UserID: 2, TargetType: entity.TypeComment, TargetID: 5000,
		CommentTargetType: &ct, CommentTargetID: &ctID, IsPrivate: true,
	})

	// 成员但未订阅：看得到项目、看不到内容
	w := testutil.DoRequest(r, http.MethodGet, "/api/v1/activities/30", nil, testutil.TokenForUser(1))
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for unwatched private activity, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if errs, ok := resp["errors"].(map[string]interface{}); !ok || errs["type"] != "InsufficientPermissions" {
		t.Errorf("Expected InsufficientPermissions error, got %v", resp)
	}

	// 非成员：连存在性都不暴露
	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/activities/30", nil, testutil.TokenForUser(3))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for non-member, got %d", w.Code)
	}

	db.Create(&entity.Watcher{WatchableType: entity.TypeConversation, WatchableID: 2000, UserID: 1})
	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/activities/30", nil, testutil.TokenForUser(1))
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 after watching, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAuthRequired(t *testing.T) {
	r, db := setupFeedTest(t)
	seedFeedFixture(t, db)

	w := testutil.DoRequest(r, http.MethodGet, "/api/v1/activities", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}

	// token 有效但未授予 read_projects
	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/activities", nil, testutil.TokenWithoutScopes(1))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without scope, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if errs, ok := resp["errors"].(map[string]interface{}); !ok || errs["type"] != "InsufficientScope" {
		t.Errorf("Expected InsufficientScope error, got %v", resp)
	}
}

func TestExport(t *testing.T) {
	r, db := setupFeedTest(t)
	seedFeedFixture(t, db)

	w := testutil.DoRequest(r, http.MethodGet, "/api/v1/activities/export", nil, testutil.TokenForUser(1))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "activities_") {
		t.Errorf("Unexpected content disposition %q", cd)
	}
	if w.Body.Len() == 0 {
		t.Error("Expected non-empty spreadsheet body")
	}

	// 非成员项目的导出同样 404
	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/activities/export?project_id=apollo", nil, testutil.TokenForUser(2))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for non-member export, got %d", w.Code)
	}
}
