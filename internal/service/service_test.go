package service

import (
	"context"
	"sort"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	"pairfocus/internal/cache"
	"pairfocus/internal/model"
)

type fakeUserRepo struct {
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	r.users[user.Username] = user
	return nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return r.users[username], nil
}

func (r *fakeUserRepo) AddBlockSeconds(_ context.Context, username string, seconds int) (int, error) {
	user, ok := r.users[username]
	if !ok {
		return 0, mongo.ErrNoDocuments
	}
	user.TotalBlockSeconds += seconds
	return user.TotalBlockSeconds, nil
}

func (r *fakeUserRepo) TopByBlockSeconds(_ context.Context, limit int) ([]model.User, error) {
	var users []model.User
	for _, u := range r.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].TotalBlockSeconds > users[j].TotalBlockSeconds
	})
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

type fakeRankingCache struct {
	scores map[string]int
}

func newFakeRankingCache() *fakeRankingCache {
	return &fakeRankingCache{scores: make(map[string]int)}
}

func (c *fakeRankingCache) SetScore(_ context.Context, username string, seconds int) error {
	c.scores[username] = seconds
	return nil
}

func (c *fakeRankingCache) Top(_ context.Context, limit int) ([]cache.Entry, error) {
	var entries []cache.Entry
	for username, seconds := range c.scores {
		entries = append(entries, cache.Entry{Username: username, TotalSeconds: seconds})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TotalSeconds > entries[j].TotalSeconds
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)

	if err := svc.Register(ctx, "alice", "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.Register(ctx, "alice", "other"); err != ErrUsernameTaken {
		t.Errorf("duplicate register: expected ErrUsernameTaken, got %v", err)
	}

	if repo.users["alice"].PasswordHash == "secret" {
		t.Fatal("password must not be stored in the clear")
	}

	if _, err := svc.Login(ctx, "alice", "wrong"); err != ErrInvalidCredentials {
		t.Errorf("bad password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "secret"); err != ErrInvalidCredentials {
		t.Errorf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}

	resp, err := svc.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := svc.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.Username != "alice" {
		t.Errorf("claims username = %q, want alice", claims.Username)
	}

	if _, err := svc.ValidateToken("not-a-token"); err != ErrInvalidToken {
		t.Errorf("garbage token: expected ErrInvalidToken, got %v", err)
	}
}

func TestAddTime(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	ranking := newFakeRankingCache()
	svc := NewStatsService(repo, ranking)

	repo.users["alice"] = &model.User{Username: "alice", TotalBlockSeconds: 100}

	total, err := svc.AddTime(ctx, "alice", 1500)
	if err != nil {
		t.Fatalf("add time: %v", err)
	}
	if total != 1600 {
		t.Errorf("total = %d, want 1600", total)
	}
	if ranking.scores["alice"] != 1600 {
		t.Errorf("ranking score = %d, want 1600", ranking.scores["alice"])
	}

	if _, err := svc.AddTime(ctx, "nobody", 60); err != ErrUserNotFound {
		t.Errorf("unknown user: expected ErrUserNotFound, got %v", err)
	}
}

func TestRankingRebuildsFromColdCache(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	ranking := newFakeRankingCache()
	svc := NewStatsService(repo, ranking)

	repo.users["alice"] = &model.User{Username: "alice", TotalBlockSeconds: 7200}
	repo.users["bob"] = &model.User{Username: "bob", TotalBlockSeconds: 5400}

	entries, err := svc.Ranking(ctx)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Username != "alice" || entries[0].Rank != 1 || entries[0].TotalSeconds != 7200 {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Username != "bob" || entries[1].Rank != 2 {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}

	// The rebuild warmed the cache.
	if ranking.scores["alice"] != 7200 || ranking.scores["bob"] != 5400 {
		t.Errorf("cache not warmed: %v", ranking.scores)
	}
}
