package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/junekoh/mealmeet/internal/models"
	"github.com/junekoh/mealmeet/internal/storage"
)

const earthRadiusMeters = 6371000

// PostStore is an in-memory storage.PostRepository. It borrows the user
// store to resolve creator names the way the postgres join does.
type PostStore struct {
	mu        sync.RWMutex
	users     *UserStore
	posts     map[int64]models.Post
	locations map[int64]models.Location
	nextID    int64
}

func NewPostStore(users *UserStore) *PostStore {
	return &PostStore{
		users:     users,
		posts:     make(map[int64]models.Post),
		locations: make(map[int64]models.Location),
		nextID:    1,
	}
}

func (m *PostStore) CreatePostWithLocation(ctx context.Context, post models.Post, loc models.LocationRequest) (*models.PostDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	post.ID = m.nextID
	m.nextID++
	post.IsActive = true
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	m.posts[post.ID] = post
	m.locations[post.ID] = models.Location{
		ID:        post.ID,
		PostID:    post.ID,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		IsActive:  true,
	}

	return m.detailLocked(ctx, post.ID)
}

func (m *PostStore) GetPostByID(ctx context.Context, id int64) (*models.PostDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.detailLocked(ctx, id)
}

func (m *PostStore) UpdatePostWithLocation(ctx context.Context, post models.Post, loc models.LocationRequest) (*models.PostDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.posts[post.ID]
	if !ok {
		return nil, storage.ErrPostNotFound
	}
	location, ok := m.locations[post.ID]
	if !ok {
		return nil, storage.ErrLocationNotFound
	}

	stored.Title = post.Title
	stored.OrderAt = post.OrderAt
	stored.Recruitment = post.Recruitment
	stored.FoodCategory = post.FoodCategory
	stored.UpdatedAt = time.Now()
	m.posts[post.ID] = stored

	location.Latitude = loc.Latitude
	location.Longitude = loc.Longitude
	m.locations[post.ID] = location

	return m.detailLocked(ctx, post.ID)
}

func (m *PostStore) DeactivatePost(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, ok := m.posts[id]
	if !ok {
		return storage.ErrPostNotFound
	}
	location, ok := m.locations[id]
	if !ok {
		return storage.ErrLocationNotFound
	}

	post.IsActive = false
	location.IsActive = false
	m.posts[id] = post
	m.locations[id] = location
	return nil
}

func (m *PostStore) ListPosts(ctx context.Context, page, size int) ([]models.PostDetail, error) {
	return m.filter(ctx, func(d *models.PostDetail) bool { return true }, page, size)
}

func (m *PostStore) SearchPosts(ctx context.Context, keyword string, page, size int) ([]models.PostDetail, error) {
	lowered := strings.ToLower(keyword)
	return m.filter(ctx, func(d *models.PostDetail) bool {
		return strings.Contains(strings.ToLower(d.Title), lowered)
	}, page, size)
}

func (m *PostStore) ListPostsNear(ctx context.Context, lat, lng, radiusMeters float64) ([]models.PostDetail, error) {
	details, err := m.filter(ctx, func(d *models.PostDetail) bool {
		return haversineMeters(lat, lng, d.Latitude, d.Longitude) <= radiusMeters
	}, 0, math.MaxInt32)
	if err != nil {
		return nil, err
	}
	sort.Slice(details, func(i, j int) bool {
		return haversineMeters(lat, lng, details[i].Latitude, details[i].Longitude) <
			haversineMeters(lat, lng, details[j].Latitude, details[j].Longitude)
	})
	return details, nil
}

func (m *PostStore) filter(ctx context.Context, keep func(*models.PostDetail) bool, page, size int) ([]models.PostDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]int64, 0, len(m.posts))
	for id, p := range m.posts {
		if p.IsActive {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	var details []models.PostDetail
	for _, id := range ids {
		d, err := m.detailLocked(ctx, id)
		if err != nil {
			return nil, err
		}
		if keep(d) {
			details = append(details, *d)
		}
	}

	start := page * size
	if start >= len(details) {
		return nil, nil
	}
	end := start + size
	if end > len(details) {
		end = len(details)
	}
	return details[start:end], nil
}

func (m *PostStore) detailLocked(ctx context.Context, id int64) (*models.PostDetail, error) {
	post, ok := m.posts[id]
	if !ok {
		return nil, storage.ErrPostNotFound
	}
	location, ok := m.locations[id]
	if !ok {
		return nil, storage.ErrLocationNotFound
	}
	creator, err := m.users.GetUserByID(ctx, post.CreatorID)
	if err != nil {
		return nil, err
	}

	return &models.PostDetail{
		Post:        post,
		CreatorName: creator.Name,
		Latitude:    location.Latitude,
		Longitude:   location.Longitude,
	}, nil
}

func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}
