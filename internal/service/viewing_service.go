package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
	"vetlms_backend/internal/config"
	"vetlms_backend/internal/model"
	"vetlms_backend/internal/repository"
	"vetlms_backend/internal/util"
	"vetlms_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const viewTokenType = "content_viewed"

// ViewingStore remembers when a learner opened the content of an enrollment.
type ViewingStore interface {
	// Start records at unless a start is already recorded.
	Start(ctx context.Context, enrollmentID uint, at time.Time, ttl time.Duration) error
	StartedAt(ctx context.Context, enrollmentID uint) (time.Time, bool, error)
	Clear(ctx context.Context, enrollmentID uint) error
}

type RedisViewingStore struct {
	Client *redis.Client
}

func viewingKey(enrollmentID uint) string {
	return "lms:viewing:" + strconv.FormatUint(uint64(enrollmentID), 10)
}

func (s *RedisViewingStore) Start(ctx context.Context, enrollmentID uint, at time.Time, ttl time.Duration) error {
	return s.Client.SetNX(ctx, viewingKey(enrollmentID), at.UnixMilli(), ttl).Err()
}

func (s *RedisViewingStore) StartedAt(ctx context.Context, enrollmentID uint) (time.Time, bool, error) {
	ms, err := s.Client.Get(ctx, viewingKey(enrollmentID)).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.UnixMilli(ms), true, nil
}

func (s *RedisViewingStore) Clear(ctx context.Context, enrollmentID uint) error {
	return s.Client.Del(ctx, viewingKey(enrollmentID)).Err()
}

// MemoryViewingStore is used when redis is disabled. Entries do not expire.
type MemoryViewingStore struct {
	mu     sync.Mutex
	starts map[uint]time.Time
}

func NewMemoryViewingStore() *MemoryViewingStore {
	return &MemoryViewingStore{starts: make(map[uint]time.Time)}
}

func (s *MemoryViewingStore) Start(ctx context.Context, enrollmentID uint, at time.Time, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.starts[enrollmentID]; !ok {
		s.starts[enrollmentID] = at
	}
	return nil
}

func (s *MemoryViewingStore) StartedAt(ctx context.Context, enrollmentID uint) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.starts[enrollmentID]
	return at, ok, nil
}

func (s *MemoryViewingStore) Clear(ctx context.Context, enrollmentID uint) error {
	s.mu.Lock()
	delete(s.starts, enrollmentID)
	s.mu.Unlock()
	return nil
}

// ViewClaims is the payload of a "content viewed" token.
type ViewClaims struct {
	Type         string `json:"typ"`
	EnrollmentID uint   `json:"enrollment_id"`
	UserID       uint   `json:"user_id"`
	// Attempt is the enrollment's attempt count when the token was minted.
	Attempt int `json:"attempt"`
	jwt.RegisteredClaims
}

type ViewingSession struct {
	EnrollmentID    uint      `json:"enrollmentId"`
	StartedAt       time.Time `json:"startedAt"`
	RequiredSeconds int       `json:"requiredSeconds"`
}

type ViewToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ViewingService is the server-side gate in front of the quiz: a learner
// only gets a signed "viewed" token after the content was open long enough.
type ViewingService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
	Store          ViewingStore
	Secret         string
	Now            func() time.Time

	mu       sync.RWMutex
	training config.TrainingConfig
}

func NewViewingService(
	enrollmentRepo *repository.EnrollmentRepository,
	courseRepo *repository.CourseRepository,
	rdb *redis.Client,
	cfg *config.Config,
) *ViewingService {
	var store ViewingStore = NewMemoryViewingStore()
	if rdb != nil {
		store = &RedisViewingStore{Client: rdb}
	}
	return &ViewingService{
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
		Store:          store,
		Secret:         cfg.JWT.Secret,
		Now:            time.Now,
		training:       cfg.Training,
	}
}

// UpdateConfig swaps the training limits; registered for config reloads.
func (s *ViewingService) UpdateConfig(cfg *config.Config) {
	s.mu.Lock()
	s.training = cfg.Training
	s.mu.Unlock()
	logger.Log.Info("Training config updated",
		zap.Int("max_view_minutes", cfg.Training.MaxViewMinutes),
		zap.Bool("require_view_token", cfg.Training.RequireViewToken))
}

func (s *ViewingService) Training() config.TrainingConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.training
}

// RequiredViewing is min(course duration, configured cap).
func RequiredViewing(durationMinutes int, limit time.Duration) time.Duration {
	d := time.Duration(durationMinutes) * time.Minute
	if d < 0 {
		d = 0
	}
	if d > limit {
		return limit
	}
	return d
}

func (s *ViewingService) loadOwned(ctx context.Context, actor model.Actor, enrollmentID uint) (*model.Enrollment, *model.Course, error) {
	enrollment, err := s.EnrollmentRepo.FindOwned(enrollmentID, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrEnrollmentNotFound
		}
		return nil, nil, err
	}
	course, err := s.CourseRepo.FindByID(enrollment.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrCourseNotFound
		}
		return nil, nil, err
	}
	return enrollment, course, nil
}

// StartViewing marks the enrollment in progress and records when viewing
// began. Calling it again keeps the first start time.
func (s *ViewingService) StartViewing(ctx context.Context, actor model.Actor, enrollmentID uint) (*ViewingSession, error) {
	enrollment, course, err := s.loadOwned(ctx, actor, enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment.Status == model.EnrollmentCompleted {
		return nil, util.ErrEnrollmentCompleted
	}

	now := s.Now()
	if _, err := s.EnrollmentRepo.MarkStarted(enrollment.ID, actor.UserID, now); err != nil {
		return nil, fmt.Errorf("mark enrollment started: %w", err)
	}

	training := s.Training()
	if err := s.Store.Start(ctx, enrollment.ID, now, training.ViewTokenTTL()); err != nil {
		return nil, fmt.Errorf("record viewing start: %w", err)
	}
	started, _, err := s.Store.StartedAt(ctx, enrollment.ID)
	if err != nil {
		return nil, err
	}

	return &ViewingSession{
		EnrollmentID:    enrollment.ID,
		StartedAt:       started,
		RequiredSeconds: int(RequiredViewing(course.DurationMinutes, training.MaxViewDuration()).Seconds()),
	}, nil
}

// ConfirmViewing mints a view token once the required time has passed.
func (s *ViewingService) ConfirmViewing(ctx context.Context, actor model.Actor, enrollmentID uint) (*ViewToken, error) {
	enrollment, course, err := s.loadOwned(ctx, actor, enrollmentID)
	if err != nil {
		return nil, err
	}

	started, ok, err := s.Store.StartedAt(ctx, enrollment.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrViewingNotStarted
	}

	training := s.Training()
	now := s.Now()
	if now.Sub(started) < RequiredViewing(course.DurationMinutes, training.MaxViewDuration()) {
		return nil, util.ErrViewingIncomplete
	}

	expires := now.Add(training.ViewTokenTTL())
	claims := &ViewClaims{
		Type:         viewTokenType,
		EnrollmentID: enrollment.ID,
		UserID:       actor.UserID,
		Attempt:      enrollment.AttemptCount,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.Secret))
	if err != nil {
		return nil, err
	}
	return &ViewToken{Token: token, ExpiresAt: expires}, nil
}

// VerifyToken checks that token was minted for this enrollment and user
// during the given attempt. Once a completion bumps the attempt count,
// tokens minted earlier stop verifying.
func (s *ViewingService) VerifyToken(token string, enrollmentID, userID uint, attempt int) error {
	if token == "" {
		return util.ErrInvalidViewToken
	}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsed, err := parser.ParseWithClaims(token, &ViewClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return util.ErrInvalidViewToken
	}
	claims, ok := parsed.Claims.(*ViewClaims)
	if !ok || claims.Type != viewTokenType || claims.EnrollmentID != enrollmentID || claims.UserID != userID || claims.Attempt != attempt {
		return util.ErrInvalidViewToken
	}
	if claims.ExpiresAt == nil || !s.Now().Before(claims.ExpiresAt.Time) {
		return util.ErrInvalidViewToken
	}
	return nil
}

// Finish forgets the viewing session once the completion is stored.
func (s *ViewingService) Finish(ctx context.Context, enrollmentID uint) {
	if err := s.Store.Clear(ctx, enrollmentID); err != nil {
		logger.Log.Warn("Failed to clear viewing session", zap.Uint("enrollment_id", enrollmentID), zap.Error(err))
	}
}
