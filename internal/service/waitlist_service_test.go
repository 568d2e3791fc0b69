package service_test

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Raymond16-cyber/aura-backend/internal/model"
	"github.com/Raymond16-cyber/aura-backend/internal/repository"
	"github.com/Raymond16-cyber/aura-backend/internal/service"
)

// mockWaitlistRepo is a thread-safe in-memory repository.WaitlistRepository.
// The mutex matters: concurrent-join tests hammer it from many goroutines.
type mockWaitlistRepo struct {
	mu      sync.Mutex
	byEmail map[string]*model.WaitlistEntry
	byCode  map[string]*model.WaitlistEntry
	seq     int64

	// forceCodeCollisions makes the next N creates fail on the code index.
	forceCodeCollisions int
}

func newMockWaitlistRepo() *mockWaitlistRepo {
	return &mockWaitlistRepo{
		byEmail: map[string]*model.WaitlistEntry{},
		byCode:  map[string]*model.WaitlistEntry{},
	}
}

func (m *mockWaitlistRepo) GetByEmail(ctx context.Context, email string) (*model.WaitlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byEmail[email], nil
}

func (m *mockWaitlistRepo) GetByReferralCode(ctx context.Context, code string) (*model.WaitlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byCode[code], nil
}

func (m *mockWaitlistRepo) NextPosition(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq, nil
}

func (m *mockWaitlistRepo) Create(ctx context.Context, e *model.WaitlistEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forceCodeCollisions > 0 {
		m.forceCodeCollisions--
		return repository.ErrDuplicateCode
	}
	if _, ok := m.byEmail[e.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	if _, ok := m.byCode[e.ReferralCode]; ok {
		return repository.ErrDuplicateCode
	}
	e.ID = primitive.NewObjectID()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.byEmail[e.Email] = e
	m.byCode[e.ReferralCode] = e
	return nil
}

func (m *mockWaitlistRepo) IncrementReferrals(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.byCode[code]; ok {
		e.ReferralsCount++
	}
	return nil
}

func (m *mockWaitlistRepo) ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]*model.WaitlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.WaitlistEntry
	for _, e := range m.byEmail {
		if !e.CreatedAt.After(cutoff) {
			out = append(out, e)
		}
	}
	return out, nil
}

func newWaitlistService(repo *mockWaitlistRepo, mail *mockMailer) service.WaitlistService {
	return service.NewWaitlistService(repo, mail, "http://localhost:5173", zap.NewNop().Sugar())
}

var codePattern = regexp.MustCompile(`^AURA-[0-9A-Z]{6}$`)

func TestJoin_Success(t *testing.T) {
	ctx := context.Background()
	repo := newMockWaitlistRepo()
	mail := &mockMailer{}
	svc := newWaitlistService(repo, mail)

	res, err := svc.Join(ctx, service.JoinInput{Email: "A@X.com ", Name: "A"})
	assert.NoError(t, err)
	assert.False(t, res.AlreadyEnrolled)
	assert.Equal(t, int64(1), res.Position)
	assert.Regexp(t, codePattern, res.ReferralCode)
	assert.Equal(t, "http://localhost:5173/waitlist/?ref="+res.ReferralCode, res.ReferralLink)
	assert.Equal(t, 1, mail.confirmationsSent)

	// Email normalized to lowercase/trimmed.
	stored := repo.byEmail["a@x.com"]
	assert.NotNil(t, stored)
	assert.Equal(t, model.StatusWaiting, stored.Status)
}

func TestJoin_AlreadyEnrolled(t *testing.T) {
	ctx := context.Background()
	repo := newMockWaitlistRepo()
	mail := &mockMailer{}
	svc := newWaitlistService(repo, mail)

	first, err := svc.Join(ctx, service.JoinInput{Email: "a@x.com", Name: "A"})
	assert.NoError(t, err)

	second, err := svc.Join(ctx, service.JoinInput{Email: "a@x.com", Name: "A"})
	assert.NoError(t, err)
	assert.True(t, second.AlreadyEnrolled)
	assert.Equal(t, first.ReferralCode, second.ReferralCode)
	assert.Equal(t, first.Position, second.Position)

	// No duplicate entry, no second confirmation email.
	assert.Len(t, repo.byEmail, 1)
	assert.Equal(t, 1, mail.confirmationsSent)
}

func TestJoin_MissingFields(t *testing.T) {
	ctx := context.Background()
	svc := newWaitlistService(newMockWaitlistRepo(), &mockMailer{})

	_, err := svc.Join(ctx, service.JoinInput{Email: "", Name: "A"})
	assert.ErrorIs(t, err, service.ErrMissingFields)
	_, err = svc.Join(ctx, service.JoinInput{Email: "a@x.com", Name: "  "})
	assert.ErrorIs(t, err, service.ErrMissingFields)
}

func TestJoin_ReferralAttribution(t *testing.T) {
	ctx := context.Background()
	repo := newMockWaitlistRepo()
	svc := newWaitlistService(repo, &mockMailer{})

	first, err := svc.Join(ctx, service.JoinInput{Email: "a@x.com", Name: "A"})
	assert.NoError(t, err)

	_, err = svc.Join(ctx, service.JoinInput{Email: "b@x.com", Name: "B", ReferralCode: first.ReferralCode})
	assert.NoError(t, err)

	assert.Equal(t, int64(1), repo.byEmail["a@x.com"].ReferralsCount)
	assert.Equal(t, first.ReferralCode, repo.byEmail["b@x.com"].ReferredBy)
}

func TestJoin_UnknownReferralCode(t *testing.T) {
	ctx := context.Background()
	repo := newMockWaitlistRepo()
	svc := newWaitlistService(repo, &mockMailer{})

	res, err := svc.Join(ctx, service.JoinInput{Email: "a@x.com", Name: "A", ReferralCode: "AURA-ZZZZZZ"})
	assert.NoError(t, err)
	assert.False(t, res.AlreadyEnrolled)
	assert.Empty(t, repo.byEmail["a@x.com"].ReferredBy)
}

func TestJoin_DeliveryFailureAborts(t *testing.T) {
	ctx := context.Background()
	repo := newMockWaitlistRepo()
	mail := &mockMailer{failConfirmation: true}
	svc := newWaitlistService(repo, mail)

	_, err := svc.Join(ctx, service.JoinInput{Email: "a@x.com", Name: "A"})
	assert.ErrorIs(t, err, service.ErrDeliveryFailed)

	// Nothing persisted and no position burned.
	assert.Empty(t, repo.byEmail)
	assert.Equal(t, int64(0), repo.seq)
}

func TestJoin_CodeCollisionRetry(t *testing.T) {
	ctx := context.Background()
	repo := newMockWaitlistRepo()
	repo.forceCodeCollisions = 2
	svc := newWaitlistService(repo, &mockMailer{})

	res, err := svc.Join(ctx, service.JoinInput{Email: "a@x.com", Name: "A"})
	assert.NoError(t, err)
	assert.Regexp(t, codePattern, res.ReferralCode)
}

func TestJoin_CodeCollisionExhausted(t *testing.T) {
	ctx := context.Background()
	repo := newMockWaitlistRepo()
	repo.forceCodeCollisions = 10
	svc := newWaitlistService(repo, &mockMailer{})

	_, err := svc.Join(ctx, service.JoinInput{Email: "a@x.com", Name: "A"})
	assert.ErrorIs(t, err, service.ErrCodeCollision)
}

// Concurrent joins must receive N distinct positions spanning 1..N; the
// count-then-insert approach this replaces would hand out duplicates.
func TestJoin_ConcurrentDistinctPositions(t *testing.T) {
	ctx := context.Background()
	repo := newMockWaitlistRepo()
	svc := newWaitlistService(repo, &mockMailer{})

	const n = 25
	results := make([]*service.JoinResult, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Join(ctx, service.JoinInput{
				Email: fmt.Sprintf("user%d@x.com", i),
				Name:  fmt.Sprintf("User %d", i),
			})
		}(i)
	}
	wg.Wait()

	seen := map[int64]bool{}
	for i := 0; i < n; i++ {
		assert.NoError(t, errs[i])
		assert.False(t, seen[results[i].Position], "duplicate position %d", results[i].Position)
		seen[results[i].Position] = true
		assert.GreaterOrEqual(t, results[i].Position, int64(1))
		assert.LessOrEqual(t, results[i].Position, int64(n))
	}
	assert.Len(t, seen, n)
}

func TestSendFollowUps(t *testing.T) {
	ctx := context.Background()
	repo := newMockWaitlistRepo()
	mail := &mockMailer{}
	svc := newWaitlistService(repo, mail)

	old1 := &model.WaitlistEntry{Email: "old1@x.com", Name: "O1", ReferralCode: "AURA-AAAAAA", CreatedAt: time.Now().UTC().Add(-25 * time.Hour)}
	old2 := &model.WaitlistEntry{Email: "old2@x.com", Name: "O2", ReferralCode: "AURA-BBBBBB", CreatedAt: time.Now().UTC().Add(-48 * time.Hour)}
	fresh := &model.WaitlistEntry{Email: "new@x.com", Name: "N", ReferralCode: "AURA-CCCCCC", CreatedAt: time.Now().UTC().Add(-time.Hour)}
	for _, e := range []*model.WaitlistEntry{old1, old2, fresh} {
		assert.NoError(t, repo.Create(ctx, e))
	}

	// Only entries at least 24h old are picked up.
	n, err := svc.SendFollowUps(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, mail.followUpsSent)
}

func TestSendFollowUps_CountsFailures(t *testing.T) {
	ctx := context.Background()
	repo := newMockWaitlistRepo()
	mail := &mockMailer{failFollowUp: true}
	svc := newWaitlistService(repo, mail)

	e := &model.WaitlistEntry{Email: "old@x.com", Name: "O", ReferralCode: "AURA-DDDDDD", CreatedAt: time.Now().UTC().Add(-25 * time.Hour)}
	assert.NoError(t, repo.Create(ctx, e))

	// Processed count includes failed deliveries.
	n, err := svc.SendFollowUps(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, mail.followUpsSent)
}
