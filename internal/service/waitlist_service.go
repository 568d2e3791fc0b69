package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Raymond16-cyber/aura-backend/internal/mailer"
	"github.com/Raymond16-cyber/aura-backend/internal/model"
	"github.com/Raymond16-cyber/aura-backend/internal/repository"
)

var (
	// ErrDeliveryFailed means the confirmation email could not be delivered;
	// delivery is a precondition for joining the waitlist.
	ErrDeliveryFailed = errors.New("unable to send confirmation email")
	// ErrCodeCollision means referral code generation kept hitting the unique
	// index even after retrying.
	ErrCodeCollision = errors.New("could not generate a unique referral code")
)

const (
	referralCodePrefix = "AURA-"
	referralCodeLen    = 6
	codeAlphabet       = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	maxCodeAttempts    = 5

	followUpMinAge = 24 * time.Hour
)

type JoinInput struct {
	Email        string
	Name         string
	ReferralCode string
}

type JoinResult struct {
	// AlreadyEnrolled marks the informational outcome: the email was on the
	// list already and the fields below describe the existing entry.
	AlreadyEnrolled bool
	ReferralCode    string
	Position        int64
	ReferralLink    string
}

// WaitlistService orchestrates joining the waitlist and the daily follow-up
// email batch.
type WaitlistService interface {
	Join(ctx context.Context, in JoinInput) (*JoinResult, error)
	// SendFollowUps emails every entry created at least 24 hours ago and
	// returns the number of entries processed, not the number of successes.
	SendFollowUps(ctx context.Context) (int, error)
}

type waitlistService struct {
	repo        repository.WaitlistRepository
	mail        mailer.Mailer
	frontendURL string
	logger      *zap.SugaredLogger
}

// NewWaitlistService constructs a new WaitlistService.
func NewWaitlistService(repo repository.WaitlistRepository, mail mailer.Mailer, frontendURL string, logger *zap.SugaredLogger) WaitlistService {
	return &waitlistService{
		repo:        repo,
		mail:        mail,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

// Join enrolls an email on the waitlist at most once. Confirmation delivery
// must succeed before anything is persisted; the position is allocated only
// after delivery so failed joins burn no positions.
func (s *waitlistService) Join(ctx context.Context, in JoinInput) (*JoinResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" {
		return nil, ErrMissingFields
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checking existing entry: %w", err)
	}
	if existing != nil {
		return enrolledResult(existing), nil
	}

	// Referral attribution is optional: an unknown code is logged and the
	// join proceeds unattributed.
	var referrer *model.WaitlistEntry
	if code := strings.TrimSpace(in.ReferralCode); code != "" {
		referrer, err = s.repo.GetByReferralCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("looking up referrer: %w", err)
		}
		if referrer == nil {
			s.logger.Infow("referral code not found, joining without referrer", "code", code)
		}
	}

	refCode, err := newReferralCode()
	if err != nil {
		return nil, fmt.Errorf("generating referral code: %w", err)
	}
	referralLink := s.referralLink(refCode)

	if err := s.mail.SendWaitlistConfirmation(ctx, email, name, refCode, s.frontendURL, referralLink); err != nil {
		return nil, ErrDeliveryFailed
	}

	position, err := s.repo.NextPosition(ctx)
	if err != nil {
		return nil, err
	}

	entry := &model.WaitlistEntry{
		Email:            email,
		Name:             name,
		WaitlistPosition: position,
		ReferralCode:     refCode,
		ReferralLink:     referralLink,
		Status:           model.StatusWaiting,
	}
	if referrer != nil {
		entry.ReferredBy = referrer.ReferralCode
	}

	for attempt := 0; ; attempt++ {
		err = s.repo.Create(ctx, entry)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// Lost a race against a concurrent join for the same email; the
			// allocated position is abandoned.
			winner, lookupErr := s.repo.GetByEmail(ctx, email)
			if lookupErr != nil || winner == nil {
				return nil, fmt.Errorf("concurrent join lookup: %w", lookupErr)
			}
			return enrolledResult(winner), nil
		}
		if errors.Is(err, repository.ErrDuplicateCode) {
			if attempt+1 >= maxCodeAttempts {
				return nil, ErrCodeCollision
			}
			refCode, err = newReferralCode()
			if err != nil {
				return nil, fmt.Errorf("regenerating referral code: %w", err)
			}
			entry.ReferralCode = refCode
			entry.ReferralLink = s.referralLink(refCode)
			continue
		}
		return nil, err
	}
	s.logger.Infow("joined waitlist", "email", email, "position", position, "code", entry.ReferralCode)

	// Independent write; a failure here under-counts the referrer but must
	// not fail the join that already persisted.
	if referrer != nil {
		if err := s.repo.IncrementReferrals(ctx, referrer.ReferralCode); err != nil {
			s.logger.Errorw("referral count increment failed",
				"referrer", referrer.Email, "code", referrer.ReferralCode, "error", err)
		} else {
			s.logger.Infow("referral counted", "referrer", referrer.Email)
		}
	}

	return &JoinResult{
		ReferralCode: entry.ReferralCode,
		Position:     entry.WaitlistPosition,
		ReferralLink: entry.ReferralLink,
	}, nil
}

// SendFollowUps runs the daily batch: a sequential scan over entries created
// at least 24 hours ago, one delivery attempt each, no retry.
func (s *waitlistService) SendFollowUps(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-followUpMinAge)
	entries, err := s.repo.ListCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	for _, e := range entries {
		if err := s.mail.SendWaitlistFollowUp(ctx, e.Email, e.Name, e.ReferralCode, e.ReferralLink); err != nil {
			s.logger.Warnw("follow-up email failed", "email", e.Email, "error", err)
			continue
		}
		s.logger.Infow("follow-up email sent", "email", e.Email)
	}
	return len(entries), nil
}

func (s *waitlistService) referralLink(code string) string {
	return s.frontendURL + "/waitlist/?ref=" + code
}

func enrolledResult(e *model.WaitlistEntry) *JoinResult {
	return &JoinResult{
		AlreadyEnrolled: true,
		ReferralCode:    e.ReferralCode,
		Position:        e.WaitlistPosition,
		ReferralLink:    e.ReferralLink,
	}
}

// newReferralCode returns the fixed prefix plus six random base-36 uppercase
// characters, e.g. AURA-82JF93.
func newReferralCode() (string, error) {
	buf := make([]byte, referralCodeLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, referralCodeLen)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return referralCodePrefix + string(out), nil
}
