package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/ecopoints-system/internal/model"
	"github.com/mmeshcher/ecopoints-system/internal/points"
	"github.com/mmeshcher/ecopoints-system/internal/repository"
)

type stubRepo struct {
	createUserID  int64
	createUserErr error

	getUser    *model.User
	getUserErr error

	creditCalls []creditCall
	creditErr   error

	balance    int64
	balanceErr error

	rewards    []model.Reward
	rewardsErr error

	redeemErr error

	redemptions []model.Redemption
}

type creditCall struct {
	wasteType model.WasteType
	amount    int64
	earned    int64
}

func (s *stubRepo) Close() error { return nil }

func (s *stubRepo) CreateUser(ctx context.Context, email string, passwordHash []byte) (int64, error) {
	return s.createUserID, s.createUserErr
}

func (s *stubRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser, s.getUserErr
}

func (s *stubRepo) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	return s.getUser, s.getUserErr
}

func (s *stubRepo) CreditWaste(ctx context.Context, userID int64, wasteType model.WasteType, amount, pointsEarned int64) error {
	if s.creditErr != nil {
		return s.creditErr
	}
	s.creditCalls = append(s.creditCalls, creditCall{wasteType: wasteType, amount: amount, earned: pointsEarned})
	return nil
}

func (s *stubRepo) GetWasteEntriesByUser(ctx context.Context, userID int64) ([]model.WasteEntry, error) {
	return nil, nil
}

func (s *stubRepo) GetBalance(ctx context.Context, userID int64) (int64, error) {
	return s.balance, s.balanceErr
}

func (s *stubRepo) ListAvailableRewards(ctx context.Context) ([]model.Reward, error) {
	return s.rewards, s.rewardsErr
}

func (s *stubRepo) RedeemReward(ctx context.Context, userID, rewardID int64) error {
	return s.redeemErr
}

func (s *stubRepo) GetRedemptionsByUser(ctx context.Context, userID int64) ([]model.Redemption, error) {
	return s.redemptions, nil
}

func (s *stubRepo) AddShippingAddress(ctx context.Context, userID int64, addr model.ShippingAddress) error {
	return nil
}

func (s *stubRepo) GetShippingAddressesByUser(ctx context.Context, userID int64) ([]model.ShippingAddress, error) {
	return nil, nil
}

func TestRegisterUser_PropagatesDuplicateError(t *testing.T) {
	repo := &stubRepo{
		createUserErr: repository.ErrUserExists,
	}
	svc := NewService(repo)

	_, err := svc.RegisterUser(context.Background(), "user@example.com", "pass")
	if !errors.Is(err, repository.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthenticateUser_InvalidCredentials(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	repo := &stubRepo{
		getUser: &model.User{
			ID:           1,
			Email:        "user@example.com",
			PasswordHash: hashed,
		},
	}

	svc := NewService(repo)

	_, err = svc.AuthenticateUser(context.Background(), "user@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateUser_Success(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	repo := &stubRepo{
		getUser: &model.User{
			ID:           7,
			Email:        "user@example.com",
			PasswordHash: hashed,
		},
	}

	svc := NewService(repo)

	id, err := svc.AuthenticateUser(context.Background(), "user@example.com", "correct")
	if err != nil {
		t.Fatalf("AuthenticateUser error: %v", err)
	}
	if id != 7 {
		t.Fatalf("id = %d, want 7", id)
	}
}

func TestAuthenticateUser_UserNotFound(t *testing.T) {
	repo := &stubRepo{
		getUserErr: repository.ErrUserNotFound,
	}
	svc := NewService(repo)

	_, err := svc.AuthenticateUser(context.Background(), "ghost@example.com", "pass")
	if !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSubmitWaste_CreditsComputedPoints(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	earned, err := svc.SubmitWaste(context.Background(), 1, model.WasteTypeMetal, 50)
	if err != nil {
		t.Fatalf("SubmitWaste error: %v", err)
	}
	if earned != 150 {
		t.Fatalf("earned = %d, want 150", earned)
	}

	if len(repo.creditCalls) != 1 {
		t.Fatalf("credit calls = %d, want 1", len(repo.creditCalls))
	}
	call := repo.creditCalls[0]
	if call.wasteType != model.WasteTypeMetal || call.amount != 50 || call.earned != 150 {
		t.Fatalf("unexpected credit call: %+v", call)
	}
}

func TestSubmitWaste_InvalidType(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	_, err := svc.SubmitWaste(context.Background(), 1, "Cardboard", 50)
	if !errors.Is(err, points.ErrInvalidWasteType) {
		t.Fatalf("expected ErrInvalidWasteType, got %v", err)
	}

	if len(repo.creditCalls) != 0 {
		t.Fatalf("credit must not be called on invalid type")
	}
}

func TestSubmitWaste_InvalidAmount(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	_, err := svc.SubmitWaste(context.Background(), 1, model.WasteTypePlastic, 0)
	if !errors.Is(err, points.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	if len(repo.creditCalls) != 0 {
		t.Fatalf("credit must not be called on invalid amount")
	}
}

func TestRedeemReward_PropagatesInsufficientPoints(t *testing.T) {
	repo := &stubRepo{
		redeemErr: repository.ErrInsufficientPoints,
	}
	svc := NewService(repo)

	err := svc.RedeemReward(context.Background(), 1, 2)
	if !errors.Is(err, repository.ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}
}

func TestGetBalance_PassThrough(t *testing.T) {
	repo := &stubRepo{balance: 250}
	svc := NewService(repo)

	balance, err := svc.GetBalance(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetBalance error: %v", err)
	}
	if balance != 250 {
		t.Fatalf("balance = %d, want 250", balance)
	}
}

func TestListRewards_PassThrough(t *testing.T) {
	repo := &stubRepo{
		rewards: []model.Reward{
			{ID: 1, Name: "Reusable Water Bottle", PointsRequired: 50, Available: true},
		},
	}
	svc := NewService(repo)

	rewards, err := svc.ListRewards(context.Background())
	if err != nil {
		t.Fatalf("ListRewards error: %v", err)
	}
	if len(rewards) != 1 || rewards[0].Name != "Reusable Water Bottle" {
		t.Fatalf("unexpected rewards: %+v", rewards)
	}
}
