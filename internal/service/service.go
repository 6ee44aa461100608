// Package service реализует бизнес-логику сервиса экопоинтс.
package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/ecopoints-system/internal/model"
	"github.com/mmeshcher/ecopoints-system/internal/points"
	"github.com/mmeshcher/ecopoints-system/internal/repository"
)

// ErrInvalidCredentials возвращается при неверной паре email/пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateUser(ctx context.Context, email string, passwordHash []byte) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
	CreditWaste(ctx context.Context, userID int64, wasteType model.WasteType, amount, pointsEarned int64) error
	GetWasteEntriesByUser(ctx context.Context, userID int64) ([]model.WasteEntry, error)
	GetBalance(ctx context.Context, userID int64) (int64, error)
	ListAvailableRewards(ctx context.Context) ([]model.Reward, error)
	RedeemReward(ctx context.Context, userID, rewardID int64) error
	GetRedemptionsByUser(ctx context.Context, userID int64) ([]model.Redemption, error)
	AddShippingAddress(ctx context.Context, userID int64, addr model.ShippingAddress) error
	GetShippingAddressesByUser(ctx context.Context, userID int64) ([]model.ShippingAddress, error)
}

// Service содержит бизнес-логику сервиса экопоинтс.
type Service struct {
	repo Repository
}

// NewService создаёт новый сервис с указанным репозиторием.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterUser регистрирует нового пользователя.
func (s *Service) RegisterUser(ctx context.Context, email, password string) (int64, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.CreateUser(ctx, email, hashed)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return 0, repository.ErrUserExists
		}
		return 0, err
	}
	return id, nil
}

// AuthenticateUser проверяет email и пароль пользователя и возвращает его идентификатор.
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (int64, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return 0, err
	}

	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return 0, ErrInvalidCredentials
	}

	return u.ID, nil
}

// GetUser возвращает пользователя по идентификатору.
func (s *Service) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// SubmitWaste начисляет баллы за сдачу отходов и возвращает количество начисленных баллов.
func (s *Service) SubmitWaste(ctx context.Context, userID int64, wasteType model.WasteType, amount int64) (int64, error) {
	earned, err := points.Compute(wasteType, amount)
	if err != nil {
		return 0, err
	}

	if err := s.repo.CreditWaste(ctx, userID, wasteType, amount, earned); err != nil {
		return 0, err
	}

	return earned, nil
}

// GetWasteEntries возвращает историю сдачи отходов пользователя.
func (s *Service) GetWasteEntries(ctx context.Context, userID int64) ([]model.WasteEntry, error) {
	return s.repo.GetWasteEntriesByUser(ctx, userID)
}

// GetBalance возвращает текущий баланс баллов пользователя.
func (s *Service) GetBalance(ctx context.Context, userID int64) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

// ListRewards возвращает доступные награды каталога.
func (s *Service) ListRewards(ctx context.Context) ([]model.Reward, error) {
	return s.repo.ListAvailableRewards(ctx)
}

// RedeemReward списывает стоимость награды с баланса пользователя.
func (s *Service) RedeemReward(ctx context.Context, userID, rewardID int64) error {
	return s.repo.RedeemReward(ctx, userID, rewardID)
}

// GetRedemptions возвращает историю обменов пользователя.
func (s *Service) GetRedemptions(ctx context.Context, userID int64) ([]model.Redemption, error) {
	return s.repo.GetRedemptionsByUser(ctx, userID)
}

// AddShippingAddress сохраняет адрес доставки пользователя.
func (s *Service) AddShippingAddress(ctx context.Context, userID int64, addr model.ShippingAddress) error {
	return s.repo.AddShippingAddress(ctx, userID, addr)
}

// GetShippingAddresses возвращает адреса доставки пользователя.
func (s *Service) GetShippingAddresses(ctx context.Context, userID int64) ([]model.ShippingAddress, error) {
	return s.repo.GetShippingAddressesByUser(ctx, userID)
}
