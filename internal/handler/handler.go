// Package handler содержит HTTP-обработчики API сервиса экопоинтс.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/ecopoints-system/internal/middleware"
	"github.com/mmeshcher/ecopoints-system/internal/model"
	"github.com/mmeshcher/ecopoints-system/internal/points"
	"github.com/mmeshcher/ecopoints-system/internal/repository"
	"github.com/mmeshcher/ecopoints-system/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, email, password string) (int64, error)
	AuthenticateUser(ctx context.Context, email, password string) (int64, error)
	GetUser(ctx context.Context, userID int64) (*model.User, error)
	SubmitWaste(ctx context.Context, userID int64, wasteType model.WasteType, amount int64) (int64, error)
	GetWasteEntries(ctx context.Context, userID int64) ([]model.WasteEntry, error)
	GetBalance(ctx context.Context, userID int64) (int64, error)
	ListRewards(ctx context.Context) ([]model.Reward, error)
	RedeemReward(ctx context.Context, userID, rewardID int64) error
	GetRedemptions(ctx context.Context, userID int64) ([]model.Redemption, error)
	AddShippingAddress(ctx context.Context, userID int64, addr model.ShippingAddress) error
	GetShippingAddresses(ctx context.Context, userID int64) ([]model.ShippingAddress, error)
}

// Handler реализует HTTP-обработчики API сервиса экопоинтс.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Register обрабатывает регистрацию нового пользователя и выпускает токен авторизации.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	userID, err := h.service.RegisterUser(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			writeMessage(w, http.StatusConflict, "User already exists.")
			return
		}
		h.logger.Error("register user error", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Failed to register user.")
		return
	}

	token, err := h.authMiddleware.IssueToken(userID, req.Email)
	if err != nil {
		h.logger.Error("issue token error", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Failed to register user.")
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

// Login выполняет аутентификацию пользователя и выпускает токен авторизации.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	userID, err := h.service.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) || errors.Is(err, service.ErrInvalidCredentials) {
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials.")
			return
		}
		h.logger.Error("login user error", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Failed to log in.")
		return
	}

	token, err := h.authMiddleware.IssueToken(userID, req.Email)
	if err != nil {
		h.logger.Error("issue token error", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Failed to log in.")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

type profileResponse struct {
	Email  string `json:"email"`
	Points int64  `json:"points"`
}

// GetCurrentUser возвращает email и баланс баллов текущего пользователя.
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Access denied.")
		return
	}

	u, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found.")
			return
		}
		h.logger.Error("get user error", zap.Error(err), zap.Int64("userID", userID))
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch user data.")
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{Email: u.Email, Points: u.TotalPoints})
}

type wasteRequest struct {
	WasteType   string `json:"wasteType"`
	WasteAmount int64  `json:"wasteAmount"`
}

// SubmitWaste принимает сдачу отходов и начисляет баллы текущему пользователю.
func (h *Handler) SubmitWaste(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Access denied.")
		return
	}

	var req wasteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Valid waste type and amount are required.")
		return
	}

	earned, err := h.service.SubmitWaste(r.Context(), userID, model.WasteType(req.WasteType), req.WasteAmount)
	if err != nil {
		switch {
		case errors.Is(err, points.ErrInvalidWasteType):
			writeMessage(w, http.StatusBadRequest, "Invalid waste type: "+req.WasteType+".")
		case errors.Is(err, points.ErrInvalidAmount):
			writeMessage(w, http.StatusBadRequest, "Valid waste type and amount are required.")
		case errors.Is(err, repository.ErrUserNotFound):
			writeMessage(w, http.StatusNotFound, "User not found.")
		default:
			h.logger.Error("submit waste error", zap.Error(err), zap.Int64("userID", userID))
			writeMessage(w, http.StatusInternalServerError, "Failed to add waste entry and update points.")
		}
		return
	}

	h.logger.Info("waste entry added",
		zap.Int64("userID", userID),
		zap.String("wasteType", req.WasteType),
		zap.Int64("pointsEarned", earned),
	)

	writeMessage(w, http.StatusOK, "Waste entry added successfully and points updated.")
}

type wasteEntryResponse struct {
	WasteType    string `json:"wasteType"`
	WasteAmount  int64  `json:"wasteAmount"`
	PointsEarned int64  `json:"pointsEarned"`
	CreatedAt    string `json:"createdAt"`
}

// GetWasteEntries возвращает историю сдачи отходов текущего пользователя.
func (h *Handler) GetWasteEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Access denied.")
		return
	}

	entries, err := h.service.GetWasteEntries(r.Context(), userID)
	if err != nil {
		h.logger.Error("get waste entries error", zap.Error(err), zap.Int64("userID", userID))
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch waste entries.")
		return
	}

	if len(entries) == 0 {
		writeMessage(w, http.StatusNotFound, "No waste entries found for this user.")
		return
	}

	resp := make([]wasteEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, wasteEntryResponse{
			WasteType:    string(e.WasteType),
			WasteAmount:  e.WasteAmount,
			PointsEarned: e.PointsEarned,
			CreatedAt:    e.CreatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type pointsResponse struct {
	Points int64 `json:"points"`
}

// GetPoints возвращает текущий баланс баллов пользователя.
func (h *Handler) GetPoints(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Access denied.")
		return
	}

	balance, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found.")
			return
		}
		h.logger.Error("get balance error", zap.Error(err), zap.Int64("userID", userID))
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch rewards.")
		return
	}

	writeJSON(w, http.StatusOK, pointsResponse{Points: balance})
}

type rewardResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	PointsRequired int64  `json:"pointsRequired"`
	Available      bool   `json:"available"`
}

// GetGifts возвращает список доступных наград каталога.
func (h *Handler) GetGifts(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.service.ListRewards(r.Context())
	if err != nil {
		h.logger.Error("list rewards error", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch gifts.")
		return
	}

	if len(rewards) == 0 {
		writeMessage(w, http.StatusNotFound, "No rewards available.")
		return
	}

	resp := make([]rewardResponse, 0, len(rewards))
	for _, rw := range rewards {
		resp = append(resp, rewardResponse{
			ID:             rw.ID,
			Name:           rw.Name,
			PointsRequired: rw.PointsRequired,
			Available:      rw.Available,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// RedeemReward списывает баллы текущего пользователя за указанную награду.
func (h *Handler) RedeemReward(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Access denied.")
		return
	}

	rewardID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid reward id.")
		return
	}

	err = h.service.RedeemReward(r.Context(), userID, rewardID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientPoints):
			writeMessage(w, http.StatusBadRequest, "Insufficient points for this reward.")
		case errors.Is(err, repository.ErrRewardNotFound):
			writeMessage(w, http.StatusNotFound, "Reward not found.")
		case errors.Is(err, repository.ErrUserNotFound):
			writeMessage(w, http.StatusNotFound, "User not found.")
		default:
			h.logger.Error("redeem reward error", zap.Error(err), zap.Int64("userID", userID), zap.Int64("rewardID", rewardID))
			writeMessage(w, http.StatusInternalServerError, "Failed to redeem reward.")
		}
		return
	}

	writeMessage(w, http.StatusOK, "Reward redeemed successfully.")
}

type redemptionResponse struct {
	RewardID    int64  `json:"rewardId"`
	RewardName  string `json:"rewardName"`
	PointsSpent int64  `json:"pointsSpent"`
	RedeemedAt  string `json:"redeemedAt"`
}

// GetRedemptions возвращает историю обменов текущего пользователя.
func (h *Handler) GetRedemptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Access denied.")
		return
	}

	redemptions, err := h.service.GetRedemptions(r.Context(), userID)
	if err != nil {
		h.logger.Error("get redemptions error", zap.Error(err), zap.Int64("userID", userID))
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch redemptions.")
		return
	}

	if len(redemptions) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]redemptionResponse, 0, len(redemptions))
	for _, rd := range redemptions {
		resp = append(resp, redemptionResponse{
			RewardID:    rd.RewardID,
			RewardName:  rd.RewardName,
			PointsSpent: rd.PointsSpent,
			RedeemedAt:  rd.RedeemedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type shippingRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
}

// AddShipping сохраняет адрес доставки текущего пользователя.
func (h *Handler) AddShipping(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Access denied.")
		return
	}

	var req shippingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Valid shipping details are required.")
		return
	}

	if req.FirstName == "" || req.LastName == "" || req.Address == "" || req.City == "" || req.State == "" || req.Zip == "" {
		writeMessage(w, http.StatusBadRequest, "Valid shipping details are required.")
		return
	}

	err := h.service.AddShippingAddress(r.Context(), userID, model.ShippingAddress{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		Zip:       req.Zip,
	})
	if err != nil {
		h.logger.Error("add shipping error", zap.Error(err), zap.Int64("userID", userID))
		writeMessage(w, http.StatusInternalServerError, "Failed to add shipping address.")
		return
	}

	writeMessage(w, http.StatusCreated, "Shipping address added successfully.")
}

type shippingResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
}

// GetShipping возвращает адреса доставки текущего пользователя.
func (h *Handler) GetShipping(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Access denied.")
		return
	}

	addresses, err := h.service.GetShippingAddresses(r.Context(), userID)
	if err != nil {
		h.logger.Error("get shipping error", zap.Error(err), zap.Int64("userID", userID))
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch shipping addresses.")
		return
	}

	resp := make([]shippingResponse, 0, len(addresses))
	for _, a := range addresses {
		resp = append(resp, shippingResponse{
			ID:        a.ID,
			FirstName: a.FirstName,
			LastName:  a.LastName,
			Address:   a.Address,
			City:      a.City,
			State:     a.State,
			Zip:       a.Zip,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type educationItem struct {
	ID          int    `json:"id"`
	Topic       string `json:"topic"`
	Description string `json:"description"`
}

type educationResponse struct {
	Content []educationItem `json:"content"`
}

// GetEducation возвращает список обучающих материалов.
func (h *Handler) GetEducation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, educationResponse{
		Content: []educationItem{
			{ID: 1, Topic: "Recycling Basics", Description: "Learn how to recycle effectively."},
			{ID: 2, Topic: "Composting", Description: "The benefits of composting for the environment."},
			{ID: 3, Topic: "Plastic Reduction", Description: "Tips for reducing plastic usage in daily life."},
		},
	})
}
