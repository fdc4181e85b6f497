package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/librarium_api/dto"
	"github.com/lac-hong-legacy/librarium_api/middleware"
	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
	"github.com/lac-hong-legacy/librarium_api/shared"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

type AuthService struct {
	appContext.DefaultService

	dbSvc       *DatabaseService
	jwtSvc      *JWTService
	progressSvc *ProgressService
}

const AUTH_SVC = "auth_svc"

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	svc.dbSvc = svc.Service(DATABASE_SVC).(*DatabaseService)
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	svc.progressSvc = svc.Service(PROGRESS_SVC).(*ProgressService)
	return nil
}

// Register creates the account together with its progress row, starter avatar
// and the default achievement catalog.
func (svc *AuthService) Register(req dto.RegisterRequest) (*dto.LoginResponse, error) {
	ctx := context.Background()
	users := svc.dbSvc.Users()

	available, err := users.IsUsernameAvailable(ctx, req.Username)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to check username availability")
	}
	if !available {
		return nil, shared.NewConflictError(fmt.Errorf("username taken"), "Username is already taken")
	}

	available, err = users.IsEmailAvailable(ctx, req.Email)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to check email availability")
	}
	if !available {
		return nil, shared.NewConflictError(fmt.Errorf("email taken"), "Email is already taken")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to hash password")
	}

	user := &model.User{
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Username: strings.TrimSpace(req.Username),
		Password: string(hashedPassword),
	}

	if err := users.Register(ctx, user, engine.DefaultCatalog()); err != nil {
		if errors.Is(err, engine.ErrConflict) {
			return nil, shared.NewConflictError(err, "Username or email is already taken")
		}
		return nil, shared.NewInternalError(svc.dbSvc.HandleError(err), "Failed to register user")
	}

	svc.progressSvc.SyncLeaderboard(ctx, user.ID, 0)

	log.WithFields(log.Fields{"user_id": user.ID, "username": user.Username}).Info("User registered")
	return svc.issue(user)
}

func (svc *AuthService) Login(req dto.LoginRequest) (*dto.LoginResponse, error) {
	ctx := context.Background()

	user, err := svc.dbSvc.Users().GetUserByEmailOrUsername(ctx, strings.TrimSpace(req.EmailOrUsername))
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return nil, shared.NewUnauthorizedError(err, "Invalid credentials")
		}
		return nil, shared.NewInternalError(err, "Failed to load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, shared.NewUnauthorizedError(err, "Invalid credentials")
	}

	if err := svc.dbSvc.Users().UpdateLastLogin(ctx, user.ID); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("Failed to update last login")
	}
	user.LastLogin = time.Now()

	return svc.issue(user)
}

func (svc *AuthService) issue(user *model.User) (*dto.LoginResponse, error) {
	tokens, err := svc.jwtSvc.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to generate token")
	}

	return &dto.LoginResponse{
		AccessToken: tokens.AccessToken,
		ExpiresIn:   tokens.ExpiresIn,
		User: dto.UserInfo{
			ID:          user.ID,
			Username:    user.Username,
			Email:       user.Email,
			CreatedAt:   user.CreatedAt,
			LastLoginAt: user.LastLogin,
		},
	}, nil
}

func (svc *AuthService) RequiredAuth() fiber.Handler {
	return middleware.RequiredAuth(svc.jwtSvc)
}

func (svc *AuthService) OptionalAuth() fiber.Handler {
	return middleware.OptionalAuth(svc.jwtSvc)
}
