package service

import (
	"context"
	"fmt"
	"log"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/haatos/shipyard/internal"
	"github.com/haatos/shipyard/internal/store"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

type UserService struct {
	store store.UserStore
}

func NewUserService(userStore store.UserStore) *UserService {
	return &UserService{store: userStore}
}

func (s *UserService) CreateUser(
	ctx context.Context,
	role store.Role,
	username, password string,
) (*store.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.store.CreateUser(ctx, role, username, string(hash))
}

func (s *UserService) GetUserByUsernameAndPassword(
	ctx context.Context,
	username, password string,
) (*store.User, error) {
	u, err := s.store.ReadUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(
		[]byte(u.PasswordHash), []byte(password),
	); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) GetUserBySessionID(
	ctx context.Context,
	sessionID string,
) (*store.User, error) {
	return s.store.ReadUserBySessionID(ctx, sessionID)
}

func (s *UserService) CreateAuthSession(
	ctx context.Context,
	userID int64,
) (*store.AuthSession, error) {
	expires := time.Now().UTC().Add(
		time.Duration(internal.Config.SessionExpiresHours) * time.Hour)
	return s.store.CreateAuthSession(ctx, uuid.NewString(), userID, expires)
}

func (s *UserService) SetUserPassword(
	ctx context.Context,
	userID int64,
	newPassword string,
) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.UpdateUserPassword(ctx, userID, string(hash))
}

func (s *UserService) DeleteUser(ctx context.Context, userID int64) error {
	if err := s.store.DeleteAuthSessionsByUserID(ctx, userID); err != nil {
		return err
	}
	return s.store.DeleteUser(ctx, userID)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*store.User, error) {
	return s.store.ListUsers(ctx)
}

// InitializeSuperuser prompts for a superuser on stdin when none exist yet.
func (s *UserService) InitializeSuperuser(ctx context.Context) {
	users, err := s.store.ListSuperusers(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if len(users) > 0 {
		return
	}

	fmt.Println("Create a superuser")
	fmt.Print("Username: ")
	var username string
	if _, err := fmt.Scanln(&username); err != nil {
		log.Fatal(err)
	}
	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println()

	hash, err := bcrypt.GenerateFromPassword(passwordBytes, bcrypt.DefaultCost)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := s.store.CreateUser(ctx, store.Superuser, username, string(hash)); err != nil {
		log.Fatal(err)
	}
}
