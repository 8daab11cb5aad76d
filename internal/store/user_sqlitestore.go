package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/haatos/shipyard/internal/util"
)

type UserSQLiteStore struct {
	rdb  *sql.DB
	rwdb *sql.DB
}

func NewUserSQLiteStore(rdb, rwdb *sql.DB) *UserSQLiteStore {
	return &UserSQLiteStore{rdb, rwdb}
}

func (store *UserSQLiteStore) CreateUser(
	ctx context.Context,
	role Role,
	username string,
	passwordHash string,
) (*User, error) {
	user := new(User)
	user.UserRoleID = role
	user.Username = username
	user.PasswordHash = passwordHash
	user.PasswordChangedOn = util.AsPtr(time.Now().UTC())
	err := sqlscan.Get(
		ctx, store.rwdb, user,
		`insert into users (
			user_role_id,
			username,
			password_hash,
			password_changed_on
		)
		values ($1, $2, $3, $4)
		returning user_id`,
		user.UserRoleID,
		user.Username,
		user.PasswordHash,
		dbTime(*user.PasswordChangedOn),
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (store *UserSQLiteStore) ReadUserByID(ctx context.Context, userID int64) (*User, error) {
	user := new(User)
	err := sqlscan.Get(
		ctx, store.rdb, user,
		`select * from users where user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (store *UserSQLiteStore) ReadUserByUsername(
	ctx context.Context,
	username string,
) (*User, error) {
	user := new(User)
	err := sqlscan.Get(
		ctx, store.rdb, user,
		`select * from users where username = $1`,
		username,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (store *UserSQLiteStore) ReadUserBySessionID(
	ctx context.Context,
	sessionID string,
) (*User, error) {
	user := new(User)
	err := sqlscan.Get(
		ctx, store.rdb, user,
		`select u.* from users u
		join auth_sessions s
		on u.user_id = s.auth_session_user_id
		where s.auth_session_id = $1
			and s.auth_session_expires > $2`,
		sessionID,
		dbTime(time.Now().UTC()),
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (store *UserSQLiteStore) UpdateUserPassword(
	ctx context.Context,
	userID int64,
	passwordHash string,
) error {
	query := `update users set
		password_hash = $1,
		password_changed_on = $2
	where user_id = $3`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		passwordHash,
		dbTime(time.Now().UTC()),
		userID,
	)
	return err
}

func (store *UserSQLiteStore) DeleteUser(ctx context.Context, userID int64) error {
	query := `delete from users where user_id = $1`
	_, err := store.rwdb.ExecContext(ctx, query, userID)
	return err
}

func (store *UserSQLiteStore) ListUsers(ctx context.Context) ([]*User, error) {
	query := `select * from users order by username`
	users := make([]*User, 0)
	err := sqlscan.Select(ctx, store.rdb, &users, query)
	return users, err
}

func (store *UserSQLiteStore) ListSuperusers(ctx context.Context) ([]*User, error) {
	query := `select * from users where user_role_id = $1`
	users := make([]*User, 0)
	err := sqlscan.Select(ctx, store.rdb, &users, query, Superuser)
	return users, err
}

func (store *UserSQLiteStore) CreateAuthSession(
	ctx context.Context,
	sessionID string,
	userID int64,
	expires time.Time,
) (*AuthSession, error) {
	s := &AuthSession{
		AuthSessionID:      sessionID,
		AuthSessionUserID:  userID,
		AuthSessionExpires: expires,
	}
	query := `insert into auth_sessions (
		auth_session_id,
		auth_session_user_id,
		auth_session_expires
	)
	values ($1, $2, $3)`
	_, err := store.rwdb.ExecContext(ctx, query, s.AuthSessionID, s.AuthSessionUserID, dbTime(s.AuthSessionExpires))
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (store *UserSQLiteStore) DeleteAuthSessionsByUserID(ctx context.Context, userID int64) error {
	query := `delete from auth_sessions where auth_session_user_id = $1`
	_, err := store.rwdb.ExecContext(ctx, query, userID)
	return err
}
