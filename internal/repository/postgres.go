// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/mmeshcher/ecopoints-system/internal/model"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrUserExists возвращается при попытке создать пользователя с уже существующим email.
var (
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrRewardNotFound возвращается, если награда не найдена или недоступна.
	ErrRewardNotFound = errors.New("reward not found")
	// ErrInsufficientPoints возвращается при попытке списания баллов, превышающих баланс.
	ErrInsufficientPoints = errors.New("insufficient points")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		// Если ошибка контекста — выходим сразу
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		// Ретраи полезны для Serialization Failure или Deadlocks.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		// Если это не pg-ошибка, но сетевая
		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateUser создаёт нового пользователя.
func (r *PostgresRepository) CreateUser(ctx context.Context, email string, passwordHash []byte) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id`,
		email, passwordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrUserExists, email)
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// GetUserByEmail возвращает пользователя по email.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, total_points, created_at FROM users WHERE email = $1`,
		email,
	)

	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.TotalPoints, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, total_points, created_at FROM users WHERE id = $1`,
		userID,
	)

	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.TotalPoints, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}

// CreditWaste записывает сдачу отходов и начисляет баллы пользователю в одной транзакции.
// Строка пользователя блокируется, чтобы параллельные начисления не теряли обновления.
func (r *PostgresRepository) CreditWaste(ctx context.Context, userID int64, wasteType model.WasteType, amount, pointsEarned int64) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var dummy int
		err = tx.QueryRow(ctx, `SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&dummy)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user for update: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO waste_entries (user_id, waste_type, waste_amount, points_earned) VALUES ($1, $2, $3, $4)`,
			userID, string(wasteType), amount, pointsEarned,
		)
		if err != nil {
			return fmt.Errorf("insert waste entry: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE users SET total_points = total_points + $2 WHERE id = $1`,
			userID, pointsEarned,
		)
		if err != nil {
			return fmt.Errorf("update points: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		return nil
	})
}

// GetWasteEntriesByUser возвращает историю сдачи отходов пользователя, новые записи первыми.
func (r *PostgresRepository) GetWasteEntriesByUser(ctx context.Context, userID int64) ([]model.WasteEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT waste_type, waste_amount, points_earned, created_at
		 FROM waste_entries
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select waste entries: %w", err)
	}
	defer rows.Close()

	var entries []model.WasteEntry
	for rows.Next() {
		var (
			wasteType    string
			wasteAmount  int64
			pointsEarned int64
			createdAt    time.Time
		)
		if err := rows.Scan(&wasteType, &wasteAmount, &pointsEarned, &createdAt); err != nil {
			return nil, fmt.Errorf("scan waste entry: %w", err)
		}

		entries = append(entries, model.WasteEntry{
			WasteType:    model.WasteType(wasteType),
			WasteAmount:  wasteAmount,
			PointsEarned: pointsEarned,
			CreatedAt:    createdAt,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return entries, nil
}

// GetBalance возвращает текущий баланс баллов пользователя.
func (r *PostgresRepository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx,
		`SELECT total_points FROM users WHERE id = $1`,
		userID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

// ListAvailableRewards возвращает доступные награды в порядке каталога.
func (r *PostgresRepository) ListAvailableRewards(ctx context.Context) ([]model.Reward, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, points_required, available
		 FROM rewards
		 WHERE available
		 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		var rw model.Reward
		if err := rows.Scan(&rw.ID, &rw.Name, &rw.PointsRequired, &rw.Available); err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, rw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return rewards, nil
}

// RedeemReward списывает стоимость награды с баланса пользователя и записывает факт обмена.
// Проверка баланса и списание выполняются в одной транзакции под блокировкой строки
// пользователя, чтобы параллельные обмены не увели баланс в минус.
func (r *PostgresRepository) RedeemReward(ctx context.Context, userID, rewardID int64) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var balance int64
		err = tx.QueryRow(ctx, `SELECT total_points FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user for update: %w", err)
		}

		var pointsRequired int64
		err = tx.QueryRow(ctx,
			`SELECT points_required FROM rewards WHERE id = $1 AND available`,
			rewardID,
		).Scan(&pointsRequired)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrRewardNotFound
			}
			return fmt.Errorf("select reward: %w", err)
		}

		if balance < pointsRequired {
			return ErrInsufficientPoints
		}

		_, err = tx.Exec(ctx,
			`UPDATE users SET total_points = total_points - $2 WHERE id = $1`,
			userID, pointsRequired,
		)
		if err != nil {
			return fmt.Errorf("deduct points: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO redemptions (user_id, reward_id, points_spent) VALUES ($1, $2, $3)`,
			userID, rewardID, pointsRequired,
		)
		if err != nil {
			return fmt.Errorf("insert redemption: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		return nil
	})
}

// GetRedemptionsByUser возвращает историю обменов пользователя, новые записи первыми.
func (r *PostgresRepository) GetRedemptionsByUser(ctx context.Context, userID int64) ([]model.Redemption, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT rd.reward_id, rw.name, rd.points_spent, rd.redeemed_at
		 FROM redemptions rd
		 JOIN rewards rw ON rw.id = rd.reward_id
		 WHERE rd.user_id = $1
		 ORDER BY rd.redeemed_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select redemptions: %w", err)
	}
	defer rows.Close()

	var res []model.Redemption
	for rows.Next() {
		var rd model.Redemption
		if err := rows.Scan(&rd.RewardID, &rd.RewardName, &rd.PointsSpent, &rd.RedeemedAt); err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		res = append(res, rd)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// AddShippingAddress сохраняет адрес доставки пользователя.
func (r *PostgresRepository) AddShippingAddress(ctx context.Context, userID int64, addr model.ShippingAddress) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO shipping_addresses (user_id, first_name, last_name, address, city, state, zip)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		userID, addr.FirstName, addr.LastName, addr.Address, addr.City, addr.State, addr.Zip,
	)
	if err != nil {
		return fmt.Errorf("insert shipping address: %w", err)
	}
	return nil
}

// GetShippingAddressesByUser возвращает адреса доставки пользователя.
func (r *PostgresRepository) GetShippingAddressesByUser(ctx context.Context, userID int64) ([]model.ShippingAddress, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, first_name, last_name, address, city, state, zip, created_at
		 FROM shipping_addresses
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select shipping addresses: %w", err)
	}
	defer rows.Close()

	var res []model.ShippingAddress
	for rows.Next() {
		var a model.ShippingAddress
		if err := rows.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Address, &a.City, &a.State, &a.Zip, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan shipping address: %w", err)
		}
		res = append(res, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
