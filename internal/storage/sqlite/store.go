package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tjfontaine/advisor-gateway/internal/domain"
	"github.com/tjfontaine/advisor-gateway/internal/storage"
)

// Store is a SQLite implementation of storage.Store
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// New creates a new SQLite store
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS user_profiles (
			user_id TEXT PRIMARY KEY,
			age INTEGER,
			monthly_income REAL,
			monthly_expenses REAL,
			current_savings REAL,
			dependents INTEGER,
			risk_tolerance TEXT,
			investment_experience TEXT,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chat_history (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			message TEXT NOT NULL,
			response TEXT NOT NULL,
			context TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_history_user ON chat_history(user_id, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	query := `SELECT user_id, age, monthly_income, monthly_expenses, current_savings,
	                 dependents, risk_tolerance, investment_experience
	          FROM user_profiles WHERE user_id = ?`

	var (
		p                         domain.UserProfile
		age, dependents           sql.NullInt64
		income, expenses, savings sql.NullFloat64
		riskTolerance, experience sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &age, &income, &expenses, &savings, &dependents, &riskTolerance, &experience)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", userID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	p.Age = int(age.Int64)
	p.Dependents = int(dependents.Int64)
	p.MonthlyIncome = income.Float64
	p.MonthlyExpenses = expenses.Float64
	p.CurrentSavings = savings.Float64
	p.RiskTolerance = riskTolerance.String
	p.InvestmentExperience = experience.String

	return &p, nil
}

func (s *Store) UpsertProfile(ctx context.Context, p *domain.UserProfile) error {
	query := `INSERT INTO user_profiles (user_id, age, monthly_income, monthly_expenses, current_savings,
	                                     dependents, risk_tolerance, investment_experience, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	          ON CONFLICT(user_id) DO UPDATE SET
	              age = excluded.age,
	              monthly_income = excluded.monthly_income,
	              monthly_expenses = excluded.monthly_expenses,
	              current_savings = excluded.current_savings,
	              dependents = excluded.dependents,
	              risk_tolerance = excluded.risk_tolerance,
	              investment_experience = excluded.investment_experience,
	              updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		p.UserID, p.Age, p.MonthlyIncome, p.MonthlyExpenses, p.CurrentSavings,
		p.Dependents, p.RiskTolerance, p.InvestmentExperience, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func (s *Store) SaveChatHistory(ctx context.Context, entry *domain.ChatHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `INSERT INTO chat_history (id, user_id, message, response, context, created_at)
	          VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.Message, entry.Response, string(entry.Context), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save chat history: %w", err)
	}
	return nil
}

// ListChatHistory returns the newest entries for userID first.
func (s *Store) ListChatHistory(ctx context.Context, userID string, limit int) ([]domain.ChatHistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, user_id, message, response, context, created_at
	          FROM chat_history WHERE user_id = ?
	          ORDER BY created_at DESC
	          LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	defer rows.Close()

	var entries []domain.ChatHistoryEntry
	for rows.Next() {
		var e domain.ChatHistoryEntry
		var advisoryContext string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Message, &e.Response, &advisoryContext, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat history: %w", err)
		}
		e.Context = domain.AdvisoryContext(advisoryContext)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
