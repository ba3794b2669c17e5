package quizbank

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrQuizNotFound is returned when no quiz has the requested ID
var ErrQuizNotFound = errors.New("quiz not found")

// DB stores acquired quizzes in SQLite
type DB struct {
	db *sql.DB
}

// OpenDB opens a new database connection
func OpenDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db: db}, nil
}

// CloseDB closes the database connection
func (db *DB) CloseDB() error {
	return db.db.Close()
}

// CreateTables creates the necessary tables if they don't exist
func (db *DB) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS quizzes (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			num_questions INTEGER NOT NULL,
			fallback_used BOOLEAN NOT NULL DEFAULT 0,
			attempts INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			quiz_id TEXT NOT NULL,
			question_num INTEGER NOT NULL,
			text TEXT NOT NULL,
			options TEXT NOT NULL,
			correct_index INTEGER NOT NULL,
			difficulty TEXT NOT NULL,
			explanation TEXT,
			source TEXT NOT NULL,
			FOREIGN KEY (quiz_id) REFERENCES quizzes(id)
		)`,
	}

	for _, query := range queries {
		if _, err := db.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// SaveAcquisition stores a result and its questions in one transaction
func (db *DB) SaveAcquisition(result *AcquisitionResult) error {
	if result.QuizID == "" {
		return fmt.Errorf("acquisition has no quiz id")
	}

	tx, err := db.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"INSERT INTO quizzes (id, topic, difficulty, num_questions, fallback_used, attempts, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		result.QuizID, result.Request.Topic, string(result.Request.Difficulty), len(result.Questions), result.FallbackUsed, len(result.Attempts), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}

	for i, q := range result.Questions {
		optionsJSON, err := OptionsToJSON(q.Options)
		if err != nil {
			return err
		}
		// Fallback IDs repeat across quizzes
		id := q.ID
		if q.Source == SourceFallback {
			id = fmt.Sprintf("%s-%s", result.QuizID, q.ID)
		}
		_, err = tx.Exec(
			"INSERT INTO questions (id, quiz_id, question_num, text, options, correct_index, difficulty, explanation, source) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			id, result.QuizID, i+1, q.Text, optionsJSON, q.CorrectIndex, string(q.Difficulty), q.Explanation, string(q.Source),
		)
		if err != nil {
			return fmt.Errorf("failed to create question: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit quiz: %w", err)
	}
	return nil
}

// GetQuiz retrieves a quiz by ID
func (db *DB) GetQuiz(id string) (*Quiz, error) {
	var quiz Quiz
	var difficulty string
	err := db.db.QueryRow(
		"SELECT id, topic, difficulty, num_questions, fallback_used, attempts, created_at FROM quizzes WHERE id = ?",
		id,
	).Scan(&quiz.ID, &quiz.Topic, &difficulty, &quiz.NumQuestions, &quiz.FallbackUsed, &quiz.Attempts, &quiz.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrQuizNotFound, id)
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	quiz.Difficulty = Difficulty(difficulty)
	return &quiz, nil
}

// GetQuizzes retrieves all quizzes, newest first, optionally limited by count
func (db *DB) GetQuizzes(limit int) ([]Quiz, error) {
	query := "SELECT id, topic, difficulty, num_questions, fallback_used, attempts, created_at FROM quizzes ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []Quiz
	for rows.Next() {
		var quiz Quiz
		var difficulty string
		err := rows.Scan(&quiz.ID, &quiz.Topic, &difficulty, &quiz.NumQuestions, &quiz.FallbackUsed, &quiz.Attempts, &quiz.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quiz: %w", err)
		}
		quiz.Difficulty = Difficulty(difficulty)
		quizzes = append(quizzes, quiz)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quizzes: %w", err)
	}

	return quizzes, nil
}

// GetQuestion retrieves a question by quiz ID and 1-based question number
func (db *DB) GetQuestion(quizID string, questionNum int) (*Question, error) {
	row := db.db.QueryRow(
		"SELECT id, text, options, correct_index, difficulty, explanation, source FROM questions WHERE quiz_id = ? AND question_num = ?",
		quizID, questionNum,
	)
	question, err := scanQuestion(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("question not found: quiz_id=%s, question_num=%d", quizID, questionNum)
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return question, nil
}

// GetQuestions retrieves all questions for a quiz in order
func (db *DB) GetQuestions(quizID string) ([]Question, error) {
	rows, err := db.db.Query(
		"SELECT id, text, options, correct_index, difficulty, explanation, source FROM questions WHERE quiz_id = ? ORDER BY question_num",
		quizID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, *question)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}

	return questions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (*Question, error) {
	var q Question
	var optionsJSON, difficulty, source string
	var explanation sql.NullString
	if err := row.Scan(&q.ID, &q.Text, &optionsJSON, &q.CorrectIndex, &difficulty, &explanation, &source); err != nil {
		return nil, err
	}
	options, err := JSONToOptions(optionsJSON)
	if err != nil {
		return nil, err
	}
	q.Options = options
	q.Difficulty = Difficulty(difficulty)
	q.Explanation = explanation.String
	q.Source = QuestionSource(source)
	return &q, nil
}

// GenerationStats counts stored AI generated questions per topic_difficulty
func (db *DB) GenerationStats() (map[string]int, error) {
	rows, err := db.db.Query(
		"SELECT q.topic, q.difficulty, COUNT(*) FROM questions s JOIN quizzes q ON s.quiz_id = q.id WHERE s.source = ? GROUP BY q.topic, q.difficulty",
		string(SourceAI),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var topic, difficulty string
		var count int
		if err := rows.Scan(&topic, &difficulty, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats[GenerationRequest{Topic: topic, Difficulty: Difficulty(difficulty)}.cacheKey()] = count
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stats: %w", err)
	}
	return stats, nil
}

// OptionsToJSON converts an options slice to a JSON string
func OptionsToJSON(options []string) (string, error) {
	data, err := json.Marshal(options)
	if err != nil {
		return "", fmt.Errorf("failed to marshal options: %w", err)
	}
	return string(data), nil
}

// JSONToOptions converts a JSON string to an options slice
func JSONToOptions(optionsJSON string) ([]string, error) {
	var options []string
	err := json.Unmarshal([]byte(optionsJSON), &options)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal options: %w", err)
	}
	return options, nil
}
