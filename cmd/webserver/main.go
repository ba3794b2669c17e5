package main

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"quizbank"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const sessionName = "quiz-session"

type Server struct {
	bank     *quizbank.QuestionBank
	db       *quizbank.DB
	store    *sessions.CookieStore
	timeLeft time.Duration
}

// GameSession is one player's progress through a quiz
type GameSession struct {
	QuizID    string    `json:"quiz_id"`
	Answers   []int     `json:"answers"` // -1 for unanswered
	Scored    int       `json:"scored"`  // questions that count towards the result
	Correct   int       `json:"correct"`
	Score     int       `json:"score"`
	StartedAt time.Time `json:"started_at"`
	AskedAt   time.Time `json:"asked_at"`
	Completed bool      `json:"completed"`
}

func init() {
	gob.Register(GameSession{})
}

func main() {
	configFile := flag.String("config", "", "Config file (default: ./quizbank.yaml if present)")
	flag.Parse()

	cfg, err := quizbank.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	quizbank.SetVerbose(cfg.Verbose)

	gen, err := quizbank.NewGenerator(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to create generator: %v", err)
	}
	if gen == nil {
		log.Printf("Warning: %s API key not configured, serving placeholder questions", cfg.Provider)
	}

	// Initialize database
	db, err := quizbank.OpenDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.CloseDB()

	// Create tables
	if err := db.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	server := NewServer(quizbank.NewQuestionBank(cfg, gen, db), db, sessionKey(cfg), cfg.SecureCookies)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8180"
	}

	log.Printf("Starting server on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, server.Routes()))
}

// sessionKey returns the configured secret or a random one for this process
func sessionKey(cfg *quizbank.Config) []byte {
	if cfg.SessionSecret != "" {
		return []byte(cfg.SessionSecret)
	}
	log.Printf("No session secret configured, sessions will not survive a restart")
	return securecookie.GenerateRandomKey(32)
}

// NewServer creates the API server. secure marks the session cookie HTTPS
// only; leave it off when serving plain HTTP or browsers never send it back.
func NewServer(bank *quizbank.QuestionBank, db *quizbank.DB, key []byte, secure bool) *Server {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Server{
		bank:     bank,
		db:       db,
		store:    store,
		timeLeft: 30 * time.Second,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/quiz/new", s.handleNewQuiz)
	mux.HandleFunc("/quiz/", s.handleQuiz)
	mux.HandleFunc("/domains", s.handleDomains)
	mux.HandleFunc("/stats", s.handleStats)
	return mux
}

type newQuizRequest struct {
	Topic        string `json:"topic"`
	Difficulty   string `json:"difficulty"`
	NumQuestions int    `json:"num_questions"`
}

func (s *Server) handleNewQuiz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body newQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Topic == "" {
		http.Error(w, "Topic is required", http.StatusBadRequest)
		return
	}
	difficulty, err := quizbank.ParseDifficulty(body.Difficulty)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	result, err := s.bank.GetQuestions(ctx, quizbank.GenerationRequest{
		Topic:        body.Topic,
		Difficulty:   difficulty,
		DesiredCount: body.NumQuestions,
	})
	if err != nil {
		if errors.Is(err, quizbank.ErrInvalidCount) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Failed to generate quiz: %v", err)
		http.Error(w, "Failed to generate quiz", http.StatusServiceUnavailable)
		return
	}

	session, _ := s.store.Get(r, sessionName)
	answers := make([]int, len(result.Questions))
	scored := 0
	for i, q := range result.Questions {
		answers[i] = -1
		if q.Scored() {
			scored++
		}
	}
	session.Values["game"] = GameSession{
		QuizID:    result.QuizID,
		Answers:   answers,
		Scored:    scored,
		StartedAt: time.Now(),
	}
	if err := session.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"quiz_id":       result.QuizID,
		"num_questions": len(result.Questions),
		"fallback_used": result.FallbackUsed,
		"state":         result.State,
		"attempts":      len(result.Attempts),
	})
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/quiz/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	quizID := parts[0]
	if quizID == "" {
		http.NotFound(w, r)
		return
	}

	switch {
	case len(parts) == 1:
		s.handleQuizInfo(w, r, quizID)
	case len(parts) == 2 && parts[1] == "results":
		s.handleResults(w, r, quizID)
	case len(parts) == 2:
		questionNum, err := strconv.Atoi(parts[1])
		if err != nil {
			http.NotFound(w, r)
			return
		}
		s.handleQuestion(w, r, quizID, questionNum)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleQuizInfo(w http.ResponseWriter, r *http.Request, quizID string) {
	quiz, err := s.db.GetQuiz(quizID)
	if err != nil {
		if errors.Is(err, quizbank.ErrQuizNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to get quiz", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

// gameFor loads the caller's session for quizID, or nil if they have none
func (s *Server) gameFor(r *http.Request, quizID string) (*sessions.Session, *GameSession) {
	session, _ := s.store.Get(r, sessionName)
	game, ok := session.Values["game"].(GameSession)
	if !ok || game.QuizID != quizID {
		return session, nil
	}
	return session, &game
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request, quizID string, questionNum int) {
	session, game := s.gameFor(r, quizID)
	if game == nil {
		http.Error(w, "No active game for this quiz", http.StatusConflict)
		return
	}
	if questionNum < 1 || questionNum > len(game.Answers) {
		http.NotFound(w, r)
		return
	}

	question, err := s.db.GetQuestion(quizID, questionNum)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		game.AskedAt = time.Now()
		session.Values["game"] = *game
		if err := session.Save(r, w); err != nil {
			log.Printf("Session save error: %v", err)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"question_num": questionNum,
			"total":        len(game.Answers),
			"text":         question.Text,
			"options":      question.Options,
			"source":       question.Source,
		})

	case http.MethodPost:
		var body struct {
			Answer int `json:"answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if body.Answer < 0 || body.Answer >= len(question.Options) {
			http.Error(w, "Invalid answer", http.StatusBadRequest)
			return
		}
		if game.Answers[questionNum-1] != -1 {
			http.Error(w, "Question already answered", http.StatusConflict)
			return
		}

		if !question.Scored() {
			game.Answers[questionNum-1] = body.Answer
			game.Completed = allAnswered(game.Answers)
			if game.Completed {
				log.Printf("Game finished: %s", game)
			}
			session.Values["game"] = *game
			if err := session.Save(r, w); err != nil {
				log.Printf("Session save error: %v", err)
			}
			// placeholders have no known answer
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"scored":      false,
				"explanation": question.Explanation,
				"points":      0,
				"score":       game.Score,
				"completed":   game.Completed,
			})
			return
		}

		correct := question.IsCorrect(body.Answer)
		elapsed := s.timeLeft
		if !game.AskedAt.IsZero() {
			elapsed = time.Since(game.AskedAt)
		}
		points := quizbank.PointsFor(question.Difficulty, correct, elapsed, s.timeLeft)

		game.Answers[questionNum-1] = body.Answer
		if correct {
			game.Correct++
			game.Score += points
		}
		game.Completed = allAnswered(game.Answers)
		if game.Completed {
			log.Printf("Game finished: %s", game)
		}
		session.Values["game"] = *game
		if err := session.Save(r, w); err != nil {
			log.Printf("Session save error: %v", err)
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"scored":        true,
			"correct":       correct,
			"correct_index": question.CorrectIndex,
			"explanation":   question.Explanation,
			"points":        points,
			"score":         game.Score,
			"completed":     game.Completed,
		})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func allAnswered(answers []int) bool {
	for _, a := range answers {
		if a == -1 {
			return false
		}
	}
	return true
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request, quizID string) {
	_, game := s.gameFor(r, quizID)
	if game == nil {
		http.Error(w, "No active game for this quiz", http.StatusConflict)
		return
	}

	quiz, err := s.db.GetQuiz(quizID)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	result := quizbank.QuizResult{
		Topic:          quiz.Topic,
		Difficulty:     quiz.Difficulty,
		CorrectAnswers: game.Correct,
		TotalQuestions: game.Scored,
		Score:          game.Score,
		TimeTaken:      time.Since(game.StartedAt),
		CompletedAt:    time.Now(),
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result":     result,
		"summary":    result.String(),
		"percentage": result.Percentage(),
		"perfect":    result.IsPerfect(),
		"completed":  game.Completed,
	})
}

func (s *Server) handleDomains(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.bank.Domains())
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	stored, err := s.db.GenerationStats()
	if err != nil {
		log.Printf("Failed to get stats: %v", err)
		http.Error(w, "Failed to get stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stored":  stored,
		"session": s.bank.Stats(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func (g GameSession) String() string {
	return fmt.Sprintf("quiz %s: %d correct, score %d", g.QuizID, g.Correct, g.Score)
}
