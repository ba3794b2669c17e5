package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"quizbank"
)

func main() {
	var (
		configFile      = flag.String("config", "", "Config file (default: ./quizbank.yaml if present)")
		topic           = flag.String("topic", "", "Quiz topic (required unless -check or -domains)")
		numQuestions    = flag.Int("questions", 10, "Number of questions to generate")
		difficulty      = flag.String("difficulty", "medium", "Difficulty level (easy, medium, hard)")
		provider        = flag.String("provider", "", "Generator provider: gemini or openai (overrides config)")
		apiKey          = flag.String("api-key", "", "API key for the provider (overrides config and env)")
		outputFile      = flag.String("output", "", "Output file for quiz JSON (default: stdout)")
		playMode        = flag.Bool("play", false, "Play the quiz interactively")
		timePerQuestion = flag.Duration("time", 30*time.Second, "Time limit per question in play mode")
		checkMode       = flag.Bool("check", false, "Test the generator connection and exit")
		listDomains     = flag.Bool("domains", false, "List the default quiz topics and exit")
		verbose         = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()

	cfg, err := quizbank.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *provider != "" {
		cfg.Provider = strings.ToLower(*provider)
	}
	if *apiKey != "" {
		if cfg.Provider == quizbank.ProviderOpenAI {
			cfg.OpenAIAPIKey = *apiKey
		} else {
			cfg.GeminiAPIKey = *apiKey
		}
	}
	quizbank.SetVerbose(*verbose || cfg.Verbose)

	if *listDomains {
		for _, d := range quizbank.DefaultDomains {
			fmt.Println(d)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	gen, err := quizbank.NewGenerator(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create generator: %v", err)
	}
	if gen == nil {
		log.Printf("Warning: %s API key not configured, questions will be placeholders", cfg.Provider)
	}

	var db *quizbank.DB
	if cfg.DBPath != "" {
		db, err = quizbank.OpenDB(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.CloseDB()
		if err := db.CreateTables(); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
	}

	bank := quizbank.NewQuestionBank(cfg, gen, db)

	if *checkMode {
		fmt.Print("Testing generator connection... ")
		if bank.TestConnection(ctx) {
			fmt.Println("✓ SUCCESS")
			return
		}
		fmt.Println("✗ FAILED")
		os.Exit(1)
	}

	if *topic == "" {
		log.Fatal("Topic is required. Use -topic flag.")
	}
	level, err := quizbank.ParseDifficulty(*difficulty)
	if err != nil {
		log.Fatalf("Invalid difficulty: %v", err)
	}

	req := quizbank.GenerationRequest{
		Topic:        *topic,
		Difficulty:   level,
		DesiredCount: *numQuestions,
	}

	result, err := bank.GetQuestions(ctx, req)
	if err != nil {
		log.Fatalf("Failed to generate quiz: %v", err)
	}
	if result.FallbackUsed {
		log.Printf("⚠ Generation failed after %d attempts, showing %d placeholder questions", len(result.Attempts), len(result.Questions))
	}

	if *playMode {
		playQuiz(result, *timePerQuestion)
		return
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal quiz: %v", err)
	}

	if *outputFile != "" {
		err = os.WriteFile(*outputFile, output, 0644)
		if err != nil {
			log.Fatalf("Failed to write output file: %v", err)
		}
		log.Printf("Quiz saved to: %s", *outputFile)
	} else {
		fmt.Println(string(output))
	}
}

func playQuiz(result *quizbank.AcquisitionResult, limit time.Duration) {
	req := result.Request
	fmt.Printf("🎯 Starting quiz on: %s\n", req.Topic)
	fmt.Printf("📝 Questions: %d, Difficulty: %s\n", len(result.Questions), req.Difficulty)
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	letters := "ABCDEFGH"
	quizResult := quizbank.QuizResult{
		Topic:      req.Topic,
		Difficulty: req.Difficulty,
	}
	start := time.Now()

	for n, question := range result.Questions {
		fmt.Printf("Question %d/%d:\n", n+1, len(result.Questions))
		fmt.Printf("%s\n\n", question.Text)

		valid := letters[:min(len(question.Options), len(letters))]
		for i, option := range question.Options[:len(valid)] {
			fmt.Printf("%c) %s\n", valid[i], option)
		}
		fmt.Println()

		asked := time.Now()
		var answer int
		for {
			fmt.Printf("Your answer (%s): ", strings.Join(strings.Split(valid, ""), "/"))
			if !scanner.Scan() {
				fmt.Println()
				return
			}
			input := strings.ToUpper(strings.TrimSpace(scanner.Text()))
			if len(input) == 1 && strings.Contains(valid, input) {
				answer = strings.Index(valid, input)
				break
			}
			fmt.Printf("Please enter one of %s\n", valid)
		}
		fmt.Println(scoreAnswer(&quizResult, question, answer, time.Since(asked), limit))

		if question.Explanation != "" {
			fmt.Printf("💡 Explanation: %s\n", question.Explanation)
		}

		fmt.Println()
		fmt.Println(strings.Repeat("─", 50))
		fmt.Println()
	}

	quizResult.TimeTaken = time.Since(start)
	quizResult.CompletedAt = time.Now()

	fmt.Println("🎉 Quiz completed!")
	fmt.Println(quizResult.String())
	fmt.Printf("🏆 Score: %d\n", quizResult.Score)

	switch percentage := quizResult.Percentage(); {
	case quizResult.TotalQuestions == 0:
		fmt.Println("ℹ️  Only placeholder questions were shown. Configure an API key for a scored quiz.")
	case quizResult.IsPerfect():
		fmt.Println("🌟 Perfect score!")
	case percentage >= 80:
		fmt.Println("🌟 Excellent work!")
	case percentage >= 60:
		fmt.Println("👍 Good job!")
	default:
		fmt.Println("📚 Keep studying!")
	}
}

// scoreAnswer records one answer in result and returns the verdict line.
// Placeholder questions are counted nowhere.
func scoreAnswer(result *quizbank.QuizResult, question quizbank.Question, answer int, elapsed, limit time.Duration) string {
	if !question.Scored() {
		return "ℹ️  Placeholder question, not scored."
	}

	result.TotalQuestions++
	correct := question.IsCorrect(answer)
	if !correct {
		return fmt.Sprintf("❌ Incorrect. The correct answer is: %s", question.CorrectAnswer())
	}
	points := quizbank.PointsFor(question.Difficulty, correct, elapsed, limit)
	result.CorrectAnswers++
	result.Score += points
	return fmt.Sprintf("✅ Correct! +%d points", points)
}
