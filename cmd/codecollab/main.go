package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"codecollab/internal/app"
	"codecollab/internal/config"
	"codecollab/internal/view"
	"codecollab/pkg/types"
)

func main() {
	configPath := flag.String("config", "", "path to JSON config file (optional)")
	flag.Parse()

	// .env is optional; absence is not an error.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	var cfg *config.Config
	if *configPath != "" {
		fileCfg, err := config.LoadFromFile(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = fileCfg
	} else {
		cfg = config.LoadFromEnv()
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer application.Shutdown()

	log.Printf("CodeCollab client starting: %s", cfg.FormatSummary())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutting down...")
		cancel()
		application.Shutdown()
		os.Exit(0)
	}()

	application.Bootstrap(ctx)
	runLoop(ctx, application)
}

func runLoop(ctx context.Context, application *app.Application) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("CodeCollab client. Type 'help' for commands.")

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "help":
			printHelp()
		case "quit", "exit":
			return
		case "login":
			cmdLogin(ctx, application, fields[1:])
		case "register":
			cmdRegister(ctx, application, fields[1:])
		case "logout":
			application.Auth().Logout(ctx)
			fmt.Println("Signed out.")
		case "whoami":
			cmdWhoami(application)
		case "problems":
			cmdProblems(ctx, application, fields[1:])
		case "solve":
			cmdSolve(ctx, application, fields[1:])
		case "create":
			cmdCreate(ctx, application, fields[1:])
		case "join":
			cmdJoin(ctx, application, fields[1:])
		case "leave":
			res := application.Lifecycle().LeaveRoom(ctx)
			report(res.Success, res.Message, "Left room.")
		case "start":
			cmdStart(ctx, application, fields[1:])
		case "end":
			res := application.Lifecycle().EndSession(ctx)
			report(res.Success, res.Message, "Room ended for all members.")
		case "pause":
			res := application.Lifecycle().PauseSession(ctx)
			report(res.Success, res.Message, "Back to lobby.")
		case "test", "submit":
			cmdExecute(ctx, application, fields[0], fields[1:])
		case "status":
			cmdStatus(application)
		default:
			fmt.Printf("Unknown command %q. Type 'help'.\n", fields[0])
		}
	}
}

func printHelp() {
	fmt.Println(`Commands:
  login <username> <password>
  register <username> <email> <password>
  logout | whoami
  problems [difficulty <d> | category <c>]
  solve <problemId>
  create <name> [PRACTICE|TOURNAMENT [minutes]]
  join <code>
  leave | start <problemId> [minutes] | end | pause
  test <problemId> <language> <file>
  submit <problemId> <language> <file>
  status | quit`)
}

func cmdLogin(ctx context.Context, application *app.Application, args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: login <username> <password>")
		return
	}
	res := application.Auth().Login(ctx, args[0], args[1])
	if !res.Success {
		fmt.Println("Login failed:", res.Message)
		return
	}
	application.Coordinator().SetAuthenticated(true)
	fmt.Printf("Signed in as %s.\n", args[0])
	if user := application.Auth().User(); user != nil {
		application.Lifecycle().Resume(ctx, user.Username)
	}
}

func cmdRegister(ctx context.Context, application *app.Application, args []string) {
	if len(args) != 3 {
		fmt.Println("Usage: register <username> <email> <password>")
		return
	}
	res := application.Auth().Register(ctx, args[0], args[1], args[2])
	if !res.Success {
		fmt.Println("Registration failed:", res.Message)
		return
	}
	application.Coordinator().SetAuthenticated(true)
	fmt.Printf("Registered and signed in as %s.\n", args[0])
}

func cmdWhoami(application *app.Application) {
	user := application.Auth().User()
	if user == nil {
		fmt.Println("Not signed in.")
		return
	}
	fmt.Printf("%s <%s> rating %d\n", user.Username, user.Email, user.Rating)
}

func cmdProblems(ctx context.Context, application *app.Application, args []string) {
	var (
		problems []*types.Problem
		err      error
	)
	switch {
	case len(args) == 2 && args[0] == "difficulty":
		problems, err = application.Gateway().ProblemsByDifficulty(ctx, args[1])
	case len(args) == 2 && args[0] == "category":
		problems, err = application.Gateway().ProblemsByCategory(ctx, args[1])
	default:
		problems, err = application.Gateway().ListProblems(ctx)
	}
	if err != nil {
		fmt.Println("Failed to list problems:", err)
		return
	}
	for _, p := range problems {
		fmt.Printf("%4d  [%s/%s] %s\n", p.ID, p.Difficulty, p.Category, p.Title)
	}
}

func cmdSolve(ctx context.Context, application *app.Application, args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: solve <problemId>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("Problem id must be a number.")
		return
	}
	problem, err := application.Gateway().GetProblem(ctx, id)
	if err != nil {
		fmt.Println("Failed to fetch problem:", err)
		return
	}
	if err := application.Coordinator().SelectProblem(problem); err != nil {
		fmt.Println(capitalize(err.Error()))
		return
	}
	fmt.Printf("Solving %q [%s].\n%s\n", problem.Title, problem.Difficulty, problem.Description)
}

func cmdCreate(ctx context.Context, application *app.Application, args []string) {
	if err := application.Coordinator().RequireAuthForRooms(); err != nil {
		fmt.Println(capitalize(err.Error()))
		return
	}
	if len(args) == 0 {
		fmt.Println("Usage: create <name> [PRACTICE|TOURNAMENT [minutes]]")
		return
	}
	cfg := types.RoomConfig{RoomName: args[0], Mode: types.RoomModePractice}
	if len(args) >= 2 {
		cfg.Mode = strings.ToUpper(args[1])
	}
	if len(args) >= 3 {
		if minutes, err := strconv.Atoi(args[2]); err == nil {
			cfg.TimeLimitMinutes = &minutes
		}
	}
	res := application.Lifecycle().CreateRoom(ctx, cfg)
	if !res.Success {
		fmt.Println("Create failed:", res.Message)
		return
	}
	fmt.Printf("Room %s created. Share the code with up to %d friends.\n", res.Room.RoomCode, types.MaxRoomMembers-1)
}

func cmdJoin(ctx context.Context, application *app.Application, args []string) {
	if err := application.Coordinator().RequireAuthForRooms(); err != nil {
		fmt.Println(capitalize(err.Error()))
		return
	}
	if len(args) != 1 {
		fmt.Println("Usage: join <code>")
		return
	}
	res := application.Lifecycle().JoinRoom(ctx, args[0])
	if !res.Success {
		fmt.Println("Join failed:", res.Message)
		return
	}
	fmt.Printf("Joined %q as %d of %d members.\n", res.Room.RoomName, len(res.Room.Members), res.Room.MaxMembers)
}

func cmdStart(ctx context.Context, application *app.Application, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: start <problemId> [minutes]")
		return
	}
	problemID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("Problem id must be a number.")
		return
	}
	var timeLimit *int
	if len(args) >= 2 {
		if minutes, err := strconv.Atoi(args[1]); err == nil {
			timeLimit = &minutes
		}
	}

	user := application.Auth().User()
	room := application.Lifecycle().Room()
	if user != nil && !view.CanStartSession(room, user.Username) {
		fmt.Println("Only the host can start, and the room needs at least 2 members.")
		return
	}

	res := application.Lifecycle().StartSession(ctx, problemID, timeLimit)
	if !res.Success {
		fmt.Println("Start failed:", res.Message)
		return
	}
	if res.Session.Problem != nil {
		fmt.Printf("Session started: %s\n", res.Session.Problem.Title)
	} else {
		fmt.Println("Session started.")
	}
}

func cmdExecute(ctx context.Context, application *app.Application, verb string, args []string) {
	if len(args) != 3 {
		fmt.Printf("Usage: %s <problemId> <language> <file>\n", verb)
		return
	}
	problemID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("Problem id must be a number.")
		return
	}
	code, err := os.ReadFile(args[2])
	if err != nil {
		fmt.Println("Failed to read code file:", err)
		return
	}

	var result *types.ExecutionResult
	if verb == "test" {
		result, err = application.Gateway().TestCode(ctx, problemID, string(code), args[1])
	} else {
		result, err = application.Gateway().SubmitCode(ctx, problemID, string(code), args[1])
	}
	if err != nil {
		fmt.Println("Execution failed:", err)
		return
	}
	fmt.Printf("%s: %d/%d test cases passed", result.Status, result.PassedTestCases, result.TotalTestCases)
	if result.ExecutionTimeMs > 0 {
		fmt.Printf(" in %dms", result.ExecutionTimeMs)
	}
	fmt.Println()
	if result.Message != "" {
		fmt.Println(result.Message)
	}
}

func cmdStatus(application *app.Application) {
	snap := application.Lifecycle().State()
	fmt.Printf("screen=%s authenticated=%v inRoom=%v\n",
		application.Coordinator().Screen(), application.Auth().IsAuthenticated(), snap.InRoom)
	if snap.Room != nil {
		host := "?"
		if h := snap.Room.Host(); h != nil {
			host = h.Username
		}
		fmt.Printf("room %s %q status=%s host=%s members=%d/%d\n",
			snap.Room.RoomCode, snap.Room.RoomName, snap.Room.Status, host,
			len(snap.Room.Members), snap.Room.MaxMembers)
	}
	if snap.Session != nil && snap.Session.Problem != nil {
		fmt.Printf("session problem: %s\n", snap.Session.Problem.Title)
	}
	if snap.RemainingMinutes != nil {
		fmt.Printf("time remaining: %d minutes\n", *snap.RemainingMinutes)
	}
}

func report(success bool, message, okText string) {
	if success {
		fmt.Println(okText)
		return
	}
	fmt.Println("Failed:", message)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
