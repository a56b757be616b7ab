// Package lib provides a Go SDK to embed the todochat assistant in other applications.
//
// The SDK runs chat turns for an owner, where the language model manages the
// owner todo list with tools, and gives read access to the tasks and the
// recorded conversations.
//
// # Quick Start
//
//	model, err := lib.NewOpenAIModel(lib.OpenAIConfig{APIKey: os.Getenv("GROQ_API_KEY")})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client, err := lib.New(ctx, lib.Config{Model: model})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	resp, err := client.Chat(ctx, lib.ChatOpts{OwnerID: "alice", Message: "add buy milk"})
//	fmt.Println(resp.Reply)
//
// # Models
//
//   - [NewOpenAIModel]: OpenAI compatible chat completions API, Groq by default.
//   - [NewGeminiModel]: Google Gemini API.
//   - [NewRuleBasedModel]: offline model that understands a few phrasings, for tests and demos.
//
// # Storage
//
// By default data is stored in a SQLite database at ~/.todochat/todochat.db.
// Set [Config.InMemory] to keep everything in memory.
//
// # Errors
//
// Errors can be checked with [errors.Is] against [ErrNotFound], [ErrNotValid]
// and [ErrPersistence]. A chat turn that ran but could not be recorded returns
// both the response and an [ErrPersistence] error.
package lib
