package main

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log"
	"math"
	"net/http"
	"time"
)

// Fake OpenAI-compatible upstream for local development: serves deterministic
// embeddings and canned structured analyses so the service can run without a
// real model endpoint.

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingData struct {
	Object    string    `json:"object"`
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

type embeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingData `json:"data"`
	Model  string          `json:"model"`
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

// fakeEmbedding derives a deterministic unit vector from the text, so equal
// texts are maximally similar and different texts drift apart.
func fakeEmbedding(text string, dimensions int) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vector := make([]float32, dimensions)
	var norm float64
	for i := range vector {
		seed = seed*6364136223846793005 + 1442695040888963407
		v := float64(int64(seed)) / float64(math.MaxInt64)
		vector[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
	return vector
}

func embeddingsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req embeddingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Error parsing request", http.StatusBadRequest)
		return
	}

	log.Printf("📐 EMBEDDING REQUEST: %d texts, model=%s", len(req.Input), req.Model)

	data := make([]embeddingData, len(req.Input))
	for i, text := range req.Input {
		data[i] = embeddingData{
			Object:    "embedding",
			Index:     i,
			Embedding: fakeEmbedding(text, 768),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(embeddingResponse{
		Object: "list",
		Data:   data,
		Model:  req.Model,
	})
}

func chatCompletionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Error parsing request", http.StatusBadRequest)
		return
	}

	prompt := ""
	if len(req.Messages) > 0 {
		prompt = req.Messages[len(req.Messages)-1].Content
	}

	log.Printf("🧠 ANALYSIS REQUEST: model=%s, prompt=%d bytes", req.Model, len(prompt))

	// Simulate processing time
	time.Sleep(100 * time.Millisecond)

	analysisJSON := `{
    "topic": "Test Conversation",
    "decision_point": "Simulated decision",
    "options": ["Option A", "Option B"],
    "context": "Generated by the local test analysis server",
    "next_steps": ["Continue testing"]
}`

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chatResponse{
		ID:      fmt.Sprintf("chatcmpl-test-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []chatChoice{
			{
				Index:        0,
				Message:      chatMessage{Role: "assistant", Content: analysisJSON},
				FinishReason: "stop",
			},
		},
	})

	log.Printf("✅ ANALYSIS RESPONSE SENT")
}

func main() {
	http.HandleFunc("/v1/embeddings", embeddingsHandler)
	http.HandleFunc("/v1/chat/completions", chatCompletionsHandler)

	port := ":9000"
	log.Printf("🚀 Test Analysis Server starting on port %s", port)
	log.Printf("📡 Embeddings: http://localhost%s/v1/embeddings", port)
	log.Printf("📡 Chat completions: http://localhost%s/v1/chat/completions", port)
	log.Println("💡 Update your config to use endpoint: http://localhost:9000/v1")

	if err := http.ListenAndServe(port, nil); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
