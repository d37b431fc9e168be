package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/askrelay/chatgpt-ask-service/pkg/domain"
)

func TestBuildMessagesTextOnly(t *testing.T) {
	prompt := domain.Prompt{Question: "What is a contract?"}

	messages := buildMessages(prompt)

	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != openai.ChatMessageRoleSystem || messages[0].Content != systemPrompt {
		t.Errorf("unexpected system message: %+v", messages[0])
	}
	if messages[1].Role != openai.ChatMessageRoleUser || messages[1].Content != "What is a contract?" {
		t.Errorf("unexpected user message: %+v", messages[1])
	}
}

func TestBuildMessagesWithImage(t *testing.T) {
	tests := []struct {
		name     string
		question string
		wantText string
	}{
		{"with question", "What is this?", "What is this?"},
		{"without question", "", defaultImageQuestion},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			prompt := domain.Prompt{Question: test.question, ImageURL: "https://example.com/cat.png"}

			messages := buildMessages(prompt)

			if len(messages) != 1 {
				t.Fatalf("expected 1 message, got %d", len(messages))
			}
			if messages[0].Role != openai.ChatMessageRoleUser {
				t.Errorf("unexpected role: %v", messages[0].Role)
			}
			parts := messages[0].MultiContent
			if len(parts) != 2 {
				t.Fatalf("expected 2 content parts, got %d", len(parts))
			}
			if parts[0].Type != openai.ChatMessagePartTypeText || parts[0].Text != test.wantText {
				t.Errorf("unexpected text part: %+v", parts[0])
			}
			if parts[1].Type != openai.ChatMessagePartTypeImageURL || parts[1].ImageURL == nil ||
				parts[1].ImageURL.URL != "https://example.com/cat.png" {
				t.Errorf("unexpected image part: %+v", parts[1])
			}
		})
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient("", 0); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestChatStreamRelaysFragmentsInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`{"choices":[{"delta":{"role":"assistant"}}]}`, // no content, must be skipped
			`{"choices":[{"delta":{"content":"a"}}]}`,
			`{"choices":[{"delta":{"content":"b"}}]}`,
			`{"choices":[{"delta":{"content":"c"}}]}`,
			`[DONE]`,
		}
		for _, chunk := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
	}))
	defer srv.Close()

	stream, err := newTestClient(srv.URL).CreateChatStream(context.Background(), domain.Prompt{Question: "hi"})
	if err != nil {
		t.Fatalf("CreateChatStream() error = %v", err)
	}
	defer stream.Close()

	var got []string
	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Recv() error = %v", err)
		}
		got = append(got, fragment)
	}

	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("fragments = %v, want %v", got, want)
	}
}

func TestChatStreamCancelAbandonsUpstream(t *testing.T) {
	upstreamExited := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(upstreamExited)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"choices":[{"delta":{"content":"a"}}]}`+"\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	stream, err := newTestClient(srv.URL).CreateChatStream(ctx, domain.Prompt{Question: "hi"})
	if err != nil {
		t.Fatalf("CreateChatStream() error = %v", err)
	}
	defer stream.Close()

	if fragment, err := stream.Recv(); err != nil || fragment != "a" {
		t.Fatalf("Recv() = %q, %v, want %q, nil", fragment, err, "a")
	}

	cancelFn()

	if _, err := stream.Recv(); err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("Recv() after cancel error = %v, want a non-EOF error", err)
	}

	select {
	case <-upstreamExited:
	case <-time.After(5 * time.Second):
		t.Fatal("upstream request was not abandoned after cancel")
	}
}

func TestChatStreamTimeoutAbandonsUpstream(t *testing.T) {
	upstreamExited := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(upstreamExited)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"choices":[{"delta":{"content":"a"}}]}`+"\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.timeout = 100 * time.Millisecond

	stream, err := c.CreateChatStream(context.Background(), domain.Prompt{Question: "hi"})
	if err != nil {
		t.Fatalf("CreateChatStream() error = %v", err)
	}
	defer stream.Close()

	if fragment, err := stream.Recv(); err != nil || fragment != "a" {
		t.Fatalf("Recv() = %q, %v, want %q, nil", fragment, err, "a")
	}

	if _, err := stream.Recv(); err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("Recv() after timeout error = %v, want a non-EOF error", err)
	}

	select {
	case <-upstreamExited:
	case <-time.After(5 * time.Second):
		t.Fatal("upstream request was not abandoned after timeout")
	}
}

func TestCreateChatStreamUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid api key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).CreateChatStream(context.Background(), domain.Prompt{Question: "hi"}); err == nil {
		t.Fatal("expected error from upstream")
	}
}

func newTestClient(baseURL string) *client {
	cfg := openai.DefaultConfig("test-token")
	cfg.BaseURL = baseURL + "/v1"
	return &client{api: openai.NewClientWithConfig(cfg)}
}
