package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
	"wassup/internal/entity"
)

// ChatAPI is the HTTP half of the client, narrow enough for tests to
// fake.
type ChatAPI interface {
	SidebarUsers(ctx context.Context) ([]entity.User, map[string]int, error)
	Conversation(ctx context.Context, peerId string) ([]entity.Message, error)
	Send(ctx context.Context, peerId, text, image string) (entity.Message, error)
	MarkSeen(ctx context.Context, messageId string) error
}

// API talks to the server's REST surface with a bearer token.
type API struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewAPI(baseURL, token string) *API {
	return &API{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *API) SidebarUsers(ctx context.Context) ([]entity.User, map[string]int, error) {
	var out struct {
		Users          []entity.User  `json:"users"`
		UnSeenMessages map[string]int `json:"unSeenMessages"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/messages/users", nil, &out); err != nil {
		return nil, nil, err
	}
	if out.UnSeenMessages == nil {
		out.UnSeenMessages = map[string]int{}
	}
	return out.Users, out.UnSeenMessages, nil
}

func (a *API) Conversation(ctx context.Context, peerId string) ([]entity.Message, error) {
	var out struct {
		Messages []entity.Message `json:"messages"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/messages/"+peerId, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (a *API) Send(ctx context.Context, peerId, text, image string) (entity.Message, error) {
	body := map[string]string{"text": text, "image": image}
	var out struct {
		NewMessage entity.Message `json:"newMessage"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/messages/send/"+peerId, body, &out); err != nil {
		return entity.Message{}, err
	}
	return out.NewMessage, nil
}

func (a *API) MarkSeen(ctx context.Context, messageId string) error {
	return a.do(ctx, http.MethodPut, "/api/messages/mark/"+messageId, nil, nil)
}

// do sends the request and unwraps the {success, message, ...}
// envelope; success=false becomes an error carrying the server
// message.
func (a *API) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return err
	}
	if !envelope.Success {
		if envelope.Message == "" {
			envelope.Message = "request failed"
		}
		return errors.New(envelope.Message)
	}

	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}
