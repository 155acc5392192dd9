package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	client := NewClient(server.Client(), "test-token", logger)
	client.baseURL = server.URL
	return client
}

// TestClient_SendMessage はsendMessageが正しいペイロードで呼ばれることを検証する。
func TestClient_SendMessage(t *testing.T) {
	var gotPath string
	var gotPayload map[string]interface{}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("ペイロードのデコードに失敗した: %v", err)
		}
		w.Write([]byte(`{"ok": true, "result": {}}`))
	})

	err := client.SendMessage(context.Background(), "12345", "<b>Hello</b>")
	if err != nil {
		t.Fatalf("SendMessage がエラーを返した: %v", err)
	}

	if gotPath != "/bottest-token/sendMessage" {
		t.Errorf("リクエストパス = %q", gotPath)
	}
	if gotPayload["chat_id"] != "12345" {
		t.Errorf("chat_id = %v", gotPayload["chat_id"])
	}
	if gotPayload["text"] != "<b>Hello</b>" {
		t.Errorf("text = %v", gotPayload["text"])
	}
	if gotPayload["parse_mode"] != "HTML" {
		t.Errorf("parse_mode = %v, want HTML", gotPayload["parse_mode"])
	}
	if gotPayload["disable_web_page_preview"] != true {
		t.Error("disable_web_page_preview = true が設定されるべき")
	}
}

// TestClient_SendMessage_APIError はok=falseの応答がエラーになることを検証する。
func TestClient_SendMessage_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": false, "description": "Bad Request: chat not found"}`))
	})

	err := client.SendMessage(context.Background(), "12345", "hello")
	if err == nil {
		t.Fatal("ok=false の応答でエラーが返るべき")
	}
}

// TestClient_GetUpdates は更新の取得とoffsetの送信を検証する。
func TestClient_GetUpdates(t *testing.T) {
	var gotPayload map[string]interface{}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Write([]byte(`{"ok": true, "result": [
			{"update_id": 100, "message": {"text": "hello", "date": 1717300000, "chat": {"id": 111}}},
			{"update_id": 101, "message": {"text": "Info Lavender", "date": 1717300100, "chat": {"id": 222}}}
		]}`))
	})

	updates, err := client.GetUpdates(context.Background(), 100)
	if err != nil {
		t.Fatalf("GetUpdates がエラーを返した: %v", err)
	}

	if gotPayload["offset"] != float64(100) {
		t.Errorf("offset = %v, want 100", gotPayload["offset"])
	}
	if len(updates) != 2 {
		t.Fatalf("更新件数 = %d, want 2", len(updates))
	}
	if updates[0].UpdateID != 100 || updates[0].Message.Text != "hello" {
		t.Errorf("1件目の更新が不正: %+v", updates[0])
	}
	if updates[1].Message.Chat.ID != 222 {
		t.Errorf("2件目のchat.id = %d, want 222", updates[1].Message.Chat.ID)
	}
}

// TestClient_GetUpdates_ZeroOffset は初回取得でoffsetが送信されないことを検証する。
func TestClient_GetUpdates_ZeroOffset(t *testing.T) {
	var gotPayload map[string]interface{}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Write([]byte(`{"ok": true, "result": []}`))
	})

	updates, err := client.GetUpdates(context.Background(), 0)
	if err != nil {
		t.Fatalf("GetUpdates がエラーを返した: %v", err)
	}
	if len(updates) != 0 {
		t.Errorf("更新件数 = %d, want 0", len(updates))
	}
	if _, ok := gotPayload["offset"]; ok {
		t.Error("offset=0 のときはoffsetを送信しない")
	}
}

// TestClient_GetMe は疎通確認の応答がパースされることを検証する。
func TestClient_GetMe(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": true, "result": {"id": 42, "username": "aroma_bot"}}`))
	})

	info, err := client.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe がエラーを返した: %v", err)
	}
	if info.ID != 42 || info.Username != "aroma_bot" {
		t.Errorf("BotInfo = %+v", info)
	}
}

func TestClient_GetMe_InvalidToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": false, "description": "Unauthorized"}`))
	})

	if _, err := client.GetMe(context.Background()); err == nil {
		t.Fatal("認証失敗でエラーが返るべき")
	}
}
