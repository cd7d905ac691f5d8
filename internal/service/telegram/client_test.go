package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"sigmapips/internal/domain/service"
	"sigmapips/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestSendTextIncludesKeyboard(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":true,"result":{}}`)
	}))
	defer srv.Close()

	bot, err := NewBot(testLogger(t), "token123", WithAPIURL(srv.URL))
	if err != nil {
		t.Fatalf("new bot: %v", err)
	}

	buttons := [][]service.Button{
		{{Label: "📊 Technical Analysis", Callback: "analysis_EURUSD"}},
	}
	if err := bot.SendText(context.Background(), 42, "hello", buttons); err != nil {
		t.Fatalf("send text: %v", err)
	}

	if gotPath != "/bottoken123/sendMessage" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotBody["text"] != "hello" {
		t.Fatalf("unexpected text %v", gotBody["text"])
	}
	if gotBody["chat_id"] != float64(42) {
		t.Fatalf("unexpected chat_id %v", gotBody["chat_id"])
	}

	markup, ok := gotBody["reply_markup"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing reply_markup")
	}
	rows := markup["inline_keyboard"].([]interface{})
	btn := rows[0].([]interface{})[0].(map[string]interface{})
	if btn["callback_data"] != "analysis_EURUSD" {
		t.Fatalf("unexpected callback data %v", btn["callback_data"])
	}
}

func TestSendPhotoMultipart(t *testing.T) {
	photo := []byte{0x89, 'P', 'N', 'G', 0x01, 0x02}
	var gotChatID string
	var gotPhoto []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotChatID = r.FormValue("chat_id")
		f, _, err := r.FormFile("photo")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			gotPhoto, _ = io.ReadAll(f)
			f.Close()
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":true,"result":{}}`)
	}))
	defer srv.Close()

	bot, err := NewBot(testLogger(t), "token123", WithAPIURL(srv.URL))
	if err != nil {
		t.Fatalf("new bot: %v", err)
	}

	if err := bot.SendPhoto(context.Background(), 7, photo, "EURUSD 15m", nil); err != nil {
		t.Fatalf("send photo: %v", err)
	}

	if gotChatID != "7" {
		t.Fatalf("unexpected chat_id %q", gotChatID)
	}
	if !bytes.Equal(gotPhoto, photo) {
		t.Fatalf("photo bytes mismatch")
	}
}

func TestAPIErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":false,"description":"Bad Request: chat not found","error_code":400}`)
	}))
	defer srv.Close()

	bot, err := NewBot(testLogger(t), "token123", WithAPIURL(srv.URL))
	if err != nil {
		t.Fatalf("new bot: %v", err)
	}

	if err := bot.SendText(context.Background(), 1, "hi", nil); err == nil {
		t.Fatalf("expected error for ok=false response")
	}
}
