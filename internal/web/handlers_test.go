package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/On-Jun9/ShutterRename/internal/config"
)

// decodeAPIErrorResponse는 테스트 코드 동작을 검증하거나 보조합니다.
func decodeAPIErrorResponse(t *testing.T, rr *httptest.ResponseRecorder) APIErrorResponse {
	t.Helper()

	var response APIErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode APIErrorResponse: %v", err)
	}
	return response
}

// decodeValidationErrorResponse는 테스트 코드 동작을 검증하거나 보조합니다.
func decodeValidationErrorResponse(t *testing.T, rr *httptest.ResponseRecorder) ValidationError {
	t.Helper()

	var response ValidationError
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode ValidationError: %v", err)
	}
	return response
}

// jsonBody는 테스트 코드 동작을 검증하거나 보조합니다.
func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	return bytes.NewReader(data)
}

// setupHome는 테스트 코드 동작을 검증하거나 보조합니다.
func setupHome(t *testing.T) string {
	t.Helper()

	home := filepath.Join(t.TempDir(), "home")
	t.Setenv(config.HomeEnv, home)
	return home
}

// writePhotos는 테스트 코드 동작을 검증하거나 보조합니다.
func writePhotos(t *testing.T, dir string, names ...string) {
	t.Helper()

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create photo dir: %v", err)
	}
	mtime := time.Date(2024, 1, 2, 10, 0, 0, 0, time.Local)
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("photo-"+name), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("failed to set mtime on %s: %v", name, err)
		}
	}
}

// TestHandleFiles_ReturnsBadRequestOnInvalidJSON는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHandleFiles_ReturnsBadRequestOnInvalidJSON(t *testing.T) {
	// 요청 바디 파싱 실패는 400 + JSON 에러 응답이어야 한다.
	setupHome(t)
	s := &Server{}
	req := httptest.NewRequest(http.MethodPost, "/api/files", strings.NewReader("{"))
	rr := httptest.NewRecorder()

	s.handleFiles(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected application/json, got %s", rr.Header().Get("Content-Type"))
	}
	if decodeAPIErrorResponse(t, rr).Message == "" {
		t.Fatal("expected error message")
	}
}

// TestHandleFiles_ReturnsValidationErrors는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHandleFiles_ReturnsValidationErrors(t *testing.T) {
	// 잘못된 요청은 400 + {field,message} 포맷이어야 한다.
	setupHome(t)
	dir := t.TempDir()

	tests := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{"missing source", map[string]interface{}{}, "source"},
		{"bad policy", map[string]interface{}{"dir": dir, "conflict_policy": "overwrite"}, "conflict_policy"},
		{"bad language", map[string]interface{}{"dir": dir, "language": "fr"}, "language"},
		{"malicious template", map[string]interface{}{"dir": dir, "template": "<script>"}, "template"},
		{"template leaving the folder", map[string]interface{}{"dir": dir, "template": "../{YYYY}"}, "template"},
		{"template with subfolder", map[string]interface{}{"dir": dir, "template": "sub/{YYYY}"}, "template"},
	}

	s := &Server{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/files", jsonBody(t, tt.body))
			rr := httptest.NewRecorder()

			s.handleFiles(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rr.Code)
			}
			response := decodeValidationErrorResponse(t, rr)
			if response.Field != tt.field {
				t.Fatalf("expected field %s, got %s", tt.field, response.Field)
			}
			if response.Message == "" {
				t.Fatal("expected validation message")
			}
		})
	}
}

// TestHandleRename_ReturnsConflictWhenAlreadyRunning는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHandleRename_ReturnsConflictWhenAlreadyRunning(t *testing.T) {
	// 이름 변경이 진행 중이면 409 JSON 에러를 반환하고 guard를 유지해야 한다.
	s := &Server{}
	if !s.guard.TryAcquire() {
		t.Fatal("expected to acquire guard")
	}
	defer s.guard.Release()

	req := httptest.NewRequest(http.MethodPost, "/api/rename", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()

	s.handleRename(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
	if msg := decodeAPIErrorResponse(t, rr).Message; msg != "Rename already in progress" {
		t.Fatalf("unexpected message: %s", msg)
	}
	if !s.guard.Busy() {
		t.Fatal("rejected request must not release the running batch's guard")
	}
}

// TestHandleRename_ConflictMessageIsLocalized는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHandleRename_ConflictMessageIsLocalized(t *testing.T) {
	// lang=ko 쿼리면 409 메시지도 한국어여야 한다.
	s := &Server{}
	s.guard.TryAcquire()
	defer s.guard.Release()

	req := httptest.NewRequest(http.MethodPost, "/api/rename?lang=ko", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()

	s.handleRename(rr, req)

	if msg := decodeAPIErrorResponse(t, rr).Message; msg != "이미 이름 변경이 진행 중입니다" {
		t.Fatalf("unexpected message: %s", msg)
	}
}

// TestHandleRename_ReleasesGuardOnBadRequest는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHandleRename_ReleasesGuardOnBadRequest(t *testing.T) {
	// 요청 검증에 실패하면 guard를 즉시 해제해야 다음 요청이 가능하다.
	setupHome(t)
	s := &Server{}

	for _, body := range []string{"{", `{}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/rename", strings.NewReader(body))
		rr := httptest.NewRecorder()

		s.handleRename(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected status 400, got %d", body, rr.Code)
		}
		if s.guard.Busy() {
			t.Fatalf("%s: guard must be released after a rejected request", body)
		}
	}
}

// TestHandleRename_RejectsTemplateOutsideFolder는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHandleRename_RejectsTemplateOutsideFolder(t *testing.T) {
	// 폴더 밖을 가리키는 템플릿은 이름 변경을 시작하지 않고 400(field=template)이어야 한다.
	setupHome(t)
	parent := t.TempDir()
	dir := filepath.Join(parent, "batch")
	writePhotos(t, dir, "a.jpg")

	s := &Server{hub: NewHub()}
	req := httptest.NewRequest(http.MethodPost, "/api/rename", jsonBody(t, map[string]interface{}{
		"dir":      dir,
		"template": "../{YYYY}",
	}))
	rr := httptest.NewRecorder()

	s.handleRename(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if field := decodeValidationErrorResponse(t, rr).Field; field != "template" {
		t.Fatalf("expected field template, got %s", field)
	}
	if s.guard.Busy() {
		t.Fatal("guard must be released after a rejected template")
	}
	if _, err := os.Stat(filepath.Join(dir, "a.jpg")); err != nil {
		t.Fatalf("file must stay in place: %v", err)
	}
	if _, err := os.Stat(filepath.Join(parent, "2024")); !os.IsNotExist(err) {
		t.Fatalf("nothing may be written outside the folder, stat err=%v", err)
	}
}

// TestHandleBrowse_ReturnsNotFoundForMissingPath는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHandleBrowse_ReturnsNotFoundForMissingPath(t *testing.T) {
	// 존재하지 않는 경로 탐색은 404 JSON 에러로 응답해야 한다.
	s := &Server{}
	missingPath := filepath.Join(t.TempDir(), "does-not-exist")
	req := httptest.NewRequest(
		http.MethodGet,
		"/api/browse?path="+url.QueryEscape(missingPath),
		nil,
	)
	rr := httptest.NewRecorder()

	s.handleBrowse(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected application/json, got %s", rr.Header().Get("Content-Type"))
	}
	if decodeAPIErrorResponse(t, rr).Message == "" {
		t.Fatal("expected error message")
	}
}

// TestHandleSaveSettings_ReturnsValidationError는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHandleSaveSettings_ReturnsValidationError(t *testing.T) {
	// 설정 저장 API도 ValidationError를 그대로 JSON으로 내려야 한다.
	setupHome(t)
	s := &Server{}

	req := httptest.NewRequest(
		http.MethodPost,
		"/api/settings",
		strings.NewReader(`{"template":"<script>alert(1)</script>","language":"en"}`),
	)
	rr := httptest.NewRecorder()

	s.handleSaveSettings(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	response := decodeValidationErrorResponse(t, rr)
	if response.Field != "template" {
		t.Fatalf("expected field template, got %s", response.Field)
	}
}

// TestHandleSavePreset_ReturnsValidationError는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHandleSavePreset_ReturnsValidationError(t *testing.T) {
	// 프리셋 이름이 경로를 벗어나면 field=name 검증 에러여야 한다.
	setupHome(t)
	s := &Server{}

	req := httptest.NewRequest(
		http.MethodPost,
		"/api/presets",
		strings.NewReader(`{"name":"../escape","template":"{YYYY}"}`),
	)
	rr := httptest.NewRecorder()

	s.handleSavePreset(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	response := decodeValidationErrorResponse(t, rr)
	if response.Field != "name" {
		t.Fatalf("expected field name, got %s", response.Field)
	}
}
