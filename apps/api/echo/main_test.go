package echoapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/medicos-drona/drona-frontend-sub001/apps/api/echo"
	"github.com/medicos-drona/drona-frontend-sub001/core"
	"github.com/medicos-drona/drona-frontend-sub001/core/paper"
	"github.com/medicos-drona/drona-frontend-sub001/services/backend"
	"github.com/medicos-drona/drona-frontend-sub001/services/excel"
	logsvc "github.com/medicos-drona/drona-frontend-sub001/services/logger"
	"github.com/medicos-drona/drona-frontend-sub001/services/pdf"
	inmemcache "github.com/medicos-drona/drona-frontend-sub001/storage/cache/inmem"
	dummydb "github.com/medicos-drona/drona-frontend-sub001/storage/database/dummy"
)

const (
	secretKey  = "test-secret"
	validToken = "backend-token"
)

const backendPaper = `{"data": {
	"_id": "p1",
	"title": "Physics Unit Test",
	"duration": "45",
	"totalMarks": 8,
	"questions": [
		{"_id": "q1", "question": "What is $\\frac{1}{2}$ of 4?", "options": ["1", "2"], "answer": "2", "marks": 4},
		{"_id": "q2", "question": "SI unit of force?", "options": ["Newton", "Joule"], "answer": "A", "marks": 4}
	]
}}`

// setupOption replaces collaborators of the test server.
type setupOption func(assemblers map[paper.Kind]paper.Assembler)

func withAssembler(kind paper.Kind, asm paper.Assembler) setupOption {
	return func(assemblers map[paper.Kind]paper.Assembler) {
		assemblers[kind] = asm
	}
}

type testApp struct {
	server  *echoapi.Server
	repo    paper.Repository
	backend *httptest.Server
}

func setup(t *testing.T, authRequired bool, opts ...setupOption) testApp {
	t.Helper()

	conf := &core.Config{Env: "TEST", TestMode: true, SecretKey: secretKey}
	conf.Auth.Required = authRequired
	conf.Server.DisableReqLogs = true
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Header.Get("Authorization") != "Bearer "+validToken:
			w.WriteHeader(http.StatusUnauthorized)
		case r.URL.Path == "/question-papers/p1":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(backendPaper))
		case r.URL.Path == "/question-papers/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	client, err := backend.NewClient(upstream.URL, time.Second, logger)
	mustNotFail(t, err)

	questionsPDF, err := pdf.NewQuestions(logger)
	mustNotFail(t, err)
	solutionsPDF, err := pdf.NewSolutions(logger)
	mustNotFail(t, err)
	answerKey, err := excel.NewAnswerKey(logger)
	mustNotFail(t, err)

	db, err := dummydb.Open()
	mustNotFail(t, err)
	repo := dummydb.NewExportRepository(db)

	assemblers := map[paper.Kind]paper.Assembler{
		paper.KindQuestionsPDF: questionsPDF,
		paper.KindSolutionsPDF: solutionsPDF,
		paper.KindAnswersExcel: answerKey,
	}
	for _, opt := range opts {
		opt(assemblers)
	}

	svc, err := paper.NewService(
		assemblers,
		repo,
		client,
		logger,
		paper.WithCache(inmemcache.New(time.Minute)),
	)
	mustNotFail(t, err)

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		ExportSvc:  svc,
		Validate:   validate,
		Translator: translator,
	})
	return testApp{server: server, repo: repo, backend: upstream}
}

func mustNotFail(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, username string, roles ...string) string {
	claims := &echoapi.Claims{Username: username, Roles: roles}
	claims.Subject = username + "-id"
	claims.ExpiresAt = time.Now().Add(time.Hour).Unix()
	token, err := echoapi.GenerateToken(secretKey, claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
