package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"net/url"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/medicos-drona/drona-frontend-sub001/core/paper"
)

const (
	xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfType  = "application/pdf"
)

func attachmentFilename(t *testing.T, header string) string {
	t.Helper()
	disposition, params, err := mime.ParseMediaType(header)
	require.NoError(t, err, header)
	assert.Equal(t, "attachment", disposition)
	return params["filename"]
}

func TestHome(t *testing.T) {
	app := setup(t, false)
	req, rec := newRequest(http.MethodGet, "/")
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome")
}

func Test_exportApi_answersExcel(t *testing.T) {
	app := setup(t, false)
	body := []byte(`{"title": "Test Paper", "filename": "test-paper-key.xlsx",
		"questions": [{"question": "Q1", "options": ["a", "b"], "answer": "b"}]}`)

	req, rec := newRequest(http.MethodPost, "/api/exports/answers-excel", body)
	app.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxType, rec.Header().Get("Content-Type"))
	assert.Equal(t, "test-paper-key.xlsx", attachmentFilename(t, rec.Header().Get("Content-Disposition")))
	assert.Equal(t, "false", rec.Header().Get("X-Export-Cached"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Answer Key")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Test Paper", rows[0][0])
	assert.Equal(t, []string{"General", "1", "B"}, rows[2])
}

func Test_exportApi_pdf(t *testing.T) {
	app := setup(t, false)
	body := []byte(`{"title": "Physics Unit Test", "questions": [{"question": "What is 1/2 + 1/4?", "options": ["3/4", "1"], "answer": "3/4"}]}`)

	for _, kind := range []string{"questions-pdf", "solutions-pdf"} {
		t.Run(kind, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/exports/"+kind, body)
			app.server.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, pdfType, rec.Header().Get("Content-Type"))
			assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
			assert.Equal(t, "false", rec.Header().Get("X-Export-Cached"))
		})
	}

	t.Run("slug filename", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/exports/solutions-pdf", body)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, "physics-unit-test-solutions.pdf", attachmentFilename(t, rec.Header().Get("Content-Disposition")))
	})

	t.Run("identical request is served from the cache", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/exports/questions-pdf", body)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "true", rec.Header().Get("X-Export-Cached"))
	})

	t.Run("non ascii filename", func(t *testing.T) {
		named := []byte(`{"title": "T", "filename": "Physik-Prüfung.pdf", "questions": [{"question": "Q1"}]}`)
		req, rec := newRequest(http.MethodPost, "/api/exports/questions-pdf", named)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "Physik-Prüfung.pdf", attachmentFilename(t, rec.Header().Get("Content-Disposition")))
	})
}

func Test_exportApi_validation(t *testing.T) {
	app := setup(t, false)

	tests := []httpTest{
		{
			name: "title required", path: "/api/exports/questions-pdf",
			body:     []byte(`{"questions": [{"question": "Q1"}]}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"title": "this field is required"}),
		},
		{
			name: "blank title", path: "/api/exports/questions-pdf",
			body:     []byte(`{"title": "   ", "questions": [{"question": "Q1"}]}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"title": "this field is required"}),
		},
		{
			name: "no questions", path: "/api/exports/answers-excel",
			body:     []byte(`{"title": "Empty", "sections": [{"name": "Physics"}]}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"questions": paper.ErrNoQuestions.Error()}),
		},
		{
			name: "filename with a path", path: "/api/exports/answers-excel",
			body:     []byte(`{"title": "T", "filename": "../etc/passwd", "questions": [{"question": "Q1"}]}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"filename": "filename must not contain path separators or control characters"}),
		},
		{
			name: "malformed json", path: "/api/exports/questions-pdf",
			body: []byte(`{"title": `), wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown route", path: "/api/exports/word-doc",
			body: []byte(`{}`), wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, tt.path, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_exportApi_exportByID(t *testing.T) {
	app := setup(t, false)

	tests := []httpTest{
		{
			name: "unknown paper", path: "/api/papers/nope/exports/questions-pdf", token: validToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "question paper not found"}),
		},
		{
			name: "backend refuses the token", path: "/api/papers/p1/exports/questions-pdf", token: "expired",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "not allowed to read this question paper"}),
		},
		{
			name: "unknown kind", path: "/api/papers/p1/exports/word-doc", token: validToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "unknown export kind"}),
		},
		{
			name: "backend failure", path: "/api/papers/broken/exports/questions-pdf", token: validToken,
			wantCode: http.StatusInternalServerError, wantData: marchallObj(t, httpErr{Error: "Internal Server Error"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, tt.path, tt.token)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("fetches and exports", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/papers/p1/exports/answers-excel?filename=key.xlsx", validToken)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "key.xlsx", attachmentFilename(t, rec.Header().Get("Content-Disposition")))

		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer func() { _ = f.Close() }()
		answers, err := f.GetCellValue("Answer Key", "C3")
		require.NoError(t, err)
		assert.Equal(t, "B", answers)
		answers, err = f.GetCellValue("Answer Key", "C4")
		require.NoError(t, err)
		assert.Equal(t, "A", answers)
	})

	t.Run("options from the body", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/papers/p1/exports/questions-pdf", validToken, []byte(`{"watermark": "DRAFT"}`))
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "physics-unit-test.pdf", attachmentFilename(t, rec.Header().Get("Content-Disposition")))
	})
}

type failingAssembler struct{}

func (failingAssembler) Assemble(context.Context, paper.Metadata, []paper.PreparedQuestion) ([]byte, error) {
	return nil, errors.New("font file is corrupt")
}

func Test_exportApi_assemblyFailure(t *testing.T) {
	app := setup(t, false, withAssembler(paper.KindSolutionsPDF, failingAssembler{}))
	body := []byte(`{"title": "Test Paper", "questions": [{"question": "Q1", "options": ["a", "b"], "answer": "b"}]}`)

	tt := httpTest{
		wantCode: http.StatusInternalServerError,
		wantData: marchallObj(t, httpErr{Error: "Internal Server Error"}),
	}
	req, rec := newRequest(http.MethodPost, "/api/exports/solutions-pdf", body)
	app.server.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.NotContains(t, rec.Body.String(), "font file")

	// the other kinds keep working
	req, rec = newRequest(http.MethodPost, "/api/exports/questions-pdf", body)
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_exportApi_preview(t *testing.T) {
	app := setup(t, false)
	body := []byte(`{"title": "Mock", "sections": [
		{"name": "Physics", "questions": [{"question": "1/2 of <img src=\"data:image/png;base64,xx\">?", "options": ["a", "b"], "answer": "b"}]},
		{"name": "Chemistry", "questions": [{"question": "H2O?"}]}
	]}`)

	req, rec := newRequest(http.MethodPost, "/api/papers/preview", body)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var preview paper.Preview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.Equal(t, "Mock", preview.Title)
	assert.Equal(t, []string{"Physics", "Chemistry"}, preview.Subjects)
	require.Len(t, preview.Questions, 2)
	assert.Equal(t, 2, preview.Questions[1].Number)
	assert.Equal(t, "B", preview.Questions[0].Answer)
	assert.NotContains(t, preview.Questions[0].Question.Text, "<img")
}

func Test_exportApi_history(t *testing.T) {
	app := setup(t, false)
	export := func(kind, title string) {
		body := []byte(`{"title": "` + title + `", "questions": [{"question": "Q1", "options": ["a", "b"], "answer": "a"}]}`)
		req, rec := newRequest(http.MethodPost, "/api/exports/"+kind, body)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	export("answers-excel", "Chemistry Mock")
	export("questions-pdf", "Physics Test")

	query := func(v url.Values) []paper.ExportRecord {
		req, rec := newRequest(http.MethodGet, "/api/exports?"+v.Encode())
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var records []paper.ExportRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
		return records
	}

	all := query(url.Values{"ordering": {"title"}})
	require.Len(t, all, 2)
	assert.Equal(t, "Chemistry Mock", all[0].Title)
	assert.Equal(t, "Physics Test", all[1].Title)

	excel := query(url.Values{"kind": {"answers-excel"}})
	require.Len(t, excel, 1)
	assert.Equal(t, paper.KindAnswersExcel, excel[0].Kind)
	assert.Equal(t, "chemistry-mock-answer-key.xlsx", excel[0].Filename)
	assert.Equal(t, 1, excel[0].Questions)

	assert.Len(t, query(url.Values{"search": {"PHYSICS"}}), 1)
	assert.Len(t, query(url.Values{"created_to": {"2000-01-01"}}), 0)
	assert.Len(t, query(url.Values{"kind": {"unknown"}}), 2, "unknown kinds are ignored")

	tt := httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"created_from": "invalid date, expected RFC 3339"}),
	}
	req, rec := newRequest(http.MethodGet, "/api/exports?created_from=yesterday")
	app.server.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)

	req, rec = newRequest(http.MethodGet, "/api/exports?paper_id=none")
	app.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`[]`)}, rec)
}

func Test_exportApi_auth(t *testing.T) {
	app := setup(t, true)
	body := []byte(`{"title": "Test Paper", "questions": [{"question": "Q1", "options": ["a", "b"], "answer": "b"}]}`)
	teacherToken := getToken(t, "teacher1", "teacher")
	adminToken := getToken(t, "admin1", "admin")

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: "/api/exports/answers-excel", body: body,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "missing or malformed jwt"}),
		},
		{
			name: "teacher exports", method: http.MethodPost, path: "/api/exports/answers-excel", body: body,
			token: teacherToken, wantCode: http.StatusOK,
		},
		{
			name: "history needs admin", method: http.MethodGet, path: "/api/exports", token: teacherToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	req, rec := newAuthRequest(http.MethodGet, "/api/exports", adminToken)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var records []paper.ExportRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "teacher1", records[0].CreatedBy)
}
