package http

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func multipartRequest(t *testing.T, build func(mw *multipart.Writer)) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	build(mw)
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/summarize", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestParseMultipartUploads(t *testing.T) {
	req := multipartRequest(t, func(mw *multipart.Writer) {
		fw, _ := mw.CreateFormFile("files", "a.csv")
		_, _ = fw.Write([]byte("one"))
		fw, _ = mw.CreateFormFile("files", "b.csv")
		_, _ = fw.Write([]byte("two"))
		// Parts under other names and plain fields are skipped.
		fw, _ = mw.CreateFormFile("attachment", "c.csv")
		_, _ = fw.Write([]byte("three"))
		_ = mw.WriteField("files", "not a file")
	})

	uploads, err := parseMultipartUploads(req, 1024)
	if err != nil {
		t.Fatalf("parseMultipartUploads: %v", err)
	}
	if len(uploads) != 2 {
		t.Fatalf("uploads = %d, want 2", len(uploads))
	}
	if uploads[0].Filename != "a.csv" || string(uploads[0].Data) != "one" {
		t.Errorf("first upload = %q/%q, want a.csv/one", uploads[0].Filename, uploads[0].Data)
	}
	if uploads[1].Filename != "b.csv" || string(uploads[1].Data) != "two" {
		t.Errorf("second upload = %q/%q, want b.csv/two", uploads[1].Filename, uploads[1].Data)
	}
}

func TestParseMultipartUploadsStripsPath(t *testing.T) {
	req := multipartRequest(t, func(mw *multipart.Writer) {
		fw, _ := mw.CreateFormFile("files", "../../etc/statements.csv")
		_, _ = fw.Write([]byte("data"))
	})

	uploads, err := parseMultipartUploads(req, 1024)
	if err != nil {
		t.Fatalf("parseMultipartUploads: %v", err)
	}
	if len(uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(uploads))
	}
	if uploads[0].Filename != "statements.csv" {
		t.Errorf("filename = %q, want path stripped to statements.csv", uploads[0].Filename)
	}
}

func TestParseMultipartUploadsOversized(t *testing.T) {
	req := multipartRequest(t, func(mw *multipart.Writer) {
		fw, _ := mw.CreateFormFile("files", "big.csv")
		_, _ = fw.Write(bytes.Repeat([]byte("x"), 100))
	})

	_, err := parseMultipartUploads(req, 10)
	if err == nil {
		t.Fatal("expected error for oversized part")
	}

	var tooLarge *uploadTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("error type = %T, want *uploadTooLargeError", err)
	}
	if tooLarge.Filename != "big.csv" || tooLarge.Limit != 10 {
		t.Errorf("error = %+v, want big.csv with limit 10", tooLarge)
	}
}

func TestParseMultipartUploadsNotMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader("plain body"))
	req.Header.Set("Content-Type", "text/plain")

	if _, err := parseMultipartUploads(req, 1024); err == nil {
		t.Fatal("expected error for non-multipart body")
	}
}

func TestParseMonthPath(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "2024-01", want: "2024-01"},
		{raw: "2024-12", want: "2024-12"},
		{raw: " 2024-05 ", want: "2024-05"},
		{raw: "2024-13", wantErr: true},
		{raw: "2024-0", wantErr: true},
		{raw: "2024-1", wantErr: true},
		{raw: "202401", wantErr: true},
		{raw: "march", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseMonthPath(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseMonthPath(%q) = %q, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseMonthPath(%q): %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("parseMonthPath(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestUploadsDigest(t *testing.T) {
	a := uploadFile{Filename: "a.csv", Data: []byte("alpha")}
	b := uploadFile{Filename: "b.csv", Data: []byte("beta")}

	d1 := uploadsDigest([]uploadFile{a, b})
	d2 := uploadsDigest([]uploadFile{b, a})
	if d1 != d2 {
		t.Error("digest must be independent of part order")
	}

	renamed := uploadFile{Filename: "renamed.csv", Data: []byte("alpha")}
	if d := uploadsDigest([]uploadFile{renamed, b}); d != d1 {
		t.Error("digest must depend on content, not filenames")
	}

	changed := uploadFile{Filename: "a.csv", Data: []byte("alpha2")}
	if d := uploadsDigest([]uploadFile{changed, b}); d == d1 {
		t.Error("digest must change with content")
	}
}
