package http

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// uploadFieldName is the multipart form field carrying CSV files. The
// field repeats, one part per file.
const uploadFieldName = "files"

// uploadFile is one CSV file extracted from a multipart request.
type uploadFile struct {
	Filename string
	Data     []byte
}

// uploadTooLargeError reports a single part exceeding the upload limit.
type uploadTooLargeError struct {
	Filename string
	Limit    int64
}

func (e *uploadTooLargeError) Error() string {
	return fmt.Sprintf("file %s exceeds the %d byte upload limit", e.Filename, e.Limit)
}

// parseMultipartUploads streams the request body and collects every
// file part named "files". Each part is capped at maxBytes; the first
// oversized part aborts with an *uploadTooLargeError. Parts under any
// other name and non-file parts are skipped.
func parseMultipartUploads(r *http.Request, maxBytes int64) ([]uploadFile, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("read multipart body: %w", err)
	}

	var files []uploadFile
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read multipart part: %w", err)
		}
		if part.FormName() != uploadFieldName || part.FileName() == "" {
			continue
		}

		name := filepath.Base(part.FileName())
		data, err := io.ReadAll(io.LimitReader(part, maxBytes+1))
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", name, err)
		}
		if int64(len(data)) > maxBytes {
			return nil, &uploadTooLargeError{Filename: name, Limit: maxBytes}
		}

		files = append(files, uploadFile{Filename: name, Data: data})
	}

	return files, nil
}

// parseMonthPath validates a "YYYY-MM" month path segment.
func parseMonthPath(raw string) (string, error) {
	month := strings.TrimSpace(raw)
	if _, err := time.Parse("2006-01", month); err != nil {
		return "", fmt.Errorf("invalid month %q: expected YYYY-MM", raw)
	}
	return month, nil
}

// uploadsDigest derives a cache key from the uploaded payload set. The
// digest covers file contents only, so the same files produce the same
// key regardless of part order or filenames.
func uploadsDigest(uploads []uploadFile) string {
	sums := make([]string, 0, len(uploads))
	for _, up := range uploads {
		sum := sha256.Sum256(up.Data)
		sums = append(sums, hex.EncodeToString(sum[:]))
	}
	sort.Strings(sums)

	combined := sha256.Sum256([]byte(strings.Join(sums, "\n")))
	return hex.EncodeToString(combined[:])
}
