package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"

	apperrors "esgcli/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readDelimited reads a comma separated file, falling back to GBK once
// when the bytes are not valid UTF-8.
func (l *Loader) readDelimited(ctx context.Context, path string) ([][]string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}

	text, encoding, err := decodeText(data)
	if err != nil {
		return nil, "", err
	}
	if encoding == EncodingGBK {
		l.logger.WarnContext(ctx, "Input is not valid UTF-8, decoded as GBK",
			slog.String("file", filepath.Base(path)))
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, "", fmt.Errorf("malformed csv: %w", err)
	}
	return records, encoding, nil
}

// decodeText returns data as a string and the encoding it was read with.
// A GBK decode that produces replacement characters counts as a failure.
func decodeText(data []byte) (string, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), EncodingUTF8, nil
	}

	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", apperrors.ErrEncodingFailed, err)
	}
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", "", apperrors.ErrEncodingFailed
	}
	return string(decoded), EncodingGBK, nil
}
