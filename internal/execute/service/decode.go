package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"codetrainer/internal/execute/model"
	appErr "codetrainer/pkg/errors"
)

// decodeCode prefers raw code over the base64 form.
func decodeCode(req model.ExecutionRequest) (string, error) {
	if req.Code != nil {
		return *req.Code, nil
	}
	if req.CodeB64 == nil {
		return "", appErr.New(appErr.CodeRequired)
	}
	raw, err := decodeBase64Lenient(*req.CodeB64)
	if err != nil {
		return "", appErr.Wrapf(err, appErr.CodeDecodeFailed, "codeB64 parse failed: %v", err)
	}
	if !utf8.Valid(raw) {
		return "", appErr.New(appErr.CodeDecodeFailed).WithMessage("codeB64 parse failed: invalid UTF-8 sequence")
	}
	return string(raw), nil
}

// decodeBase64Lenient decodes standard base64 while skipping every byte
// outside the alphabet. Padding only counts once at least two data
// characters of a quantum are in; a completed pad ends the input and
// anything after it is ignored.
func decodeBase64Lenient(s string) ([]byte, error) {
	var data strings.Builder
	data.Grow(len(s))
	quad, pads := 0, 0
scan:
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '=':
			if quad >= 2 {
				pads++
				if quad+pads >= 4 {
					break scan
				}
			}
		case isBase64Alphabet(c):
			data.WriteByte(c)
			quad = (quad + 1) % 4
			pads = 0
		}
	}

	if data.Len()%4 == 1 {
		return nil, fmt.Errorf("Invalid base64-encoded string: number of data characters (%d) cannot be 1 more than a multiple of 4", data.Len())
	}
	if quad != 0 && quad+pads < 4 {
		return nil, errors.New("Incorrect padding")
	}
	return base64.RawStdEncoding.DecodeString(data.String())
}

func isBase64Alphabet(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '+' || c == '/'
}
