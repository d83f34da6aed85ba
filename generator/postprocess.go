package generator

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

const fence = "```"

// ParseResponse 去掉代码块围栏后严格解析 JSON 对象。
// 解析失败返回包装了 ErrMalformedResponse 的错误，由调用方决定是否修复重试。
func ParseResponse(raw string) (Result, error) {
	text := stripCodeFences(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: null", ErrMalformedResponse)
	}
	return Result(out), nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, fence) {
		return s
	}
	body := s[len(fence):]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && isFenceTag(body[:nl]) {
		body = body[nl+1:]
	} else {
		// single-line fence: ```json {...}```
		rest := strings.TrimLeftFunc(body, unicode.IsLetter)
		if rest != body && (strings.HasPrefix(rest, " ") || strings.HasPrefix(rest, "{") || strings.HasPrefix(rest, "[")) {
			body = rest
		}
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, fence)
	return strings.TrimSpace(body)
}

func isFenceTag(line string) bool {
	line = strings.TrimSpace(line)
	for _, r := range line {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return false
		}
	}
	return true
}
