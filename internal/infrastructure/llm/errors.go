package llm

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	openai "github.com/meguminnnnnnnnn/go-openai"

	apperrors "authorai-api/pkg/errors"
)

// OpenAI 兼容客户端的错误文本形如
// "error, status code: 422, status: 422 Unprocessable Entity, message: ..., body: ..."
var (
	statusCodeRe = regexp.MustCompile(`status code: (\d{3})`)
	messageRe    = regexp.MustCompile(`message: (.*?)(?:, body: |$)`)
	bodyRe       = regexp.MustCompile(`body: (.*)$`)
)

// ProviderStatus 从错误中提取服务端 HTTP 状态码，无法识别时返回 0
func ProviderStatus(err error) int {
	if err == nil {
		return 0
	}
	m := statusCodeRe.FindStringSubmatch(err.Error())
	if len(m) < 2 {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}

// IsUnprocessable 服务端是否以 422 拒绝了请求内容
func IsUnprocessable(err error) bool {
	return ProviderStatus(err) == http.StatusUnprocessableEntity
}

// ProviderDetail 提取服务端返回的错误详情
// 统一为 OpenAI 的 {"error": {...}} 形状：错误链中有 APIError 时保留其 type/code/param，
// 文本中带 JSON body 时原样返回，否则只重建 message
func ProviderDetail(err error) any {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if b, mErr := json.Marshal(apiErr); mErr == nil {
			var fields map[string]any
			if json.Unmarshal(b, &fields) == nil {
				return map[string]any{"error": fields}
			}
		}
	}

	msg := err.Error()
	if m := bodyRe.FindStringSubmatch(msg); len(m) == 2 {
		var body any
		if json.Unmarshal([]byte(strings.TrimSpace(m[1])), &body) == nil {
			return body
		}
	}
	if m := messageRe.FindStringSubmatch(msg); len(m) == 2 && strings.TrimSpace(m[1]) != "" {
		msg = strings.TrimSpace(m[1])
	}
	return map[string]any{"error": map[string]any{"message": msg}}
}

// classifyError 422 映射为可单独识别的错误，其余统一为通用失败
func classifyError(err error) error {
	if IsUnprocessable(err) {
		return apperrors.ErrLLMUnprocessable.WithDetail(ProviderDetail(err)).WithError(err)
	}
	return apperrors.ErrLLMCallFailed.WithError(err)
}
